package main

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kiwari-pos/storefront/internal/cart"
	"github.com/kiwari-pos/storefront/internal/money"
	"github.com/kiwari-pos/storefront/internal/session"
	"github.com/spf13/cobra"
)

var (
	cartSession    string
	cartRestaurant string
)

// openSessions opens the session storage used by the cart commands.
// Replaced in tests.
var openSessions = func(ctx context.Context) (session.Provider, func(), error) {
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to database: %w", err)
	}
	return session.NewPostgresProvider(pool), pool.Close, nil
}

// cartCmd inspects and edits a session's cart
var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Inspect and edit the cart of a browser session",
	Long: `Inspect and edit the cart a browser session holds for one restaurant.

--session is the value of the "sid" cookie. When omitted, "cart add" starts a
new session and prints its id.`,
}

var cartShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the cart",
	Args:  cobra.NoArgs,
	RunE:  runCartShow,
}

var cartAddCmd = &cobra.Command{
	Use:   "add <menu-item-id>",
	Short: "Add one unit of a menu item",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartAdd,
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <menu-item-id>",
	Short: "Remove a menu item entirely",
	Args:  cobra.ExactArgs(1),
	RunE:  runCartRemove,
}

func init() {
	cartCmd.PersistentFlags().StringVar(&cartSession, "session", "", "Session id")
	cartCmd.PersistentFlags().StringVarP(&cartRestaurant, "restaurant", "r", "", "Restaurant id (required)")
	cartCmd.MarkPersistentFlagRequired("restaurant")

	cartCmd.AddCommand(cartShowCmd)
	cartCmd.AddCommand(cartAddCmd)
	cartCmd.AddCommand(cartRemoveCmd)
}

func runCartShow(cmd *cobra.Command, args []string) error {
	sid, err := session.ParseID(cartSession)
	if err != nil {
		return fmt.Errorf("--session: %w", err)
	}
	return withCart(cmd, sid, func(ctx context.Context, store *cart.Store) error {
		return printCart(cmd, sid, store.Items())
	})
}

func runCartAdd(cmd *cobra.Command, args []string) error {
	sid := session.NewID()
	if cartSession != "" {
		parsed, err := session.ParseID(cartSession)
		if err != nil {
			return fmt.Errorf("--session: %w", err)
		}
		sid = parsed
	}

	return withCart(cmd, sid, func(ctx context.Context, store *cart.Store) error {
		rest, err := apiClient().GetRestaurant(ctx, cartRestaurant)
		if err != nil {
			return err
		}
		item, ok := rest.MenuItem(args[0])
		if !ok {
			return fmt.Errorf("menu item %q not found in restaurant %q", args[0], cartRestaurant)
		}
		return printCart(cmd, sid, store.AddItem(ctx, item))
	})
}

func runCartRemove(cmd *cobra.Command, args []string) error {
	sid, err := session.ParseID(cartSession)
	if err != nil {
		return fmt.Errorf("--session: %w", err)
	}
	return withCart(cmd, sid, func(ctx context.Context, store *cart.Store) error {
		return printCart(cmd, sid, store.RemoveItem(ctx, args[0]))
	})
}

func withCart(cmd *cobra.Command, sid uuid.UUID, fn func(context.Context, *cart.Store) error) error {
	ctx, cancel := commandContext()
	defer cancel()

	sessions, closeFn, err := openSessions(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	store := cart.Open(ctx, sessions.Scope(sid), cartRestaurant, cliLogger())
	return fn(ctx, store)
}

func printCart(cmd *cobra.Command, sid uuid.UUID, items []cart.Item) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "session %s, restaurant %s\n", sid, cartRestaurant)

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tQTY\tPRICE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", it.ID, it.Name, it.Quantity, money.Format(it.UnitPrice))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "subtotal %s\n", money.Format(cart.Subtotal(items)))
	return nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/kiwari-pos/storefront/internal/api"
	"github.com/kiwari-pos/storefront/internal/auth"
	"github.com/kiwari-pos/storefront/internal/config"
	"github.com/kiwari-pos/storefront/internal/notify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	apiBaseURL string
	token      string
	verbose    bool
	timeout    time.Duration

	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storefront",
	Short: "Operate the storefront from the terminal",
	Long: `storefront talks to the same remote API as the web storefront.

Operator commands (orders) need a bearer token, passed with --token or the
STOREFRONT_TOKEN environment variable. Cart commands work on the Postgres
session storage given by DATABASE_URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		l, err := zc.Build()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		logger = l
		return nil
	},
}

func init() {
	cfg = config.Load()

	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", cfg.APIBaseURL, "Remote API base URL (or set API_BASE_URL env)")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("STOREFRONT_TOKEN"), "Bearer token (or set STOREFRONT_TOKEN env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 0, "Operation timeout (0 means none)")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(ordersCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(cartCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// commandContext carries the bearer token and, when --timeout is set,
// bounds the command by it.
func commandContext() (context.Context, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	if token != "" {
		ctx = auth.WithToken(ctx, token)
	}
	return ctx, cancel
}

func apiClient() *api.Client {
	return api.New(apiBaseURL, api.WithLogger(cliLogger().Named("api")))
}

func cliLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

// printer shows notifications on the command's output.
func printer(out io.Writer) notify.Notifier {
	return notify.Func(func(_ context.Context, n notify.Notification) {
		fmt.Fprintf(out, "[%s] %s\n", n.Level, n.Message)
	})
}

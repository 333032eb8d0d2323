package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/kiwari-pos/storefront/internal/money"
	"github.com/kiwari-pos/storefront/internal/search"
	"github.com/spf13/cobra"
)

var (
	searchQuery    string
	searchCuisines []string
	searchSort     string
	searchPage     int
)

// searchCmd runs one restaurant search
var searchCmd = &cobra.Command{
	Use:   "search <city>",
	Short: "Search restaurants in a city",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&searchQuery, "query", "q", "", "Free-text query")
	searchCmd.Flags().StringSliceVar(&searchCuisines, "cuisine", nil, "Cuisine filter (repeatable)")
	searchCmd.Flags().StringVar(&searchSort, "sort", string(search.BestMatch), "Sort option")
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "Result page")
}

func runSearch(cmd *cobra.Command, args []string) error {
	opt, err := search.ParseSortOption(searchSort)
	if err != nil {
		return err
	}
	if searchPage < 1 {
		return fmt.Errorf("page must be at least 1")
	}

	ctrl := search.NewController()
	ctrl.Enter(args[0])
	state := ctrl.Apply(func(s search.State) search.State {
		return s.SetQuery(searchQuery).SetCuisines(searchCuisines).SetSort(opt).SetPage(searchPage)
	})

	ctx, cancel := commandContext()
	defer cancel()

	res, err := apiClient().SearchRestaurants(ctx, ctrl.City(), state)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCUISINES\tDELIVERY\tETA")
	for _, r := range res.Data {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d min\n",
			r.ID, r.RestaurantName, strings.Join(r.Cuisines, ", "), money.Format(r.DeliveryPrice), r.EstimatedDeliveryTime)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "page %d of %d (%d restaurants)\n", res.Pagination.Page, res.Pagination.Pages, res.Pagination.Total)
	return nil
}

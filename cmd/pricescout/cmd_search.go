package main

import (
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"PriceScout/internal/search"
)

var errSearchFailed = errors.New("search failed")

func newSearchCmd(a *app) *cobra.Command {
	var sortKey string

	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Run one search and print the results",
		Example: `  pricescout search gaming laptop
  pricescout search monitor --sort rating`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := parseSortFlag(sortKey)
			if err != nil {
				return err
			}

			view, err := a.view(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctrl, err := a.controller(nil)
			if err != nil {
				return err
			}

			if err := ctrl.Search(cmd.Context(), strings.Join(args, " ")); err != nil {
				view.Message(search.MessageWarning, search.MsgEmptyQuery)
				return err
			}
			ctrl.Wait()
			ctrl.ApplySort(key)

			st := ctrl.Snapshot()
			if st.Phase == search.PhaseError {
				view.Message(search.MessageError, st.Message)
				return errSearchFailed
			}
			view.Render(st.Ordered)
			if st.Message != "" {
				view.Message(search.MessageInfo, st.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sortKey, "sort", "s", "", "order: price-asc, price-desc, rating or store")
	return cmd
}

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"PriceScout/internal/product"
	"PriceScout/internal/search"
	"PriceScout/internal/termview"
)

const shellHelp = `Type a product name to search. Commands:
  :sort <key>   re-order results (price-asc, price-desc, rating, store)
  :help         show this help
  :quit         leave`

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Search interactively; results appear as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			view, err := a.view(cmd.OutOrStdout())
			if err != nil {
				return err
			}
			ctrl, err := a.controller(view)
			if err != nil {
				return err
			}
			defer ctrl.Wait()

			view.Text(shellHelp)
			return runShell(cmd, ctrl, view, cmd.InOrStdin())
		},
	}
}

func runShell(cmd *cobra.Command, ctrl *search.Controller, view *termview.View, in io.Reader) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		switch {
		case line == ":quit" || line == ":q":
			return nil
		case line == ":help":
			view.Text(shellHelp)
		case strings.HasPrefix(line, ":sort"):
			key, err := product.ParseSortKey(strings.TrimSpace(strings.TrimPrefix(line, ":sort")))
			if err != nil {
				view.Message(search.MessageWarning, fmt.Sprintf("%v; choose one of %v", err, product.SortKeys()))
				continue
			}
			ctrl.Wait()
			ctrl.ApplySort(key)
		case strings.HasPrefix(line, ":"):
			view.Message(search.MessageWarning, "unknown command "+line+"; try :help")
		default:
			_ = ctrl.Search(cmd.Context(), line)
		}
	}
	return sc.Err()
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"PriceScout/internal/catalogapi"
	"PriceScout/internal/config"
	"PriceScout/internal/product"
	"PriceScout/internal/search"
	"PriceScout/internal/termview"
	"PriceScout/pkg/kit"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app holds what the subcommands share once flags and env are resolved.
type app struct {
	cfg *config.Config
	log *zap.Logger
	tag language.Tag
}

type rootFlags struct {
	catalogURL string
	locale     string
	currency   string
	logLevel   string
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	var (
		flags rootFlags
		a     app
	)

	root := &cobra.Command{
		Use:   "pricescout",
		Short: "Search a product catalog and compare prices across stores",
		Long: `pricescout queries the catalog search API and shows matching products
as cards, cheapest first. Settings come from the environment (CATALOG_URL,
LOCALE, CURRENCY, LOG_LEVEL, CATALOG_TOKEN_SECRET); flags override them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd, flags)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.catalogURL, "catalog-url", "", "catalog base URL (default $CATALOG_URL)")
	pf.StringVar(&flags.locale, "locale", "", "BCP 47 locale for prices and store ordering (default $LOCALE)")
	pf.StringVar(&flags.currency, "currency", "", "ISO 4217 currency for prices (default $CURRENCY)")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level written to stderr (default warn)")
	pf.DurationVar(&flags.timeout, "timeout", 0, "catalog request timeout (default $CATALOG_TIMEOUT)")

	root.AddCommand(newSearchCmd(&a), newShellCmd(&a))
	return root
}

func (a *app) init(cmd *cobra.Command, f rootFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pf := cmd.Flags()
	if pf.Changed("catalog-url") {
		cfg.CatalogURL = f.catalogURL
	}
	if pf.Changed("locale") {
		cfg.Locale = f.locale
	}
	if pf.Changed("currency") {
		cfg.Currency = f.currency
	}
	if pf.Changed("timeout") {
		cfg.CatalogTimeout = f.timeout
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := kit.NewConsoleLogger(f.logLevel)
	if err != nil {
		return err
	}

	tag, err := cfg.LanguageTag()
	if err != nil {
		return err
	}

	a.cfg, a.log, a.tag = cfg, log, tag
	return nil
}

func (a *app) view(out io.Writer) (*termview.View, error) {
	unit, err := a.cfg.CurrencyUnit()
	if err != nil {
		return nil, err
	}
	return termview.New(out, termview.Options{Locale: a.tag, Currency: unit}), nil
}

func (a *app) controller(view search.View) (*search.Controller, error) {
	client := catalogapi.NewClient(a.cfg.CatalogURL, a.cfg.CatalogTimeout)
	client.Log = a.log.Named("catalog")
	if a.cfg.CatalogTokenSecret != "" {
		client.Tokens = catalogapi.NewTokenMaker(a.cfg.CatalogTokenSecret, "pricescout")
	}

	return search.NewController(search.Deps{
		API:    client,
		View:   view,
		Sorter: product.NewSorter(a.tag),
		Log:    a.log,
	})
}

func parseSortFlag(raw string) (product.SortKey, error) {
	if raw == "" {
		return product.DefaultSortKey, nil
	}
	key, err := product.ParseSortKey(raw)
	if err != nil {
		return "", fmt.Errorf("%w (choose one of %v)", err, product.SortKeys())
	}
	return key, nil
}

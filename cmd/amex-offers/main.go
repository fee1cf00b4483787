// Command amex-offers adds every available Amex offer to every card linked
// to the login.
//
// Usage:
//
//	amex-offers run                 # log in, add all offers, write results
//	amex-offers run --dry-run       # list cards and offers, add nothing
//	amex-offers cards               # list the linked cards
//	amex-offers scan --fixture page.html
//	amex-offers init-config
//	amex-offers env
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/grez-lucas/amex-offers/internal/config"
	"github.com/grez-lucas/amex-offers/internal/logger"
	"github.com/grez-lucas/amex-offers/internal/scraper/offers"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	envFile    string
	debug      bool

	cfg       *config.Config
	selectors offers.SelectorConfig
	logger    zerolog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "amex-offers",
		Short:         "Add every available Amex offer to every linked card",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Annotations["skipConfig"] == "true" {
				return nil
			}
			return a.setup(cmd.ErrOrStderr())
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "config file, created with defaults when missing")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file with credentials")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "debug logging")

	root.AddCommand(
		newRunCmd(a),
		newCardsCmd(a),
		newScanCmd(a),
		newInitConfigCmd(a),
		newEnvCmd(),
	)
	return root
}

// setup loads the dotenv file, the config and the selectors, and builds the
// logger.
func (a *app) setup(logOut io.Writer) error {
	if a.envFile != "" {
		if err := godotenv.Load(a.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", a.envFile, err)
		}
	}

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = logger.New(logger.Options{
		Debug:  a.debug || cfg.Debug,
		JSON:   cfg.LogJSON,
		Writer: logOut,
	})

	sel, err := cfg.Selectors()
	if err != nil {
		return fmt.Errorf("load selectors: %w", err)
	}
	if err := sel.Validate(); err != nil {
		return err
	}
	a.selectors = sel

	a.logger.Debug().Str("config", a.configPath).Msg("configuration loaded")
	return nil
}

package main

import (
	"fmt"

	"github.com/grez-lucas/amex-offers/internal/config"
	"github.com/spf13/cobra"
)

func newInitConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "init-config",
		Short:       "Write the default configuration file",
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.Default().Save(a.configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", a.configPath)
			return nil
		},
	}
}

func newEnvCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "env",
		Short:       "List the environment variables read by the config",
		Annotations: map[string]string{"skipConfig": "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			desc, err := config.Describe()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), desc)
			return nil
		},
	}
}

package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/bilgisen/postcraft/internal/commerce"
	"github.com/bilgisen/postcraft/internal/config"
	"github.com/bilgisen/postcraft/internal/settings"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the equipment catalog",
}

var catalogSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Copy published WooCommerce products into CMS equipment documents",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.ScopeCatalog); err != nil {
			return err
		}

		result, err := commerce.NewSyncer(newCommerce(cfg), newCMS(cfg)).Sync(cmd.Context())
		if err != nil {
			return err
		}
		return json.NewEncoder(os.Stdout).Encode(map[string]int{
			"products": result.Products,
			"written":  result.Written,
			"invalid":  len(result.Invalid),
		})
	},
}

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage the settings documents stored in the CMS",
}

var settingsSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default settings documents that are missing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(config.ScopeSeed); err != nil {
			return err
		}

		results, err := settings.NewLoader(newCMS(cfg)).Seed(cmd.Context())
		if encErr := json.NewEncoder(os.Stdout).Encode(results); encErr != nil && err == nil {
			err = encErr
		}
		return err
	},
}

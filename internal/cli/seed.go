package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pzyt/crystal-healing/internal/infra/sqlite"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load the built-in crystal catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := sqlite.Open(cfg.Database.Dir)
		if err != nil {
			return err
		}
		defer store.Close()

		inserted, err := store.SeedCrystals()
		if err != nil {
			return err
		}
		fmt.Printf("seeded %d crystals\n", inserted)
		return nil
	},
}

package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kinbook/lineage/internal/db"
	"github.com/kinbook/lineage/internal/util"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		if databaseURL == "" {
			databaseURL = util.GetEnvString("DATABASE_URL", "")
		}
		if databaseURL == "" {
			return errors.New("a database URL is required, pass --database-url or set DATABASE_URL")
		}

		if err := db.Migrate(databaseURL, migrationsDir); err != nil {
			return err
		}
		fmt.Println("migrations applied")
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&databaseURL, "database-url", "", "Postgres connection string (defaults to DATABASE_URL)")
	migrateCmd.Flags().StringVar(&migrationsDir, "migrations-dir", "migrations", "directory holding the migration files")
	rootCmd.AddCommand(migrateCmd)
}

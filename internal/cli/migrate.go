package cli

import (
	"fmt"
	"os"

	"github.com/Himanshujchavan/GROQPILOT/internal/config"
	internal_storage "github.com/Himanshujchavan/GROQPILOT/internal/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// SetupMigrateCLI registers only the migrate command, for the standalone
// migration binary.
func SetupMigrateCLI(rootCmd *cobra.Command) {
	opts := &rootOptions{}
	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path")
	rootCmd.SilenceUsage = true
	rootCmd.AddCommand(newMigrateCommand(opts))
}

// newMigrateCommand applies the SQL schema for the configured storage driver.
func newMigrateCommand(opts *rootOptions) *cobra.Command {
	var (
		driver string
		dsn    string
	)
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if driver == "" {
				driver = cfg.Storage.Driver
			}
			if dsn == "" {
				dsn = cfg.Storage.DSN
			}
			if dsn == "" && driver == internal_storage.DriverPostgres {
				dsn, err = postgresDSNFromEnv()
				if err != nil {
					return err
				}
			}
			if driver == internal_storage.DriverMemory {
				return errors.New("the memory store has no schema, set --driver to sqlite or postgres")
			}

			store, err := internal_storage.NewSQLStore(driver, dsn)
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.Migrate(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied successfully")
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "storage driver: sqlite or postgres (default storage.driver)")
	cmd.Flags().StringVar(&dsn, "db", "", "database connection string (optional if DB_* env vars are set)")
	return cmd
}

// postgresDSNFromEnv builds a connection string from DB_USERNAME, DB_PASSWORD,
// DB_HOST, DB_PORT and DB_NAME.
func postgresDSNFromEnv() (string, error) {
	user := os.Getenv("DB_USERNAME")
	password := os.Getenv("DB_PASSWORD")
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	name := os.Getenv("DB_NAME")
	if user == "" || password == "" || host == "" || port == "" || name == "" {
		return "", errors.New("--db flag or complete DB_* env vars (DB_USERNAME, DB_PASSWORD, DB_HOST, DB_PORT, DB_NAME) required")
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name), nil
}

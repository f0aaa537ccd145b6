package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"panellicense/config"
	"panellicense/database"
	"panellicense/logger"
	"panellicense/services"
)

// Version is stamped at build time with -ldflags "-X panellicense/cli.Version=...".
var Version = "dev"

// cliActor is recorded as the actor of lifecycle events issued from the command line.
const cliActor = "cli"

// NewRootCommand assembles the panellicense command tree.
func NewRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "panellicense",
		Short:         "License authority for hosting panel installations",
		Version:       Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	root.PersistentFlags().String("config", "", "path to config file (default ./config.yaml or ./configs/config.yaml)")

	root.AddCommand(
		newServeCommand(),
		newMigrateCommand(),
		newLicenseCommand(),
		newTokenCommand(),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(path)
}

func initLogger(cfg *config.Config) error {
	return logger.Initialize(logger.Config{
		Level:      logger.ParseLevel(cfg.Logger.Level),
		Format:     cfg.Logger.Format,
		OutputPath: cfg.Logger.OutputPath,
		UseColor:   true,
	})
}

// openDatabase opens the configured database and makes sure the schema exists.
func openDatabase(ctx context.Context, cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxOpenConns)
	if err != nil {
		return nil, err
	}
	if err := database.CreateTables(ctx, db, cfg.Database.Driver); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// runtime is what the one-shot commands need to talk to the license store.
type runtime struct {
	db        *sql.DB
	store     *services.SQLLicenseStore
	authority *services.LicenseAuthority
}

func openRuntime(cmd *cobra.Command) (*runtime, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if err := initLogger(cfg); err != nil {
		return nil, err
	}

	db, err := openDatabase(cmd.Context(), cfg)
	if err != nil {
		return nil, err
	}

	exec := services.NewSQLExecutor(db)
	store := services.NewSQLLicenseStore(exec)
	return &runtime{
		db:    db,
		store: store,
		authority: services.NewLicenseAuthority(store,
			services.WithGracePeriod(cfg.License.GracePeriod),
			services.WithActivityLog(services.NewSQLActivityLog(exec)),
		),
	}, nil
}

func (r *runtime) Close() error {
	return r.db.Close()
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

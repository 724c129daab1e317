package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ev-route-service/internal/adapters/repositories"
	"ev-route-service/internal/config"
	"ev-route-service/internal/platform/db"
	"ev-route-service/internal/platform/logger"
	"ev-route-service/internal/ports"
)

type dbFlags struct {
	dialect string
	dsn     string
}

func main() {
	log := logger.New("dbtool")
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("no .env file found (using environment variables)")
	}

	if err := newRootCmd(log).Execute(); err != nil {
		log.Error().Err(err).Msg("dbtool failed")
		os.Exit(1)
	}
}

func newRootCmd(log zerolog.Logger) *cobra.Command {
	flags := &dbFlags{}

	root := &cobra.Command{
		Use:           "dbtool",
		Short:         "Manage the station database schema and seed data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultDialect := config.DialectSQLite
	defaultDSN := config.Get("DB_PATH", "data/app.db")
	if url := config.Get("DATABASE_URL", ""); url != "" {
		defaultDialect, defaultDSN = config.DialectPostgres, url
	}
	root.PersistentFlags().StringVar(&flags.dialect, "dialect", config.Get("DB_DIALECT", defaultDialect), "database dialect: sqlite or postgres")
	root.PersistentFlags().StringVar(&flags.dsn, "dsn", defaultDSN, "sqlite file path or postgres URL")

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Create tables and indexes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(flags, func(conn *sql.DB) error {
				log.Info().Str("dialect", flags.dialect).Msg("initializing database schema")
				if err := repositories.InitSchema(cmd.Context(), conn, flags.dialect); err != nil {
					return fmt.Errorf("schema initialization failed: %w", err)
				}
				log.Info().Msg("schema ready")
				return nil
			})
		},
	}

	var seedPath string
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the schema if needed and upsert stations from a seed file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(flags, func(conn *sql.DB) error {
				return seed(cmd.Context(), log, conn, flags.dialect, seedPath)
			})
		},
	}
	seedCmd.Flags().StringVarP(&seedPath, "file", "f", config.Get("SEED_PATH", "data/seeds/stations.json"), "station seed JSON file")

	root.AddCommand(initCmd, seedCmd)
	return root
}

func withDB(flags *dbFlags, fn func(conn *sql.DB) error) error {
	conn, err := db.Open(flags.dialect, flags.dsn)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

func seed(ctx context.Context, log zerolog.Logger, conn *sql.DB, dialect, path string) error {
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return fmt.Errorf("schema initialization failed: %w", err)
	}

	var repo ports.StationRepository
	if dialect == config.DialectPostgres {
		repo = repositories.NewSQLStationRepository(conn)
	} else {
		repo = repositories.NewSqliteStationRepository(conn)
	}

	log.Info().Str("path", path).Msg("seeding stations")
	n, err := repositories.SeedStations(ctx, repo, path)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.Info().Int("stations", n).Msg("seeding complete")
	return nil
}

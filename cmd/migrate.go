package cmd

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"campus-events-backend/config"
	"campus-events-backend/database"
	"campus-events-backend/logging"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mongodb"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Applique les migrations de données MongoDB",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Applique toutes les migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(func(m *migrate.Migrate) error { return m.Up() })
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Annule la dernière migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrations(func(m *migrate.Migrate) error { return m.Steps(-1) })
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
}

func runMigrations(apply func(*migrate.Migrate) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.Init(cfg.Environment, cfg.LogLevel)

	source, err := iofs.New(database.Migrations, "migrations")
	if err != nil {
		return fmt.Errorf("lecture des migrations embarquées: %w", err)
	}

	dsn, err := mongoMigrationURL(cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return err
	}

	migrator, err := migrate.NewWithSourceInstance("iofs", source, dsn)
	if err != nil {
		return fmt.Errorf("initialisation du migrateur: %w", err)
	}
	defer func() {
		_, _ = migrator.Close()
	}()

	if err := apply(migrator); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info().Msg("✓ Aucune migration à appliquer")
			return nil
		}
		return fmt.Errorf("migration: %w", err)
	}

	version, dirty, _ := migrator.Version()
	log.Info().Uint("version", version).Bool("dirty", dirty).Msg("✓ Migrations appliquées")
	return nil
}

// mongoMigrationURL place le nom de la base dans le chemin de l'URI, comme l'attend le driver de migration
func mongoMigrationURL(uri, dbName string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("MONGO_URI invalide: %w", err)
	}
	if strings.Trim(u.Path, "/") == "" {
		u.Path = "/" + dbName
	}
	return u.String(), nil
}

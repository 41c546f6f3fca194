package cli

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"mini-lms/internal/config"
	pgmigrations "mini-lms/internal/infra/postgres/migrations"
	"mini-lms/internal/logging"
)

var errNoPostgres = errors.New("postgres url is not configured")

type migrationStep func(ctx context.Context, m *migrate.Migrator, log logrus.FieldLogger) error

// NewMigrateCmd applies pending schema migrations. The status and rollback
// subcommands inspect or undo the most recent group.
func NewMigrateCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrationStep(cmd.Context(), *configPath, migrateUp)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "status",
			Short: "List migrations and whether they are applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrationStep(cmd.Context(), *configPath, migrationStatus)
			},
		},
		&cobra.Command{
			Use:   "rollback",
			Short: "Roll back the last migration group",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrationStep(cmd.Context(), *configPath, migrateRollback)
			},
		},
	)
	return cmd
}

func runMigrationStep(ctx context.Context, configPath string, step migrationStep) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	return withMigrator(ctx, cfg, logging.New(cfg.Log.Level, cfg.Log.Format), step)
}

// applyMigrations brings the schema up to date before the server starts.
func applyMigrations(ctx context.Context, cfg config.Config, log logrus.FieldLogger) error {
	return withMigrator(ctx, cfg, log, migrateUp)
}

func withMigrator(ctx context.Context, cfg config.Config, log logrus.FieldLogger, step migrationStep) error {
	if cfg.Postgres.URL == "" {
		return errNoPostgres
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Postgres.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		return errors.Wrap(err, "init migration tables")
	}
	return step(ctx, migrator, log)
}

func migrateUp(ctx context.Context, m *migrate.Migrator, log logrus.FieldLogger) error {
	group, err := m.Migrate(ctx)
	if err != nil {
		return errors.Wrap(err, "apply migrations")
	}
	if group.IsZero() {
		log.Info("database schema is up to date")
		return nil
	}
	log.WithField("group", group.String()).Info("migrations applied")
	return nil
}

func migrateRollback(ctx context.Context, m *migrate.Migrator, log logrus.FieldLogger) error {
	group, err := m.Rollback(ctx)
	if err != nil {
		return errors.Wrap(err, "roll back migrations")
	}
	if group.IsZero() {
		log.Info("no migration group to roll back")
		return nil
	}
	log.WithField("group", group.String()).Info("migrations rolled back")
	return nil
}

func migrationStatus(ctx context.Context, m *migrate.Migrator, log logrus.FieldLogger) error {
	ms, err := m.MigrationsWithStatus(ctx)
	if err != nil {
		return errors.Wrap(err, "read migration status")
	}
	for _, mig := range ms {
		log.WithFields(logrus.Fields{
			"migration": mig.Name,
			"applied":   mig.IsApplied(),
			"group_id":  mig.GroupID,
		}).Info("migration")
	}
	log.WithField("pending", len(ms.Unapplied())).Info("migration status")
	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/database"
)

var cmdMigrate = &cli.Command{
	Name:  "migrate",
	Usage: "Database migration commands",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "database-url",
			Sources: cli.EnvVars("DATABASE_URL"),
			Usage:   "PostgreSQL connection string, defaults to the configured database",
		},
		&cli.StringFlag{
			Name:  "path",
			Usage: "directory holding the migration files",
		},
	},
	Commands: []*cli.Command{
		{
			Name:   "up",
			Usage:  "Run all pending migrations",
			Action: migrateUp,
		},
		{
			Name:   "down",
			Usage:  "Roll back every migration",
			Action: migrateDown,
		},
		{
			Name:   "reset",
			Usage:  "Roll back and reapply every migration",
			Action: migrateReset,
		},
		{
			Name:   "version",
			Usage:  "Print the current version of the database",
			Action: migrateVersion,
		},
	},
}

func getMigrationRunner(cmd *cli.Command) (*database.MigrationRunner, error) {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return nil, err
	}
	dbCfg := env.config.GetConfig().Database

	databaseURL := cmd.String("database-url")
	if databaseURL == "" {
		databaseURL = database.ConfigFrom(dbCfg).URL()
	}
	path := cmd.String("path")
	if path == "" {
		path = dbCfg.MigrationsPath
	}
	return database.NewMigrationRunner(databaseURL, path, env.logger)
}

func migrateUp(ctx context.Context, cmd *cli.Command) error {
	mr, err := getMigrationRunner(cmd)
	if err != nil {
		return err
	}
	defer mr.Close()
	return mr.Up()
}

func migrateDown(ctx context.Context, cmd *cli.Command) error {
	mr, err := getMigrationRunner(cmd)
	if err != nil {
		return err
	}
	defer mr.Close()
	return mr.Down()
}

func migrateReset(ctx context.Context, cmd *cli.Command) error {
	mr, err := getMigrationRunner(cmd)
	if err != nil {
		return err
	}
	defer mr.Close()
	return mr.Reset()
}

func migrateVersion(ctx context.Context, cmd *cli.Command) error {
	mr, err := getMigrationRunner(cmd)
	if err != nil {
		return err
	}
	defer mr.Close()

	version, dirty, err := mr.Version()
	if err != nil {
		return err
	}
	fmt.Printf("version: %d dirty: %t\n", version, dirty)
	return nil
}

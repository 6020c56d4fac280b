package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/background"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/database"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/domain"
)

var cmdBackground = &cli.Command{
	Name:  "background",
	Usage: "Manage background variant rate tables",
	Commands: []*cli.Command{
		{
			Name:      "import",
			Usage:     "Load a background rate TSV into PostgreSQL",
			ArgsUsage: "<background.tsv>",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "build",
					Usage:    "genome build of the table, hg19 or hg38",
					Required: true,
				},
			},
			Action: backgroundImport,
		},
	},
}

func backgroundImport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("exactly one rate file is required")
	}
	build, err := domain.ParseGenomeBuild(cmd.String("build"))
	if err != nil {
		return err
	}

	f, err := os.Open(cmd.Args().First())
	if err != nil {
		return fmt.Errorf("failed to open rate file: %w", err)
	}
	defer f.Close()
	rates, err := background.ParseRates(f)
	if err != nil {
		return err
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	db, err := database.NewConnection(ctx, database.ConfigFrom(env.config.GetConfig().Database), env.logger)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := background.NewPostgresProvider(db.Pool, env.logger).Import(ctx, build, rates)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d rates for %s\n", n, build)
	return nil
}

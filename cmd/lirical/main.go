package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"
)

var version = "1.0.0"

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "lirical",
		Usage:   "Likelihood ratio interpretation of clinical abnormalities",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Sources: cli.EnvVars("LIRICAL_CONFIG"),
				Usage:   "path to a YAML configuration file",
			},
			&cli.StringFlag{
				Name:  "data-dir",
				Usage: "directory holding hp.json, phenotype.hpoa, genes_to_disease.txt and background tables",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "trace, debug, info, warn or error",
			},
		},
		Commands: []*cli.Command{
			cmdPrioritize,
			cmdServe,
			cmdMCP,
			cmdMigrate,
			cmdBackground,
			cmdRuns,
			cmdSetup,
		},
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

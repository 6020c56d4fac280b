package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/patient"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/report"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/results"
	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/service"
)

var cmdPrioritize = &cli.Command{
	Name:      "prioritize",
	Usage:     "Rank diseases for one patient file",
	ArgsUsage: "<patient.yaml>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "write the report to this file instead of stdout",
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "report format, tsv or json",
			Value: "tsv",
		},
		&cli.IntFlag{
			Name:  "top",
			Usage: "number of diseases in a TSV report, 0 for all",
			Value: 0,
		},
		&cli.StringFlag{
			Name:  "genome-build",
			Usage: "hg19 or hg38",
		},
		&cli.StringSliceFlag{
			Name:  "database",
			Usage: "disease database prefix to include, repeatable (OMIM, ORPHA, DECIPHER)",
		},
		&cli.FloatFlag{
			Name:  "pathogenicity-threshold",
			Usage: "minimum pathogenicity of a variant counted as deleterious",
		},
		&cli.FloatFlag{
			Name:  "background-frequency",
			Usage: "background frequency of deleterious variants in genes without a rate",
		},
		&cli.BoolFlag{
			Name:  "strict",
			Usage: "score pathogenic allele counts above the disease rate heuristically and treat onset boundary overlaps as not observable",
		},
		&cli.BoolFlag{
			Name:  "global",
			Usage: "score diseases without an associated gene",
		},
		&cli.BoolFlag{
			Name:  "disregard-no-deleterious",
			Usage: "drop diseases none of whose genes carries a deleterious variant",
		},
		&cli.BoolFlag{
			Name:  "use-onset",
			Usage: "score the age of the patient against disease onset",
		},
		&cli.IntFlag{
			Name:  "workers",
			Usage: "number of diseases scored in parallel",
		},
		&cli.BoolFlag{
			Name:  "archive",
			Usage: "save the run to the configured result archive",
		},
	},
	Action: runPrioritize,
}

func runPrioritize(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("exactly one patient file is required")
	}
	format := cmd.String("format")
	if format != "tsv" && format != "json" {
		return fmt.Errorf("unsupported format %q", format)
	}

	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	file, err := patient.LoadFile(cmd.Args().First())
	if err != nil {
		return err
	}

	ref, err := env.loadReference(ctx)
	if err != nil {
		return err
	}
	defer ref.Close()

	runner, defaults, err := env.newRunner(ref)
	if err != nil {
		return err
	}
	if cmd.IsSet("workers") {
		defaults.Workers = int(cmd.Int("workers"))
	}

	var store results.Store
	if cmd.Bool("archive") {
		if store, err = env.openStore(); err != nil {
			return err
		}
		if store != nil {
			defer store.Close()
		}
	}

	svc := service.NewAnalysisService(env.logger, runner, ref.diseases, defaults, store, nil)
	resp, err := svc.Analyze(ctx, &service.AnalysisRequest{
		Patient: *file,
		Options: overridesFrom(cmd),
	})
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if path := cmd.String("output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create report: %w", err)
		}
		defer f.Close()
		out = f
	}

	if format == "json" {
		return report.WriteJSON(out, resp.Results)
	}
	return report.WriteTSV(out, resp.Results, int(cmd.Int("top")))
}

// overridesFrom collects the option flags given on the command line.
func overridesFrom(cmd *cli.Command) *service.OptionOverrides {
	o := &service.OptionOverrides{}
	if cmd.IsSet("genome-build") {
		build := cmd.String("genome-build")
		o.GenomeBuild = &build
	}
	if cmd.IsSet("database") {
		o.DiseaseDatabases = cmd.StringSlice("database")
	}
	if cmd.IsSet("pathogenicity-threshold") {
		v := cmd.Float("pathogenicity-threshold")
		o.PathogenicityThreshold = &v
	}
	if cmd.IsSet("background-frequency") {
		v := cmd.Float("background-frequency")
		o.DefaultVariantBackgroundFrequency = &v
	}
	for name, target := range map[string]**bool{
		"strict":                   &o.Strict,
		"global":                   &o.Global,
		"disregard-no-deleterious": &o.DisregardNoDeleteriousVariants,
		"use-onset":                &o.UseOnset,
	} {
		if cmd.IsSet(name) {
			v := cmd.Bool(name)
			*target = &v
		}
	}
	return o
}

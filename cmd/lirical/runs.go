package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/TheJacksonLaboratory/LIRICAL-sub003/internal/results"
)

var cmdRuns = &cli.Command{
	Name:  "runs",
	Usage: "Inspect and move archived analysis runs",
	Commands: []*cli.Command{
		{
			Name:  "list",
			Usage: "List archived runs, newest first",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: "limit", Value: 20, Usage: "maximum number of runs"},
				&cli.IntFlag{Name: "offset", Usage: "runs to skip"},
			},
			Action: runsList,
		},
		{
			Name:  "export",
			Usage: "Write every archived run as JSON",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "file to write, defaults to stdout"},
			},
			Action: runsExport,
		},
		{
			Name:      "import",
			Usage:     "Load runs written by export, skipping known ids",
			ArgsUsage: "<runs.json>",
			Action:    runsImport,
		},
		{
			Name:      "delete",
			Usage:     "Remove one archived run",
			ArgsUsage: "<run-id>",
			Action:    runsDelete,
		},
	},
}

func withStore(cmd *cli.Command, fn func(results.Store) error) error {
	env, err := loadEnvironment(cmd)
	if err != nil {
		return err
	}
	store, err := env.openStore()
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("no result archive is configured")
	}
	defer store.Close()
	return fn(store)
}

func runsList(ctx context.Context, cmd *cli.Command) error {
	return withStore(cmd, func(store results.Store) error {
		records, err := store.List(ctx, int(cmd.Int("limit")), int(cmd.Int("offset")))
		if err != nil {
			return err
		}
		return writeRunTable(os.Stdout, records)
	})
}

func writeRunTable(w io.Writer, records []*results.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSAMPLE\tBUILD\tSTATUS\tTOP DISEASE\tPOSTTEST\tCREATED")
	for _, r := range records {
		posttest := ""
		if r.Status == results.StatusCompleted {
			posttest = strconv.FormatFloat(r.TopPosttest, 'g', 4, 64)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.SampleID, r.GenomeBuild, r.Status, r.TopDiseaseID, posttest, r.CreatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}

func runsExport(ctx context.Context, cmd *cli.Command) error {
	return withStore(cmd, func(store results.Store) error {
		var out io.Writer = os.Stdout
		if path := cmd.String("output"); path != "" {
			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create export file: %w", err)
			}
			defer f.Close()
			out = f
		}
		return store.ExportJSON(ctx, out)
	})
}

func runsImport(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("exactly one export file is required")
	}
	return withStore(cmd, func(store results.Store) error {
		f, err := os.Open(cmd.Args().First())
		if err != nil {
			return fmt.Errorf("failed to open export file: %w", err)
		}
		defer f.Close()

		imported, skipped, err := store.ImportJSON(ctx, f)
		if err != nil {
			return err
		}
		fmt.Printf("imported %d runs, skipped %d\n", imported, skipped)
		return nil
	})
}

func runsDelete(ctx context.Context, cmd *cli.Command) error {
	if cmd.Args().Len() != 1 {
		return fmt.Errorf("exactly one run id is required")
	}
	return withStore(cmd, func(store results.Store) error {
		return store.Delete(ctx, cmd.Args().First())
	})
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"github.com/chazu/stackvm/pkg/runstore"
)

// runHistory processes the `stackvm history` subcommand.
func runHistory(args []string, stdout io.Writer) error {
	fs := newFlagSet("history", "")
	dbPath := fs.String("db", "", "SQLite database written by serve -db (required)")
	limit := fs.Int("n", 20, "Number of runs to show (0: all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dbPath == "" {
		fs.Usage()
		return fmt.Errorf("history requires -db")
	}
	// Opening a missing path would create an empty database.
	if _, err := os.Stat(*dbPath); err != nil {
		return fmt.Errorf("no run database at %s: %w", *dbPath, err)
	}

	store, err := runstore.Open(*dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(context.Background(), *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "No runs recorded")
		return nil
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tWHEN\tPROGRAM\tINSTRUCTIONS\tSTEPS\tSTATUS")
	for _, r := range runs {
		status := "ok"
		if r.Error != "" {
			status = r.Error
		}
		fmt.Fprintf(tw, "%s\t%s\t%.12s\t%s\t%s\t%s\n",
			r.ID, humanize.Time(r.CreatedAt), r.ProgramSHA256,
			humanize.Comma(int64(r.Instructions)), humanize.Comma(int64(r.Steps)), status)
	}
	return tw.Flush()
}

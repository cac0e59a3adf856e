package main

import (
	"fmt"
	"io"

	"github.com/chazu/stackvm/pkg/runstore"
	"github.com/chazu/stackvm/server"
)

// runServe processes the `stackvm serve` subcommand.
func runServe(args []string, stdout io.Writer) error {
	fs := newFlagSet("serve", "")
	addr := fs.String("addr", ":4680", "Listen address")
	dbPath := fs.String("db", "", "Record runs in this SQLite database")
	workers := fs.Int("workers", 0, "Interpreter goroutines (0: GOMAXPROCS)")
	maxSteps := fs.Int("max-steps", 0, "Default step limit for requests (0: no limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opts := []server.Option{server.WithStepLimit(*maxSteps)}
	if *workers > 0 {
		opts = append(opts, server.WithWorkers(*workers))
	}
	if *dbPath != "" {
		store, err := runstore.Open(*dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		opts = append(opts, server.WithRunStore(store))
	}

	srv := server.New(opts...)
	defer srv.Stop()
	fmt.Fprintf(stdout, "stackvm server listening on %s\n", *addr)
	return srv.ListenAndServe(*addr)
}

// runLSP processes the `stackvm lsp` subcommand.
func runLSP(args []string, stdout io.Writer) error {
	fs := newFlagSet("lsp", "")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return server.NewLSP().Run()
}

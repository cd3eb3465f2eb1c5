package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hupe1980/gisdb"
	"github.com/hupe1980/gisdb/internal/script"
)

func newRunCmd(a *app) *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "run <dbFile> <scriptFile> <logFile>",
		Short: "Execute a command script and write the results to a log file.",
		Long: `Execute a command script against a database file.

The database file is truncated first unless --keep is set, in which case
its records are re-indexed once the script sets the world boundary.`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) (retErr error) {
			ctx := cmd.Context()
			dbFile, scriptFile, logFile := args[0], args[1], args[2]

			in, err := os.Open(scriptFile)
			if err != nil {
				return fmt.Errorf("open script: %w", err)
			}
			defer in.Close()

			out, err := os.Create(logFile)
			if err != nil {
				return fmt.Errorf("create log: %w", err)
			}
			defer func() {
				retErr = errors.Join(retErr, out.Close())
			}()

			mc, stopMetrics, err := a.metrics(ctx)
			if err != nil {
				return err
			}
			defer stopMetrics()

			opts := a.cfg.options(a.logger, mc)
			if !keep {
				opts = append(opts, gisdb.WithRecreate())
			}

			db, err := gisdb.Open(ctx, gisdb.Local(dbFile), opts...)
			if err != nil {
				return err
			}
			defer func() {
				retErr = errors.Join(retErr, db.Close())
			}()

			runner := script.NewRunner(db, out, script.Files{
				DB:     dbFile,
				Script: scriptFile,
				Log:    logFile,
			}, script.WithLogger(a.logger), script.WithRebuild(keep))

			summary, err := runner.Run(ctx, in)
			if err != nil {
				return err
			}

			a.logger.InfoContext(ctx, "script finished",
				"commands", summary.Commands,
				"comments", summary.Comments,
				"skipped", summary.Skipped,
				"quit", summary.Quit,
			)
			return nil
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep existing records in the database file.")
	return cmd
}

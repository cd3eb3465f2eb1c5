package script

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/hupe1980/gisdb"
	"github.com/hupe1980/gisdb/internal/lineio"
	"github.com/hupe1980/gisdb/record"
)

// Separator ends the log output of every command.
var Separator = strings.Repeat("-", 80) + "\n"

// Files names the files printed in the log header.
type Files struct {
	DB, Script, Log string
}

// Summary counts what a Run did.
type Summary struct {
	Commands int
	Comments int
	Skipped  int
	Quit     bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger for skipped commands and query failures.
func WithLogger(l *gisdb.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithRebuild re-indexes the records already in the backing store every time
// a world command succeeds.
func WithRebuild(enabled bool) Option {
	return func(r *Runner) {
		r.rebuild = enabled
	}
}

// Runner executes a script against a DB.
type Runner struct {
	db      *gisdb.DB
	files   Files
	logger  *gisdb.Logger
	rebuild bool
	w       *bufio.Writer
}

// NewRunner creates a Runner writing its log to out.
func NewRunner(db *gisdb.DB, out io.Writer, files Files, opts ...Option) *Runner {
	r := &Runner{db: db, files: files, logger: gisdb.NoopLogger(), w: bufio.NewWriter(out)}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes script until it ends or a quit command. Invalid commands are
// logged and skipped. Only log write failures and context cancellation stop a
// run early.
func (r *Runner) Run(ctx context.Context, script io.Reader) (Summary, error) {
	var sum Summary

	sc := lineio.NewScanner(script, 0)
	for lineNo := 1; sc.Scan(); lineNo++ {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		line := sc.Line()
		if strings.TrimSpace(line) == "" {
			continue
		}

		cmd, err := Parse(line)
		if err != nil {
			sum.Skipped++
			r.logger.WarnContext(ctx, "skipping command", "line", lineNo, "error", err)
			continue
		}

		if cmd.Kind == Comment {
			sum.Comments++
		} else {
			sum.Commands++
		}
		if err := r.Exec(ctx, cmd); err != nil {
			return sum, err
		}
		if cmd.Kind == Quit {
			sum.Quit = true
			break
		}
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("script: read: %w", err)
	}
	return sum, nil
}

// Exec executes one command and flushes its log output. Failures of the DB
// are written to the log; the returned error reports log write failures and
// context cancellation.
func (r *Runner) Exec(ctx context.Context, cmd Command) error {
	if cmd.Kind == Comment {
		r.w.WriteString(cmd.Raw)
		r.w.WriteByte('\n')
		return r.w.Flush()
	}

	fmt.Fprintf(r.w, "Command:\t%s\n\n", cmd.Raw)

	var err error
	switch cmd.Kind {
	case World:
		err = r.world(ctx, cmd)
	case Import:
		err = r.importFile(ctx, cmd)
	case Debug:
		err = r.debug(cmd)
	case WhatIs:
		err = r.whatIs(ctx, cmd)
	case WhatIsAt, WhatIsIn:
		err = r.locate(ctx, cmd)
	case Quit:
		r.w.WriteString("Terminating execution of commands.\n")
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		r.logger.ErrorContext(ctx, "command failed", "command", cmd.Kind.String(), "error", err)
		fmt.Fprintf(r.w, "Error: %v\n", err)
	}

	r.w.WriteString(Separator)
	return r.w.Flush()
}

func (r *Runner) world(ctx context.Context, cmd Command) error {
	west, east, south, north := cmd.Bounds[0], cmd.Bounds[1], cmd.Bounds[2], cmd.Bounds[3]
	if err := r.db.SetWorld(west, east, south, north); err != nil {
		return err
	}
	if r.rebuild {
		stats, err := r.db.Rebuild(ctx)
		if err != nil {
			return err
		}
		r.logger.InfoContext(ctx, "re-indexed backing store", "records", stats.Lines, "located", stats.ByLocation)
	}

	fmt.Fprintf(r.w, "GIS Program\n\ndbFile:\t%s\nScript:\t%s\nlog:\t%s\nQuadtree children order: SW SE NE NW\n\n",
		r.files.DB, r.files.Script, r.files.Log)
	fmt.Fprintf(r.w, "World Boundaries are set to:\n\t\t%d\n%d\t\t%d\n\t\t%d\n", north, west, east, south)
	return nil
}

func (r *Runner) importFile(ctx context.Context, cmd Command) error {
	stats, err := r.db.Import(ctx, cmd.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.w, "Imported Features by name: %d\n", stats.ByName)
	fmt.Fprintf(r.w, "Longest probe sequence: %d\n", stats.LongestProbe)
	fmt.Fprintf(r.w, "Imported Features by location: %d\n", stats.ByLocation)
	return nil
}

func (r *Runner) debug(cmd Command) error {
	switch cmd.Target {
	case "hash":
		return r.db.DumpHash(r.w)
	case "quad":
		return r.db.DumpQuad(r.w)
	default:
		return r.db.DumpPool(r.w)
	}
}

func (r *Runner) whatIs(ctx context.Context, cmd Command) error {
	if cmd.Flag == FlagCount {
		n, err := r.db.CountNamed(ctx, cmd.Name, cmd.State)
		if err != nil {
			return err
		}
		if n == 0 {
			r.w.WriteString("Nothing found!\n")
			return nil
		}
		fmt.Fprintf(r.w, "The number of records found for %s and %s was %d\n", cmd.Name, cmd.State, n)
		return nil
	}

	matches, err := r.db.WhatIs(ctx, cmd.Name, cmd.State)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		r.w.WriteString("Nothing found!\n")
		return nil
	}
	for _, m := range matches {
		if cmd.Flag == FlagLong {
			fmt.Fprintf(r.w, "Found matching record at offset %d:\n\n", m.Offset)
			r.w.WriteString(m.Record.Format(record.Long))
			continue
		}
		fmt.Fprintf(r.w, "%d:\t", m.Offset)
		r.w.WriteString(m.Record.Format(record.NameAndLocation))
	}
	return nil
}

func (r *Runner) locate(ctx context.Context, cmd Command) error {
	region := cmd.Kind == WhatIsIn

	if cmd.Flag == FlagCount {
		var (
			n   int
			err error
		)
		if region {
			n, err = r.db.CountIn(ctx, cmd.X, cmd.Y, cmd.HalfHeight, cmd.HalfWidth)
		} else {
			n, err = r.db.CountAt(ctx, cmd.X, cmd.Y)
		}
		switch {
		case err != nil:
			return err
		case n == 0:
			r.w.WriteString("Nothing found!\n")
		case region:
			fmt.Fprintf(r.w, "%d features were found in %s +/- %d Height and +/- %d Width\n",
				n, cmd.Location, cmd.HalfHeight, cmd.HalfWidth)
		default:
			fmt.Fprintf(r.w, "The number of records found for %s was %d\n", cmd.Location, n)
		}
		return nil
	}

	var (
		matches []gisdb.Match
		err     error
	)
	if region {
		matches, err = r.db.WhatIsIn(ctx, cmd.X, cmd.Y, cmd.HalfHeight, cmd.HalfWidth)
	} else {
		matches, err = r.db.WhatIsAt(ctx, cmd.X, cmd.Y)
	}
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		r.w.WriteString("Nothing found!\n")
		return nil
	}

	if region {
		fmt.Fprintf(r.w, "The following %d features were found in (%s +/- %d Height and +/- %d Width)\n",
			len(matches), cmd.Location, cmd.HalfHeight, cmd.HalfWidth)
	} else {
		fmt.Fprintf(r.w, "The following %d features were found in (%s)\n", len(matches), cmd.Location)
	}

	for _, m := range matches {
		switch {
		case cmd.Flag == FlagLong:
			r.w.WriteString(m.Record.Format(record.Long))
			if region {
				r.w.WriteByte('\n')
			}
		case region:
			fmt.Fprintf(r.w, "%d:\t", m.Offset)
			r.w.WriteString(m.Record.Format(record.SimpleWithCoords))
		default:
			fmt.Fprintf(r.w, "%d:\t", m.Offset)
			r.w.WriteString(m.Record.Format(record.Simple))
		}
	}
	return nil
}

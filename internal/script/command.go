// Package script parses and runs GIS command scripts against a gisdb.DB,
// writing a human-readable log of every command and its results.
package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/gisdb/record"
)

// Kind identifies a script command.
type Kind int

const (
	Comment Kind = iota
	World
	Import
	WhatIsAt
	WhatIs
	WhatIsIn
	Debug
	Quit
)

func (k Kind) String() string {
	switch k {
	case Comment:
		return "comment"
	case World:
		return "world"
	case Import:
		return "import"
	case WhatIsAt:
		return "what_is_at"
	case WhatIs:
		return "what_is"
	case WhatIsIn:
		return "what_is_in"
	case Debug:
		return "debug"
	case Quit:
		return "quit"
	default:
		return "unknown"
	}
}

// Output flags of the query commands.
const (
	FlagLong  = "-l"
	FlagCount = "-c"
)

// ErrInvalidCommand reports a script line that cannot be executed.
type ErrInvalidCommand struct {
	Line   string
	Reason error
}

func (e *ErrInvalidCommand) Error() string {
	return fmt.Sprintf("script: invalid command %q: %v", e.Line, e.Reason)
}

func (e *ErrInvalidCommand) Unwrap() error { return e.Reason }

// Command is a parsed script line. Coordinates are arc-seconds.
type Command struct {
	Kind Kind
	Raw  string
	Flag string

	// World: west, east, south, north.
	Bounds [4]int64

	Path   string // Import
	Target string // Debug: hash, quad or pool

	Name, State string // WhatIs

	// WhatIsAt and WhatIsIn. Location is the "lat lon" text of the command.
	Location              string
	X, Y                  int64
	HalfHeight, HalfWidth int64
}

// Parse parses a tab-delimited script line.
func Parse(line string) (Command, error) {
	cmd := Command{Raw: line}
	if strings.Contains(line, ";") {
		cmd.Kind = Comment
		return cmd, nil
	}

	parts := strings.Split(line, "\t")
	invalid := func(format string, args ...any) (Command, error) {
		return Command{}, &ErrInvalidCommand{Line: line, Reason: fmt.Errorf(format, args...)}
	}

	name, args := strings.ToLower(parts[0]), parts[1:]
	switch name {
	case "world":
		if len(args) != 4 {
			return invalid("want 4 boundaries, got %d", len(args))
		}
		cmd.Kind = World
		for i, s := range args {
			var err error
			if i < 2 {
				cmd.Bounds[i], err = record.ParseLongitude(s)
			} else {
				cmd.Bounds[i], err = record.ParseLatitude(s)
			}
			if err != nil {
				return Command{}, &ErrInvalidCommand{Line: line, Reason: err}
			}
		}
	case "import":
		if len(args) != 1 || args[0] == "" {
			return invalid("want a file name")
		}
		cmd.Kind, cmd.Path = Import, args[0]
	case "debug":
		if len(args) != 1 {
			return invalid("want a debug target")
		}
		switch t := strings.ToLower(args[0]); t {
		case "hash", "quad", "pool":
			cmd.Kind, cmd.Target = Debug, t
		default:
			return invalid("unknown debug target %q", args[0])
		}
	case "quit":
		cmd.Kind = Quit
	case "what_is":
		flag, rest, err := splitFlag(args, 2)
		if err != nil {
			return Command{}, &ErrInvalidCommand{Line: line, Reason: err}
		}
		cmd.Kind, cmd.Flag = WhatIs, flag
		cmd.Name, cmd.State = rest[0], rest[1]
	case "what_is_at", "what_is_in":
		want := 2
		if name == "what_is_in" {
			want = 4
		}
		flag, rest, err := splitFlag(args, want)
		if err != nil {
			return Command{}, &ErrInvalidCommand{Line: line, Reason: err}
		}
		cmd.Flag = flag
		if err := cmd.parseLocation(rest[0], rest[1]); err != nil {
			return Command{}, &ErrInvalidCommand{Line: line, Reason: err}
		}
		cmd.Kind = WhatIsAt
		if want == 4 {
			cmd.Kind = WhatIsIn
			if cmd.HalfHeight, err = parseSeconds(rest[2]); err != nil {
				return Command{}, &ErrInvalidCommand{Line: line, Reason: err}
			}
			if cmd.HalfWidth, err = parseSeconds(rest[3]); err != nil {
				return Command{}, &ErrInvalidCommand{Line: line, Reason: err}
			}
		}
	default:
		return invalid("unknown command %q", parts[0])
	}
	return cmd, nil
}

// splitFlag separates an optional leading -l or -c from want positional args.
func splitFlag(args []string, want int) (string, []string, error) {
	switch len(args) {
	case want:
		return "", args, nil
	case want + 1:
		switch args[0] {
		case FlagLong, FlagCount:
			return args[0], args[1:], nil
		}
		return "", nil, fmt.Errorf("unknown flag %q", args[0])
	default:
		return "", nil, fmt.Errorf("want %d arguments, got %d", want, len(args))
	}
}

func (c *Command) parseLocation(lat, lon string) error {
	y, err := record.ParseLatitude(lat)
	if err != nil {
		return err
	}
	x, err := record.ParseLongitude(lon)
	if err != nil {
		return err
	}
	c.X, c.Y, c.Location = x, y, lat+" "+lon
	return nil
}

func parseSeconds(s string) (int64, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid extent %q", s)
	}
	return n, nil
}

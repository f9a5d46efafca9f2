// Command loda is the minimal CLI surface the core driver exposes: eval
// and deps (spec section 6). Grounded on chriskillpack-bbcdisasm's
// cmd/bbcdisasm/main.go (urfave/cli App with subcommands over
// assembly-like source), replacing gameboy-emulator's bare flag-based
// dispatch, since nothing in the spec's CLI surface needs flag-package
// ad hoc parsing once there's more than one subcommand.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	cli "github.com/urfave/cli/v2"

	"github.com/loda-lang/loda-go/internal/bigint"
	"github.com/loda-lang/loda-go/internal/depmanager"
	"github.com/loda-lang/loda-go/internal/interpreter"
	"github.com/loda-lang/loda-go/internal/limits"
	"github.com/loda-lang/loda-go/internal/lodalog"
	"github.com/loda-lang/loda-go/internal/oeis"
	"github.com/loda-lang/loda-go/internal/termcache"
)

func main() {
	app := &cli.App{
		Name:  "loda",
		Usage: "evaluate LODA integer-sequence programs",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "programs-dir", Value: ".", Usage: "root directory holding programs/oeis/..."},
			&cli.Int64Flag{Name: "step-budget", Value: limits.DefaultLimits().StepBudget, Usage: "per-evaluation step budget"},
			&cli.IntFlag{Name: "magnitude-digits", Value: limits.DefaultLimits().MagnitudeDigits, Usage: "BigInt decimal digit ceiling"},
			&cli.Int64Flag{Name: "address-max", Value: limits.DefaultLimits().AddressMax, Usage: "maximum resolvable indirect address"},
			&cli.IntFlag{Name: "max-instructions", Value: limits.DefaultLimits().MaxInstructions, Usage: "maximum instruction count of a parsed program"},
			&cli.IntFlag{Name: "max-loop-depth", Value: limits.DefaultLimits().MaxLoopDepth, Usage: "maximum nested lpb/lps depth"},
			&cli.IntFlag{Name: "max-call-depth", Value: limits.DefaultLimits().MaxCallDepth, Usage: "maximum nested seq/cal recursion depth"},
			&cli.BoolFlag{Name: "verbose", Usage: "log depmanager program loads to stderr"},
		},
		Commands: []*cli.Command{
			evalCommand(),
			depsCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func limitsFromContext(c *cli.Context) limits.Limits {
	lim := limits.DefaultLimits()
	if c.IsSet("step-budget") {
		lim.StepBudget = c.Int64("step-budget")
	}
	if c.IsSet("magnitude-digits") {
		lim.MagnitudeDigits = c.Int("magnitude-digits")
	}
	if c.IsSet("address-max") {
		lim.AddressMax = c.Int64("address-max")
	}
	if c.IsSet("max-instructions") {
		lim.MaxInstructions = c.Int("max-instructions")
	}
	if c.IsSet("max-loop-depth") {
		lim.MaxLoopDepth = c.Int("max-loop-depth")
	}
	if c.IsSet("max-call-depth") {
		lim.MaxCallDepth = c.Int("max-call-depth")
	}
	return lim
}

func loggerFromContext(c *cli.Context) lodalog.Logger {
	if c.Bool("verbose") {
		return lodalog.New(slog.LevelDebug)
	}
	return lodalog.Discard
}

func evalCommand() *cli.Command {
	return &cli.Command{
		Name:      "eval",
		Usage:     "print a(0..terms-1) for a program ID",
		ArgsUsage: "id",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "t", Value: 10, Usage: "number of terms"},
			&cli.BoolFlag{Name: "debug", Usage: "print a debug trace of each executed single-value instruction"},
		},
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 1 {
				return cli.Exit("missing program id", 1)
			}
			id, err := parseID(c.Args().First())
			if err != nil {
				return cli.Exit(err, 1)
			}

			lim := limitsFromContext(c)
			provider := oeis.NewDirProvider(c.String("programs-dir"))
			mgr := depmanager.New(provider, lim)
			mgr.SetLogger(loggerFromContext(c))
			cache := termcache.New()
			cache.Reset()

			p, err := mgr.Load(id)
			if err != nil {
				return cli.Exit(err, 1)
			}

			ev := interpreter.New(mgr, cache, lim)
			ev.Log = loggerFromContext(c)
			debug := c.Bool("debug")

			terms := c.Int("t")
			outputs := make([]string, 0, terms)
			for n := 0; n < terms; n++ {
				if debug {
					fmt.Printf("INPUT: a(%d)\n", n)
					ev.Debug = func(e interpreter.DebugEntry) {
						fmt.Printf("%s   %s => %s\n", e.Text, formatCells(e.Before), formatCells(e.After))
					}
				}
				input := bigint.FromInt64(int64(n) + p.Offset)
				out, _, evalErr := ev.Eval(p, input)
				if debug {
					fmt.Printf("OUTPUT: a(%d) = %s\n", n, out)
				}
				if evalErr != nil {
					if len(outputs) > 0 {
						fmt.Println(strings.Join(outputs, ","))
					}
					return cli.Exit(evalErr, 1)
				}
				outputs = append(outputs, out.String())
			}
			fmt.Println(strings.Join(outputs, ","))
			return nil
		},
	}
}

func depsCommand() *cli.Command {
	return &cli.Command{
		Name:      "deps",
		Usage:     "print the IDs a program transitively depends on",
		ArgsUsage: "id",
		Action: func(c *cli.Context) error {
			if c.Args().Len() < 1 {
				return cli.Exit("missing program id", 1)
			}
			id, err := parseID(c.Args().First())
			if err != nil {
				return cli.Exit(err, 1)
			}

			lim := limitsFromContext(c)
			provider := oeis.NewDirProvider(c.String("programs-dir"))
			mgr := depmanager.New(provider, lim)
			mgr.SetLogger(loggerFromContext(c))

			order, err := mgr.TopoOrder(id)
			if err != nil {
				return cli.Exit(err, 1)
			}

			strs := make([]string, len(order))
			for i, v := range order {
				strs[i] = fmt.Sprintf("%d", v)
			}
			fmt.Println(strings.Join(strs, ","))
			return nil
		},
	}
}

func parseID(s string) (int64, error) {
	s = strings.TrimPrefix(strings.ToUpper(s), "A")
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid program id %q", s)
	}
	return id, nil
}

func formatCells(cells []bigint.Int) string {
	parts := make([]string, len(cells))
	for i, c := range cells {
		parts[i] = c.String()
	}
	return "[" + strings.Join(parts, ",") + "]"
}

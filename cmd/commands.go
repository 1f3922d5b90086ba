// Copyright 2026 The ScalarVM Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package scalarvmcmd implements the scalarvm command line tool: run,
// disasm, version, and list-modules, built the way the teacher builds
// its own CLI — a small Command/CommandFunc abstraction wrapped into
// cobra.Command rather than calling cobra directly from each
// subcommand.
package scalarvmcmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/KimMachineGun/automemlimit/memlimit"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/automaxprocs/maxprocs"
	"go.uber.org/zap"

	"github.com/cookieandscream/scalarvm"
)

// CommandFunc is the signature every subcommand implements: given its
// parsed flags, it does its work and returns a process exit code and
// an error to report, if any.
type CommandFunc func(fl Flags) (int, error)

// Flags wraps a pflag.FlagSet the way the teacher's Flags does, adding
// typed accessors so subcommands don't sprinkle FlagSet.GetString
// error-checking everywhere.
type Flags struct {
	*pflag.FlagSet
}

func (f Flags) StringDefault(name, def string) string {
	v, err := f.GetString(name)
	if err != nil || v == "" {
		return def
	}
	return v
}

func (f Flags) BoolDefault(name string) bool {
	v, _ := f.GetBool(name)
	return v
}

// Command describes one subcommand: its name, usage summary, help
// text, flags, and the CommandFunc that implements it.
type Command struct {
	Name  string
	Func  CommandFunc
	Flags *pflag.FlagSet
	Usage string
	Short string
	Long  string
}

var commands = map[string]Command{}

// RegisterCommand adds cmd to the CLI's command set. Subcommands
// register themselves from init() in their own file, mirroring the
// teacher's pattern of one command per file.
func RegisterCommand(cmd Command) {
	if _, exists := commands[cmd.Name]; exists {
		panic("command already registered: " + cmd.Name)
	}
	commands[cmd.Name] = cmd
}

func init() {
	RegisterCommand(Command{
		Name:  "run",
		Func:  cmdRun,
		Usage: "run --program <path> [--config <path>]",
		Short: "Runs a compiled bytecode program to completion",
		Long: `Loads a bytecode artifact (optionally zstd-compressed) and executes
it on a fresh scalarvm.Runtime, blocking until every thread the program
spawns via CORO/FRCORO has joined.`,
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("run", pflag.ContinueOnError)
			fs.String("program", "", "path to the bytecode artifact to execute")
			fs.String("config", "", "path to a TOML runtime config file")
			return fs
		}(),
	})

	RegisterCommand(Command{
		Name:  "disasm",
		Func:  cmdDisasm,
		Usage: "disasm --program <path>",
		Short: "Disassembles a bytecode artifact to stdout",
		Flags: func() *pflag.FlagSet {
			fs := pflag.NewFlagSet("disasm", pflag.ContinueOnError)
			fs.String("program", "", "path to the bytecode artifact to disassemble")
			fs.Bool("color", true, "colorize mnemonics when stdout is a terminal")
			return fs
		}(),
	})

	RegisterCommand(Command{
		Name:  "version",
		Func:  cmdVersion,
		Usage: "version",
		Short: "Prints the scalarvm build version",
	})

	RegisterCommand(Command{
		Name:  "list-modules",
		Func:  cmdListModules,
		Usage: "list-modules",
		Short: "Lists the registered host writer destinations",
	})
}

// Main builds the cobra command tree from the registered commands and
// executes it; call this as the body of func main. Before anything
// else runs it applies container-aware GOMAXPROCS/GOMEMLIMIT tuning —
// this runtime spawns a goroutine per VM thread (CORO/FRCORO), so
// the number of OS threads Go schedules onto and the heap ceiling it
// targets both matter from the first instruction.
func Main() {
	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
		scalarvm.Log().Sugar().Infof(format, args...)
	}))
	defer undo()
	if err != nil {
		scalarvm.Log().Warn("failed to set GOMAXPROCS", zap.Error(err))
	}
	_, _ = memlimit.SetGoMemLimitWithOpts(
		memlimit.WithLogger(slog.Default()),
		memlimit.WithProvider(memlimit.ApplyFallback(memlimit.FromCgroup, memlimit.FromSystem)),
	)

	root := &cobra.Command{
		Use:           "scalarvm",
		Short:         "scalarvm runs compiled bytecode programs for the scalar VM runtime",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	for _, cmd := range commands {
		c := cmd
		cc := &cobra.Command{
			Use:   c.Name + " " + c.Usage,
			Short: c.Short,
			Long:  c.Long,
			RunE: func(cc *cobra.Command, _ []string) error {
				status, err := c.Func(Flags{cc.Flags()})
				if status != 0 {
					os.Exit(status)
				}
				return err
			},
		}
		if c.Flags != nil {
			cc.Flags().AddFlagSet(c.Flags)
		}
		root.AddCommand(cc)
	}

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "scalarvm:", err)
		os.Exit(1)
	}
}

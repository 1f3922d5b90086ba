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

package scalarvmcmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/cookieandscream/scalarvm"
	"github.com/cookieandscream/scalarvm/vm"
)

func cmdRun(fl Flags) (int, error) {
	programPath := fl.StringDefault("program", "")
	if programPath == "" {
		return 1, fmt.Errorf("--program is required")
	}

	program, err := LoadProgram(programPath)
	if err != nil {
		return 1, err
	}

	cfg := scalarvm.DefaultConfig()
	if configPath := fl.StringDefault("config", ""); configPath != "" {
		cfg, err = scalarvm.LoadConfig(configPath)
		if err != nil {
			return 1, err
		}
	}

	rt := scalarvm.NewRuntime(cfg)
	if err := rt.Start(); err != nil {
		return 1, err
	}
	defer rt.Stop()

	if err := rt.Run(program); err != nil {
		return 1, err
	}

	stats := rt.VM().Scalars.Stats()
	fmt.Fprintf(os.Stderr, "scalarvm: %s scalar slots allocated at peak\n", humanize.Comma(int64(stats.Capacity)))
	return 0, nil
}

func cmdDisasm(fl Flags) (int, error) {
	programPath := fl.StringDefault("program", "")
	if programPath == "" {
		return 1, fmt.Errorf("--program is required")
	}
	program, err := LoadProgram(programPath)
	if err != nil {
		return 1, err
	}

	insns, err := vm.Disassemble(program)
	if err != nil {
		return 1, err
	}

	colorize := fl.BoolDefault("color") && term.IsTerminal(int(os.Stdout.Fd()))
	for _, in := range insns {
		if colorize {
			fmt.Printf("%6d  \x1b[36m%s\x1b[0m\n", in.Offset, in.Text)
		} else {
			fmt.Printf("%6d  %s\n", in.Offset, in.Text)
		}
	}
	return 0, nil
}

func cmdVersion(_ Flags) (int, error) {
	fmt.Println("scalarvm (development build)")
	return 0, nil
}

func cmdListModules(_ Flags) (int, error) {
	names := scalarvm.WriterNames()
	sort.Strings(names)
	for _, n := range names {
		fmt.Println(n)
	}
	return 0, nil
}

// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/mattn/go-shellwords"

	"github.com/aibor/vmctl/internal/vm"
)

// SplitExtraArgs tokenizes a shell quoted argument string. Unbalanced quotes
// and unquoted shell operators are errors. Environment variables and
// backticks are not expanded.
func SplitExtraArgs(extra string) ([]string, error) {
	parser := shellwords.NewParser()
	parser.ParseEnv = false
	parser.ParseBacktick = false

	words, err := parser.Parse(extra)
	if err != nil {
		return nil, &vm.ConfigError{Field: "extra", Msg: "malformed", Err: err}
	}

	if parser.Position >= 0 {
		return nil, &vm.ConfigError{
			Field: "extra",
			Msg:   fmt.Sprintf("at offset %d", parser.Position),
			Err:   ErrShellOperator,
		}
	}

	return words, nil
}

// extraArguments converts the extra argument string into [Argument]s in the
// given order. Options whose name is used by a unique argument of the
// compiled arguments are unique as well, so redefinitions are detected. All
// other options are repeatable. Words that are not an option value, like a
// disk image path, are passed as positional [Argument]s.
func extraArguments(extra string, compiled []Argument) ([]Argument, error) {
	words, err := SplitExtraArgs(extra)
	if err != nil {
		return nil, err
	}

	unique := map[string]bool{}

	for _, arg := range compiled {
		if arg.UniqueName() {
			unique[arg.Name()] = true
		}
	}

	var args []Argument

	for idx := 0; idx < len(words); idx++ {
		name, isOption := strings.CutPrefix(words[idx], "-")
		if !isOption || name == "" {
			if words[idx] == "" {
				return nil, &vm.ConfigError{Field: "extra", Msg: "empty argument"}
			}

			args = append(args, PositionalArg(words[idx]))

			continue
		}

		var value string
		if idx+1 < len(words) && !strings.HasPrefix(words[idx+1], "-") {
			idx++
			value = words[idx]

			if value == "" {
				return nil, &vm.ConfigError{
					Field: "extra",
					Msg:   "empty value for " + words[idx-1],
				}
			}
		}

		arg := RepeatableArg(name, value)
		if unique[strings.TrimPrefix(name, "-")] {
			arg = UniqueArg(strings.TrimPrefix(name, "-"), value)
		}

		args = append(args, arg)
	}

	return args, nil
}

// Preview renders the argument vector as a shell command line that can be
// copied into a terminal.
func Preview(argv []string) string {
	return shellquote.Join(argv...)
}

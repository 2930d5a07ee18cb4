package main

import (
	"os"
	"runtime"

	"github.com/xyproto/env/v2"

	"github.com/xyproto/il2x86/internal/engine"
)

// Config holds the settings of one il2x86 run. Defaults come from the
// environment; command line flags override them.
type Config struct {
	Syntax  engine.Syntax
	Jobs    int
	Verbose bool
	Color   bool
	Output  string // empty means stdout
}

// configFromEnv reads IL2X86_SYNTAX, IL2X86_JOBS, IL2X86_VERBOSE and
// IL2X86_COLOR. NO_COLOR disables color regardless of IL2X86_COLOR.
func configFromEnv() (Config, error) {
	syntax, err := engine.ParseSyntax(env.Str("IL2X86_SYNTAX", "nasm"))
	if err != nil {
		return Config{}, err
	}

	jobs := env.Int("IL2X86_JOBS", runtime.NumCPU())
	if jobs < 1 {
		jobs = 1
	}

	color := stderrIsTerminal()
	if env.Has("IL2X86_COLOR") {
		color = env.Bool("IL2X86_COLOR")
	}
	if env.Has("NO_COLOR") {
		color = false
	}

	return Config{
		Syntax:  syntax,
		Jobs:    jobs,
		Verbose: env.Bool("IL2X86_VERBOSE"),
		Color:   color,
	}, nil
}

func stderrIsTerminal() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

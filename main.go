package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/xyproto/il2x86/internal/engine"
	"github.com/xyproto/il2x86/internal/translate"
)

// il2x86 translates method listings of stack bytecode to 32-bit x86
// assembly for a bare-metal runtime.

const versionString = "il2x86 0.4.0"

// VerboseMode enables progress and per-instruction tracing on stderr
var VerboseMode bool

func main() {
	cfg, err := configFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// NOTE: flags must come before the listing files: il2x86 -o out.asm prog.ilx
	var outputFilenameFlag = flag.String("o", "", "output assembly filename (default: stdout)")
	var outputFilenameLongFlag = flag.String("output", "", "output assembly filename (default: stdout)")
	var syntaxFlag = flag.String("syntax", cfg.Syntax.String(), "assembler syntax (nasm, gas)")
	var jobsFlag = flag.Int("j", cfg.Jobs, "number of methods translated in parallel")
	var versionShort = flag.Bool("V", false, "print version information and exit")
	var version = flag.Bool("version", false, "print version information and exit")
	var verbose = flag.Bool("v", cfg.Verbose, "verbose mode (trace methods, stack depth and emitted instructions)")
	var verboseLong = flag.Bool("verbose", cfg.Verbose, "verbose mode (trace methods, stack depth and emitted instructions)")
	var listFlag = flag.Bool("list", false, "list the supported opcodes and exit")
	var watchFlag = flag.Bool("watch", false, "watch mode: translate again whenever the listing changes")
	var noColor = flag.Bool("no-color", false, "disable colored diagnostics")
	flag.Parse()

	if *version || *versionShort {
		fmt.Println(versionString)
		os.Exit(0)
	}

	// Set global verbosity flag (use whichever was specified)
	VerboseMode = *verbose || *verboseLong
	cfg.Verbose = VerboseMode

	if *listFlag {
		listOpcodes(os.Stdout, translate.Default())
		return
	}

	cfg.Syntax, err = engine.ParseSyntax(*syntaxFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Invalid --syntax '%s': %v\n", *syntaxFlag, err)
		os.Exit(1)
	}
	if *jobsFlag < 1 {
		fmt.Fprintf(os.Stderr, "Error: -j must be at least 1\n")
		os.Exit(1)
	}
	cfg.Jobs = *jobsFlag
	if *noColor {
		cfg.Color = false
	}

	// Use whichever output flag was specified (prefer short form if both given)
	cfg.Output = *outputFilenameLongFlag
	if *outputFilenameFlag != "" {
		cfg.Output = *outputFilenameFlag
	}

	inputFiles := flag.Args()
	if len(inputFiles) == 0 {
		fmt.Fprintf(os.Stderr, "usage: il2x86 [flags] <listing.ilx>...\n\nRun 'il2x86 -h' for the list of flags\n")
		os.Exit(2)
	}

	if VerboseMode {
		fmt.Fprintf(os.Stderr, "----=[ %s ]=----\n", versionString)
		fmt.Fprintf(os.Stderr, "syntax=%s jobs=%d output=%q\n", cfg.Syntax, cfg.Jobs, cfg.Output)
	}

	if *watchFlag {
		if len(inputFiles) != 1 {
			fmt.Fprintf(os.Stderr, "Error: watch mode takes exactly one listing\n")
			os.Exit(1)
		}
		if err := watchAndTranslate(cfg, inputFiles[0]); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := translateFiles(cfg, inputFiles, os.Stderr); err != nil {
		if !errors.Is(err, errTranslationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/xyproto/il2x86/internal/engine"
	"github.com/xyproto/il2x86/internal/il"
	"github.com/xyproto/il2x86/internal/listing"
	"github.com/xyproto/il2x86/internal/translate"
	"github.com/xyproto/il2x86/internal/x86"
)

// cli.go - the translate, list and watch commands
//
// Diagnostics go to stderr; assembly goes to the -o file or stdout. Nothing
// is written when any method fails to translate.

// errTranslationFailed means the diagnostics have already been reported
var errTranslationFailed = errors.New("translation failed")

const maxReportedErrors = 20

// loadMethods parses every listing. Method names must be unique across all
// of them since labels are derived from them.
func loadMethods(paths []string) ([]il.Method, error) {
	var methods []il.Method
	for _, path := range paths {
		ms, err := listing.ParseFile(path)
		if err != nil {
			return nil, err
		}
		methods = append(methods, ms...)
	}
	dups := lo.FindDuplicatesBy(methods, func(m il.Method) string { return m.Name })
	if len(dups) > 0 {
		names := lo.Map(dups, func(m il.Method, _ int) string { return fmt.Sprintf("%q", m.Name) })
		return nil, fmt.Errorf("method defined in more than one listing: %s", strings.Join(names, ", "))
	}
	return methods, nil
}

// translateFiles translates the listings and writes the assembly. diag
// receives diagnostics and, in verbose mode, the trace.
func translateFiles(cfg Config, paths []string, diag io.Writer) error {
	methods, err := loadMethods(paths)
	if err != nil {
		return err
	}

	tr := &translate.Translator{Registry: translate.Default(), Jobs: cfg.Jobs}
	if cfg.Verbose {
		tr.Trace = diag
	}
	errs := translate.NewCollector(maxReportedErrors)
	start := time.Now()
	prog, err := tr.TranslateAll(context.Background(), methods, errs)
	if err != nil {
		return err
	}
	if errs.HasErrors() {
		errs.Report(diag, cfg.Color)
		return errTranslationFailed
	}
	if cfg.Verbose {
		fmt.Fprintf(diag, "translated %d methods to %d lines in %v\n", len(methods), prog.Len(), time.Since(start))
	}

	var buf bytes.Buffer
	if err := writeAssembly(&buf, cfg.Syntax, prog, paths); err != nil {
		return err
	}
	if cfg.Output == "" {
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}
	return os.WriteFile(cfg.Output, buf.Bytes(), 0o644)
}

// writeAssembly renders prog with a short header naming the sources.
func writeAssembly(w io.Writer, syntax engine.Syntax, prog *x86.Program, sources []string) error {
	bases := lo.Map(sources, func(s string, _ int) string { return filepath.Base(s) })
	fmt.Fprintf(w, "%s %s from %s\n", syntax.CommentPrefix(), versionString, strings.Join(bases, ", "))
	switch syntax {
	case engine.SyntaxATT:
		fmt.Fprintln(w, ".code32")
	default:
		fmt.Fprintln(w, "bits 32")
	}
	fmt.Fprintln(w)
	return prog.Render(w, syntax)
}

// listOpcodes prints every opcode with a registered handler.
func listOpcodes(w io.Writer, reg *translate.Registry) {
	for _, op := range reg.Opcodes() {
		fmt.Fprintf(w, "0x%04X  %s\n", uint16(op), op)
	}
}

// watchAndTranslate translates path once, then again whenever it changes or
// SIGUSR1 arrives, until interrupted.
func watchAndTranslate(cfg Config, path string) error {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Watch mode enabled - monitoring %s\n", absPath)
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	retranslate := func(trigger string) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", time.Now().Format("15:04:05"), trigger)
		if err := translateFiles(cfg, []string{absPath}, os.Stderr); err != nil {
			if !errors.Is(err, errTranslationFailed) {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			return
		}
		if cfg.Output != "" {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", cfg.Output)
		}
	}

	triggers := make(chan string, 1)
	watcher, err := NewFileWatcher(func(path string) {
		sendTrigger(ctx, triggers, fmt.Sprintf("File changed: %s", filepath.Base(path)))
	})
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.AddFile(absPath); err != nil {
		return fmt.Errorf("failed to watch file: %w", err)
	}

	retranslate("Initial translation")
	setupReloadSignal(ctx, triggers)
	go watcher.Watch(ctx)

	runTriggers(ctx, triggers, retranslate)
	return nil
}

// sendTrigger queues a reload unless ctx is done first.
func sendTrigger(ctx context.Context, triggers chan<- string, reason string) {
	select {
	case triggers <- reason:
	case <-ctx.Done():
	}
}

// runTriggers runs retranslate for each queued trigger, one at a time, so
// that concurrent reload sources never write the output together.
func runTriggers(ctx context.Context, triggers <-chan string, retranslate func(string)) {
	for {
		select {
		case reason := <-triggers:
			retranslate(reason)
		case <-ctx.Done():
			return
		}
	}
}

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fsnotify/fsnotify"

	"github.com/NateJackDev/beancount/output"
	"github.com/NateJackDev/beancount/parser"
	"github.com/NateJackDev/beancount/telemetry"
)

// debounceDelay coalesces the bursts of filesystem events editors produce
// for a single save.
const debounceDelay = 100 * time.Millisecond

type CheckCmd struct {
	File  FileOrStdin `help:"Beancount input filename (use '-' for stdin, or omit for stdin)." arg:"" optional:""`
	Watch bool        `help:"Re-run the check whenever the file or its includes change." short:"w"`
}

func (cmd *CheckCmd) Run(kctx *kong.Context, globals *Globals) error {
	if cmd.Watch {
		if cmd.File.IsStdin() || cmd.File.Filename == "" {
			return fmt.Errorf("cannot watch stdin; pass a filename with --watch")
		}
		return cmd.watch(kctx, globals)
	}

	ok, err := cmd.runOnce(kctx, globals)
	if err != nil {
		return err
	}
	if !ok {
		os.Exit(1)
	}
	return nil
}

// runOnce loads and checks the file, printing errors with source context.
// The boolean reports whether the ledger checked clean.
func (cmd *CheckCmd) runOnce(kctx *kong.Context, globals *Globals) (bool, error) {
	runCtx := context.Background()

	var collector telemetry.Collector
	if globals.Telemetry {
		collector = telemetry.NewTimingCollector()
		runCtx = telemetry.WithCollector(runCtx, collector)
	}
	checkTimer := telemetry.FromContext(runCtx).Start("check " + cmd.File.Name())

	result, err := cmd.File.Load(runCtx)
	checkTimer.End()
	if err != nil {
		return false, err
	}

	errStyles := output.NewStyles(kctx.Stderr)
	reportTelemetry := func() {
		if collector != nil {
			_, _ = fmt.Fprintln(kctx.Stderr)
			collector.Report(kctx.Stderr, errStyles)
		}
	}

	if len(result.Errors) > 0 {
		renderer := NewErrorRenderer(errStyles, cmd.collectSources(result))
		_, _ = fmt.Fprintln(kctx.Stderr, renderer.RenderAll(result.Errors))

		_, _ = fmt.Fprintln(kctx.Stderr)
		printError(kctx.Stderr, errStyles, fmt.Sprintf("%d error(s) found", len(result.Errors)))

		reportTelemetry()
		return false, nil
	}

	printSuccess(kctx.Stdout, output.NewStyles(kctx.Stdout),
		fmt.Sprintf("Check passed: %d directives", len(result.Directives)))
	reportTelemetry()
	return true, nil
}

// collectSources reads the checked file and its includes so errors can
// show their offending source lines. Unreadable files degrade to errors
// without context.
func (cmd *CheckCmd) collectSources(result *parser.Result) map[string][]byte {
	sources := make(map[string][]byte)
	if data, err := cmd.File.Source(); err == nil {
		sources[cmd.File.Filename] = data
	}
	baseDir := filepath.Dir(cmd.File.Filename)
	for _, include := range result.Options.Includes() {
		path := include
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		if data, err := os.ReadFile(path); err == nil {
			sources[path] = data
		}
	}
	return sources
}

// watch re-runs the check whenever the checked file or one of its
// includes is written. Directories are watched rather than files so that
// editors replacing the file on save don't silence the watcher.
func (cmd *CheckCmd) watch(kctx *kong.Context, globals *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	styles := output.NewStyles(kctx.Stdout)

	run := func() {
		_, _ = cmd.runOnce(kctx, globals)
		if err := cmd.rewatch(watcher); err != nil {
			printError(kctx.Stderr, output.NewStyles(kctx.Stderr), err.Error())
		}
		printInfof(kctx.Stdout, styles, "watching %s for changes", cmd.File.Filename)
	}
	run()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if !cmd.watchedFile(event.Name) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(debounceDelay, func() {
				_, _ = fmt.Fprintln(kctx.Stdout)
				run()
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			printError(kctx.Stderr, output.NewStyles(kctx.Stderr), err.Error())
		}
	}
}

// rewatch points the watcher at the directories of the checked file and
// its current includes. The include set can change between runs.
func (cmd *CheckCmd) rewatch(watcher *fsnotify.Watcher) error {
	for _, dir := range watcher.WatchList() {
		_ = watcher.Remove(dir)
	}
	dirs := make(map[string]bool)
	for _, file := range cmd.watchedFiles() {
		dirs[filepath.Dir(file)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	return nil
}

// watchedFiles returns the checked file and its includes, resolved.
func (cmd *CheckCmd) watchedFiles() []string {
	files := []string{cmd.File.Filename}

	// A cheap parse recovers the include list without booking the ledger.
	data, err := os.ReadFile(cmd.File.Filename)
	if err != nil {
		return files
	}
	result := parser.Parse(context.Background(), cmd.File.Filename, data)
	baseDir := filepath.Dir(cmd.File.Filename)
	for _, include := range result.Options.Includes() {
		path := include
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		files = append(files, path)
	}
	return files
}

// watchedFile reports whether a filesystem event path is one of ours.
func (cmd *CheckCmd) watchedFile(name string) bool {
	for _, file := range cmd.watchedFiles() {
		if sameFile(name, file) {
			return true
		}
	}
	return false
}

func sameFile(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce groups bursts of file events into one re-analysis.
const watchDebounce = 100 * time.Millisecond

// watchLineage analyzes args, then re-analyzes them after every change until
// ctx is cancelled.
func watchLineage(ctx context.Context, cc *CommandContext, args []string, opts *LineageOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	files := make(map[string]bool)
	for _, arg := range args {
		if err := watchPath(watcher, arg, files); err != nil {
			return fmt.Errorf("failed to watch %s: %w", arg, err)
		}
	}

	analyze := func() {
		scripts, err := readScripts(nil, args, "", cc.Cfg.Extensions)
		if err != nil {
			cc.Renderer.Error(err.Error())
			return
		}
		// A failed script is part of the report; watching continues.
		reports, _ := analyzeScripts(ctx, cc, scripts, &LineageOptions{Focus: opts.Focus, KeepGoing: true})
		if err := cc.Renderer.RenderLineage(reports); err != nil {
			cc.Renderer.Error(err.Error())
		}
		cc.Renderer.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", strings.Join(args, ", ")))
	}
	analyze()

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, files, cc.Cfg.Extensions) {
				continue
			}
			cc.Logger.Debug("file changed", slog.String("file", event.Name), slog.String("op", event.Op.String()))
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watchPath(watcher, event.Name, files)
				}
			}
			debounce = time.After(watchDebounce)
		case <-debounce:
			debounce = nil
			analyze()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			cc.Logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// watchPath watches a directory tree, or the directory of a single file.
// Single files are recorded in files so events for their siblings are
// ignored.
func watchPath(watcher *fsnotify.Watcher, path string, files map[string]bool) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		files[filepath.Clean(path)] = true
		return watcher.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		// Skip hidden directories
		if p != path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return watcher.Add(p)
	})
}

// relevant reports whether event should trigger a re-analysis.
func relevant(event fsnotify.Event, files map[string]bool, extensions []string) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	if files[name] {
		return true
	}
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(name); err == nil && info.IsDir() {
			return true
		}
	}
	return hasExtension(name, extensions) && !filesOnly(files, name)
}

// filesOnly reports whether the directory of name is watched only for
// individually named files.
func filesOnly(files map[string]bool, name string) bool {
	dir := filepath.Dir(name)
	for f := range files {
		if filepath.Dir(f) == dir {
			return true
		}
	}
	return false
}

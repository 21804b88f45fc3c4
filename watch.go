package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"

	"github.com/nf/c8/vip"
)

// watchMode runs romFile in a terminal with a log pane, reloading and
// restarting the program whenever the file changes. A program that halts
// stays on screen until the next reload.
func watchMode(cfg vip.Config, l *loader, romFile string) error {
	romFile = filepath.Clean(romFile)

	m, err := l.load(romFile)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.Watch(filepath.Dir(romFile)); err != nil {
		return err
	}

	term, err := vip.NewTerminal(filepath.Base(romFile), true)
	if err != nil {
		return err
	}
	log.SetPrefix("")
	log.SetOutput(term.LogWriter())
	defer func() {
		log.SetOutput(os.Stderr)
		log.SetPrefix("c8: ")
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runner := vip.NewRunner(cfg)
	go func() {
		var reload <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case <-reload:
				reload = nil
				m, err := l.load(romFile)
				if err != nil {
					log.Printf("watch: %v", err)
					break
				}
				log.Printf("watch: reset %s", filepath.Base(romFile))
				runner.Reset(m)
			case ev := <-watcher.Event:
				if filepath.Clean(ev.Name) == romFile && !ev.IsAttrib() {
					reload = time.After(100 * time.Millisecond)
				}
			case err := <-watcher.Error:
				log.Printf("watch: watcher: %v", err)
			}
		}
	}()

	log.Printf("watch: start %s", filepath.Base(romFile))
	return runner.Run(ctx, m, term)
}

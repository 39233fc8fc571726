package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"notesync/internal/client"
)

var watchCmd = &cobra.Command{
	Use:   "watch [profile] [id] [file]",
	Short: "Keep a note's content in sync with a local file",
	Long: `watch saves the file into the note whenever it changes. Saves are batched
by the autosaver. Removing the file saves pending changes in the background;
Ctrl-C waits for them and flushes the rest.`,
	Args: cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		profile, noteID, path := args[0], args[1], args[2]
		store := newStore()
		requireUnlocked(store, profile)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		doc, err := store.LoadNotes(ctx, profile, false)
		if err != nil {
			fatal("Failed to load notes", err)
		}
		i := doc.Find(noteID)
		if i < 0 {
			fmt.Fprintf(os.Stderr, "Note '%s' not found\n", noteID)
			os.Exit(1)
		}
		title := doc.Notes[i].Title

		abs, err := filepath.Abs(path)
		if err != nil {
			fatal("Failed to resolve file", err)
		}

		var (
			mu      sync.Mutex
			content string
		)
		saver := client.NewAutosaver(0, func(ctx context.Context) error {
			mu.Lock()
			text := content
			mu.Unlock()
			if _, err := store.UpdateNote(ctx, profile, noteID, title, text, ""); err != nil {
				return err
			}
			slog.Info("note saved", "profile", profile, "note_id", noteID, "bytes", len(text))
			return nil
		})

		load := func() {
			data, err := os.ReadFile(abs)
			if err != nil {
				slog.Warn("failed to read watched file", "path", abs, "error", err)
				return
			}
			mu.Lock()
			content = string(data)
			mu.Unlock()
			saver.MarkDirty()
		}

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			fatal("Failed to start watcher", err)
		}
		defer watcher.Close()

		// Editors often replace the file, so watch its directory.
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			fatal("Failed to watch directory", err)
		}

		load()
		go saver.Run(ctx)
		fmt.Printf("Watching %s for note '%s'. Press Ctrl-C to stop.\n", abs, noteID)

		for {
			select {
			case <-ctx.Done():
				saver.Wait()
				if err := saver.Flush(context.Background()); err != nil {
					fatal("Failed to save pending changes", err)
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != abs {
					continue
				}
				switch {
				case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
					slog.Debug("file changed", "path", event.Name, "op", event.Op.String())
					load()
				case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
					// Save what was read so far; a replacing editor recreates the file.
					slog.Debug("file removed", "path", event.Name, "op", event.Op.String())
					saver.FlushAsync()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("watcher error", "error", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

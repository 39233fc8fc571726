package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"notesync/internal/notes"
)

var (
	notesFromCache bool
	showJSON       bool
	noteColor      string
	editColor      string
	noteTitle      string
	noteContent    string
	noteFile       string
)

var notesCmd = &cobra.Command{
	Use:   "notes [profile]",
	Short: "List a profile's notes, most recently updated first",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := newStore()
		requireUnlocked(store, args[0])

		doc, err := store.LoadNotes(context.Background(), args[0], notesFromCache)
		if err != nil {
			fatal("Failed to load notes", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LABEL\tTITLE\tUPDATED\tID")
		for _, n := range notes.SortByUpdatedDesc(doc.Notes) {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.Label, n.Title, n.UpdatedAt, n.ID)
		}
		_ = w.Flush()
	},
}

var showCmd = &cobra.Command{
	Use:   "show [profile] [id]",
	Short: "Print a note",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := newStore()
		requireUnlocked(store, args[0])

		doc, err := store.LoadNotes(context.Background(), args[0], notesFromCache)
		if err != nil {
			fatal("Failed to load notes", err)
		}
		i := doc.Find(args[1])
		if i < 0 {
			fmt.Fprintf(os.Stderr, "Note '%s' not found\n", args[1])
			os.Exit(1)
		}

		if showJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(doc.Notes[i]); err != nil {
				fatal("Failed to encode note", err)
			}
			return
		}
		fmt.Print(doc.Notes[i].Content)
	},
}

var addCmd = &cobra.Command{
	Use:   "add [profile] [title]",
	Short: "Create a note",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := newStore()
		requireUnlocked(store, args[0])
		ctx := context.Background()

		note, _, err := store.CreateNote(ctx, args[0], args[1], noteColor)
		if err != nil {
			fatal("Failed to create note", err)
		}

		content, err := readContent()
		if err != nil {
			fatal("Failed to read content", err)
		}
		if content != "" {
			if _, err := store.UpdateNote(ctx, args[0], note.ID, note.Title, content, ""); err != nil {
				fatal("Failed to save content", err)
			}
		}
		fmt.Printf("Note %s '%s' created (%s).\n", note.Label, note.Title, note.ID)
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [profile] [id]",
	Short: "Change a note's title, content or color",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := newStore()
		requireUnlocked(store, args[0])
		ctx := context.Background()

		doc, err := store.LoadNotes(ctx, args[0], true)
		if err != nil {
			fatal("Failed to load notes", err)
		}
		i := doc.Find(args[1])
		if i < 0 {
			fmt.Fprintf(os.Stderr, "Note '%s' not found\n", args[1])
			os.Exit(1)
		}

		title, content := doc.Notes[i].Title, doc.Notes[i].Content
		if cmd.Flags().Changed("title") {
			title = noteTitle
		}
		color := ""
		if cmd.Flags().Changed("color") {
			color = editColor
		}
		if cmd.Flags().Changed("content") || cmd.Flags().Changed("file") {
			if content, err = readContent(); err != nil {
				fatal("Failed to read content", err)
			}
		}

		if _, err := store.UpdateNote(ctx, args[0], args[1], title, content, color); err != nil {
			fatal("Failed to update note", err)
		}
		fmt.Printf("Note '%s' saved.\n", args[1])
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [profile] [id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := newStore()
		requireUnlocked(store, args[0])

		if _, err := store.DeleteNote(context.Background(), args[0], args[1]); err != nil {
			fatal("Failed to delete note", err)
		}
		fmt.Printf("Note '%s' deleted.\n", args[1])
	},
}

// readContent returns --content, or the contents of --file when set.
func readContent() (string, error) {
	if noteFile == "" {
		return noteContent, nil
	}
	data, err := os.ReadFile(noteFile)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func init() {
	rootCmd.AddCommand(notesCmd, showCmd, addCmd, editCmd, deleteCmd)

	notesCmd.Flags().BoolVar(&notesFromCache, "cache", false, "Read from the local cache when possible")
	showCmd.Flags().BoolVar(&notesFromCache, "cache", false, "Read from the local cache when possible")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output in JSON format")

	addCmd.Flags().StringVar(&noteColor, "color", notes.DefaultColor, "Note color")
	addCmd.Flags().StringVar(&noteContent, "content", "", "Note content")
	addCmd.Flags().StringVarP(&noteFile, "file", "f", "", "Read content from a file")

	editCmd.Flags().StringVar(&noteTitle, "title", "", "New title (empty becomes Untitled)")
	editCmd.Flags().StringVar(&noteContent, "content", "", "New content")
	editCmd.Flags().StringVar(&editColor, "color", "", "New color (empty keeps the current one)")
	editCmd.Flags().StringVarP(&noteFile, "file", "f", "", "Read new content from a file")
}

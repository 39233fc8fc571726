package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"

	"github.com/spf13/cobra"

	"notesync/internal/notes"
	"notesync/internal/search"
)

var (
	searchByNote bool
	stepFrom     int
	stepPrev     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [profile] [query]",
	Short: "Find every occurrence of a query across a profile's notes",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := newStore()
		requireUnlocked(store, args[0])

		hits, err := store.Search(context.Background(), args[0], args[1], notesFromCache)
		if err != nil {
			fatal("Search failed", err)
		}
		if len(hits) == 0 {
			fmt.Println("No matches.")
			return
		}

		if searchByNote {
			writeHitsByNote(os.Stdout, hits)
			return
		}

		nav := search.NewNavigator(hits)
		for i := range hits {
			nav.JumpTo(i)
			h := hits[i]
			fmt.Printf("[%s] %s %s (%s@%d): %s\n", nav.Counter(), h.NoteLabel, h.NoteTitle, h.Field, h.Offset, h.Preview)
		}
	},
}

var stepCmd = &cobra.Command{
	Use:   "step [profile] [query]",
	Short: "Jump from a hit to the nearest hit in the next (or previous) note",
	Long: `step rebuilds the hit list from the latest server copy, moves from hit
--from to the neighbouring note and prints the link to that note's page.`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := newStore()
		requireUnlocked(store, args[0])

		dir := 1
		if stepPrev {
			dir = -1
		}
		payload, ok, err := store.StepNote(context.Background(), args[0], args[1], stepFrom, dir)
		if err != nil {
			fatal("Step failed", err)
		}
		if !ok {
			fmt.Fprintln(os.Stderr, "No matches.")
			os.Exit(1)
		}

		v := payload.Values()
		v.Del("id")
		fmt.Printf("%s/notes/%s/%s?%s\n",
			clientConfig().BaseURL,
			url.PathEscape(notes.SafeName(args[0])), url.PathEscape(payload.NoteID), v.Encode())
	},
}

// writeHitsByNote writes one line per matching note with its hit count and
// the global index of its first hit, which is what step --from expects.
func writeHitsByNote(w io.Writer, hits []search.Hit) {
	for _, id := range search.NoteIDs(hits) {
		group := search.HitsForNote(hits, id)
		first := group[0]
		fmt.Fprintf(w, "%s %s: %d hit(s), first at %d: %s\n",
			first.NoteLabel, first.NoteTitle, len(group), search.FirstHitForNote(hits, id), first.Preview)
	}
}

func init() {
	rootCmd.AddCommand(searchCmd, stepCmd)

	searchCmd.Flags().BoolVar(&notesFromCache, "cache", false, "Search the local cache when possible")
	searchCmd.Flags().BoolVar(&searchByNote, "by-note", false, "Group hits by note")
	stepCmd.Flags().IntVar(&stepFrom, "from", 0, "Global hit index to step from")
	stepCmd.Flags().BoolVar(&stepPrev, "prev", false, "Step to the previous note instead of the next")
}

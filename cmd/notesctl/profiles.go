package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"notesync/internal/client"
)

var (
	profileDisplayName string
	profilePin         string
	unlockRemember     bool
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List profiles",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		profiles, err := newStore().ListProfiles(context.Background())
		if err != nil {
			fatal("Failed to list profiles", err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDISPLAY NAME\tUPDATED")
		for _, p := range profiles {
			fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.DisplayName, p.UpdatedAt)
		}
		_ = w.Flush()
	},
}

var createProfileCmd = &cobra.Command{
	Use:   "create-profile [name]",
	Short: "Create a PIN-gated profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		store := newStore()
		p, err := store.CreateProfile(context.Background(), args[0], profileDisplayName, profilePin)
		if err != nil {
			fatal("Failed to create profile", err)
		}
		if err := store.Cache().SetUnlocked(p.Name, false, client.DefaultRememberDays, time.Now()); err != nil {
			fatal("Failed to record unlock", err)
		}
		fmt.Printf("Profile '%s' created.\n", p.Name)
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock [name]",
	Short: "Unlock a profile with its PIN",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := newStore().Unlock(context.Background(), args[0], profilePin, unlockRemember); err != nil {
			fatal("Failed to unlock", err)
		}
		fmt.Printf("Profile '%s' unlocked.\n", args[0])
	},
}

var lockCmd = &cobra.Command{
	Use:   "lock [name]",
	Short: "Forget a profile's unlock",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if err := newStore().Lock(args[0]); err != nil {
			fatal("Failed to lock", err)
		}
		fmt.Printf("Profile '%s' locked.\n", args[0])
	},
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Create the demo profile if it does not exist",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if err := newStore().EnsureDemo(context.Background()); err != nil {
			fatal("Failed to create demo profile", err)
		}
		fmt.Printf("Demo profile '%s' is ready (PIN %s).\n", client.DemoProfile, client.DemoPIN)
	},
}

func init() {
	rootCmd.AddCommand(profilesCmd, createProfileCmd, unlockCmd, lockCmd, demoCmd)

	createProfileCmd.Flags().StringVar(&profileDisplayName, "display-name", "", "Display name (defaults to the name)")
	createProfileCmd.Flags().StringVar(&profilePin, "pin", "", "PIN (at least 3 characters)")
	_ = createProfileCmd.MarkFlagRequired("pin")

	unlockCmd.Flags().StringVar(&profilePin, "pin", "", "PIN")
	unlockCmd.Flags().BoolVar(&unlockRemember, "remember", false, "Stay unlocked on this device for 21 days")
	_ = unlockCmd.MarkFlagRequired("pin")
}

package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/murmur"
)

var (
	noteBody   string
	noteFolder string
	noteTags   []string
	notePinned bool
	noteSync   bool
	listJSON   bool
	filterTag  string
)

var noteCmd = &cobra.Command{
	Use:   "note",
	Short: "Manage notes in the local data directory",
}

var noteAddCmd = &cobra.Command{
	Use:   "add <title>",
	Short: "Create a note",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		note := murmur.Note{
			Meta:     murmur.NewMeta(uuid.NewString(), time.Now()),
			Title:    strings.Join(args, " "),
			Body:     noteBody,
			FolderID: noteFolder,
			Tags:     noteTags,
			Pinned:   notePinned,
		}

		saved, err := murmur.NewCollection[murmur.Note](engine.Notes, nil).Save(ctx, note)
		if err != nil {
			return fmt.Errorf("failed to save note: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), saved.ID)

		if noteSync {
			printOutcomes(cmd, engine.SyncAll(ctx))
		}
		return nil
	},
}

var noteListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		notes, err := murmur.NewCollection[murmur.Note](engine.Notes, nil).List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list notes: %w", err)
		}

		filtered := []murmur.Note{}
		for _, n := range notes {
			if filterTag != "" && !slices.Contains(n.Tags, filterTag) {
				continue
			}
			filtered = append(filtered, n)
		}

		if listJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(filtered)
		}

		for _, n := range filtered {
			fmt.Fprintf(cmd.OutOrStdout(), "%s - %s\n", n.ID, n.Title)
		}
		return nil
	},
}

var noteShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		n, err := murmur.NewCollection[murmur.Note](engine.Notes, nil).Get(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "# %s\n\n", n.Title)
		if len(n.Tags) > 0 {
			fmt.Fprintf(out, "tags: %s\n", strings.Join(n.Tags, ", "))
		}
		fmt.Fprintf(out, "updated: %s\n\n", n.EffectiveTime().Local().Format(time.RFC1123))
		if n.Body != "" {
			fmt.Fprintln(out, n.Body)
		}
		return nil
	},
}

var noteRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete a note on every device",
	Long: `Delete a note. The note is tombstoned rather than removed, so the deletion
reaches the remote and other devices on their next sync.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		if err := murmur.NewCollection[murmur.Note](engine.Notes, nil).Delete(ctx, args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])

		if noteSync {
			printOutcomes(cmd, engine.SyncAll(ctx))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(noteCmd)
	noteCmd.AddCommand(noteAddCmd, noteListCmd, noteShowCmd, noteRmCmd)
	noteCmd.PersistentFlags().BoolVar(&noteSync, "sync", false, "Run a sync cycle after the change")

	noteAddCmd.Flags().StringVarP(&noteBody, "body", "b", "", "Note text")
	noteAddCmd.Flags().StringVar(&noteFolder, "folder", "", "Folder id")
	noteAddCmd.Flags().StringSliceVarP(&noteTags, "tag", "t", nil, "Tag (repeatable)")
	noteAddCmd.Flags().BoolVar(&notePinned, "pin", false, "Pin the note")

	noteListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	noteListCmd.Flags().StringVar(&filterTag, "tag", "", "Filter notes by tag")
}

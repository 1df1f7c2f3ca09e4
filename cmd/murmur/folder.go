package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/murmur"
)

var (
	folderParent string
	folderColor  string
	folderJSON   bool
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Manage folders in the local data directory",
}

var folderAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Create a folder",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		folder := murmur.Folder{
			Meta:     murmur.NewMeta(uuid.NewString(), time.Now()),
			Name:     strings.Join(args, " "),
			ParentID: folderParent,
			Color:    folderColor,
		}

		saved, err := murmur.NewCollection[murmur.Folder](engine.Folders, nil).Save(ctx, folder)
		if err != nil {
			return fmt.Errorf("failed to save folder: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
		return nil
	},
}

var folderListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folders",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		folders, err := murmur.NewCollection[murmur.Folder](engine.Folders, nil).List(ctx)
		if err != nil {
			return fmt.Errorf("failed to list folders: %w", err)
		}

		if folderJSON {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			return encoder.Encode(folders)
		}

		for _, f := range folders {
			fmt.Fprintf(cmd.OutOrStdout(), "%s - %s\n", f.ID, f.Name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(folderCmd)
	folderCmd.AddCommand(folderAddCmd, folderListCmd)

	folderAddCmd.Flags().StringVar(&folderParent, "parent", "", "Parent folder id")
	folderAddCmd.Flags().StringVar(&folderColor, "color", "", "Display color")

	folderListCmd.Flags().BoolVar(&folderJSON, "json", false, "Output in JSON format")
}

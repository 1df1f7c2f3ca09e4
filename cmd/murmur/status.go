package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"

	"github.com/aretw0/murmur"
	"github.com/aretw0/murmur/pkg/core"
)

var (
	statusJSON    bool
	statusDiagram bool
)

// kindStatus is the per-kind line of `murmur status`.
type kindStatus struct {
	Kind       core.Kind `json:"kind"`
	Local      int       `json:"local"`
	Tombstones int       `json:"tombstones"`
	Remote     int       `json:"remote"`
}

// statusReport is the JSON form of `murmur status`.
type statusReport struct {
	Root      string         `json:"root"`
	Owner     string         `json:"owner,omitempty"`
	Versioned bool           `json:"versioned"`
	Remote    string         `json:"remote"`
	Kinds     []kindStatus   `json:"kinds"`
	State     map[string]any `json:"state"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local and remote record counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		report, err := buildStatus(ctx, engine, v.GetString("owner"))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		switch {
		case statusJSON:
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		case statusDiagram:
			config := introspection.DefaultDiagramConfig()
			config.SecondaryID = "murmur"
			config.SecondaryLabel = "Data Root"
			fmt.Fprintln(out, introspection.TreeDiagram(statusTree(report), config))
			return nil
		}

		fmt.Fprintf(out, "root:      %s\n", report.Root)
		fmt.Fprintf(out, "owner:     %s\n", valueOr(report.Owner, "(not signed in)"))
		fmt.Fprintf(out, "remote:    %s\n", report.Remote)
		fmt.Fprintf(out, "versioned: %v\n\n", report.Versioned)

		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "KIND\tLOCAL\tDELETED\tREMOTE")
		for _, k := range report.Kinds {
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", k.Kind, k.Local, k.Tombstones, k.Remote)
		}
		return w.Flush()
	},
}

func buildStatus(ctx context.Context, engine *murmur.Engine, owner string) (statusReport, error) {
	report := statusReport{
		Root:      engine.Root,
		Owner:     owner,
		Versioned: engine.Versioned(),
		Remote:    engine.Remote.Path(),
	}

	counts := []struct {
		kind core.Kind
		read func(context.Context) (int, int, error)
	}{
		{core.KindNotes, countOf[core.Note](engine.Notes)},
		{core.KindRecordings, countOf[core.Recording](engine.Recordings)},
		{core.KindFolders, countOf[core.Folder](engine.Folders)},
	}

	for _, c := range counts {
		live, deleted, err := c.read(ctx)
		if err != nil {
			return report, fmt.Errorf("failed to read %s: %w", c.kind, err)
		}
		ks := kindStatus{Kind: c.kind, Local: live, Tombstones: deleted}
		if owner != "" {
			if ks.Remote, err = engine.Remote.Count(ctx, c.kind, owner); err != nil {
				return report, err
			}
		}
		report.Kinds = append(report.Kinds, ks)
	}

	report.State = engine.State()
	return report, nil
}

func countOf[T core.Entity](store core.LocalStore[T]) func(context.Context) (int, int, error) {
	return func(ctx context.Context) (int, int, error) {
		all, err := store.ReadAll(ctx)
		if err != nil {
			return 0, 0, err
		}
		live := len(core.Live(all))
		return live, len(all) - live, nil
	}
}

type statusNode struct {
	Name     string
	Status   string
	Metadata map[string]string
	Children []statusNode
}

// statusTree shapes the report for introspection.TreeDiagram.
// Status must match classes in introspection.DefaultStyles().
func statusTree(r statusReport) statusNode {
	root := statusNode{
		Name:   "Data Root",
		Status: "running",
		Metadata: map[string]string{
			"path":      r.Root,
			"versioned": fmt.Sprintf("%v", r.Versioned),
		},
	}

	remoteStatus := "suspended"
	if r.Owner != "" {
		remoteStatus = "running"
	}

	for _, k := range r.Kinds {
		root.Children = append(root.Children, statusNode{
			Name:   string(k.Kind),
			Status: remoteStatus,
			Metadata: map[string]string{
				"local":   fmt.Sprintf("%d", k.Local),
				"deleted": fmt.Sprintf("%d", k.Tombstones),
				"remote":  fmt.Sprintf("%d", k.Remote),
			},
		})
	}
	return root
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output in JSON format")
	statusCmd.Flags().BoolVar(&statusDiagram, "diagram", false, "Output a Mermaid diagram")
}

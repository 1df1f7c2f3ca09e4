package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/aretw0/murmur/pkg/syncer"
)

var syncStrict bool

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync cycle for every kind",
	Long: `Merge the local data directory with the remote store of the signed-in owner.
Kinds are synced concurrently and independently. A failed kind is reported and
retried on the next run; the others still complete.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := openEngine(cmd.Context())
		if err != nil {
			return err
		}
		defer engine.Close()

		outcomes := engine.SyncAll(cmd.Context())
		if outcomes == nil {
			return errNotSignedIn
		}

		printOutcomes(cmd, outcomes)

		if syncStrict {
			for _, out := range outcomes {
				if !out.OK() {
					return fmt.Errorf("sync %s: %s", out.Kind, out.Status)
				}
			}
		}
		return nil
	},
}

func printOutcomes(cmd *cobra.Command, outcomes []syncer.Outcome) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "KIND\tSTATUS\tMERGED\tPUSHED\tPULLED\tSKIPPED\tERROR")
	for _, out := range outcomes {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			out.Kind, out.Status, out.Merged, out.Pushed, out.Pulled, out.Skipped, out.Error())
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().BoolVar(&syncStrict, "strict", false, "Exit with an error when any kind did not fully succeed")
}

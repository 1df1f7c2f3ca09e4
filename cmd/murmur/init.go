package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/murmur"
)

var (
	initForce      bool
	initVersioning bool
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a murmur data directory",
	Long: `Initialize a data directory: write murmur.yaml, create one directory per kind
and the remote database. With --versioning, a git repository is created too and
every sync writeback is committed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := defaultFileConfig()
		cfg.Owner = v.GetString("owner")
		cfg.Remote = v.GetString("remote")
		cfg.Format = v.GetString("format")
		cfg.Versioning = initVersioning
		cfg.LogFormat = v.GetString("log_format")

		path, err := writeConfig(dataDir, cfg, initForce)
		if err != nil {
			return err
		}

		engine, err := openEngine(cmd.Context(),
			murmur.WithVersioning(initVersioning),
			murmur.WithAutoInit(initVersioning),
		)
		if err != nil {
			return err
		}
		defer engine.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Initialized murmur data directory in %s\n", engine.Root)
		fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
		if cfg.Owner == "" {
			fmt.Fprintln(cmd.OutOrStdout(), "No owner set yet: sync stays idle until one is configured.")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing murmur.yaml")
	initCmd.Flags().BoolVar(&initVersioning, "versioning", false, "Commit every writeback with git")
}

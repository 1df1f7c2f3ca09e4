package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/aretw0/murmur"
)

// EnvPrefix prefixes every environment variable the CLI reads.
const EnvPrefix = "MURMUR"

var (
	verbose bool
	dataDir string
	logFile string

	v      = viper.New()
	logger = slog.New(slog.DiscardHandler)
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "murmur",
	Short: "Keep notes, recordings and folders in sync across devices",
	Long: `murmur keeps a local data directory of notes, recordings and folders in step
with a shared remote store. Each sync merges both sides by last-writer-wins,
kind by kind, and a failed kind is simply retried on the next run.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// init creates a root where it runs instead of reusing an enclosing one.
		root, err := resolveDataDir(dataDir, cmd != initCmd)
		if err != nil {
			return err
		}
		dataDir = root

		if err := loadConfig(v, dataDir); err != nil {
			return err
		}

		var out io.Writer = os.Stderr
		if logFile != "" {
			out = &lumberjack.Logger{
				Filename:   logFile,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
		}
		logger = newLogger(out, v.GetString("log_format"), verbose)
		slog.SetDefault(logger)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVarP(&dataDir, "dir", "C", "", "Data directory (default: nearest directory with .murmur or murmur.yaml, else the current one)")
	flags.StringVar(&logFile, "log-file", "", "Write logs to a rotating file instead of stderr")
	flags.String("log-format", "text", "Log format: text or json")
	flags.String("owner", "", "Signed-in owner id")
	flags.String("remote", "", "Path of the remote database")
	flags.String("format", "", "File format for new records: .json, .yaml or .md")

	for key, name := range map[string]string{
		"log_format": "log-format",
		"owner":      "owner",
		"remote":     "remote",
		"format":     "format",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
}

// resolveDataDir picks the explicit directory, else (when search is set) the
// nearest data root above the working directory, else the working directory.
func resolveDataDir(explicit string, search bool) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if !search {
		return cwd, nil
	}
	root, err := murmur.FindRoot(cwd)
	if err != nil {
		return cwd, nil
	}
	return root, nil
}

// newLogger builds the CLI logger. Unknown formats fall back to text.
func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

var errNotSignedIn = errors.New("no owner configured; set one with --owner, MURMUR_OWNER or murmur.yaml")

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/lifecycle/pkg/core/supervisor"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/spf13/cobra"

	lifecycleadapter "github.com/aretw0/murmur/pkg/adapters/lifecycle"
	"github.com/aretw0/murmur/pkg/core"
	"github.com/aretw0/murmur/pkg/syncer"
)

// daemonCmd represents the daemon command
var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Sync periodically and on local changes",
	Long: `Run sync cycles on an interval and whenever a record file changes locally.
The file watcher is supervised and restarted when it fails. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		interval := v.GetDuration("interval")
		watch := v.GetBool("watch")
		if interval <= 0 && !watch {
			return fmt.Errorf("nothing to do: interval is 0 and watching is disabled")
		}
		if v.GetString("owner") == "" {
			logger.Warn("no owner configured, cycles stay idle until one is set")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		engine, err := openEngine(ctx)
		if err != nil {
			return err
		}
		defer engine.Close()

		sched := engine.Scheduler(interval, syncer.WithRunOnStart(true))
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		var sup stopper
		if watch {
			events := make(chan core.Event, 16)
			sup, err = superviseWatcher(ctx, func() worker.Worker { return engine.Watcher(events) })
			if err != nil {
				return err
			}
			if err := sched.Listen(ctx, lifecycleadapter.NewSource(events)); err != nil {
				return err
			}
		}

		logger.Info("daemon started", "root", engine.Root, "interval", interval.String(), "watch", watch)
		<-ctx.Done()
		logger.Info("shutting down")

		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if sup != nil {
			if err := sup.Stop(stopCtx); err != nil {
				logger.Error("failed to stop watcher", "error", err)
			}
		}
		if err := sched.Stop(stopCtx); err != nil {
			logger.Error("failed to stop scheduler", "error", err)
		}

		logger.Info("daemon stopped", "cycles", sched.Cycles())
		return nil
	},
}

type stopper interface {
	Stop(ctx context.Context) error
}

// superviseWatcher runs a file watcher under a supervisor that restarts it
// with backoff when it fails.
func superviseWatcher(ctx context.Context, newWatcher func() worker.Worker) (stopper, error) {
	spec := supervisor.Spec{
		Name: "fs-watcher",
		Type: string(worker.TypeGoroutine),
		Factory: func() (worker.Worker, error) {
			return newWatcher(), nil
		},
		Backoff: supervisor.Backoff{
			InitialInterval: time.Second,
			MaxInterval:     30 * time.Second,
			Multiplier:      2,
			ResetDuration:   time.Minute,
			MaxRestarts:     5,
			MaxDuration:     10 * time.Minute,
		},
		RestartPolicy: supervisor.RestartOnFailure,
	}

	sup := supervisor.New("murmur-watch", supervisor.StrategyOneForOne, spec)
	if err := sup.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start watcher supervisor: %w", err)
	}
	return sup, nil
}

func init() {
	rootCmd.AddCommand(daemonCmd)
	daemonCmd.Flags().Duration("interval", 5*time.Minute, "Time between periodic cycles (0 disables them)")
	daemonCmd.Flags().Bool("watch", true, "Also sync when record files change")

	for _, name := range []string{"interval", "watch"} {
		if err := v.BindPFlag(name, daemonCmd.Flags().Lookup(name)); err != nil {
			slog.Error("Error binding flag", "flag", name, "error", err)
		}
	}
}

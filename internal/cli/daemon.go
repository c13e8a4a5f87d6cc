package cli

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"focusd/internal/daemon"
	"focusd/internal/report"
	"focusd/internal/source"
	"focusd/internal/stats"
)

func newRunCmd(configPath *string) *cobra.Command {
	var label string
	var resume bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the tracking daemon in the foreground",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if !source.Available() {
				return fmt.Errorf("no window source available on this platform; install xdotool on Linux")
			}

			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			if resume && label == "" {
				recent, err := st.MostRecentLabel()
				if err != nil {
					return err
				}
				if recent == "" {
					return fmt.Errorf("no previous session label to resume")
				}
				label = recent
			}

			if err := daemon.WritePIDFile(os.Getpid()); err != nil {
				return err
			}
			defer daemon.RemovePIDFile()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tr := buildTracker(cfg, label)
			d := daemon.New(cfg, tr, st, source.New())
			return d.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "name this work session")
	cmd.Flags().BoolVar(&resume, "resume", false, "resume the most recent session label")
	return cmd
}

func newStartCmd(configPath *string) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the tracking daemon in the background",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if pid, ok := daemon.ReadPIDFile(); ok {
				return fmt.Errorf("already running (pid %d)", pid)
			}

			exe, err := os.Executable()
			if err != nil {
				return err
			}

			args := []string{"run", "--config", *configPath}
			if label != "" {
				args = append(args, "--label", label)
			}

			logPath, err := daemonLogPath()
			if err != nil {
				return err
			}
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return err
			}
			defer logFile.Close()

			child := exec.Command(exe, args...)
			child.Stdout = logFile
			child.Stderr = logFile
			if err := child.Start(); err != nil {
				return fmt.Errorf("spawn daemon: %w", err)
			}
			// The child registers its own pid file; don't wait on it.
			_ = child.Process.Release()

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "tracking started (pid %d), logs at %s\n", child.Process.Pid, logPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&label, "label", "", "name this work session")
	return cmd
}

func newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the background tracking daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pid, ok := daemon.ReadPIDFile()
			if !ok {
				return fmt.Errorf("not running")
			}
			proc, err := os.FindProcess(pid)
			if err != nil {
				return err
			}
			if err := proc.Signal(syscall.SIGTERM); err != nil {
				return fmt.Errorf("signal pid %d: %w", pid, err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "sent stop signal to pid %d\n", pid)
			return nil
		},
	}
}

func newStatusCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon state and today's progress",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, running := daemon.ReadPIDFile()
			_, _ = fmt.Fprint(cmd.OutOrStdout(), report.Status(running, nil))

			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			st, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer st.Close()

			agg := stats.New(st, cfg.DeepFocusThreshold())
			ds, err := agg.DailyStats(time.Now().UTC())
			if err != nil {
				return err
			}
			_, _ = fmt.Fprint(cmd.OutOrStdout(), report.Daily(ds))
			return nil
		},
	}
}

func daemonLogPath() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, "focusd", "focusd.log")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	return path, nil
}

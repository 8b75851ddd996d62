package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/adreview/internal/api"
	"github.com/joescharf/adreview/internal/criteria"
	"github.com/joescharf/adreview/internal/daemon"
	"github.com/joescharf/adreview/internal/export"
	"github.com/joescharf/adreview/internal/manifest"
	"github.com/joescharf/adreview/internal/models"
	"github.com/joescharf/adreview/internal/output"
	"github.com/joescharf/adreview/internal/queue"
	"github.com/joescharf/adreview/internal/review"
	webui "github.com/joescharf/adreview/internal/ui"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve [files...]",
	Short: "Start the review page",
	Long: `Start an HTTP server that serves the review page and its API.
By default it listens on port 8080. Use --port to change it.

Local video files given as arguments are queued before the page opens.
If a manifest is configured (--manifest or "manifest" in config), its
URLs are preloaded into the queue; a missing or unreadable manifest is
skipped silently.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd.Context(), args)
	},
}

var serveStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the review server in the background",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStartRun()
	},
}

var serveStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the background review server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStopRun()
	},
}

var serveStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show whether the background review server is running",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveStatusRun()
	},
}

func init() {
	serveCmd.AddCommand(serveStartCmd)
	serveCmd.AddCommand(serveStopCmd)
	serveCmd.AddCommand(serveStatusCmd)
	rootCmd.AddCommand(serveCmd)

	serveCmd.PersistentFlags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.PersistentFlags().String("manifest", "", "path or URL of a video manifest to preload")
	_ = viper.BindPFlag("port", serveCmd.PersistentFlags().Lookup("port"))
	_ = viper.BindPFlag("manifest", serveCmd.PersistentFlags().Lookup("manifest"))
}

// pidFile returns the PID file tracking the background server.
func pidFile() *daemon.PIDFile {
	return daemon.NewPIDFile(filepath.Join(viper.GetString("state_dir"), "adreview-serve.pid"))
}

// serveLogPath returns where the background server writes its output.
func serveLogPath() string {
	return filepath.Join(viper.GetString("state_dir"), "adreview-serve.log")
}

// newSession builds a review session wired to config-driven criteria.
func newSession() *review.Session {
	return review.NewSession(
		review.WithCriteria(criteria.FromConfig{}),
		review.WithLogger(logger),
	)
}

// watchConfig re-reads the config file when it changes so criteria edits
// apply to the next loaded item. It reports false when no file is in use.
func watchConfig() bool {
	path := viper.ConfigFileUsed()
	if path == "" {
		return false
	}
	if _, err := os.Stat(path); err != nil {
		return false
	}
	viper.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("config reloaded", "file", e.Name, "op", e.Op.String())
	})
	viper.WatchConfig()
	return true
}

// preload queues the manifest URLs followed by local files from args.
func preload(ctx context.Context, sess *review.Session, args []string) error {
	if src := viper.GetString("manifest"); src != "" {
		if n := sess.AddURLs(manifest.Preload(ctx, src, logger)); n > 0 {
			ui.VerboseLog("Preloaded %d URL(s) from %s", n, src)
		}
	}

	files := make([]queue.LocalFile, 0, len(args))
	for _, arg := range args {
		lf, err := queue.FromPath(arg)
		if err != nil {
			return err
		}
		files = append(files, lf)
	}
	if len(files) > 0 {
		sess.AddLocalFiles(files)
	}
	return nil
}

func serveRun(ctx context.Context, args []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	pid := os.Getpid()
	pf := pidFile()
	if err := os.MkdirAll(filepath.Dir(pf.Path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	if err := pf.Acquire(pid); err != nil {
		return fmt.Errorf("review server %w", err)
	}
	defer func() { _ = pf.Release(pid) }()

	if watchConfig() {
		logger.Debug("watching config file", "file", viper.ConfigFileUsed())
	}

	sess := newSession()
	if err := preload(ctx, sess, args); err != nil {
		return err
	}

	uploadDir := viper.GetString("upload_dir")
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return fmt.Errorf("create upload directory: %w", err)
	}

	pages, err := webui.Handler()
	if err != nil {
		return fmt.Errorf("failed to initialize UI handler: %w", err)
	}

	addr := fmt.Sprintf(":%d", viper.GetInt("port"))
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(sess, uploadDir, logger).Handler(pages),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, shutdownSignals()...)
	defer signal.Stop(done)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	ui.Success("Serving review page at http://localhost%s", addr)

	select {
	case <-done:
		logger.Info("shutdown signal received")
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("listen failed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown failed", "error", err)
		_ = srv.Close()
	}

	printSummary(sess)
	if err := sess.Clear(); err != nil {
		logger.Warn("clear left files behind", "error", err)
	}
	logger.Info("server stopped")
	return nil
}

// printSummary writes a table of the session's decisions.
func printSummary(sess *review.Session) {
	results := sess.Results()
	if len(results) == 0 {
		ui.Info("No results recorded")
		return
	}

	accepted := 0
	table := ui.Table([]string{"#", "File", "Decision", "Time"})
	for i, r := range results {
		if r.Decision == models.DecisionAccept {
			accepted++
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			r.ItemName,
			output.DecisionColor(string(r.Decision)),
			export.FormatSeconds(r.TimeSpentSeconds) + "s",
		})
	}
	_ = table.Render()
	ui.Info("%d reviewed, %d accepted, %d rejected", len(results), accepted, len(results)-accepted)
}

func serveStartRun() error {
	pf := pidFile()
	if pid, alive := pf.IsRunning(); alive {
		return fmt.Errorf("review server already running (pid %d)", pid)
	}

	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	logPath := serveLogPath()
	if dryRun {
		ui.DryRunMsg("Would start %s serve in the background (log: %s)", exe, logPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	child := exec.Command(exe, "serve", "--port", fmt.Sprintf("%d", viper.GetInt("port")))
	if src := viper.GetString("manifest"); src != "" {
		child.Args = append(child.Args, "--manifest", src)
	}
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		child.Args = append(child.Args, "--config", cfgFile)
	}
	child.Stdout = logFile
	child.Stderr = logFile
	setDaemonAttrs(child)

	if err := child.Start(); err != nil {
		return fmt.Errorf("start review server: %w", err)
	}
	if err := pf.WritePID(child.Process.Pid); err != nil {
		return fmt.Errorf("write PID file: %w", err)
	}
	_ = child.Process.Release()

	ui.Success("Review server started (pid %d) on port %d", child.Process.Pid, viper.GetInt("port"))
	ui.Info("Log: %s", logPath)
	return nil
}

func serveStopRun() error {
	pf := pidFile()
	pid, alive := pf.IsRunning()
	if !alive {
		_ = pf.Remove()
		return fmt.Errorf("review server is not running")
	}

	if dryRun {
		ui.DryRunMsg("Would stop review server (pid %d)", pid)
		return nil
	}

	if err := pf.Signal(sigTERM()); err != nil {
		return fmt.Errorf("signal review server: %w", err)
	}

	deadline := time.Now().Add(shutdownTimeout)
	for time.Now().Before(deadline) {
		if _, alive := pf.IsRunning(); !alive {
			_ = pf.Remove()
			ui.Success("Review server stopped (pid %d)", pid)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	ui.Warning("Review server did not exit in %s; killing", shutdownTimeout)
	if err := pf.Signal(sigKILL()); err != nil {
		return fmt.Errorf("kill review server: %w", err)
	}
	_ = pf.Remove()
	return nil
}

func serveStatusRun() error {
	pf := pidFile()
	pid, alive := pf.IsRunning()
	if !alive {
		ui.Info("Review server: %s", output.Yellow("not running"))
		return nil
	}
	ui.Info("Review server: %s (pid %d)", output.Green("running"), pid)
	ui.Info("Log: %s", serveLogPath())
	return nil
}

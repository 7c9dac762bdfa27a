// Package cmd wires configuration, logging, telemetry and the panel runtime
// behind the gitpane CLI.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/zjrosen/gitpane/internal/config"
	"github.com/zjrosen/gitpane/internal/git/application"
	"github.com/zjrosen/gitpane/internal/git/infrastructure"
	"github.com/zjrosen/gitpane/internal/log"
	"github.com/zjrosen/gitpane/internal/telemetry"
	"github.com/zjrosen/gitpane/internal/ui/gitpanel"
)

var (
	cfgFile  string
	repoPath string
)

var rootCmd = &cobra.Command{
	Use:   "gitpane [path]",
	Short: "Embedded source-control panel for a git working copy",
	Long: `gitpane keeps a consistent, periodically refreshed snapshot of a
working copy's git state and sequences every mutating operation against it,
with guard rails around destructive actions such as switching branches over
uncommitted changes.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRoot,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.gitpane/config.yaml)")
	rootCmd.Flags().StringVar(&repoPath, "path", "", "working copy to attach to (default current directory)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func runRoot(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.RepoPath = args[0]
	}
	if repoPath != "" {
		cfg.RepoPath = repoPath
	}

	if err := log.Init(log.Config{
		Level:    cfg.Logging.Level,
		FilePath: cfg.Logging.FilePath,
		Console:  cfg.Logging.Console,
	}); err != nil {
		return fmt.Errorf("initializing logging: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.ErrorErr(log.CatConfig, "telemetry shutdown failed", err)
		}
	}()

	runner := infrastructure.NewExecRunner(cfg.Git.Binary, cfg.Git.CommandTimeout)
	gateway := infrastructure.NewCLIGateway(runner)
	fetcher := application.NewFetcher(gateway, cfg.CommitLogLimit)
	notifier := application.NewNotifier(cfg.ErrorTTL)
	orch := application.NewOrchestrator(application.OrchestratorConfig{
		Gateway:           gateway,
		Fetcher:           fetcher,
		Notifier:          notifier,
		Path:              cfg.RepoPath,
		ProtectedBranches: cfg.ProtectedBranches,
	})
	defer orch.Close()
	guard := application.NewCheckoutGuard(orch)

	// Seed the first snapshot before the panel mounts; a fetch failure here
	// is not fatal, the panel shows the error state and keeps retrying.
	if _, err := orch.Refresh(ctx); err != nil {
		log.ErrorErr(log.CatGit, "initial snapshot fetch failed", err, "path", cfg.RepoPath)
	}

	var scheduler *application.Scheduler
	if cfg.AutoRefresh && orch.Snapshot().IsRepository {
		scheduler = application.NewScheduler(application.SchedulerConfig{
			Orchestrator: orch,
			Interval:     cfg.RefreshInterval,
			Debounce:     cfg.WatchDebounce,
		})
		scheduler.Start(ctx)
		defer scheduler.Stop()
	}

	log.Info(log.CatUI, "starting panel", "path", cfg.RepoPath)
	panel := gitpanel.New(ctx, orch, guard)
	program := tea.NewProgram(panel, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running panel: %w", err)
	}
	return nil
}

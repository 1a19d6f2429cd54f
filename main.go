package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/hannajonsd/pip-remove/analyzer"
	"github.com/hannajonsd/pip-remove/config"
	"github.com/hannajonsd/pip-remove/environment"
	"github.com/hannajonsd/pip-remove/logging"
	"github.com/hannajonsd/pip-remove/metadata"
	"github.com/hannajonsd/pip-remove/remove"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

var errNotInstalled = errors.New("package is not installed")

// options holds the command line flags shared by every command
type options struct {
	configPath string
	python     string
	verbose    bool

	yes      bool
	noScan   bool
	dryRun   bool
	lockFile string
	path     string
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "pip-remove <package>",
		Short: "Uninstall a Python package together with the dependencies only it needed",
		Long: "pip-remove finds the packages that would be left without a parent once the target is " +
			"uninstalled, checks which of them the project in the current directory still imports, " +
			"and removes the target plus the unused ones.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(cmd, opts, args[0])
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.python, "python", "", "Python interpreter to analyze")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Uninstall without asking for confirmation")
	rootCmd.Flags().BoolVar(&opts.noScan, "no-scan", false, "Skip the project import scan and treat every orphan as unused")
	rootCmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Report what would be removed without uninstalling")
	rootCmd.Flags().StringVar(&opts.lockFile, "lock", "", "Read dependency metadata from a uv.lock file")
	rootCmd.Flags().StringVar(&opts.path, "path", ".", "Project directory to scan for imports")

	rootCmd.AddCommand(newGetenvCmd(opts), newVersionCmd())

	return rootCmd
}

func newGetenvCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "getenv",
		Short: "Print the Python interpreter pip-remove would use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := setup(cmd, opts)
			if err != nil {
				return err
			}

			python, err := environment.Find(cfg.Python.Path)
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), python)
			return nil
		},
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the pip-remove version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pip-remove %s\n", version)
		},
	}
}

// setup loads the configuration, applies flag overrides and builds the logger
func setup(cmd *cobra.Command, opts *options) (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}

	if opts.python != "" {
		cfg.Python.Path = opts.python
	}
	if opts.lockFile != "" {
		cfg.Python.LockFile = opts.lockFile
	}
	if opts.noScan {
		cfg.Analysis.Scan = false
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	logger := logging.New(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	return cfg, logger, nil
}

func runRemove(cmd *cobra.Command, opts *options, target string) error {
	ctx := cmd.Context()

	cfg, logger, err := setup(cmd, opts)
	if err != nil {
		return err
	}

	python, err := environment.Find(cfg.Python.Path)
	if err != nil {
		return err
	}

	info, err := environment.Inspect(ctx, python)
	if err != nil {
		return err
	}
	logger.Debug("using interpreter", "python", info.Python, "prefix", info.Prefix, "isolated", info.IsolatedEnvironment())

	provider, err := newProvider(cfg, info, logger)
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("Resolving dependencies"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	a := analyzer.New(provider, info,
		analyzer.WithConcurrency(cfg.Analysis.Concurrency),
		analyzer.WithCacheSize(cfg.Analysis.CacheSize),
		analyzer.WithLogger(logger),
		analyzer.WithProgress(func(string) { _ = bar.Add(1) }),
	)

	report, err := a.Analyze(ctx, target, opts.path, cfg.Analysis.Scan)
	_ = bar.Finish()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()

	if !report.TargetFound {
		return fmt.Errorf("%w: %s", errNotInstalled, report.Target)
	}

	analyzer.PrintReport(out, report)

	if opts.dryRun {
		return nil
	}

	if !opts.yes && !confirm(cmd.InOrStdin(), out, "Proceed (Y/n)? ") {
		color.New(color.FgYellow).Fprintln(out, "Aborted.")
		return nil
	}

	executor := remove.NewExecutor(info.Python,
		remove.WithOutput(out, cmd.ErrOrStderr()),
		remove.WithLogger(logger),
	)
	return executor.Uninstall(ctx, report.Removable())
}

// newProvider picks the uv.lock provider when a lock file is configured and
// the interpreter query otherwise
func newProvider(cfg *config.Config, info environment.Info, logger *slog.Logger) (metadata.Provider, error) {
	if cfg.Python.LockFile != "" {
		lock, err := metadata.ParseUvLock(cfg.Python.LockFile)
		if err != nil {
			return nil, err
		}
		logger.Debug("using uv.lock metadata", "file", cfg.Python.LockFile, "packages", lock.Len())
		return lock, nil
	}

	return metadata.NewPipProvider(info.Python, cfg.Python.QueryTimeout, logger), nil
}

// confirm asks a yes/no question. An empty answer means yes.
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	fmt.Fprint(out, prompt)

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "", "y", "yes":
		return true
	default:
		return false
	}
}

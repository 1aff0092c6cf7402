package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/npmmirror/internal/logging"
	"github.com/blackwell-systems/npmmirror/internal/npm"
	"github.com/blackwell-systems/npmmirror/internal/output"
	"github.com/blackwell-systems/npmmirror/internal/scanner"
	"github.com/blackwell-systems/npmmirror/internal/snapshots"
)

// ErrorLogFile is recreated in the project directory on every snapshot run.
const ErrorLogFile = "error.log"

var (
	snapshotFlags    commonFlags
	snapshotDir      string
	snapshotOut      string
	snapshotMaxDepth int
	snapshotTimeout  time.Duration
	snapshotSkipPack bool

	// SnapshotCmd is the root command of npm-snapshot.
	SnapshotCmd = &cobra.Command{
		Use:   "npm-snapshot",
		Short: "Mirror an installed node_modules tree into package archives",
		Long: `npm-snapshot walks ./node_modules (including nested copies), records every
unique name@version in pkg/packages-summary.json and runs 'npm pack' once per
package so the pkg directory holds a tarball for the whole dependency tree.

Packages that already have an archive in the output directory are not packed
again, so an interrupted run can simply be repeated. Failures are written to
error.log and never stop the run.`,
		Example: `  # Snapshot the project in the current directory
  npm-snapshot

  # Only write the summary, do not pack
  npm-snapshot --skip-pack

  # Snapshot another project into a custom directory
  npm-snapshot --dir ../app --out /srv/mirror`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runSnapshot,
	}
)

func init() {
	snapshotFlags.register(SnapshotCmd)
	SnapshotCmd.Flags().StringVar(&snapshotDir, "dir", ".", "project directory containing package.json and node_modules")
	SnapshotCmd.Flags().StringVar(&snapshotOut, "out", "", "archive output directory (default: <dir>/pkg)")
	SnapshotCmd.Flags().IntVar(&snapshotMaxDepth, "max-depth", scanner.DefaultMaxDepth, "maximum nested node_modules depth")
	SnapshotCmd.Flags().DurationVar(&snapshotTimeout, "timeout", snapshots.DefaultPackTimeout, "timeout for each npm pack")
	SnapshotCmd.Flags().BoolVar(&snapshotSkipPack, "skip-pack", false, "write the summary without creating archives")

	SnapshotCmd.AddCommand(newHistoryCmd(&snapshotFlags, "snapshot"))
}

// snapshotOptions is the resolved configuration of one snapshot run.
type snapshotOptions struct {
	dir      string
	out      string
	maxDepth int
	timeout  time.Duration
	skipPack bool
	verbose  bool
	npm      string
	history  bool
	dbPath   string
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	cfg, err := snapshotFlags.loadConfig()
	if err != nil {
		return err
	}

	opts := snapshotOptions{
		dir:      snapshotDir,
		out:      snapshotOut,
		maxDepth: snapshotMaxDepth,
		timeout:  snapshotTimeout,
		skipPack: snapshotSkipPack,
		verbose:  snapshotFlags.verbose,
		npm:      cfg.NPM,
		history:  cfg.History,
	}
	if opts.out == "" {
		opts.out = cfg.OutputDir
	}
	if !cmd.Flags().Changed("max-depth") && cfg.MaxDepth > 0 {
		opts.maxDepth = cfg.MaxDepth
	}
	if !cmd.Flags().Changed("timeout") && cfg.PackTimeout.Duration > 0 {
		opts.timeout = cfg.PackTimeout.Duration
	}
	if opts.history {
		if opts.dbPath, err = cfg.DBPath(); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	return snapshot(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func snapshot(ctx context.Context, opts snapshotOptions, stdout, stderr io.Writer) error {
	started := time.Now()

	if opts.out == "" {
		opts.out = filepath.Join(opts.dir, "pkg")
	} else if !filepath.IsAbs(opts.out) {
		opts.out = filepath.Join(opts.dir, opts.out)
	}

	errFile, err := logging.Recreate(filepath.Join(opts.dir, ErrorLogFile))
	if err != nil {
		return err
	}
	defer errFile.Close()

	logger := logging.New(stderr, "snapshot", opts.verbose)
	errLog := logging.New(errFile, "", true)

	root, err := npm.ReadManifest(opts.dir)
	if err != nil {
		logger.Warn("cannot read project manifest; dependency counts will be zero", "err", err)
		root = nil
	}

	spinner := output.NewSpinner("Scanning node_modules")
	spinner.SetWriter(stderr)
	spinner.Start()

	walker := scanner.New(logger, errLog)
	walker.MaxDepth = opts.maxDepth
	result := walker.Walk(filepath.Join(opts.dir, scanner.NodeModules))
	pkgs := result.Sorted()

	spinner.StopWithMessage(fmt.Sprintf("✓ %d unique packages found", len(pkgs)))

	runner := newRunner(opts.npm, opts.dir)
	mgr := snapshots.New(runner, opts.out)
	mgr.Timeout = opts.timeout
	mgr.Logger = logger
	mgr.ErrorLog = errLog

	summaryPath, err := mgr.WriteSummary(snapshots.BuildSummary(root, pkgs, time.Now()))
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "Summary written to %s\n", summaryPath)

	if opts.skipPack || len(pkgs) == 0 {
		return nil
	}

	version, err := npm.Version(ctx, runner)
	if err != nil {
		return fmt.Errorf("npm is not available: %w", err)
	}
	logger.Debug("using npm", "version", version)

	bar := output.NewProgress(len(pkgs), "")
	bar.SetWriter(stderr)
	if output.WriterIsTTY(stderr) && !opts.verbose {
		mgr.OnProgress = func(done, total int) {
			bar.SetDescription(pkgs[done-1].Key())
			bar.Set(done)
		}
		logger.SetLevel(logging.QuietLevel)
	}

	report, err := mgr.CreateArchives(ctx, pkgs)
	if mgr.OnProgress != nil {
		bar.Finish()
	}
	if report != nil {
		fmt.Fprint(stdout, output.RenderTally("packed", report.Created, report.Existing, report.Failed))
		if report.Failed > 0 {
			fmt.Fprintf(stdout, "See %s for details.\n", filepath.Join(opts.dir, ErrorLogFile))
		}
		if opts.history {
			if herr := recordSnapshot(opts.dbPath, opts.out, started, report); herr != nil {
				logger.Warn("failed to record history", "err", herr)
			}
		}
	}
	return err
}

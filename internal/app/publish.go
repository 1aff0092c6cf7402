package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/npmmirror/internal/logging"
	"github.com/blackwell-systems/npmmirror/internal/output"
	"github.com/blackwell-systems/npmmirror/internal/publisher"
)

var (
	publishFlags   commonFlags
	publishLogFile string
	publishWatch   bool
	publishSettle  time.Duration
	publishDryRun  bool

	// PublishCmd is the root command of npm-publish.
	PublishCmd = &cobra.Command{
		Use:   "npm-publish <archiveDirectory> [registryUrl]",
		Short: "Publish a directory of npm archives, skipping existing versions",
		Long: `npm-publish reads every .tgz file in archiveDirectory, works out the package
name and version from the file name, and runs 'npm publish' for each version
the registry does not have yet.

registryUrl defaults to ` + publisher.DefaultRegistry + `. Every line is mirrored to
publish-log.txt, which is truncated at the start of each run, and the run ends
with a total / success / skipped / failed tally.

File names are decoded best effort: "@scope-name-1.0.0.tgz" is published as
@scope/name@1.0.0, while "scope-name-1.0.0.tgz" is treated as an unscoped
package called scope-name.`,
		Example: `  # Publish to the local registry
  npm-publish ./pkg

  # Publish to a specific registry
  npm-publish ./pkg https://npm.internal.example.com

  # Check what would be published
  npm-publish ./pkg --dry-run

  # Keep publishing archives as they land in the directory
  npm-publish ./pkg --watch`,
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPublish,
	}
)

func init() {
	publishFlags.register(PublishCmd)
	PublishCmd.Flags().StringVar(&publishLogFile, "log-file", publisher.LogFile, "run log, truncated at start")
	PublishCmd.Flags().BoolVar(&publishWatch, "watch", false, "after the batch, publish new archives as they appear")
	PublishCmd.Flags().DurationVar(&publishSettle, "settle", publisher.DefaultSettle, "quiet period before a new archive is published in watch mode")
	PublishCmd.Flags().BoolVar(&publishDryRun, "dry-run", false, "query the registry but do not publish")

	PublishCmd.AddCommand(newHistoryCmd(&publishFlags, "publish"))
}

// publishOptions is the resolved configuration of one publish run.
type publishOptions struct {
	dir      string
	registry string
	logFile  string
	watch    bool
	settle   time.Duration
	dryRun   bool
	verbose  bool
	npm      string
	history  bool
	dbPath   string
}

func runPublish(cmd *cobra.Command, args []string) error {
	cfg, err := publishFlags.loadConfig()
	if err != nil {
		return err
	}

	opts := publishOptions{
		dir:      args[0],
		registry: cfg.Registry,
		logFile:  publishLogFile,
		watch:    publishWatch,
		settle:   publishSettle,
		dryRun:   publishDryRun,
		verbose:  publishFlags.verbose,
		npm:      cfg.NPM,
		history:  cfg.History,
	}
	if len(args) > 1 {
		opts.registry = args[1]
	}
	if !cmd.Flags().Changed("log-file") && cfg.LogFile != "" {
		opts.logFile = cfg.LogFile
	}
	if opts.history {
		if opts.dbPath, err = cfg.DBPath(); err != nil {
			return err
		}
	}

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	return publish(ctx, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

func publish(ctx context.Context, opts publishOptions, stdout, stderr io.Writer) error {
	started := time.Now()

	p := publisher.New(newRunner(opts.npm, ""), opts.dir, opts.registry)
	if err := p.CheckDir(); err != nil {
		return err
	}
	p.DryRun = opts.dryRun

	runLog, err := logging.Truncate(opts.logFile)
	if err != nil {
		return err
	}
	defer runLog.Close()

	p.Logger = logging.Tee(stderr, runLog, "publish", opts.verbose)

	var watch *publisher.DirWatch
	if opts.watch {
		if watch, err = p.StartWatch(); err != nil {
			return err
		}
		defer watch.Close()
	}

	tally, err := p.Run(ctx)
	if err != nil {
		return err
	}

	verb := "published"
	if opts.dryRun {
		verb = "would publish"
	}

	if watch != nil {
		fmt.Fprint(stdout, output.RenderTally(verb, tally.Success, tally.Skipped, tally.Failed))
		if _, err := watch.Run(ctx, opts.settle, tally, tally.Add); err != nil {
			return err
		}
		p.Logger.Info("overall " + tally.String())
	}

	fmt.Fprint(stdout, output.RenderTally(verb, tally.Success, tally.Skipped, tally.Failed))

	switch {
	case !opts.history:
	case opts.dryRun:
		p.Logger.Info("dry run, not recorded in history")
	default:
		if herr := recordPublish(opts.dbPath, p.Registry(), started, tally); herr != nil {
			p.Logger.Warn("failed to record history", "err", herr)
		}
	}
	return nil
}

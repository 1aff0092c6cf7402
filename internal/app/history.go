package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/npmmirror/internal/output"
	"github.com/blackwell-systems/npmmirror/internal/publisher"
	"github.com/blackwell-systems/npmmirror/internal/snapshots"
	"github.com/blackwell-systems/npmmirror/internal/store"
)

// newHistoryCmd builds the history subcommand for one root command.
// kind selects which runs are listed.
func newHistoryCmd(flags *commonFlags, kind string) *cobra.Command {
	var (
		limit     int
		pruneDays int
	)

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded " + kind + " runs",
		Long: `List runs recorded with --history, newest first. Pass a run ID to see the
outcome of every package in that run.`,
		Example: `  # Recent runs
  history

  # Packages of run 12
  history 12

  # Forget runs older than 90 days
  history --prune-days 90`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			dbPath, err := cfg.DBPath()
			if err != nil {
				return err
			}
			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				return store.ErrNotInitialized
			}

			st, err := store.New(dbPath)
			if err != nil {
				return err
			}
			defer st.Close()

			out := cmd.OutOrStdout()

			if pruneDays > 0 {
				n, err := st.DeleteRunsBefore(time.Now().AddDate(0, 0, -pruneDays))
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Removed %d runs older than %d days\n", n, pruneDays)
				return nil
			}

			if len(args) == 1 {
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid run ID %q", args[0])
				}
				run, err := st.GetRun(id)
				if err != nil {
					return err
				}
				pkgs, err := st.GetRunPackages(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Run %d (%s, %s)\n\n", run.ID, run.Kind, run.StartedAt.Local().Format(time.DateTime))
				fmt.Fprint(out, output.RenderRunPackagesTable(pkgs))
				return nil
			}

			runs, err := st.ListRuns(kind, limit)
			if err != nil {
				return err
			}
			fmt.Fprint(out, output.RenderRunTable(runs))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of runs to list (0 for all)")
	cmd.Flags().IntVar(&pruneDays, "prune-days", 0, "delete runs older than this many days")
	return cmd
}

// openHistory opens the history database for writing, creating its
// directory and schema when needed.
func openHistory(dbPath string) (*store.Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}
	st, err := store.New(dbPath)
	if err != nil {
		return nil, err
	}
	if err := st.CreateSchema(); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// recordSnapshot stores an archive run in the history database.
func recordSnapshot(dbPath, outDir string, started time.Time, report *snapshots.Report) error {
	st, err := openHistory(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	pkgs := make([]*store.RunPackage, 0, len(report.Results))
	for _, r := range report.Results {
		rp := &store.RunPackage{
			Name:    r.Package.Name,
			Version: r.Package.Version,
			File:    r.Archive,
			Outcome: string(r.Status),
		}
		if r.Err != nil {
			rp.Detail = r.Err.Error()
		}
		pkgs = append(pkgs, rp)
	}

	_, err = st.RecordRun(&store.Run{
		Kind:       store.KindSnapshot,
		Target:     outDir,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Total:      report.Total(),
		Succeeded:  report.Created,
		Skipped:    report.Existing,
		Failed:     report.Failed,
	}, pkgs)
	return err
}

// recordPublish stores a publish run in the history database.
func recordPublish(dbPath, registry string, started time.Time, tally *publisher.Tally) error {
	st, err := openHistory(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	pkgs := make([]*store.RunPackage, 0, len(tally.Entries))
	for _, e := range tally.Entries {
		pkgs = append(pkgs, &store.RunPackage{
			Name:    e.Package.Name,
			Version: e.Package.Version,
			File:    e.File,
			Outcome: string(e.Outcome),
			Detail:  e.Reason,
		})
	}

	_, err = st.RecordRun(&store.Run{
		Kind:       store.KindPublish,
		Target:     registry,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Total:      tally.Total(),
		Succeeded:  tally.Success,
		Skipped:    tally.Skipped,
		Failed:     tally.Failed,
	}, pkgs)
	return err
}

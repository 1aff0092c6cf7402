package snapshots

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/blackwell-systems/npmmirror/internal/archive"
	"github.com/blackwell-systems/npmmirror/internal/npm"
)

// ExistingArchive returns the first candidate archive of pkg already present
// in the output directory.
func (m *Manager) ExistingArchive(pkg npm.Package) (string, bool) {
	for _, name := range archive.Candidates(pkg) {
		if _, err := os.Stat(filepath.Join(m.outDir, name)); err == nil {
			return name, true
		}
	}
	return "", false
}

// CreateArchives packs every package into the output directory, one at a
// time. Packages that already have an archive are not packed again. A
// failing or timed-out npm pack is logged and counted; it never stops the
// run. Only a cancelled ctx ends the loop early.
func (m *Manager) CreateArchives(ctx context.Context, pkgs []npm.Package) (*Report, error) {
	if err := os.MkdirAll(m.outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	report := &Report{Results: make([]Result, 0, len(pkgs))}
	for i, pkg := range pkgs {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		report.add(m.createArchive(ctx, pkg))

		if m.OnProgress != nil {
			m.OnProgress(i+1, len(pkgs))
		}
	}

	m.Logger.Info("archive run finished",
		"total", report.Total(),
		"created", report.Created,
		"existing", report.Existing,
		"failed", report.Failed)
	return report, nil
}

func (m *Manager) createArchive(ctx context.Context, pkg npm.Package) Result {
	if name, ok := m.ExistingArchive(pkg); ok {
		m.Logger.Debug("archive already present", "package", pkg.Key(), "file", name)
		return Result{Package: pkg, Status: StatusExisting, Archive: name}
	}

	if err := npm.Pack(ctx, m.runner, pkg, m.outDir, m.Timeout); err != nil {
		m.Logger.Error("pack failed", "package", pkg.Key(), "err", err)
		m.ErrorLog.Error("pack failed", "package", pkg.Key(), "err", err)
		return Result{Package: pkg, Status: StatusFailed, Err: err}
	}

	m.Logger.Info("packed", "package", pkg.Key())
	return Result{Package: pkg, Status: StatusCreated, Archive: archive.Filename(pkg)}
}

// Package publisher publishes a directory of npm archives to a registry,
// skipping versions the registry already has.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/npmmirror/internal/archive"
	"github.com/blackwell-systems/npmmirror/internal/logging"
	"github.com/blackwell-systems/npmmirror/internal/npm"
)

// DefaultRegistry is the local registry used when none is given.
const DefaultRegistry = "http://localhost:4873"

// LogFile is the run log name written by the publish command.
const LogFile = "publish-log.txt"

// ErrArchiveDirNotFound is returned when the archive directory is missing.
var ErrArchiveDirNotFound = errors.New("archive directory not found")

// Publisher publishes the archives found in one directory.
type Publisher struct {
	runner   npm.Runner
	dir      string
	registry string

	// Logger receives every progress line and the final tally.
	Logger *log.Logger
	// DryRun checks the registry but never calls npm publish.
	DryRun bool
}

// New creates a Publisher for dir. An empty registry means DefaultRegistry.
func New(runner npm.Runner, dir, registry string) *Publisher {
	if registry == "" {
		registry = DefaultRegistry
	}
	return &Publisher{
		runner:   runner,
		dir:      dir,
		registry: registry,
		Logger:   logging.Discard(),
	}
}

// Registry returns the target registry URL.
func (p *Publisher) Registry() string {
	return p.registry
}

// CheckDir verifies that the archive directory exists.
func (p *Publisher) CheckDir() error {
	info, err := os.Stat(p.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", p.dir, ErrArchiveDirNotFound)
		}
		return fmt.Errorf("failed to stat archive directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory: %w", p.dir, ErrArchiveDirNotFound)
	}
	return nil
}

// ListArchives returns the archive file names in the directory, sorted.
func (p *Publisher) ListArchives() ([]string, error) {
	if err := p.CheckDir(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(p.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !archive.IsArchive(entry.Name()) {
			continue
		}
		files = append(files, entry.Name())
	}
	sort.Strings(files)
	return files, nil
}

// Run publishes every archive in the directory, one at a time. A missing
// directory is the only error; per-archive failures are counted in the
// returned Tally. The tally line is always logged.
func (p *Publisher) Run(ctx context.Context) (*Tally, error) {
	files, err := p.ListArchives()
	if err != nil {
		return nil, err
	}

	tally := &Tally{}
	if len(files) == 0 {
		p.Logger.Warn("no archive files found", "dir", p.dir)
		return tally, nil
	}

	p.Logger.Info("publishing archives", "count", len(files), "registry", p.registry)
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			p.Logger.Info(tally.String())
			return tally, err
		}
		tally.Add(p.PublishFile(ctx, file))
	}

	p.Logger.Info(tally.String())
	return tally, nil
}

// PublishFile handles a single archive in the directory.
func (p *Publisher) PublishFile(ctx context.Context, file string) Entry {
	pkg, err := archive.Parse(file)
	if err != nil {
		p.Logger.Error("cannot parse archive name", "file", file, "err", err)
		return Entry{File: file, Outcome: Failed, Reason: err.Error()}
	}

	entry := Entry{File: file, Package: pkg, DryRun: p.DryRun}

	if npm.IsPublished(ctx, p.runner, pkg, p.registry) {
		p.Logger.Info("already published, skipping", "package", pkg.Key())
		entry.Outcome = Skipped
		entry.Reason = "already exists"
		return entry
	}

	if p.DryRun {
		p.Logger.Info("would publish", "package", pkg.Key(), "file", file)
		entry.Outcome = Published
		return entry
	}

	p.Logger.Info("publishing", "package", pkg.Key())
	if err := npm.Publish(ctx, p.runner, filepath.Join(p.dir, file), p.registry); err != nil {
		p.Logger.Error("publish failed", "package", pkg.Key(), "err", err.Error())
		entry.Outcome = Failed
		entry.Reason = err.Error()
		return entry
	}

	p.Logger.Info("published", "package", pkg.Key())
	entry.Outcome = Published
	return entry
}

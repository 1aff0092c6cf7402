package publisher

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/npmmirror/internal/archive"
)

// DefaultSettle is how long an archive must stop changing before it is
// published in watch mode.
const DefaultSettle = 500 * time.Millisecond

// DirWatch is an fsnotify registration on the archive directory. Start it
// before the batch run so archives written during the batch are not lost.
type DirWatch struct {
	p  *Publisher
	fs *fsnotify.Watcher
}

// StartWatch registers a watcher on the archive directory. Events are
// queued by the watcher until Run is called.
func (p *Publisher) StartWatch() (*DirWatch, error) {
	if err := p.CheckDir(); err != nil {
		return nil, err
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := fs.Add(p.dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", p.dir, err)
	}
	return &DirWatch{p: p, fs: fs}, nil
}

// Close releases the watcher.
func (w *DirWatch) Close() error {
	return w.fs.Close()
}

// Run publishes new archives until ctx is done. Files are handled one at a
// time once no event has arrived for settle. Archives already in batch are
// never handled again; any other archive present when Run starts is queued,
// which covers files written while batch was running. onEntry, if non-nil,
// is called for every handled file.
func (w *DirWatch) Run(ctx context.Context, settle time.Duration, batch *Tally, onEntry func(Entry)) (*Tally, error) {
	p := w.p
	if settle <= 0 {
		settle = DefaultSettle
	}

	handled := make(map[string]bool)
	if batch != nil {
		for _, e := range batch.Entries {
			handled[e.File] = true
		}
	}

	tally := &Tally{}
	pending := make(map[string]struct{})
	timer := time.NewTimer(settle)
	timer.Stop()
	defer timer.Stop()

	files, err := p.ListArchives()
	if err != nil {
		return nil, err
	}
	for _, name := range files {
		if !handled[name] {
			pending[name] = struct{}{}
		}
	}
	if len(pending) > 0 {
		p.Logger.Info("archives added during batch", "count", len(pending))
		timer.Reset(settle)
	}

	p.Logger.Info("watching for new archives", "dir", p.dir)

	for {
		select {
		case <-ctx.Done():
			p.Logger.Info(tally.String())
			return tally, nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return tally, nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			name := filepath.Base(event.Name)
			if !archive.IsArchive(name) || handled[name] {
				continue
			}
			pending[name] = struct{}{}
			timer.Reset(settle)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return tally, nil
			}
			p.Logger.Warn("watcher error", "err", err)

		case <-timer.C:
			files := make([]string, 0, len(pending))
			for name := range pending {
				files = append(files, name)
			}
			clear(pending)
			sort.Strings(files)

			for _, file := range files {
				if ctx.Err() != nil {
					break
				}
				handled[file] = true
				entry := p.PublishFile(ctx, file)
				tally.Add(entry)
				if onEntry != nil {
					onEntry(entry)
				}
			}
		}
	}
}

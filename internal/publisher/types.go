package publisher

import (
	"fmt"

	"github.com/blackwell-systems/npmmirror/internal/npm"
)

// Outcome is what happened to a single archive.
type Outcome string

const (
	Published Outcome = "published"
	Skipped   Outcome = "skipped"
	Failed    Outcome = "failed"
)

// Entry is the result of handling one archive file.
type Entry struct {
	File    string
	Package npm.Package // zero when the filename could not be parsed
	Outcome Outcome
	Reason  string // failure message or skip reason
	DryRun  bool
}

// Tally accumulates entries over a run.
type Tally struct {
	Entries []Entry
	Success int
	Skipped int
	Failed  int
}

// Total returns the number of archives handled.
func (t *Tally) Total() int {
	return len(t.Entries)
}

// Add records e and updates the counters.
func (t *Tally) Add(e Entry) {
	t.Entries = append(t.Entries, e)
	switch e.Outcome {
	case Published:
		t.Success++
	case Skipped:
		t.Skipped++
	case Failed:
		t.Failed++
	}
}

// String renders the final tally line.
func (t *Tally) String() string {
	return fmt.Sprintf("Total: %d, Success: %d, Skipped: %d, Failed: %d",
		t.Total(), t.Success, t.Skipped, t.Failed)
}

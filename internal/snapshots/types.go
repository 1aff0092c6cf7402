package snapshots

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/npmmirror/internal/logging"
	"github.com/blackwell-systems/npmmirror/internal/npm"
)

// SummaryFile is the name of the JSON summary written next to the archives.
const SummaryFile = "packages-summary.json"

// DefaultPackTimeout bounds a single npm pack invocation.
const DefaultPackTimeout = 60 * time.Second

// Summary is the JSON record written once per snapshot run.
type Summary struct {
	TotalPackages         int           `json:"totalPackages"`
	DirectDependencyCount int           `json:"directDependencyCount"`
	DevDependencyCount    int           `json:"devDependencyCount"`
	GeneratedAt           time.Time     `json:"generatedAt"`
	Packages              []npm.Package `json:"packages"`
}

// Status is the per-package result of an archive run.
type Status string

const (
	StatusCreated  Status = "created"
	StatusExisting Status = "existing"
	StatusFailed   Status = "failed"
)

// Result records what happened to one package.
type Result struct {
	Package npm.Package
	Status  Status
	Archive string // file name in the output directory, when known
	Err     error
}

// Report tallies an archive run.
type Report struct {
	Results  []Result
	Created  int
	Existing int
	Failed   int
}

// Total returns the number of packages processed.
func (r *Report) Total() int {
	return len(r.Results)
}

// Succeeded counts packages that have an archive after the run.
func (r *Report) Succeeded() int {
	return r.Created + r.Existing
}

func (r *Report) add(res Result) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case StatusCreated:
		r.Created++
	case StatusExisting:
		r.Existing++
	case StatusFailed:
		r.Failed++
	}
}

// Manager creates package archives in an output directory.
type Manager struct {
	runner npm.Runner
	outDir string

	// Timeout bounds each npm pack call. Zero disables the limit.
	Timeout time.Duration
	// Logger receives console progress; ErrorLog receives failures.
	Logger   *log.Logger
	ErrorLog *log.Logger
	// OnProgress, if set, is called after each package is handled.
	OnProgress func(done, total int)
}

// New creates a new archive Manager writing into outDir.
func New(runner npm.Runner, outDir string) *Manager {
	return &Manager{
		runner:   runner,
		outDir:   outDir,
		Timeout:  DefaultPackTimeout,
		Logger:   logging.Discard(),
		ErrorLog: logging.Discard(),
	}
}

package store

import "time"

// Run kinds.
const (
	KindSnapshot = "snapshot"
	KindPublish  = "publish"
)

// Run is one snapshot or publish invocation.
type Run struct {
	ID         int64
	Kind       string
	Target     string // output directory or registry URL
	StartedAt  time.Time
	FinishedAt time.Time
	Total      int
	Succeeded  int
	Skipped    int
	Failed     int
}

// RunPackage is the outcome recorded for one package in a run.
type RunPackage struct {
	RunID   int64
	Name    string
	Version string
	File    string
	Outcome string
	Detail  string
}

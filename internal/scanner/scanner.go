// Package scanner walks an installed node_modules tree and collects every
// package version found in it, including nested copies.
package scanner

import (
	"github.com/charmbracelet/log"

	"github.com/blackwell-systems/npmmirror/internal/logging"
)

// DefaultMaxDepth bounds how many nested node_modules levels are walked.
const DefaultMaxDepth = 10

// Walker discovers packages below a node_modules directory.
type Walker struct {
	// MaxDepth is the deepest nested node_modules level visited. The root
	// directory is depth 0.
	MaxDepth int

	logger *log.Logger
	errLog *log.Logger

	depthWarned bool
}

// New creates a Walker. logger receives console messages and errLog
// receives directory read failures; either may be nil.
func New(logger, errLog *log.Logger) *Walker {
	if logger == nil {
		logger = logging.Discard()
	}
	if errLog == nil {
		errLog = logging.Discard()
	}
	return &Walker{
		MaxDepth: DefaultMaxDepth,
		logger:   logger,
		errLog:   errLog,
	}
}

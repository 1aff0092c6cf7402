package snapshots

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/blackwell-systems/npmmirror/internal/npm"
)

// BuildSummary assembles the summary for a run. root is the project's own
// manifest and may be nil when ./package.json is missing or unreadable.
func BuildSummary(root *npm.Manifest, pkgs []npm.Package, generatedAt time.Time) *Summary {
	s := &Summary{
		TotalPackages: len(pkgs),
		GeneratedAt:   generatedAt,
		Packages:      pkgs,
	}
	if s.Packages == nil {
		s.Packages = []npm.Package{}
	}
	if root != nil {
		s.DirectDependencyCount = len(root.Dependencies)
		s.DevDependencyCount = len(root.DevDependencies)
	}
	return s
}

// WriteSummary writes s as indented JSON to dir/packages-summary.json,
// replacing any previous file, and returns the path written.
func (m *Manager) WriteSummary(s *Summary) (string, error) {
	if err := os.MkdirAll(m.outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal summary: %w", err)
	}

	path := filepath.Join(m.outDir, SummaryFile)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return path, nil
}

// ReadSummary loads a summary previously written by WriteSummary.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse summary %s: %w", path, err)
	}
	return &s, nil
}

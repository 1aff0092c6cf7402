package npm

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFile is the per-package descriptor file name.
const ManifestFile = "package.json"

// ReadManifest reads and decodes dir/package.json.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s in %s: %w", ManifestFile, dir, err)
	}
	return &m, nil
}

// Identity returns the package identity declared by the manifest.
// ok is false when either name or version is missing.
func (m *Manifest) Identity() (Package, bool) {
	if m.Name == "" || m.Version == "" {
		return Package{}, false
	}
	return Package{Name: m.Name, Version: m.Version}, true
}

package npm

import "strings"

// Package identifies a single published or installed npm package version.
type Package struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Key returns the name@version composite key used for deduplication.
func (p Package) Key() string {
	return p.Name + "@" + p.Version
}

// String returns the same value as Key.
func (p Package) String() string {
	return p.Key()
}

// Scope returns the scope without the leading "@", or "" for unscoped packages.
func (p Package) Scope() string {
	if !strings.HasPrefix(p.Name, "@") {
		return ""
	}
	idx := strings.IndexByte(p.Name, '/')
	if idx < 0 {
		return ""
	}
	return p.Name[1:idx]
}

// BaseName returns the package name without its scope.
func (p Package) BaseName() string {
	if p.Scope() == "" {
		return p.Name
	}
	return p.Name[strings.IndexByte(p.Name, '/')+1:]
}

// Manifest is the subset of package.json read by npmmirror.
type Manifest struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

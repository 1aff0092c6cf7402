package scanner

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/blackwell-systems/npmmirror/internal/npm"
)

// NodeModules is the directory name npm installs dependencies into.
const NodeModules = "node_modules"

// Walk scans root (usually ./node_modules) and returns every unique package
// found. A missing root yields an empty result. Unreadable directories are
// reported to the error log and skipped.
func (w *Walker) Walk(root string) *Result {
	w.depthWarned = false
	res := NewResult()
	w.walk(root, res, 0)
	return res
}

func (w *Walker) walk(dir string, res *Result, depth int) {
	if depth > w.MaxDepth {
		if !w.depthWarned {
			w.depthWarned = true
			w.logger.Warn("maximum depth reached, not descending further", "depth", w.MaxDepth, "path", dir)
		}
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			if depth == 0 {
				w.logger.Warn("dependency directory not found", "path", dir)
			}
			return
		}
		w.errLog.Error("failed to read directory", "path", dir, "err", err)
		return
	}

	for _, entry := range entries {
		name := entry.Name()
		if skipEntry(name) {
			continue
		}
		path := filepath.Join(dir, name)

		if strings.HasPrefix(name, "@") {
			w.walkScope(path, res, depth)
			continue
		}

		if isDir(path, entry) {
			w.visit(path, res, depth)
		}
	}
}

// walkScope visits the packages inside an @scope directory.
func (w *Walker) walkScope(scopeDir string, res *Result, depth int) {
	entries, err := os.ReadDir(scopeDir)
	if err != nil {
		w.errLog.Error("failed to read scope directory", "path", scopeDir, "err", err)
		return
	}

	for _, entry := range entries {
		if skipEntry(entry.Name()) {
			continue
		}
		path := filepath.Join(scopeDir, entry.Name())
		if isDir(path, entry) {
			w.visit(path, res, depth)
		}
	}
}

// visit records the package in pkgDir and descends into its own
// node_modules when the package was not seen before.
func (w *Walker) visit(pkgDir string, res *Result, depth int) {
	manifest, err := npm.ReadManifest(pkgDir)
	if err != nil {
		w.logger.Debug("skipping directory without usable manifest", "path", pkgDir)
		return
	}

	pkg, ok := manifest.Identity()
	if !ok {
		return
	}

	if !res.Add(pkg) {
		return
	}
	w.logger.Debug("found package", "package", pkg.Key(), "depth", depth)

	nested := filepath.Join(pkgDir, NodeModules)
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		w.walk(nested, res, depth+1)
	}
}

// skipEntry reports entries that never hold a package: .bin, .cache,
// .package-lock.json and any other dot-entry.
func skipEntry(name string) bool {
	return strings.HasPrefix(name, ".")
}

// isDir reports whether entry is a directory, following symlinks.
func isDir(path string, entry os.DirEntry) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

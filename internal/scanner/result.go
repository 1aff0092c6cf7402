package scanner

import (
	"sort"

	"golang.org/x/mod/semver"

	"github.com/blackwell-systems/npmmirror/internal/npm"
)

// Result is the deduplicated set of packages found by a walk, in discovery
// order.
type Result struct {
	packages []npm.Package
	visited  map[string]struct{}
}

// NewResult returns an empty Result.
func NewResult() *Result {
	return &Result{visited: make(map[string]struct{})}
}

// Add records pkg unless its name@version key was already seen.
// It returns true when pkg was new.
func (r *Result) Add(pkg npm.Package) bool {
	key := pkg.Key()
	if _, seen := r.visited[key]; seen {
		return false
	}
	r.visited[key] = struct{}{}
	r.packages = append(r.packages, pkg)
	return true
}

// Has reports whether key (name@version) was recorded.
func (r *Result) Has(key string) bool {
	_, ok := r.visited[key]
	return ok
}

// Len returns the number of unique packages.
func (r *Result) Len() int {
	return len(r.packages)
}

// Discovered returns the packages in discovery order.
func (r *Result) Discovered() []npm.Package {
	out := make([]npm.Package, len(r.packages))
	copy(out, r.packages)
	return out
}

// Sorted returns the packages ordered by name, then by semantic version.
func (r *Result) Sorted() []npm.Package {
	out := r.Discovered()
	SortPackages(out)
	return out
}

// SortPackages orders pkgs by name and then by version precedence.
// Versions that are not valid semver sort before valid ones and are
// otherwise compared as strings.
func SortPackages(pkgs []npm.Package) {
	sort.SliceStable(pkgs, func(i, j int) bool {
		if pkgs[i].Name != pkgs[j].Name {
			return pkgs[i].Name < pkgs[j].Name
		}
		if c := semver.Compare("v"+pkgs[i].Version, "v"+pkgs[j].Version); c != 0 {
			return c < 0
		}
		return pkgs[i].Version < pkgs[j].Version
	})
}

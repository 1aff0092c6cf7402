// Package archive maps package identities to the tarball filenames produced
// by `npm pack` and back.
//
// The mapping is lossy. npm flattens "@scope/name" to "scope-name", so the
// reverse direction has to guess where the scope ends. Parse only rebuilds a
// scope for names that still carry the leading "@" and splits at the first
// hyphen, so a scope that itself contains a hyphen decodes at the wrong
// boundary. This is accepted as best effort; the real naming rule belongs to
// npm.
package archive

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/blackwell-systems/npmmirror/internal/npm"
)

// Ext is the extension npm pack writes.
const Ext = ".tgz"

// ErrUnparsableFilename is returned by Parse when no version suffix is found.
var ErrUnparsableFilename = errors.New("filename does not end in -<version>" + Ext)

var extensions = []string{".tar.gz", Ext}

// versionSuffix matches "<name>-<major>.<minor>.<patch>[-<prerelease>]".
var versionSuffix = regexp.MustCompile(`^(.+)-(\d+\.\d+\.\d+(?:-[0-9A-Za-z][0-9A-Za-z.-]*)?)$`)

// Filename returns the name npm pack gives the archive for pkg.
func Filename(pkg npm.Package) string {
	return Candidates(pkg)[0]
}

// Candidates returns every filename an archive of pkg may have been written
// under, most likely first. Unscoped packages have a single candidate.
func Candidates(pkg npm.Package) []string {
	scope := pkg.Scope()
	if scope == "" {
		return []string{flatten(pkg.Name) + "-" + pkg.Version + Ext}
	}

	base := pkg.BaseName()
	names := []string{
		scope + "-" + base,       // npm's own flattening
		"@" + scope + "-" + base, // "/" replaced, "@" kept
		base,                     // scope dropped
	}

	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		f := flatten(n) + "-" + pkg.Version + Ext
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	return out
}

// flatten replaces any remaining path separator in a name.
func flatten(name string) string {
	return strings.ReplaceAll(name, "/", "-")
}

// IsArchive reports whether filename has a recognised archive extension.
func IsArchive(filename string) bool {
	for _, ext := range extensions {
		if strings.HasSuffix(filename, ext) {
			return true
		}
	}
	return false
}

// Parse infers a package identity from an archive filename.
//
// "left-pad-1.0.0.tgz" yields left-pad@1.0.0 and "@scope-utils-2.3.4.tgz"
// yields @scope/utils@2.3.4. Names without a leading "@" are never given a
// scope, so npm's own "scope-utils-2.3.4.tgz" yields scope-utils@2.3.4.
func Parse(filename string) (npm.Package, error) {
	stem := filename
	for _, ext := range extensions {
		if strings.HasSuffix(stem, ext) {
			stem = strings.TrimSuffix(stem, ext)
			break
		}
	}

	m := versionSuffix.FindStringSubmatch(stem)
	if m == nil {
		return npm.Package{}, fmt.Errorf("%s: %w", filename, ErrUnparsableFilename)
	}

	return npm.Package{Name: unflatten(m[1]), Version: m[2]}, nil
}

// unflatten rebuilds "@scope/name" from "@scope-name".
func unflatten(name string) string {
	if !strings.HasPrefix(name, "@") {
		return name
	}

	rest := name[1:]
	idx := strings.IndexByte(rest, '-')
	if idx <= 0 || idx == len(rest)-1 {
		return name
	}

	scope := rest[:idx]
	if strings.Contains(scope, ".") {
		return name
	}
	return "@" + scope + "/" + rest[idx+1:]
}

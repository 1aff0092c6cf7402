package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/npmmirror/internal/archive"
	"github.com/blackwell-systems/npmmirror/internal/npm"
	"github.com/blackwell-systems/npmmirror/internal/npm/npmtest"
)

// useRunner swaps the package-level runner factory for the test and
// returns the working directories it was asked for.
func useRunner(t *testing.T, r npm.Runner) *[]string {
	t.Helper()
	var dirs []string
	old := newRunner
	newRunner = func(_, dir string) npm.Runner {
		dirs = append(dirs, dir)
		return r
	}
	t.Cleanup(func() { newRunner = old })
	return &dirs
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeManifest(t *testing.T, dir, name, version string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "package.json"), fmt.Sprintf(`{"name":%q,"version":%q}`, name, version))
}

func decodeKey(path string) (string, bool) {
	pkg, err := archive.Parse(filepath.Base(path))
	if err != nil {
		return "", false
	}
	return pkg.Key(), true
}

// fakeNPM answers --version and writes archives for pack under npm's naming.
func fakeNPM(failing map[string]bool) *npmtest.Runner {
	return &npmtest.Runner{Handler: func(ctx context.Context, args []string) ([]byte, error) {
		switch args[0] {
		case "--version":
			return []byte("10.8.0\n"), nil
		case "pack":
			if failing[args[1]] {
				return nil, fmt.Errorf("npm ERR! 404 %s", args[1])
			}
			at := strings.LastIndex(args[1], "@")
			pkg := npm.Package{Name: args[1][:at], Version: args[1][at+1:]}
			return nil, os.WriteFile(filepath.Join(args[3], archive.Filename(pkg)), []byte("tgz"), 0644)
		}
		return nil, nil
	}}
}

func isolateHome(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv("NO_COLOR", "1")
}

package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blackwell-systems/npmmirror/internal/snapshots"
	"github.com/blackwell-systems/npmmirror/internal/store"
)

func TestSnapshotCommand(t *testing.T) {
	if SnapshotCmd.Use != "npm-snapshot" {
		t.Errorf("expected Use to be 'npm-snapshot', got '%s'", SnapshotCmd.Use)
	}
	if SnapshotCmd.Short == "" || SnapshotCmd.Long == "" || SnapshotCmd.Example == "" {
		t.Error("expected descriptions and examples to be set")
	}

	for _, name := range []string{"dir", "out", "max-depth", "timeout", "skip-pack", "npm", "history", "db", "verbose"} {
		flag := SnapshotCmd.Flags().Lookup(name)
		if flag == nil {
			flag = SnapshotCmd.PersistentFlags().Lookup(name)
		}
		if flag == nil {
			t.Errorf("expected flag '%s' to be registered", name)
			continue
		}
		if flag.Usage == "" {
			t.Errorf("expected flag '%s' to have usage text", name)
		}
	}

	if f := SnapshotCmd.Flags().Lookup("timeout"); f != nil && f.DefValue != "1m0s" {
		t.Errorf("timeout default = %s, want 1m0s", f.DefValue)
	}
	if f := SnapshotCmd.Flags().Lookup("max-depth"); f != nil && f.DefValue != "10" {
		t.Errorf("max-depth default = %s, want 10", f.DefValue)
	}
}

func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "package.json"),
		`{"name":"app","version":"1.0.0","dependencies":{"left-pad":"^1.0.0","@scope/utils":"2"},"devDependencies":{"jest":"29"}}`)
	nm := filepath.Join(dir, "node_modules")
	writeManifest(t, filepath.Join(nm, "left-pad"), "left-pad", "1.0.0")
	writeManifest(t, filepath.Join(nm, "@scope", "utils"), "@scope/utils", "2.3.4")
	writeManifest(t, filepath.Join(nm, "@scope", "utils", "node_modules", "left-pad"), "left-pad", "1.0.0")
	writeManifest(t, filepath.Join(nm, "broken"), "broken", "0.0.1")
	return dir
}

func TestSnapshotEndToEnd(t *testing.T) {
	isolateHome(t)
	dir := setupProject(t)

	// Stale log from an earlier run must be replaced.
	writeFile(t, filepath.Join(dir, ErrorLogFile), "old failure\n")

	runner := fakeNPM(map[string]bool{"broken@0.0.1": true})
	dirs := useRunner(t, runner)

	var stdout, stderr bytes.Buffer
	err := snapshot(context.Background(), snapshotOptions{
		dir:      dir,
		maxDepth: 10,
		history:  true,
		dbPath:   filepath.Join(t.TempDir(), "history.db"),
	}, &stdout, &stderr)
	if err != nil {
		t.Fatalf("snapshot() failed: %v", err)
	}

	summary, err := snapshots.ReadSummary(filepath.Join(dir, "pkg", snapshots.SummaryFile))
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalPackages != 3 || summary.DirectDependencyCount != 2 || summary.DevDependencyCount != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Packages[0].Name != "@scope/utils" {
		t.Errorf("packages should be sorted by name, got %v", summary.Packages)
	}

	if n := len(runner.CallsTo("pack")); n != 3 {
		t.Errorf("pack called %d times, want 3", n)
	}
	if len(*dirs) != 1 || (*dirs)[0] != dir {
		t.Errorf("npm should run in the project directory, got %v", *dirs)
	}
	for _, f := range []string{"left-pad-1.0.0.tgz", "scope-utils-2.3.4.tgz"} {
		if _, err := os.Stat(filepath.Join(dir, "pkg", f)); err != nil {
			t.Errorf("archive %s missing", f)
		}
	}

	errLog, _ := os.ReadFile(filepath.Join(dir, ErrorLogFile))
	if strings.Contains(string(errLog), "old failure") {
		t.Error("error.log should be recreated each run")
	}
	if !strings.Contains(string(errLog), "broken@0.0.1") {
		t.Errorf("error.log should record the failed pack, got %q", errLog)
	}

	if !strings.Contains(stdout.String(), "2 packed · 0 skipped · 1 failed (3 total)") {
		t.Errorf("unexpected tally output: %q", stdout.String())
	}
	if strings.Contains(stderr.String(), "3/3") {
		t.Errorf("progress bar should not be drawn on a non-terminal writer: %q", stderr.String())
	}
}

func TestSnapshotSecondRunSkipsExisting(t *testing.T) {
	isolateHome(t)
	dir := setupProject(t)
	runner := fakeNPM(nil)
	useRunner(t, runner)

	opts := snapshotOptions{dir: dir, maxDepth: 10}
	if err := snapshot(context.Background(), opts, &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}
	var stdout bytes.Buffer
	if err := snapshot(context.Background(), opts, &stdout, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	if n := len(runner.CallsTo("pack")); n != 3 {
		t.Errorf("pack called %d times over two runs, want 3", n)
	}
	if !strings.Contains(stdout.String(), "0 packed · 3 skipped · 0 failed") {
		t.Errorf("second run output = %q", stdout.String())
	}
}

func TestSnapshotMissingNodeModules(t *testing.T) {
	isolateHome(t)
	dir := t.TempDir()
	runner := fakeNPM(nil)
	useRunner(t, runner)

	var stderr bytes.Buffer
	if err := snapshot(context.Background(), snapshotOptions{dir: dir, maxDepth: 10}, &bytes.Buffer{}, &stderr); err != nil {
		t.Fatalf("missing node_modules should not be fatal: %v", err)
	}

	summary, err := snapshots.ReadSummary(filepath.Join(dir, "pkg", snapshots.SummaryFile))
	if err != nil {
		t.Fatalf("empty summary should still be written: %v", err)
	}
	if summary.TotalPackages != 0 {
		t.Errorf("TotalPackages = %d, want 0", summary.TotalPackages)
	}
	if len(runner.Calls()) != 0 {
		t.Errorf("no npm calls expected, got %v", runner.Calls())
	}
	if !strings.Contains(stderr.String(), "not found") {
		t.Errorf("expected warning about missing node_modules, got %q", stderr.String())
	}
}

func TestSnapshotSkipPack(t *testing.T) {
	isolateHome(t)
	dir := setupProject(t)
	runner := fakeNPM(nil)
	useRunner(t, runner)

	err := snapshot(context.Background(), snapshotOptions{dir: dir, out: "mirror", maxDepth: 10, skipPack: true}, &bytes.Buffer{}, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, "mirror", snapshots.SummaryFile)); err != nil {
		t.Errorf("summary should be written to --out relative to --dir: %v", err)
	}
	if len(runner.Calls()) != 0 {
		t.Errorf("--skip-pack should not run npm, got %v", runner.Calls())
	}
}

func TestSnapshotRecordsHistory(t *testing.T) {
	isolateHome(t)
	dir := setupProject(t)
	useRunner(t, fakeNPM(nil))
	dbPath := filepath.Join(t.TempDir(), "history.db")

	if err := snapshot(context.Background(), snapshotOptions{dir: dir, maxDepth: 10, history: true, dbPath: dbPath}, &bytes.Buffer{}, &bytes.Buffer{}); err != nil {
		t.Fatal(err)
	}

	st, err := store.New(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	runs, err := st.ListRuns(store.KindSnapshot, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].Succeeded != 3 {
		t.Fatalf("runs = %+v", runs)
	}
	pkgs, err := st.GetRunPackages(runs[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(pkgs) != 3 || pkgs[0].Outcome != "created" {
		t.Errorf("run packages = %+v", pkgs)
	}
}

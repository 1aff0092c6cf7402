package npm

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPackageScope(t *testing.T) {
	tests := []struct {
		name      string
		pkg       Package
		wantScope string
		wantBase  string
	}{
		{"unscoped", Package{Name: "left-pad"}, "", "left-pad"},
		{"scoped", Package{Name: "@types/node"}, "types", "node"},
		{"at without slash", Package{Name: "@weird"}, "", "@weird"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pkg.Scope(); got != tt.wantScope {
				t.Errorf("Scope() = %q, want %q", got, tt.wantScope)
			}
			if got := tt.pkg.BaseName(); got != tt.wantBase {
				t.Errorf("BaseName() = %q, want %q", got, tt.wantBase)
			}
		})
	}
}

func TestReadManifest(t *testing.T) {
	dir := t.TempDir()
	content := `{"name":"app","version":"0.1.0","dependencies":{"a":"^1.0.0"},"devDependencies":{"b":"~2.0.0","c":"3"}}`
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := ReadManifest(dir)
	if err != nil {
		t.Fatalf("ReadManifest() failed: %v", err)
	}
	pkg, ok := m.Identity()
	if !ok || pkg.Key() != "app@0.1.0" {
		t.Errorf("Identity() = %v, %v", pkg, ok)
	}
	if len(m.Dependencies) != 1 || len(m.DevDependencies) != 2 {
		t.Errorf("dependency counts = %d/%d, want 1/2", len(m.Dependencies), len(m.DevDependencies))
	}

	if _, ok := (&Manifest{Name: "x"}).Identity(); ok {
		t.Error("Identity() should fail without version")
	}
}

func TestReadManifestInvalid(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadManifest(dir); err == nil {
		t.Error("ReadManifest() should fail on invalid JSON")
	}
	if _, err := ReadManifest(t.TempDir()); err == nil {
		t.Error("ReadManifest() should fail on missing file")
	}
}

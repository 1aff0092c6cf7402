package output

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestProgressBar_NonTTYPrintsOnlyFinalLine(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(3, "packing")
	p.SetWriter(buf)

	p.Increment()
	p.Increment()
	if buf.Len() != 0 {
		t.Errorf("non-TTY bar should stay quiet until done, got %q", buf.String())
	}

	p.SetDescription("left-pad@1.0.0")
	p.Increment()
	out := buf.String()
	if !strings.Contains(out, "3/3") || !strings.Contains(out, "left-pad@1.0.0") {
		t.Errorf("final line = %q", out)
	}

	p.Finish()
	if strings.Count(buf.String(), "\n") != 1 {
		t.Errorf("Finish() after completion should not print again, got %q", buf.String())
	}
}

func TestProgressBar_FinishEarly(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(10, "packing")
	p.SetWriter(buf)

	p.Set(4)
	p.Finish()

	if !strings.Contains(buf.String(), "10/10") {
		t.Errorf("Finish() should render a full bar, got %q", buf.String())
	}
}

func TestProgressBar_Clamp(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(2, "x")
	p.SetWriter(buf)

	p.Set(5)
	if !strings.Contains(buf.String(), "2/2") {
		t.Errorf("bar should clamp to total, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "[=============================>]") {
		t.Errorf("full bar not drawn: %q", buf.String())
	}
}

func TestProgressBar_ZeroTotal(t *testing.T) {
	buf := &bytes.Buffer{}
	p := NewProgress(0, "nothing")
	p.SetWriter(buf)
	p.Finish()

	if !strings.Contains(buf.String(), "0/0") {
		t.Errorf("zero total should still render, got %q", buf.String())
	}
}

func TestProgressBar_Concurrent(t *testing.T) {
	p := NewProgress(100, "concurrent")
	p.SetWriter(&bytes.Buffer{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				p.Increment()
			}
		}()
	}
	wg.Wait()
	p.Finish()
}

func TestSpinner_NonTTY(t *testing.T) {
	buf := &bytes.Buffer{}
	s := NewSpinner("Scanning node_modules")
	s.SetWriter(buf)

	s.Start()
	s.Start()
	s.StopWithMessage("✓ 12 packages found")
	s.Stop()

	want := "Scanning node_modules...\n✓ 12 packages found\n"
	if buf.String() != want {
		t.Errorf("spinner output = %q, want %q", buf.String(), want)
	}
}

func TestWriterIsTTY(t *testing.T) {
	if WriterIsTTY(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if WriterIsTTY(f) {
		t.Error("a regular file is not a terminal")
	}
}

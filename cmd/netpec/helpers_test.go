package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/newtron-network/netpec/pkg/analysis"
)

func TestExpandConfigArgs(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"r2.cfg", "r1.conf", "notes.md", "r3.TXT"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("hostname x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "old.cfg"), 0755); err != nil {
		t.Fatal(err)
	}
	single := filepath.Join(dir, "notes.md")

	t.Run("directory", func(t *testing.T) {
		got, err := expandConfigArgs([]string{dir})
		if err != nil {
			t.Fatal(err)
		}
		want := []string{
			filepath.Join(dir, "r1.conf"),
			filepath.Join(dir, "r2.cfg"),
			filepath.Join(dir, "r3.TXT"),
		}
		if len(got) != len(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("got[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("explicit file keeps any extension", func(t *testing.T) {
		got, err := expandConfigArgs([]string{single})
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0] != single {
			t.Errorf("got %v", got)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := expandConfigArgs([]string{filepath.Join(dir, "missing.cfg")}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("empty directory", func(t *testing.T) {
		if _, err := expandConfigArgs([]string{t.TempDir()}); err == nil {
			t.Error("expected error for directory without configs")
		}
	})

	t.Run("no args", func(t *testing.T) {
		if _, err := expandConfigArgs(nil); !errors.Is(err, analysis.ErrNoConfigs) {
			t.Errorf("err = %v, want ErrNoConfigs", err)
		}
	})
}

func TestSplitHosts(t *testing.T) {
	got := splitHosts([]string{"r1,r2", " r3 ", "r2", ","})
	want := "r1 r2 r3"
	if strings.Join(got, " ") != want {
		t.Errorf("splitHosts() = %v, want %s", got, want)
	}
}

func TestParseSince(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		input   string
		want    time.Time
		wantErr bool
	}{
		{"24h", now.Add(-24 * time.Hour), false},
		{"90m", now.Add(-90 * time.Minute), false},
		{"7d", time.Date(2026, 3, 3, 12, 0, 0, 0, time.UTC), false},
		{"0d", now, false},
		{"xd", time.Time{}, true},
		{"-1d", time.Time{}, true},
		{"yesterday", time.Time{}, true},
	}
	for _, tt := range tests {
		got, err := parseSince(tt.input, now)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseSince(%q) err = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("parseSince(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestSourceDetail(t *testing.T) {
	if got := sourceDetail("Gi0/0", "", "10.0.0.1", "permit"); got != "Gi0/0 10.0.0.1 permit" {
		t.Errorf("sourceDetail() = %q", got)
	}
	if got := sourceDetail("", ""); got != "N/A" {
		t.Errorf("sourceDetail() of nothing = %q, want N/A", got)
	}
}

func TestCreateOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "pecs.csv")
	w, closeOut, err := createOutput(path, nil)
	if err != nil {
		t.Fatalf("createOutput: %v", err)
	}
	if _, err := w.Write([]byte("data")); err != nil {
		t.Fatal(err)
	}
	if err := closeOut(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "data" {
		t.Errorf("file = %q, %v", data, err)
	}

	w, closeOut, err = createOutput("-", os.Stdout)
	if err != nil || w != os.Stdout || closeOut() != nil {
		t.Errorf("createOutput(-) should return the fallback writer")
	}
}

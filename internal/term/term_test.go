package term

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/backmassage/brainbatch/internal/config"
)

func TestNewPalette_Modes(t *testing.T) {
	var buf bytes.Buffer
	tests := []struct {
		mode config.ColorMode
		want bool
	}{
		{config.ColorAlways, true},
		{config.ColorNever, false},
		{config.ColorAuto, false}, // a buffer is never a terminal
	}
	for _, tt := range tests {
		p := NewPalette(tt.mode, &buf)
		if p.Enabled() != tt.want {
			t.Errorf("NewPalette(%s).Enabled() = %v, want %v", tt.mode, p.Enabled(), tt.want)
		}
		if !tt.want && (p.Red != "" || p.Reset != "") {
			t.Errorf("%s: colorless palette carries codes: %+v", tt.mode, p)
		}
	}
}

func TestPalettesAreIndependent(t *testing.T) {
	var buf bytes.Buffer
	on := NewPalette(config.ColorAlways, &buf)
	off := NewPalette(config.ColorNever, &buf)
	if !on.Enabled() || off.Enabled() {
		t.Fatalf("on=%v off=%v", on.Enabled(), off.Enabled())
	}
	if got := off.Paint(on.Red, "x"); got != "x" {
		t.Errorf("colorless Paint = %q", got)
	}
	if got := on.Paint(on.Red, "x"); got != on.Red+"x"+on.Reset {
		t.Errorf("Paint = %q", got)
	}
}

func TestColorEnabled_AutoHonorsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if ColorEnabled(config.ColorAuto, os.Stdout) {
		t.Fatal("NO_COLOR should disable colors in auto mode")
	}
}

func TestIsTerminal_RegularFile(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("a regular file is not a terminal")
	}
	if IsTerminal(nil) {
		t.Error("nil is not a terminal")
	}
	if ColorEnabled(config.ColorAuto, f) {
		t.Error("auto mode should not color a regular file")
	}
}

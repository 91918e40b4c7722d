package common

import (
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestReadCpuTemp(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		contents string
		want     float32
	}{
		{"48312\n", 48.312},
		{"52\n", 52},
		{"garbage", InvalidCpuTemp},
	}
	for i, c := range cases {
		p := filepath.Join(dir, "temp"+string(rune('a'+i)))
		if err := os.WriteFile(p, []byte(c.contents), 0644); err != nil {
			t.Fatal(err)
		}
		if got := ReadCpuTemp(p); math.Abs(float64(got-c.want)) > 1e-3 {
			t.Errorf("ReadCpuTemp(%q) = %v, want %v", c.contents, got, c.want)
		}
	}
	if got := ReadCpuTemp(filepath.Join(dir, "missing")); got != InvalidCpuTemp {
		t.Errorf("missing file gave %v", got)
	}
	if IsCPUTempValid(InvalidCpuTemp) {
		t.Error("invalid temp reported valid")
	}
}

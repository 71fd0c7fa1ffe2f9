package progressbar

import (
	"strings"
	"testing"
)

func TestRender(t *testing.T) {
	bar := &Bar{Desc: "train.json", Width: 10}

	out := bar.Render(512, 1024)
	if !strings.Contains(out, "train.json") {
		t.Errorf("missing description in %q", out)
	}
	if !strings.Contains(out, "50%") {
		t.Errorf("missing percentage in %q", out)
	}
}

func TestRender_UnknownTotal(t *testing.T) {
	bar := &Bar{Desc: "dev.json"}

	out := bar.Render(2048, -1)
	if strings.Contains(out, "%") {
		t.Errorf("unexpected percentage for unknown total in %q", out)
	}
	if !strings.Contains(out, "2.0KiB") {
		t.Errorf("missing byte count in %q", out)
	}
}

func TestHumanBytes(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{512, "512B"},
		{1536, "1.5KiB"},
		{3 << 20, "3.0MiB"},
		{2 << 30, "2.0GiB"},
	}
	for _, c := range cases {
		if got := humanBytes(c.n); got != c.want {
			t.Errorf("humanBytes(%d) = %q, want %q", c.n, got, c.want)
		}
	}
}

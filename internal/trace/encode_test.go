package trace

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
)

var tokenLine = regexp.MustCompile(`^[0-9a-f]{3}$`)

func traceOf(pixels ...int) *Trace {
	frames := make([]Frame, len(pixels))
	for i, p := range pixels {
		frames[i] = Frame{Step: i, Pixel: p}
	}
	return &Trace{Source: "test", Outcome: OutcomeNormalComplete, Frames: frames}
}

func TestToken(t *testing.T) {
	tests := []struct {
		pixel int
		want  string
	}{
		{0, "000"},
		{1, "001"},
		{15, "00f"},
		{255, "0ff"},
		{320, "140"},
		{370, "172"},
		{639, "27f"},
		{0xfff, "fff"},
	}
	for _, tt := range tests {
		got, err := Token(tt.pixel)
		if err != nil {
			t.Errorf("Token(%d) error: %v", tt.pixel, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Token(%d) = %q, want %q", tt.pixel, got, tt.want)
		}
	}
}

func TestToken_OutOfRange(t *testing.T) {
	for _, p := range []int{-1, 0x1000} {
		if _, err := Token(p); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Token(%d) error = %v, want ErrOutOfRange", p, err)
		}
	}
}

func TestRender(t *testing.T) {
	data, err := Render(traceOf(320, 370, 639, 0, 370))
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	want := "140\n172\n27f\n000\n172\n"
	if string(data) != want {
		t.Errorf("Render = %q, want %q", data, want)
	}
}

func TestRender_Empty(t *testing.T) {
	if _, err := Render(&Trace{}); !errors.Is(err, ErrEmpty) {
		t.Errorf("Render(empty) error = %v, want ErrEmpty", err)
	}
	if _, err := Render(nil); !errors.Is(err, ErrEmpty) {
		t.Errorf("Render(nil) error = %v, want ErrEmpty", err)
	}
}

func TestEncode(t *testing.T) {
	var buf bytes.Buffer
	if err := Encode(&buf, traceOf(1, 2, 3)); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		if !tokenLine.MatchString(line) {
			t.Errorf("line %q is not a 3-digit lowercase hex token", line)
		}
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tb", "grasp_trace.hex")

	sum, err := WriteFile(path, traceOf(320, 330, 340))
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(data) != "140\n14a\n154\n" {
		t.Errorf("file content = %q", data)
	}
	if sum != Checksum(data) {
		t.Errorf("checksum = %s, want %s", sum, Checksum(data))
	}
	if !strings.HasPrefix(sum, "sha256:") {
		t.Errorf("checksum %q missing sha256 prefix", sum)
	}

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the trace file, got %d entries", len(entries))
	}
}

func TestWriteFile_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.hex")
	if _, err := WriteFile(path, traceOf(1, 2, 3, 4)); err != nil {
		t.Fatalf("first WriteFile: %v", err)
	}
	if _, err := WriteFile(path, traceOf(5)); err != nil {
		t.Fatalf("second WriteFile: %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "005\n" {
		t.Errorf("file content = %q, want %q", data, "005\n")
	}
}

func TestWriteFile_UnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	if err := os.WriteFile(blocker, []byte("x"), 0600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	path := filepath.Join(blocker, "trace.hex")

	_, err := WriteFile(path, traceOf(1))
	if !errors.Is(err, ErrWrite) {
		t.Fatalf("WriteFile error = %v, want ErrWrite", err)
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("error %q should name the destination path", err)
	}
}

func TestWriteFile_InvalidTraceLeavesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.hex")
	if _, err := WriteFile(path, traceOf(7)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if _, err := WriteFile(path, traceOf(1, -5)); !errors.Is(err, ErrOutOfRange) {
		t.Fatalf("WriteFile error = %v, want ErrOutOfRange", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "007\n" {
		t.Errorf("existing file was modified: %q", data)
	}
}

func TestTraceHelpers(t *testing.T) {
	tr := traceOf(320, 500, 410)

	if tr.Len() != 3 {
		t.Errorf("Len = %d, want 3", tr.Len())
	}
	if got := tr.Pixels(); len(got) != 3 || got[1] != 500 {
		t.Errorf("Pixels = %v", got)
	}
	if tr.MaxPixel() != 500 {
		t.Errorf("MaxPixel = %d, want 500", tr.MaxPixel())
	}
	last, ok := tr.Last()
	if !ok || last.Pixel != 410 {
		t.Errorf("Last = %+v, %v", last, ok)
	}

	var empty *Trace
	if empty.Len() != 0 || empty.MaxPixel() != -1 || empty.Pixels() != nil {
		t.Error("nil trace helpers should report empty")
	}
	if _, ok := empty.Last(); ok {
		t.Error("Last on nil trace should report !ok")
	}
}

package trace

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nvandessel/sliptrace/internal/constants"
)

// Token renders a pixel center as exactly three lowercase hex digits,
// zero-padded: 0 -> "000", 320 -> "140", 639 -> "27f".
func Token(pixel int) (string, error) {
	if pixel < 0 || pixel > constants.TokenMax {
		return "", fmt.Errorf("%w: %d does not fit %d hex digits", ErrOutOfRange, pixel, constants.TokenWidth)
	}
	return fmt.Sprintf("%0*x", constants.TokenWidth, pixel), nil
}

// Render encodes every frame as one token per line, in order.
// Empty traces are rejected.
func Render(t *Trace) ([]byte, error) {
	if t.Len() == 0 {
		return nil, ErrEmpty
	}

	var buf bytes.Buffer
	buf.Grow(t.Len() * (constants.TokenWidth + 1))
	for _, f := range t.Frames {
		tok, err := Token(f.Pixel)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", f.Step, err)
		}
		buf.WriteString(tok)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Encode writes the rendered trace to w.
func Encode(w io.Writer, t *Trace) error {
	data, err := Render(t)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// Checksum returns the "sha256:<hex>" digest of data.
func Checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return "sha256:" + hex.EncodeToString(hash[:])
}

// WriteFile renders t and writes it to path in one shot, returning the
// checksum of the written bytes. The file is written to a temporary sibling
// and renamed into place, so path either holds the complete trace or is left
// untouched. Missing parent directories are created.
func WriteFile(path string, t *Trace) (string, error) {
	data, err := Render(t)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("%w %s: creating directory: %w", ErrWrite, path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("%w %s: creating temp file: %w", ErrWrite, path, err)
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("%w %s: closing: %w", ErrWrite, path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("%w %s: %w", ErrWrite, path, err)
	}
	committed = true

	return Checksum(data), nil
}

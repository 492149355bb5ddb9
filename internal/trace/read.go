package trace

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/nvandessel/sliptrace/internal/constants"
)

// maxFileSize bounds how much of a trace file is read.
const maxFileSize = 1 << 20

// Limits bounds what Parse accepts.
type Limits struct {
	// MaxRecords is the largest accepted record count. Zero means unbounded.
	MaxRecords int
	// MaxValue is the largest accepted pixel center.
	MaxValue int
}

// DefaultLimits matches the compiled-in scenario.
func DefaultLimits() Limits {
	return Limits{MaxRecords: constants.StepLimit, MaxValue: constants.PixelMax}
}

// Parse reads a trace file body and returns its pixel centers in order.
// Every record must be exactly three lowercase hex digits followed by '\n';
// blank lines, carriage returns and trailing content are rejected.
func Parse(r io.Reader, limits Limits) ([]int, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading trace: %w", err)
	}
	if len(data) > maxFileSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", ErrMalformed, maxFileSize)
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if data[len(data)-1] != '\n' {
		return nil, fmt.Errorf("%w: final record is not newline-terminated", ErrMalformed)
	}

	lines := bytes.Split(data[:len(data)-1], []byte{'\n'})
	if limits.MaxRecords > 0 && len(lines) > limits.MaxRecords {
		return nil, fmt.Errorf("%w: %d records exceeds limit of %d", ErrMalformed, len(lines), limits.MaxRecords)
	}

	pixels := make([]int, 0, len(lines))
	for i, line := range lines {
		if !isToken(line) {
			return nil, fmt.Errorf("%w: line %d: %q is not %d lowercase hex digits", ErrMalformed, i+1, line, constants.TokenWidth)
		}
		v, err := strconv.ParseInt(string(line), 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, i+1, err)
		}
		if int(v) > limits.MaxValue {
			return nil, fmt.Errorf("%w: line %d: %d exceeds %d", ErrOutOfRange, i+1, v, limits.MaxValue)
		}
		pixels = append(pixels, int(v))
	}
	return pixels, nil
}

// ReadFile parses the trace file at path.
func ReadFile(path string, limits Limits) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening trace: %w", err)
	}
	defer f.Close()
	return Parse(f, limits)
}

func isToken(b []byte) bool {
	if len(b) != constants.TokenWidth {
		return false
	}
	for _, c := range b {
		if !(c >= '0' && c <= '9') && !(c >= 'a' && c <= 'f') {
			return false
		}
	}
	return true
}

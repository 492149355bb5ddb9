package trace

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/nvandessel/sliptrace/internal/constants"
)

// Injection is a Source that replays a caller-supplied pixel-center
// sequence without simulating anything. It never synthesizes values.
type Injection struct {
	pixels   []int
	limits   Limits
	minValue int
}

// NewInjection returns a source replaying pixels. Values must lie in
// [minValue, limits.MaxValue] and the sequence must be non-empty and no longer
// than limits.MaxRecords.
func NewInjection(pixels []int, minValue int, limits Limits) *Injection {
	cp := make([]int, len(pixels))
	copy(cp, pixels)
	return &Injection{pixels: cp, limits: limits, minValue: minValue}
}

// Name implements Source.
func (s *Injection) Name() string {
	return constants.SourceInjection
}

// Produce implements Source.
func (s *Injection) Produce(ctx context.Context) (*Trace, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(s.pixels) == 0 {
		return nil, ErrEmpty
	}
	if s.limits.MaxRecords > 0 && len(s.pixels) > s.limits.MaxRecords {
		return nil, fmt.Errorf("%w: %d values exceeds limit of %d", ErrMalformed, len(s.pixels), s.limits.MaxRecords)
	}

	frames := make([]Frame, len(s.pixels))
	for i, p := range s.pixels {
		if p < s.minValue || p > s.limits.MaxValue {
			return nil, fmt.Errorf("%w: value %d at index %d is outside [%d, %d]", ErrOutOfRange, p, i, s.minValue, s.limits.MaxValue)
		}
		frames[i] = Frame{Step: i, Pixel: p}
	}

	return &Trace{
		Source:  s.Name(),
		Outcome: OutcomeInjected,
		Frames:  frames,
	}, nil
}

// ParseInjection reads decimal pixel centers, one per line. Blank lines and
// lines starting with '#' are skipped; trailing "# ..." comments are allowed.
func ParseInjection(r io.Reader) ([]int, error) {
	var out []int
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		v, err := strconv.Atoi(line)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %q is not a decimal integer", ErrMalformed, lineNo, line)
		}
		out = append(out, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading injection input: %w", err)
	}
	return out, nil
}

// LoadInjection reads an injection file from path.
func LoadInjection(path string) ([]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening injection file: %w", err)
	}
	defer f.Close()
	return ParseInjection(f)
}

package workload

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// Trace files hold one value per line; only the first whitespace-separated field
// is read. Blank lines and lines starting with ';' are skipped.

// LoadInterarrivalTrace reads inter-arrival times (seconds) from path.
func LoadInterarrivalTrace(path string) ([]float64, error) {
	var out []float64
	err := scanTraceFile(path, func(field string, line int) error {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return fmt.Errorf("line %d: invalid interarrival time %q", line, field)
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadFrameSizeTrace reads frame sizes (bytes) from path.
func LoadFrameSizeTrace(path string) ([]int, error) {
	var out []int
	err := scanTraceFile(path, func(field string, line int) error {
		v, err := strconv.Atoi(field)
		if err != nil || v <= 0 {
			return fmt.Errorf("line %d: invalid frame size %q", line, field)
		}
		out = append(out, v)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanTraceFile(path string, fn func(field string, line int) error) error {
	if path == "" {
		return fmt.Errorf("trace file path must not be empty")
	}
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening trace file %s: %w", path, err)
	}
	defer file.Close() //nolint:errcheck // read-only file
	if err := scanTrace(file, fn); err != nil {
		return fmt.Errorf("trace file %s: %w", path, err)
	}
	return nil
}

func scanTrace(r io.Reader, fn func(field string, line int) error) error {
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], ";") {
			continue
		}
		if err := fn(fields[0], line); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading: %w", err)
	}
	return nil
}

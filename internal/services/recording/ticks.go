package recording

import (
	"fmt"
	"strconv"
	"strings"
)

// TickSample is one reading of a pour's tick time series
type TickSample struct {
	// OffsetMillis is the time since the pour started
	OffsetMillis int64

	// Ticks is the cumulative meter count at that time
	Ticks int64
}

// ParseTickTimeSeries parses a whitespace separated list of "offset_ms:ticks"
// pairs. Offsets and tick counts must be non-negative and non-decreasing.
func ParseTickTimeSeries(raw string) ([]TickSample, error) {
	fields := strings.Fields(raw)
	samples := make([]TickSample, 0, len(fields))

	for i, field := range fields {
		offsetStr, ticksStr, ok := strings.Cut(field, ":")
		if !ok {
			return nil, fmt.Errorf("sample %d %q is not offset:ticks", i, field)
		}

		offset, err := strconv.ParseInt(offsetStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sample %d has a bad offset: %w", i, err)
		}
		ticks, err := strconv.ParseInt(ticksStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("sample %d has a bad tick count: %w", i, err)
		}
		if offset < 0 || ticks < 0 {
			return nil, fmt.Errorf("sample %d is negative", i)
		}

		if i > 0 {
			prev := samples[i-1]
			if offset < prev.OffsetMillis || ticks < prev.Ticks {
				return nil, fmt.Errorf("sample %d goes backwards", i)
			}
		}

		samples = append(samples, TickSample{OffsetMillis: offset, Ticks: ticks})
	}

	return samples, nil
}

// FormatTickTimeSeries renders samples in the form ParseTickTimeSeries reads
func FormatTickTimeSeries(samples []TickSample) string {
	parts := make([]string, len(samples))
	for i, sample := range samples {
		parts[i] = strconv.FormatInt(sample.OffsetMillis, 10) + ":" + strconv.FormatInt(sample.Ticks, 10)
	}
	return strings.Join(parts, " ")
}

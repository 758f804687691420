package source

import (
	"fmt"
	"strconv"
	"strings"
)

// Default zones: columns A-F are frozen, G-Z carry data.
const (
	DefaultFrozenZone = "0:5"
	DefaultDataZone   = "6:25"
)

// Zone is an inclusive 0-based column range.
type Zone struct {
	Start int
	End   int
}

// ParseZone parses "start:end" or a single column index.
func ParseZone(s string) (Zone, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Zone{}, fmt.Errorf("empty zone")
	}

	var z Zone
	if before, after, ok := strings.Cut(s, ":"); ok {
		start, err := strconv.Atoi(strings.TrimSpace(before))
		if err != nil {
			return Zone{}, fmt.Errorf("invalid zone start %q: %w", before, err)
		}
		end, err := strconv.Atoi(strings.TrimSpace(after))
		if err != nil {
			return Zone{}, fmt.Errorf("invalid zone end %q: %w", after, err)
		}
		z = Zone{Start: start, End: end}
	} else {
		idx, err := strconv.Atoi(s)
		if err != nil {
			return Zone{}, fmt.Errorf("invalid zone %q: %w", s, err)
		}
		z = Zone{Start: idx, End: idx}
	}

	if z.Start < 0 || z.End < z.Start {
		return Zone{}, fmt.Errorf("invalid zone %q: need 0 <= start <= end", s)
	}
	return z, nil
}

// MustParseZone is ParseZone for constants; it panics on error.
func MustParseZone(s string) Zone {
	z, err := ParseZone(s)
	if err != nil {
		panic(err)
	}
	return z
}

// String returns the zone in "start:end" form.
func (z Zone) String() string {
	return fmt.Sprintf("%d:%d", z.Start, z.End)
}

// Contains reports whether column idx falls in the zone.
func (z Zone) Contains(idx int) bool {
	return idx >= z.Start && idx <= z.End
}

// Overlaps reports whether z and o share a column.
func (z Zone) Overlaps(o Zone) bool {
	return z.Start <= o.End && o.Start <= z.End
}

// ColumnLetter converts a 0-based column index to its spreadsheet letter
// (0 -> A, 25 -> Z, 26 -> AA).
func ColumnLetter(idx int) string {
	if idx < 0 {
		return ""
	}
	var b []byte
	for n := idx + 1; n > 0; n = (n - 1) / 26 {
		b = append([]byte{byte('A' + (n-1)%26)}, b...)
	}
	return string(b)
}

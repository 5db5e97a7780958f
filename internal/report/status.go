package report

import (
	"fmt"
	"strings"
)

// CompatibilityStatus is a bit set summarising a report.
type CompatibilityStatus int

const (
	Compatible          CompatibilityStatus = 0
	UnreferencedChanges CompatibilityStatus = 1
	Extension           CompatibilityStatus = 4
	Incompatible        CompatibilityStatus = 8
	ElfIncompatible     CompatibilityStatus = 16
)

var statusNames = []struct {
	flag CompatibilityStatus
	name string
}{
	{Incompatible, "INCOMPATIBLE"},
	{ElfIncompatible, "ELF_INCOMPATIBLE"},
	{Extension, "EXTENSION"},
	{UnreferencedChanges, "UNREFERENCED_CHANGES"},
}

// String renders the set flags joined by "|", or "COMPATIBLE".
func (s CompatibilityStatus) String() string {
	if s == Compatible {
		return "COMPATIBLE"
	}
	var parts []string
	for _, sn := range statusNames {
		if s&sn.flag != 0 {
			parts = append(parts, sn.name)
		}
	}
	return strings.Join(parts, "|")
}

// Breaking reports whether s means existing consumers of the library can
// break: a removed or changed entity, or a removed ELF symbol.
func (s CompatibilityStatus) Breaking() bool {
	return s&(Incompatible|ElfIncompatible) != 0
}

// MarshalText implements encoding.TextMarshaler.
func (s CompatibilityStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *CompatibilityStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// ParseStatus parses the String form of a status.
func ParseStatus(text string) (CompatibilityStatus, error) {
	if text == "COMPATIBLE" {
		return Compatible, nil
	}
	var s CompatibilityStatus
	for _, part := range strings.Split(text, "|") {
		found := false
		for _, sn := range statusNames {
			if sn.name == part {
				s |= sn.flag
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown compatibility status %q", part)
		}
	}
	return s, nil
}

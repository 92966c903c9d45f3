package codec

import (
	"fmt"
	"strings"
)

// marker starts every replacement token. Canonical JSON never contains a
// raw control character (they are always \u-escaped), so a marker in the
// substituted text can only come from a token.
const marker = '\x01'

// Substitution replaces one literal of the canonical JSON text with a
// short token.
type Substitution struct {
	Pattern     string
	Replacement string
}

// DefaultTable is the substitution table used by Default. Patterns are
// tried in order, longest first within each group.
var DefaultTable = buildTable(
	// collection and snapshot keys
	`"appointments":`,
	`"lastBackup":`,
	`"settings":`,
	`"bills":`,
	// common record keys
	`"description":`,
	`"recurrence":`,
	`"createdAt":`,
	`"updatedAt":`,
	`"category":`,
	`"dueDate":`,
	`"paidAt":`,
	`"amount":`,
	`"status":`,
	`"notes":`,
	`"title":`,
	`"date":`,
	`"time":`,
	`"id":`,
	// enum values
	`"overdue"`,
	`"pending"`,
	`"monthly"`,
	`"weekly"`,
	`"paid"`,
	// literals
	`false`,
	`true`,
	`null`,
)

func buildTable(patterns ...string) []Substitution {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	if len(patterns) > len(alphabet) {
		panic("codec: substitution table too large")
	}
	t := make([]Substitution, len(patterns))
	for i, p := range patterns {
		t[i] = Substitution{Pattern: p, Replacement: string([]byte{marker, alphabet[i]})}
	}
	return t
}

// CheckTable verifies that table is a bijection safe for blind
// substring replacement: patterns and replacements are non-empty and
// unique, every replacement is the marker plus one byte, no pattern contains
// the marker, and no pattern is a substring of any replacement.
func CheckTable(table []Substitution) error {
	patterns := make(map[string]struct{}, len(table))
	replacements := make(map[string]struct{}, len(table))

	for i, s := range table {
		if s.Pattern == "" || s.Replacement == "" {
			return fmt.Errorf("entry %d: empty pattern or replacement", i)
		}
		if strings.IndexByte(s.Pattern, marker) >= 0 {
			return fmt.Errorf("entry %d: pattern %q contains the marker", i, s.Pattern)
		}
		if len(s.Replacement) != 2 || s.Replacement[0] != marker || s.Replacement[1] == marker {
			return fmt.Errorf("entry %d: replacement must be the marker followed by one byte", i)
		}
		if _, dup := patterns[s.Pattern]; dup {
			return fmt.Errorf("entry %d: duplicate pattern %q", i, s.Pattern)
		}
		if _, dup := replacements[s.Replacement]; dup {
			return fmt.Errorf("entry %d: duplicate replacement %q", i, s.Replacement)
		}
		patterns[s.Pattern] = struct{}{}
		replacements[s.Replacement] = struct{}{}
	}

	for _, a := range table {
		for _, b := range table {
			if strings.Contains(b.Replacement, a.Pattern) {
				return fmt.Errorf("pattern %q occurs in replacement %q", a.Pattern, b.Replacement)
			}
		}
	}
	return nil
}

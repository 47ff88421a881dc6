package domain

import "strings"

// RawRow is one record of a tabular export keyed by the header label exactly as
// it appeared in the source. Labels are not normalized to a fixed schema.
type RawRow map[string]string

// Lookup returns the value of the first label present in the row, probing the
// labels in the order given. A header that differs from a label only by
// surrounding whitespace still matches; when several do, the lexically
// smallest header wins. Missing labels yield "".
func (r RawRow) Lookup(labels ...string) string {
	for _, label := range labels {
		if v, ok := r[label]; ok {
			return v
		}
	}
	// Second pass tolerates header labels with stray whitespace ("Days Open ").
	for _, label := range labels {
		want := strings.TrimSpace(label)
		match, found := "", false
		for key := range r {
			if strings.TrimSpace(key) == want && (!found || key < match) {
				match, found = key, true
			}
		}
		if found {
			return r[match]
		}
	}
	return ""
}

// Has reports whether any of the labels is present in the row.
func (r RawRow) Has(labels ...string) bool {
	for _, label := range labels {
		want := strings.TrimSpace(label)
		for key := range r {
			if strings.TrimSpace(key) == want {
				return true
			}
		}
	}
	return false
}

// IsEmpty reports whether every cell of the row is blank.
func (r RawRow) IsEmpty() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

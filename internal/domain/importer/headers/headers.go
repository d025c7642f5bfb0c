// Package headers canonicalizes column header strings so that files exported
// with different casing, padding, or column order can still be compared
// structurally. The signature it produces is the key used to recognize a
// previously mapped file shape.
package headers

import (
	"sort"
	"strings"
)

// signatureSeparator joins normalized headers into a signature. The unit
// separator never appears in real header text, so joined signatures compare
// without ambiguity.
const signatureSeparator = "\x1f"

// Normalize lowercases a header, trims it, and collapses internal runs of
// whitespace to single spaces.
func Normalize(header string) string {
	return strings.Join(strings.Fields(strings.ToLower(header)), " ")
}

// NormalizeAll returns the normalized form of every header, preserving order.
func NormalizeAll(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		out[i] = Normalize(h)
	}
	return out
}

// Signature returns an order-independent, deduplicated representation of a
// header list. Two header lists describe the same file shape iff their
// signatures are equal.
func Signature(raw []string) string {
	return strings.Join(SignatureSet(raw), signatureSeparator)
}

// SignatureSet returns the sorted, deduplicated, normalized headers that make
// up a signature. Empty headers are dropped.
func SignatureSet(raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	set := make([]string, 0, len(raw))
	for _, h := range raw {
		n := Normalize(h)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		set = append(set, n)
	}
	sort.Strings(set)
	return set
}

// HasAmbiguous reports whether two distinct raw headers collapse to the same
// normalized value. Such a file cannot be auto-matched: binding a field to
// the duplicated name would be non-deterministic.
func HasAmbiguous(raw []string) bool {
	seen := make(map[string]struct{}, len(raw))
	for _, h := range raw {
		n := Normalize(h)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			return true
		}
		seen[n] = struct{}{}
	}
	return false
}

// NormalizedSet returns a lookup set of the normalized headers.
func NormalizedSet(raw []string) map[string]struct{} {
	set := make(map[string]struct{}, len(raw))
	for _, h := range raw {
		if n := Normalize(h); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// LiteralLookup builds a normalized-header -> literal-header map. When two
// literals normalize identically the first one wins, matching the binding
// rule used by the rebinder.
func LiteralLookup(raw []string) map[string]string {
	lookup := make(map[string]string, len(raw))
	for _, h := range raw {
		n := Normalize(h)
		if n == "" {
			continue
		}
		if _, ok := lookup[n]; !ok {
			lookup[n] = h
		}
	}
	return lookup
}

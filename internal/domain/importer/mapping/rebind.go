package mapping

import (
	"github.com/pocketledger/pocketledger/internal/domain/importer/headers"
)

// Rebind re-points every header reference of a mapping onto the literal
// header strings of a new file. References are resolved through a
// normalized-header lookup (first literal wins when two headers normalize
// identically); references with no counterpart in the new file are left
// unchanged so that later validation can flag them as missing. Rebinding is
// idempotent: rebinding an already-rebound mapping against the same header
// list is a no-op.
func Rebind(m ImportMapping, newHeaders []string) ImportMapping {
	lookup := headers.LiteralLookup(newHeaders)

	resolve := func(ref string) string {
		if ref == "" {
			return ""
		}
		if literal, ok := lookup[headers.Normalize(ref)]; ok {
			return literal
		}
		return ref
	}

	out := m.clone()
	out.CSV.Date = resolve(out.CSV.Date)
	for i, d := range out.CSV.Description {
		out.CSV.Description[i] = resolve(d)
	}
	out.CSV.Account = resolve(out.CSV.Account)
	out.CSV.Owner = resolve(out.CSV.Owner)
	out.CSV.Currency = resolve(out.CSV.Currency)

	out.CSV.Amount.Column = resolve(out.CSV.Amount.Column)
	out.CSV.Amount.DebitColumn = resolve(out.CSV.Amount.DebitColumn)
	out.CSV.Amount.CreditColumn = resolve(out.CSV.Amount.CreditColumn)
	out.CSV.Amount.AmountColumn = resolve(out.CSV.Amount.AmountColumn)
	out.CSV.Amount.TypeColumn = resolve(out.CSV.Amount.TypeColumn)
	return out
}

// MissingRefs returns the header references of a mapping that do not resolve
// against the given file headers. An empty result means the mapping is fully
// bound and importable.
func MissingRefs(m ImportMapping, fileHeaders []string) []string {
	set := headers.NormalizedSet(fileHeaders)
	var missing []string
	check := func(ref string) {
		if ref == "" {
			return
		}
		if _, ok := set[headers.Normalize(ref)]; !ok {
			missing = append(missing, ref)
		}
	}

	check(m.CSV.Date)
	for _, d := range m.CSV.Description {
		check(d)
	}
	check(m.CSV.Account)
	check(m.CSV.Owner)
	check(m.CSV.Currency)
	for _, c := range m.Amount().Columns() {
		check(c)
	}
	return missing
}

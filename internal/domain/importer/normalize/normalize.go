// Package normalize composes the parsed matrix, the column mapping and the
// user's month selection into canonical transaction records ready for
// persistence.
package normalize

import (
	"strings"

	"github.com/pocketledger/pocketledger/internal/domain/importer/amount"
	"github.com/pocketledger/pocketledger/internal/domain/importer/dates"
	"github.com/pocketledger/pocketledger/internal/domain/importer/mapping"
	"github.com/pocketledger/pocketledger/internal/domain/importer/tabular"
)

// OwnerUnassigned is recorded when neither a column nor a default supplies
// an owner.
const OwnerUnassigned = "unassigned"

// Transaction is a canonical import record.
type Transaction struct {
	Date        string `json:"date"` // YYYY-MM-DD
	Description string `json:"description"`
	AmountCents int64  `json:"amount_cents"`
	Category    string `json:"category"`
	Account     string `json:"account"`
	Owner       string `json:"owner"`
	Currency    string `json:"currency"`
}

// Normalize converts every selected row of f into a Transaction. Rows whose
// date fails to parse, or whose month is not among selectedMonthKeys, are
// skipped. An empty selectedMonthKeys selects every month. The output date
// is re-serialized from the parsed calendar date, never copied from the
// source cell, so every record carries YYYY-MM-DD regardless of the input
// date style.
func Normalize(f *tabular.ParsedFile, m mapping.ImportMapping, selectedMonthKeys []string) []Transaction {
	headerIndex := indexHeaders(f.Headers)
	selected := make(map[string]bool, len(selectedMonthKeys))
	for _, k := range selectedMonthKeys {
		selected[k] = true
	}

	out := make([]Transaction, 0, len(f.Rows))
	for _, row := range f.Rows {
		d, ok := dates.ParseLoose(cell(row, headerIndex, m.CSV.Date))
		if !ok {
			continue
		}
		if len(selected) > 0 && !selected[d.MonthKey()] {
			continue
		}

		out = append(out, Transaction{
			Date:        d.String(),
			Description: describeRow(row, headerIndex, m.CSV.Description),
			AmountCents: amount.Resolve(m.CSV.Amount, row, headerIndex),
			Category:    "",
			Account:     fallback(cell(row, headerIndex, m.CSV.Account), m.Account),
			Owner:       fallback(cell(row, headerIndex, m.CSV.Owner), fallback(m.DefaultOwner, OwnerUnassigned)),
			Currency:    strings.ToUpper(fallback(cell(row, headerIndex, m.CSV.Currency), m.CurrencyDefault)),
		})
	}
	return out
}

// indexHeaders maps each literal header to its first column position.
func indexHeaders(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := idx[h]; !seen {
			idx[h] = i
		}
	}
	return idx
}

func cell(row []string, headerIndex map[string]int, ref string) string {
	if ref == "" {
		return ""
	}
	i, ok := headerIndex[ref]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// describeRow joins the mapped description cells with single spaces,
// skipping empties.
func describeRow(row []string, headerIndex map[string]int, refs []string) string {
	parts := make([]string, 0, len(refs))
	for _, ref := range refs {
		if v := cell(row, headerIndex, ref); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func fallback(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

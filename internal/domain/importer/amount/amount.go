// Package amount resolves a row's money value into signed integer cents
// according to the active amount-mapping variant.
package amount

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/pocketledger/pocketledger/internal/domain/importer/mapping"
)

var cent = decimal.NewFromInt(100)

// Resolve computes the signed cent amount for row under am. Column
// references are looked up through headerIndex (literal header to column
// position). A reference that does not resolve, or a cell that does not
// parse as a number, contributes 0; a bad amount never rejects a row, it
// surfaces as a zero in the preview instead.
func Resolve(am mapping.AmountMapping, row []string, headerIndex map[string]int) int64 {
	switch am.Kind {
	case mapping.AmountSingle:
		v := parseCell(cell(row, headerIndex, am.Column))
		if am.InvertSign {
			v = v.Neg()
		}
		return toCents(v)

	case mapping.AmountDebitCredit:
		debit := parseCell(cell(row, headerIndex, am.DebitColumn)).Abs()
		credit := parseCell(cell(row, headerIndex, am.CreditColumn)).Abs()
		return toCents(credit.Sub(debit))

	case mapping.AmountWithType:
		v := parseCell(cell(row, headerIndex, am.AmountColumn)).Abs()
		token := strings.ToLower(strings.TrimSpace(cell(row, headerIndex, am.TypeColumn)))
		if token != "" && token == strings.ToLower(strings.TrimSpace(am.NegativeValue)) {
			v = v.Neg()
		}
		return toCents(v)
	}
	return 0
}

func cell(row []string, headerIndex map[string]int, ref string) string {
	if ref == "" {
		return ""
	}
	idx, ok := headerIndex[ref]
	if !ok || idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseCell parses a money cell, tolerating currency symbols and thousands
// separators by stripping everything except digits, the decimal point and
// the minus sign. Parentheses are stripped too, so "(20.00)" reads as a
// positive 20.00. Failures parse to zero.
func parseCell(raw string) decimal.Decimal {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return v
}

func toCents(v decimal.Decimal) int64 {
	return v.Mul(cent).Round(0).IntPart()
}

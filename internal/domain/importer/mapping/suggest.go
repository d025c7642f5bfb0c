package mapping

import (
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/pocketledger/pocketledger/internal/domain/importer/headers"
)

// Keyword vocabularies for the heuristic prefill used when no saved mapping
// matches. Contains-matching is tried first; fuzzy rank catches misspelled
// or abbreviated exports ("descr", "amnt").
var (
	dateKeywords     = []string{"date", "data", "fecha", "datum", "posted", "booking"}
	descKeywords     = []string{"description", "descri", "memo", "payee", "merchant", "details", "narrative", "reference"}
	amountKeywords   = []string{"amount", "valor", "value", "importe", "montant"}
	debitKeywords    = []string{"debit", "debito", "débito", "cargo", "withdrawal", "money out"}
	creditKeywords   = []string{"credit", "credito", "crédito", "abono", "deposit", "money in"}
	typeKeywords     = []string{"type", "tipo", "direction", "dr/cr", "cr/dr", "transaction type"}
	accountKeywords  = []string{"account", "conta", "cuenta", "iban"}
	ownerKeywords    = []string{"owner", "holder", "titular", "member"}
	currencyKeywords = []string{"currency", "moeda", "moneda", "divisa", "valuta", "ccy"}
)

const fuzzyRankThreshold = 2

// Suggest builds a best-effort mapping from header names alone. It is the
// degraded mode after NoMappingMatch: the user still reviews and completes
// the result, so a wrong guess here costs a click, not a bad import.
func Suggest(fileHeaders []string) ImportMapping {
	m := ImportMapping{CSV: FieldBindings{Amount: AmountMapping{Kind: AmountSingle}}}

	claimed := make(map[int]bool, len(fileHeaders))
	find := func(keywords []string) (string, bool) {
		// Pass 1: substring containment against the normalized header.
		for i, h := range fileHeaders {
			if claimed[i] {
				continue
			}
			n := headers.Normalize(h)
			for _, kw := range keywords {
				if strings.Contains(n, kw) {
					claimed[i] = true
					return h, true
				}
			}
		}
		// Pass 2: fuzzy rank for near-miss spellings.
		for i, h := range fileHeaders {
			if claimed[i] {
				continue
			}
			n := headers.Normalize(h)
			for _, kw := range keywords {
				if rank := fuzzy.RankMatch(n, kw); rank >= 0 && rank <= fuzzyRankThreshold {
					claimed[i] = true
					return h, true
				}
			}
		}
		return "", false
	}

	if h, ok := find(dateKeywords); ok {
		m.CSV.Date = h
	}
	if h, ok := find(descKeywords); ok {
		m.CSV.Description = []string{h}
	}

	debit, hasDebit := find(debitKeywords)
	credit, hasCredit := find(creditKeywords)
	single, hasSingle := find(amountKeywords)

	switch {
	case hasDebit || hasCredit:
		m.CSV.Amount = AmountMapping{Kind: AmountDebitCredit, DebitColumn: debit, CreditColumn: credit}
	case hasSingle:
		if typeCol, hasType := find(typeKeywords); hasType {
			m.CSV.Amount = AmountMapping{
				Kind:          AmountWithType,
				AmountColumn:  single,
				TypeColumn:    typeCol,
				NegativeValue: "debit",
				PositiveValue: "credit",
			}
		} else {
			m.CSV.Amount = AmountMapping{Kind: AmountSingle, Column: single}
		}
	}

	if h, ok := find(accountKeywords); ok {
		m.CSV.Account = h
	}
	if h, ok := find(ownerKeywords); ok {
		m.CSV.Owner = h
	}
	if h, ok := find(currencyKeywords); ok {
		m.CSV.Currency = h
	}
	return m
}

// Package mapping holds the column-mapping data model and the algorithms
// that recognize previously saved mappings in newly uploaded files: the
// similarity matcher, the header rebinder, and the heuristic fallback
// suggestion used when nothing matches.
package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/internal/domain/importer/headers"
)

// AmountKind tags the active variant of an AmountMapping.
type AmountKind string

const (
	// AmountSingle maps one signed (or invertible) money column.
	AmountSingle AmountKind = "single"
	// AmountDebitCredit maps two unsigned columns; amount = |credit| - |debit|.
	AmountDebitCredit AmountKind = "debit_credit"
	// AmountWithType maps an unsigned money column plus a direction column
	// whose value decides the sign.
	AmountWithType AmountKind = "amount_with_type"
)

// AmountMapping is a tagged union; exactly one variant is active at a time,
// selected by Kind. Only the fields of the active variant are meaningful.
type AmountMapping struct {
	Kind AmountKind `json:"kind"`

	// single
	Column     string `json:"column,omitempty"`
	InvertSign bool   `json:"invert_sign,omitempty"`

	// debit_credit
	DebitColumn  string `json:"debit_column,omitempty"`
	CreditColumn string `json:"credit_column,omitempty"`

	// amount_with_type
	AmountColumn  string `json:"amount_column,omitempty"`
	TypeColumn    string `json:"type_column,omitempty"`
	NegativeValue string `json:"negative_value,omitempty"`
	PositiveValue string `json:"positive_value,omitempty"`
}

// Valid reports whether the mapping carries a recognized variant tag.
func (a AmountMapping) Valid() bool {
	switch a.Kind {
	case AmountSingle, AmountDebitCredit, AmountWithType:
		return true
	default:
		return false
	}
}

// Columns returns the header references the active variant uses, skipping
// unset ones.
func (a AmountMapping) Columns() []string {
	var cols []string
	switch a.Kind {
	case AmountSingle:
		if a.Column != "" {
			cols = append(cols, a.Column)
		}
	case AmountDebitCredit:
		if a.DebitColumn != "" {
			cols = append(cols, a.DebitColumn)
		}
		if a.CreditColumn != "" {
			cols = append(cols, a.CreditColumn)
		}
	case AmountWithType:
		if a.AmountColumn != "" {
			cols = append(cols, a.AmountColumn)
		}
		if a.TypeColumn != "" {
			cols = append(cols, a.TypeColumn)
		}
	}
	return cols
}

// Switch returns a copy retargeted to a different variant, carrying over any
// column names still meaningful to the new variant and dropping the rest.
func (a AmountMapping) Switch(kind AmountKind) AmountMapping {
	if kind == a.Kind {
		return a
	}

	// The previously active money column survives a variant switch; the
	// variant-specific extras (sign inversion, direction tokens, the second
	// column) do not.
	primary := ""
	switch a.Kind {
	case AmountSingle:
		primary = a.Column
	case AmountDebitCredit:
		primary = a.DebitColumn
		if primary == "" {
			primary = a.CreditColumn
		}
	case AmountWithType:
		primary = a.AmountColumn
	}

	next := AmountMapping{Kind: kind}
	switch kind {
	case AmountSingle:
		next.Column = primary
	case AmountDebitCredit:
		next.DebitColumn = primary
	case AmountWithType:
		next.AmountColumn = primary
	}
	return next
}

// FieldBindings are the per-column references of an import mapping. Values
// are literal header strings from the source file.
type FieldBindings struct {
	Date        string        `json:"date"`
	Description []string      `json:"description"`
	Amount      AmountMapping `json:"amount_mapping"`
	Account     string        `json:"account,omitempty"`
	Owner       string        `json:"owner,omitempty"`
	Currency    string        `json:"currency,omitempty"`
}

// ImportMapping describes how a tabular file maps onto canonical transaction
// fields, plus the static fallbacks used when a column is not mapped.
type ImportMapping struct {
	CSV             FieldBindings `json:"csv"`
	Account         string        `json:"account"`
	DefaultOwner    string        `json:"default_owner,omitempty"`
	CurrencyDefault string        `json:"currency_default"`
}

// Field identifies a bindable mapping slot.
type Field string

const (
	FieldDate          Field = "date"
	FieldDescription   Field = "description"
	FieldAccount       Field = "account"
	FieldOwner         Field = "owner"
	FieldCurrency      Field = "currency"
	FieldAmountColumn  Field = "amount.column"
	FieldAmountDebit   Field = "amount.debit"
	FieldAmountCredit  Field = "amount.credit"
	FieldAmountOfType  Field = "amount.amount"
	FieldAmountTypeCol Field = "amount.type"
)

// Bind returns a copy with header bound to field. A header may be bound to
// at most one field at a time, except description which accepts many;
// binding silently unbinds the header from any prior field. Binding an
// already-bound description header is a no-op.
func (m ImportMapping) Bind(field Field, header string) ImportMapping {
	out := m.clone()
	out.unbind(header)

	switch field {
	case FieldDate:
		out.CSV.Date = header
	case FieldDescription:
		out.CSV.Description = append(out.CSV.Description, header)
	case FieldAccount:
		out.CSV.Account = header
	case FieldOwner:
		out.CSV.Owner = header
	case FieldCurrency:
		out.CSV.Currency = header
	case FieldAmountColumn:
		out.CSV.Amount.Column = header
	case FieldAmountDebit:
		out.CSV.Amount.DebitColumn = header
	case FieldAmountCredit:
		out.CSV.Amount.CreditColumn = header
	case FieldAmountOfType:
		out.CSV.Amount.AmountColumn = header
	case FieldAmountTypeCol:
		out.CSV.Amount.TypeColumn = header
	}
	return out
}

func (m ImportMapping) clone() ImportMapping {
	out := m
	out.CSV.Description = append([]string(nil), m.CSV.Description...)
	return out
}

// unbind removes every binding whose normalized header equals header's.
func (m *ImportMapping) unbind(header string) {
	n := headers.Normalize(header)
	same := func(ref string) bool { return ref != "" && headers.Normalize(ref) == n }

	if same(m.CSV.Date) {
		m.CSV.Date = ""
	}
	kept := m.CSV.Description[:0]
	for _, d := range m.CSV.Description {
		if !same(d) {
			kept = append(kept, d)
		}
	}
	m.CSV.Description = kept
	if same(m.CSV.Account) {
		m.CSV.Account = ""
	}
	if same(m.CSV.Owner) {
		m.CSV.Owner = ""
	}
	if same(m.CSV.Currency) {
		m.CSV.Currency = ""
	}
	if same(m.CSV.Amount.Column) {
		m.CSV.Amount.Column = ""
	}
	if same(m.CSV.Amount.DebitColumn) {
		m.CSV.Amount.DebitColumn = ""
	}
	if same(m.CSV.Amount.CreditColumn) {
		m.CSV.Amount.CreditColumn = ""
	}
	if same(m.CSV.Amount.AmountColumn) {
		m.CSV.Amount.AmountColumn = ""
	}
	if same(m.CSV.Amount.TypeColumn) {
		m.CSV.Amount.TypeColumn = ""
	}
}

// Meta is the frozen snapshot recorded when a mapping is saved: the header
// signature set of the file it was created against and the header verdict
// at that time. It is used only for future matching and never mutated.
type Meta struct {
	Headers   []string `json:"headers"`
	HasHeader bool     `json:"has_header"`
}

// SavedMapping is a persisted ImportMapping plus its match metadata.
type SavedMapping struct {
	ID      uuid.UUID
	Name    string
	Mapping ImportMapping
	Meta    *Meta
}

// savedPayload is the wire form stored in the mapping_json persistence blob.
type savedPayload struct {
	ImportMapping
	Meta *Meta `json:"meta,omitempty"`
}

// EncodeSaved serializes a saved mapping's payload (the ImportMapping plus
// its meta snapshot) for persistence.
func EncodeSaved(m SavedMapping) ([]byte, error) {
	return json.Marshal(savedPayload{ImportMapping: m.Mapping, Meta: m.Meta})
}

// DecodeSaved parses a persisted mapping blob. Blobs missing the amount
// mapping variant are schema-incompatible and rejected; callers loading a
// library are expected to skip them rather than fail the whole load.
func DecodeSaved(id uuid.UUID, name string, raw []byte) (SavedMapping, error) {
	var p savedPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return SavedMapping{}, fmt.Errorf("decode mapping %q: %w", name, err)
	}
	if !p.Amount().Valid() {
		return SavedMapping{}, fmt.Errorf("decode mapping %q: missing amount mapping", name)
	}
	return SavedMapping{ID: id, Name: name, Mapping: p.ImportMapping, Meta: p.Meta}, nil
}

// Amount returns the mapping's amount variant.
func (m ImportMapping) Amount() AmountMapping {
	return m.CSV.Amount
}

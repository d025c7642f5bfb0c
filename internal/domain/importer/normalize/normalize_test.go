package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pocketledger/pocketledger/internal/domain/importer/mapping"
	"github.com/pocketledger/pocketledger/internal/domain/importer/tabular"
)

func parseCSV(t *testing.T, data string) *tabular.ParsedFile {
	t.Helper()
	f, err := tabular.Parse("statement.csv", []byte(data))
	require.NoError(t, err)
	return f
}

func basicMapping() mapping.ImportMapping {
	return mapping.ImportMapping{
		CSV: mapping.FieldBindings{
			Date:        "Date",
			Description: []string{"Description"},
			Amount:      mapping.AmountMapping{Kind: mapping.AmountSingle, Column: "Amount"},
			Currency:    "Currency",
		},
		Account:         "Checking",
		CurrencyDefault: "eur",
	}
}

func TestNormalize_EndToEnd(t *testing.T) {
	f := parseCSV(t, "Date,Description,Amount,Currency\n"+
		"2023-10-01,Coffee,-4.50,CAD\n"+
		"2023-10-05,Lunch,-12.50,USD\n")

	got := Normalize(f, basicMapping(), []string{"2023-10"})
	require.Len(t, got, 2)

	assert.Equal(t, Transaction{
		Date: "2023-10-01", Description: "Coffee", AmountCents: -450,
		Account: "Checking", Owner: OwnerUnassigned, Currency: "CAD",
	}, got[0])
	assert.Equal(t, Transaction{
		Date: "2023-10-05", Description: "Lunch", AmountCents: -1250,
		Account: "Checking", Owner: OwnerUnassigned, Currency: "USD",
	}, got[1])
}

func TestNormalize_MonthSelectionFilters(t *testing.T) {
	f := parseCSV(t, "Date,Description,Amount,Currency\n"+
		"2023-09-30,Groceries,-30.00,EUR\n"+
		"2023-10-01,Coffee,-4.50,EUR\n"+
		"2023-11-02,Rent,-900.00,EUR\n")

	got := Normalize(f, basicMapping(), []string{"2023-10"})
	require.Len(t, got, 1)
	assert.Equal(t, "Coffee", got[0].Description)

	// No selection imports everything.
	assert.Len(t, Normalize(f, basicMapping(), nil), 3)
}

func TestNormalize_UnparseableDateDropsRow(t *testing.T) {
	f := parseCSV(t, "Date,Description,Amount,Currency\n"+
		"not a date,Mystery,-4.50,EUR\n"+
		"2023-10-01,Coffee,-4.50,EUR\n")

	got := Normalize(f, basicMapping(), nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Coffee", got[0].Description)
}

func TestNormalize_DateReserializedCanonically(t *testing.T) {
	f := parseCSV(t, "Date,Description,Amount,Currency\n"+
		"05/10/23,Coffee,-4.50,EUR\n")

	got := Normalize(f, basicMapping(), nil)
	require.Len(t, got, 1)
	assert.Equal(t, "2023-05-10", got[0].Date)
}

func TestNormalize_MultiColumnDescription(t *testing.T) {
	f := parseCSV(t, "Date,Payee,Memo,Amount\n"+
		"2023-10-01,Starbucks,card 1234,-4.50\n"+
		"2023-10-02,Tesco,,-20.00\n")

	m := basicMapping()
	m.CSV.Description = []string{"Payee", "Memo"}
	m.CSV.Currency = ""

	got := Normalize(f, m, nil)
	require.Len(t, got, 2)
	assert.Equal(t, "Starbucks card 1234", got[0].Description)
	// Empty memo cell is skipped, no trailing space.
	assert.Equal(t, "Tesco", got[1].Description)
}

func TestNormalize_FallbacksAndDefaults(t *testing.T) {
	f := parseCSV(t, "Date,Description,Amount,Account,Owner\n"+
		"2023-10-01,Coffee,-4.50,Joint,alice\n"+
		"2023-10-02,Lunch,-12.50,,\n")

	m := basicMapping()
	m.CSV.Account = "Account"
	m.CSV.Owner = "Owner"
	m.CSV.Currency = ""

	got := Normalize(f, m, nil)
	require.Len(t, got, 2)

	assert.Equal(t, "Joint", got[0].Account)
	assert.Equal(t, "alice", got[0].Owner)

	// Blank cells fall back to the mapping's static values.
	assert.Equal(t, "Checking", got[1].Account)
	assert.Equal(t, OwnerUnassigned, got[1].Owner)
	assert.Equal(t, "EUR", got[1].Currency)
}

func TestNormalize_DefaultOwnerWinsOverSentinel(t *testing.T) {
	f := parseCSV(t, "Date,Description,Amount\n2023-10-01,Coffee,-4.50\n")

	m := basicMapping()
	m.CSV.Currency = ""
	m.DefaultOwner = "bob"

	got := Normalize(f, m, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Owner)
}

func TestNormalize_DebitCreditMapping(t *testing.T) {
	f := parseCSV(t, "Date,Description,Debit,Credit\n"+
		"2023-10-01,Salary,,2000.00\n"+
		"2023-10-02,Groceries,55.10,\n")

	m := basicMapping()
	m.CSV.Amount = mapping.AmountMapping{
		Kind:         mapping.AmountDebitCredit,
		DebitColumn:  "Debit",
		CreditColumn: "Credit",
	}
	m.CSV.Currency = ""

	got := Normalize(f, m, nil)
	require.Len(t, got, 2)
	assert.Equal(t, int64(200000), got[0].AmountCents)
	assert.Equal(t, int64(-5510), got[1].AmountCents)
}

func TestNormalize_CategoryAlwaysEmpty(t *testing.T) {
	f := parseCSV(t, "Date,Description,Amount\n2023-10-01,Coffee,-4.50\n")
	m := basicMapping()
	m.CSV.Currency = ""

	got := Normalize(f, m, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "", got[0].Category)
}

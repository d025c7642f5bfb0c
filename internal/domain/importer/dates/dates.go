// Package dates parses the loosely formatted date strings found in bank
// exports and groups rows into calendar months. Dates are kept as plain
// year/month/day components rather than time.Time so that bucketing and
// re-serialization can never shift across a timezone boundary.
package dates

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// Date is a calendar date with no time or zone attached.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// String serializes as YYYY-MM-DD.
func (d Date) String() string {
	return fmtPadded(d.Year, 4) + "-" + fmtPadded(int(d.Month), 2) + "-" + fmtPadded(d.Day, 2)
}

// MonthKey returns the YYYY-MM bucket key.
func (d Date) MonthKey() string {
	return fmtPadded(d.Year, 4) + "-" + fmtPadded(int(d.Month), 2)
}

// Label returns a short human month label, e.g. "Oct 2023".
func (d Date) Label() string {
	return d.Month.String()[:3] + " " + strconv.Itoa(d.Year)
}

func (d Date) valid() bool {
	if d.Month < time.January || d.Month > time.December {
		return false
	}
	if d.Day < 1 || d.Year < 1 {
		return false
	}
	// time.Date normalizes overflow (Feb 30 -> Mar 2), so a round-trip
	// that changes the day means the components were not a real date.
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	return t.Day() == d.Day && t.Month() == d.Month && t.Year() == d.Year
}

func fmtPadded(v, width int) string {
	s := strconv.Itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// fallbackLayouts are tried last, against the raw trimmed text. They cover
// the long-form styles some banks print in statement exports.
var fallbackLayouts = []string{
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2 2006",
	"20060102",
}

// ParseLoose parses text into a calendar date, returning ok=false on
// failure. Attempts, in order:
//
//  1. ISO-like YYYY-MM-DD with an optional time suffix, read as local
//     calendar components (never through a UTC parse that would shift the
//     day in negative-offset zones).
//  2. A/B/C separated by slash, dash or dot with a 2-4 digit year last.
//     When the first component exceeds 12 and the second does not, the
//     two are swapped (DD/MM wins over MM/DD). Two-digit years are
//     promoted by +2000.
//  3. A short list of long-form layouts.
func ParseLoose(text string) (Date, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return Date{}, false
	}

	if d, ok := parseISO(s); ok {
		return d, true
	}
	if d, ok := parseSlashed(s); ok {
		return d, true
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, true
		}
	}
	return Date{}, false
}

func parseISO(s string) (Date, bool) {
	// YYYY-MM-DD, optionally followed by T.. or a space and a time.
	if len(s) < 10 || s[4] != '-' || s[7] != '-' {
		return Date{}, false
	}
	if len(s) > 10 && s[10] != 'T' && s[10] != ' ' {
		return Date{}, false
	}
	year, err1 := strconv.Atoi(s[0:4])
	month, err2 := strconv.Atoi(s[5:7])
	day, err3 := strconv.Atoi(s[8:10])
	if err1 != nil || err2 != nil || err3 != nil {
		return Date{}, false
	}
	d := Date{Year: year, Month: time.Month(month), Day: day}
	if !d.valid() {
		return Date{}, false
	}
	return d, true
}

func parseSlashed(s string) (Date, bool) {
	// Only consider the date portion if a time follows.
	if i := strings.IndexAny(s, " T"); i > 0 {
		s = s[:i]
	}
	sep := ""
	for _, candidate := range []string{"/", "-", "."} {
		if strings.Count(s, candidate) == 2 {
			sep = candidate
			break
		}
	}
	if sep == "" {
		return Date{}, false
	}
	parts := strings.Split(s, sep)
	a, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	b, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	c, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return Date{}, false
	}
	yearDigits := len(strings.TrimSpace(parts[2]))
	if yearDigits < 2 || yearDigits > 4 {
		return Date{}, false
	}
	if yearDigits == 2 {
		c += 2000
	}

	month, day := a, b
	if a > 12 && b <= 12 {
		month, day = b, a
	}
	d := Date{Year: c, Month: time.Month(month), Day: day}
	if !d.valid() {
		return Date{}, false
	}
	return d, true
}

// MonthOption is a selectable month bucket shown in the import preview.
type MonthOption struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// BucketByMonth groups rows into YYYY-MM buckets keyed on the cell at
// dateCol, sorted ascending by key. Rows whose date fails to parse are
// excluded; the same rows are later excluded from normalization, so the
// bucket counts match what an import of that month would produce.
func BucketByMonth(rows [][]string, dateCol int) []MonthOption {
	if dateCol < 0 {
		return nil
	}
	counts := make(map[string]MonthOption)
	for _, row := range rows {
		if dateCol >= len(row) {
			continue
		}
		d, ok := ParseLoose(row[dateCol])
		if !ok {
			continue
		}
		key := d.MonthKey()
		opt, seen := counts[key]
		if !seen {
			opt = MonthOption{Key: key, Label: d.Label()}
		}
		opt.Count++
		counts[key] = opt
	}

	out := make([]MonthOption, 0, len(counts))
	for _, opt := range counts {
		out = append(out, opt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

package mapping

import (
	"github.com/google/uuid"

	"github.com/pocketledger/pocketledger/internal/domain/importer/headers"
)

const (
	// minMetaHeaders excludes saved mappings whose frozen header set is too
	// small for the subset test to mean anything: short generic header
	// lists ("date, description, amount") would otherwise auto-apply to
	// unrelated files.
	minMetaHeaders = 4

	// Acceptance gate for the scored path.
	minAcceptScore = 3
	minAcceptRatio = 0.75
)

// Match is a saved mapping that fits the uploaded file, already rebound to
// the file's literal headers.
type Match struct {
	ID      uuid.UUID     `json:"id"`
	Name    string        `json:"name"`
	Mapping ImportMapping `json:"mapping"`
	Exact   bool          `json:"exact"`
}

// candidate carries the ranking state for one scored saved mapping.
type candidate struct {
	saved    SavedMapping
	score    int
	possible int
	ratio    float64
	metaSize int
}

// PickBest selects the saved mapping that best fits the given file headers,
// or nil when no candidate clears the acceptance gate. The exact path (equal
// header signature and matching header verdict) wins over any scored
// candidate. The caller is responsible for the preconditions of auto-match:
// the header verdict came from detection rather than a manual override, and
// the file's headers are unambiguous.
func PickBest(fileHeaders []string, fileHasHeader bool, saved []SavedMapping) *Match {
	if len(fileHeaders) == 0 || headers.HasAmbiguous(fileHeaders) {
		return nil
	}

	fileSig := headers.Signature(fileHeaders)
	fileSet := headers.NormalizedSet(fileHeaders)

	for _, s := range saved {
		if s.Meta == nil {
			continue
		}
		if s.Meta.HasHeader != fileHasHeader {
			continue
		}
		if headers.Signature(s.Meta.Headers) == fileSig {
			return &Match{
				ID:      s.ID,
				Name:    s.Name,
				Mapping: Rebind(s.Mapping, fileHeaders),
				Exact:   true,
			}
		}
	}

	var best *candidate
	for _, s := range saved {
		c, ok := scoreCandidate(s, fileHasHeader, fileSet)
		if !ok {
			continue
		}
		if best == nil || better(c, *best) {
			cc := c
			best = &cc
		}
	}

	if best == nil {
		return nil
	}
	if best.score < minAcceptScore && best.ratio < minAcceptRatio {
		return nil
	}
	return &Match{
		ID:      best.saved.ID,
		Name:    best.saved.Name,
		Mapping: Rebind(best.saved.Mapping, fileHeaders),
	}
}

func scoreCandidate(s SavedMapping, fileHasHeader bool, fileSet map[string]struct{}) (candidate, bool) {
	metaSize := 0
	if s.Meta != nil {
		if s.Meta.HasHeader != fileHasHeader {
			return candidate{}, false
		}
		if len(s.Meta.Headers) > 0 {
			metaSet := headers.SignatureSet(s.Meta.Headers)
			metaSize = len(metaSet)
			if metaSize < minMetaHeaders {
				return candidate{}, false
			}
			for _, h := range metaSet {
				if _, ok := fileSet[h]; !ok {
					return candidate{}, false
				}
			}
		}
	}

	inFile := func(ref string) bool {
		if ref == "" {
			return false
		}
		_, ok := fileSet[headers.Normalize(ref)]
		return ok
	}

	possible := 1 // date
	score := 0
	if inFile(s.Mapping.CSV.Date) {
		score++
	} else {
		// A mapping whose date column is absent cannot drive an import.
		return candidate{}, false
	}

	descMatched := 0
	for _, d := range s.Mapping.CSV.Description {
		possible++
		if inFile(d) {
			score++
			descMatched++
		}
	}
	if descMatched < 1 {
		return candidate{}, false
	}

	am := s.Mapping.Amount()
	switch am.Kind {
	case AmountSingle:
		possible++
		if !inFile(am.Column) {
			return candidate{}, false
		}
		score++
	case AmountDebitCredit:
		if am.DebitColumn != "" {
			possible++
			if !inFile(am.DebitColumn) {
				return candidate{}, false
			}
			score++
		}
		if am.CreditColumn != "" {
			possible++
			if !inFile(am.CreditColumn) {
				return candidate{}, false
			}
			score++
		}
		if am.DebitColumn == "" && am.CreditColumn == "" {
			return candidate{}, false
		}
	case AmountWithType:
		possible += 2
		if !inFile(am.AmountColumn) || !inFile(am.TypeColumn) {
			return candidate{}, false
		}
		score += 2
	default:
		return candidate{}, false
	}

	for _, opt := range []string{s.Mapping.CSV.Account, s.Mapping.CSV.Owner, s.Mapping.CSV.Currency} {
		if opt == "" {
			continue
		}
		possible++
		if inFile(opt) {
			score++
		}
	}

	ratio := 0.0
	if possible > 0 {
		ratio = float64(score) / float64(possible)
	}
	return candidate{saved: s, score: score, possible: possible, ratio: ratio, metaSize: metaSize}, true
}

// better orders candidates by ratio, then raw score, then by the size of the
// frozen header set (a larger known shape is the more specific claim).
func better(a, b candidate) bool {
	if a.ratio != b.ratio {
		return a.ratio > b.ratio
	}
	if a.score != b.score {
		return a.score > b.score
	}
	return a.metaSize > b.metaSize
}

package title

import (
	"regexp"

	"github.com/hbollon/go-edlib"
)

var numberRegex = regexp.MustCompile(`\b(\d+)\b`)

// Confidence grades a fuzzy match.
type Confidence int

const (
	ConfidenceNone   Confidence = iota // score < 0.70
	ConfidenceLow                      // score >= 0.70
	ConfidenceMedium                   // score >= 0.85
	ConfidenceHigh                     // score >= 0.95
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceHigh:
		return "high"
	case ConfidenceMedium:
		return "medium"
	case ConfidenceLow:
		return "low"
	default:
		return "none"
	}
}

// Match is the best candidate for a query.
type Match struct {
	Index      int // index into candidates, -1 when nothing matched
	Title      string
	Score      float64 // 0.0-1.0
	Confidence Confidence
}

// Best picks the candidate most similar to query using Jaro-Winkler on
// cleaned titles. A candidate containing the whole cleaned query scores at
// least 0.95. Sequel numbers must agree: "toy story 2" prefers "Toy Story 2"
// over "Toy Story".
func Best(query string, candidates []string) Match {
	best := Match{Index: -1}
	q := clean(query)
	if q == "" {
		return best
	}
	qNums := numberRegex.FindAllString(q, -1)

	for i, cand := range candidates {
		c := clean(cand)
		if c == "" {
			continue
		}
		score := float64(edlib.JaroWinklerSimilarity(q, c))
		if score < 0.95 && Contains(c, q) {
			score = 0.95
		}
		score = adjustForNumbers(score, qNums, numberRegex.FindAllString(c, -1))

		if score > best.Score {
			best = Match{Index: i, Title: cand, Score: score}
		}
	}

	switch {
	case best.Score >= 0.95:
		best.Confidence = ConfidenceHigh
	case best.Score >= 0.85:
		best.Confidence = ConfidenceMedium
	case best.Score >= 0.70:
		best.Confidence = ConfidenceLow
	default:
		return Match{Index: -1, Score: best.Score}
	}
	return best
}

func adjustForNumbers(score float64, queryNums, candNums []string) float64 {
	if len(queryNums) == 0 {
		return score
	}
	if len(candNums) == 0 {
		return score * 0.85
	}
	for _, q := range queryNums {
		for _, c := range candNums {
			if q == c {
				return min(score*1.05, 1.0)
			}
		}
	}
	return score * 0.90
}

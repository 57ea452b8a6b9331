package huggingface

import (
	"strconv"
	"strings"
)

// Classification is one label prediction.
type Classification struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classifications is the result of a sentiment-analysis pipeline call: the
// top label for each input.
type Classifications []Classification

// String renders the result in pipeline print form, e.g.
// [{'label': 'Positive', 'score': 0.9999}].
func (cs Classifications) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, c := range cs {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("{'label': '")
		b.WriteString(strings.ReplaceAll(c.Label, "'", `\'`))
		b.WriteString("', 'score': ")
		b.WriteString(formatScore(c.Score))
		b.WriteByte('}')
	}
	b.WriteByte(']')
	return b.String()
}

func formatScore(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

// top returns the highest scoring prediction.
func top(preds []Classification) (Classification, bool) {
	if len(preds) == 0 {
		return Classification{}, false
	}
	best := preds[0]
	for _, p := range preds[1:] {
		if p.Score > best.Score {
			best = p
		}
	}
	return best, true
}

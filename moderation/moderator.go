// Package moderation masks forbidden words in chat text before it is
// persisted or broadcast. Matching runs on a normalized view of the text
// (lowercase, punctuation and spacing stripped) so split or decorated
// spellings still hit, while masking is applied to the original runes.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	machine *goahocorasick.Machine
	mask    rune
}

// New builds the Aho-Corasick automaton over the normalized word list.
func New(words []string, mask rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		normalized := normalize([]rune(word), nil)
		if len(normalized) == 0 {
			continue
		}
		patterns = append(patterns, normalized)
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{machine: machine, mask: mask}, nil
}

// Censor replaces every matched span with the mask rune and reports how
// many spans were hit. Spacing and punctuation of the original text are
// preserved.
func (m *Moderator) Censor(text string) (string, int) {
	original := []rune(text)
	var indexes []int
	normalized := normalize(original, &indexes)
	if len(normalized) == 0 {
		return text, 0
	}

	terms := m.machine.MultiPatternSearch(normalized, false)
	if len(terms) == 0 {
		return text, 0
	}

	for _, term := range terms {
		start := term.Pos
		end := start + len(term.Word)
		if start < 0 || end > len(indexes) {
			continue
		}
		// indexes maps normalized positions back to original rune offsets.
		for i := indexes[start]; i <= indexes[end-1]; i++ {
			original[i] = m.mask
		}
	}
	return string(original), len(terms)
}

// normalize lowercases and drops punctuation, spacing and symbols. When
// indexes is non-nil it records, for every kept rune, its offset in the
// input slice.
func normalize(input []rune, indexes *[]int) []rune {
	out := make([]rune, 0, len(input))
	for i, r := range input {
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
		if indexes != nil {
			*indexes = append(*indexes, i)
		}
	}
	return out
}

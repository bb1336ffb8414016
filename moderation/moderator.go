// Package moderation masks censored words in relayed text.
package moderation

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"fmt"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
	"github.com/samber/lo"
)

var _ contract.Filter = (*Moderator)(nil)

// Moderator finds censored words with one Aho-Corasick pass.
// Matching ignores case, punctuation, spaces and common leet substitutions,
// so "B.4.d" matches "bad". Only the matched runes are replaced.
type Moderator struct {
	machine     *goahocorasick.Machine
	replacement rune
}

// folded is the searchable form of a text. positions[i] is the index in
// the original runes of folded rune i.
type folded struct {
	runes     []rune
	positions []int
}

func NewModerator(words []string, replacement rune) (*Moderator, error) {
	patterns := lo.FilterMap(words, func(word string, _ int) ([]rune, bool) {
		pattern := fold([]rune(word)).runes
		return pattern, len(pattern) > 0
	})
	if len(patterns) == 0 {
		return nil, fmt.Errorf("%w: no censored word to match", errors.ErrInvalidConfig)
	}
	if replacement == '\n' || replacement == '\r' {
		return nil, fmt.Errorf("%w: replacement can't be a line break", errors.ErrInvalidConfig)
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{machine: machine, replacement: replacement}, nil
}

func (m *Moderator) Censor(text string) string {
	original := []rune(text)
	searchable := fold(original)
	if len(searchable.runes) == 0 {
		return text
	}

	matches := m.machine.MultiPatternSearch(searchable.runes, false)
	if len(matches) == 0 {
		return text
	}
	for _, match := range matches {
		first, last := match.Pos, match.Pos+len(match.Word)-1
		if first < 0 || last >= len(searchable.positions) {
			continue
		}
		for i := searchable.positions[first]; i <= searchable.positions[last]; i++ {
			original[i] = m.replacement
		}
	}
	return string(original)
}

func fold(input []rune) folded {
	out := folded{
		runes:     make([]rune, 0, len(input)),
		positions: make([]int, 0, len(input)),
	}
	for i, r := range input {
		r = unleet(r)
		if unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r) {
			continue
		}
		out.runes = append(out.runes, unicode.ToLower(r))
		out.positions = append(out.positions, i)
	}
	return out
}

func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
		return 'e'
	case '1', '!':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

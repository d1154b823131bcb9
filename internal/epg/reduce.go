// SPDX-License-Identifier: MIT
package epg

import (
	"fmt"
	"strings"
)

// PreferredLang is the only language variant kept for title and desc.
const PreferredLang = "en"

// LanguagePolicy selects when non-English title/desc variants are removed.
type LanguagePolicy int

const (
	// LanguageStrict removes every variant not tagged "en".
	LanguageStrict LanguagePolicy = iota
	// LanguagePreferEnglish removes non-"en" variants only when more than one
	// variant exists, so a lone untagged or foreign title survives.
	LanguagePreferEnglish
)

// ParseLanguagePolicy parses "strict" (default) or "prefer-english".
func ParseLanguagePolicy(s string) (LanguagePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return LanguageStrict, nil
	case "prefer-english":
		return LanguagePreferEnglish, nil
	default:
		return LanguageStrict, fmt.Errorf("unknown language policy %q", s)
	}
}

func (p LanguagePolicy) String() string {
	if p == LanguagePreferEnglish {
		return "prefer-english"
	}
	return "strict"
}

// Reduce strips channels and programmes down to their allow-listed children.
func Reduce(tv *TV, policy LanguagePolicy) {
	for i := range tv.Channels {
		ReduceChannel(&tv.Channels[i])
	}
	for i := range tv.Programmes {
		ReduceProgramme(&tv.Programmes[i], policy)
	}
}

// ReduceChannel keeps only the first non-blank display-name.
func ReduceChannel(ch *Channel) {
	ch.Extra = nil
	if name, ok := primaryName(ch.DisplayNames); ok {
		ch.DisplayNames = []Text{name}
		return
	}
	ch.DisplayNames = nil
}

// primaryName returns the first display-name with a non-blank value. Both
// renaming and reduction use it, so a channel keeps the name its id came from.
func primaryName(names []Text) (Text, bool) {
	for _, n := range names {
		if strings.TrimSpace(n.Value) != "" {
			return n, true
		}
	}
	return Text{}, false
}

// ReduceProgramme keeps at most one title and one desc. It never removes the programme.
func ReduceProgramme(p *Programme, policy LanguagePolicy) {
	p.Extra = nil
	p.Titles = reduceVariants(p.Titles, policy)
	p.Descs = reduceVariants(p.Descs, policy)
}

func reduceVariants(variants []Text, policy LanguagePolicy) []Text {
	if policy == LanguageStrict || len(variants) > 1 {
		english := make([]Text, 0, 1)
		for _, v := range variants {
			if v.Lang == PreferredLang {
				english = append(english, v)
			}
		}
		variants = english
	}
	for _, v := range variants {
		if strings.TrimSpace(v.Value) != "" {
			return []Text{v}
		}
	}
	return nil
}

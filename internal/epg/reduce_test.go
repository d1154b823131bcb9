package epg

import (
	"encoding/xml"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestReduceProgramme(t *testing.T) {
	hi := Text{Lang: "hi", Value: "बंद"}
	en := Text{Lang: "en", Value: "News"}

	tests := []struct {
		name   string
		policy LanguagePolicy
		titles []Text
		want   []Text
	}{
		{name: "strict keeps english", policy: LanguageStrict, titles: []Text{hi, en}, want: []Text{en}},
		{name: "prefer keeps english", policy: LanguagePreferEnglish, titles: []Text{hi, en}, want: []Text{en}},
		{name: "strict drops lone foreign", policy: LanguageStrict, titles: []Text{hi}, want: nil},
		{name: "prefer keeps lone foreign", policy: LanguagePreferEnglish, titles: []Text{hi}, want: []Text{hi}},
		{name: "strict drops untagged", policy: LanguageStrict, titles: []Text{{Value: "Untagged"}}, want: nil},
		{name: "prefer keeps lone untagged", policy: LanguagePreferEnglish, titles: []Text{{Value: "Untagged"}}, want: []Text{{Value: "Untagged"}}},
		{name: "first english wins", policy: LanguageStrict, titles: []Text{en, {Lang: "en", Value: "Second"}}, want: []Text{en}},
		{name: "blank english skipped", policy: LanguageStrict, titles: []Text{{Lang: "en", Value: " "}, en}, want: []Text{en}},
		{name: "two foreign none english", policy: LanguagePreferEnglish, titles: []Text{hi, {Lang: "ta", Value: "x"}}, want: nil},
		{name: "empty", policy: LanguageStrict, titles: nil, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Programme{
				Titles: tt.titles,
				Extra:  []Element{{XMLName: xml.Name{Local: "category"}, Inner: "News"}},
			}
			ReduceProgramme(&p, tt.policy)
			if diff := cmp.Diff(tt.want, p.Titles); diff != "" {
				t.Errorf("titles mismatch (-want +got):\n%s", diff)
			}
			assert.Nil(t, p.Extra)
		})
	}
}

func TestReduceProgramme_Desc(t *testing.T) {
	p := Programme{Descs: []Text{{Lang: "hi", Value: "विवरण"}, {Lang: "en", Value: "About"}}}
	ReduceProgramme(&p, LanguageStrict)
	assert.Equal(t, []Text{{Lang: "en", Value: "About"}}, p.Descs)
}

func TestReduceChannel(t *testing.T) {
	ch := Channel{
		ID:           "starplus.in",
		DisplayNames: []Text{{Value: "Star Plus"}, {Value: "STAR+"}},
		Extra:        []Element{{XMLName: xml.Name{Local: "icon"}}},
	}
	ReduceChannel(&ch)
	assert.Equal(t, []Text{{Value: "Star Plus"}}, ch.DisplayNames)
	assert.Nil(t, ch.Extra)

	leadingBlank := Channel{ID: "x", DisplayNames: []Text{{Value: " "}, {Value: "Later"}, {Value: "Last"}}}
	ReduceChannel(&leadingBlank)
	assert.Equal(t, []Text{{Value: "Later"}}, leadingBlank.DisplayNames)

	allBlank := Channel{ID: "y", DisplayNames: []Text{{Value: ""}, {Value: "  "}}}
	ReduceChannel(&allBlank)
	assert.Nil(t, allBlank.DisplayNames)
}

func TestParseLanguagePolicy(t *testing.T) {
	p, err := ParseLanguagePolicy("")
	assert.NoError(t, err)
	assert.Equal(t, LanguageStrict, p)

	p, err = ParseLanguagePolicy("Prefer-English")
	assert.NoError(t, err)
	assert.Equal(t, LanguagePreferEnglish, p)

	_, err = ParseLanguagePolicy("any")
	assert.Error(t, err)
}

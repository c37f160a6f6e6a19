// Package filter is the cheap lexical admission gate applied before any
// network or AI cost is spent on a feed entry.
package filter

import (
	"regexp"
	"strings"
)

// Metal category names, matching what the AI prompt and the report use.
const (
	MetalGold      = "золото"
	MetalSilver    = "серебро"
	MetalPlatinum  = "платина"
	MetalPalladium = "палладий"
)

// categoryOrder fixes iteration order so Match output is deterministic.
var categoryOrder = []string{MetalGold, MetalSilver, MetalPlatinum, MetalPalladium}

// metalKeywords maps each category to its lexical variants: Russian
// inflections, English names, ticker symbols and Latin names.
var metalKeywords = map[string][]string{
	MetalGold: {
		"золот", "золото", "золота", "золоте", "золотой", "золотая", "золотое", "золотых", "золотые",
		"gold", "xau", "слиток", "слитки", "слитков", "унция", "унций", "тройская",
		"aurum", "золотодобыч", "золотодобытчик", "золотодобывающ", "золоторудн",
	},
	MetalSilver: {
		"серебр", "серебро", "серебра", "серебре", "серебряный", "серебряная", "серебряное", "серебряных", "серебряные",
		"silver", "xag", "argentum",
	},
	MetalPlatinum: {
		"платин", "платина", "платину", "платины", "платине", "платиновый", "платиновая", "платиновое", "платиновых", "платиновые",
		"platinum", "xpt", "плат",
	},
	MetalPalladium: {
		"палладий", "палладия", "палладии", "палладиевый", "палладиевая", "палладиевое", "палладиевых", "палладиевые",
		"palladium", "xpd", "pd",
	},
}

// Categories returns the known metal categories in their fixed order.
func Categories() []string {
	out := make([]string, len(categoryOrder))
	copy(out, categoryOrder)
	return out
}

// IsKnownMetal reports whether name is one of the known categories.
func IsKnownMetal(name string) bool {
	for _, m := range categoryOrder {
		if m == name {
			return true
		}
	}
	return false
}

// KeywordFilter matches free text against the per-metal keyword tables.
// It is immutable after New and safe for concurrent use.
type KeywordFilter struct {
	patterns map[string][]*regexp.Regexp
}

func New() *KeywordFilter {
	f := &KeywordFilter{patterns: make(map[string][]*regexp.Regexp, len(metalKeywords))}
	for metal, variants := range metalKeywords {
		compiled := make([]*regexp.Regexp, 0, len(variants))
		for _, v := range variants {
			compiled = append(compiled, wholeWordPattern(v))
		}
		f.patterns[metal] = compiled
	}
	return f
}

// wholeWordPattern builds a case-insensitive whole-word matcher. RE2's \b is
// ASCII-only, so the boundary is spelled out via letter/digit classes to work
// for the Cyrillic variants.
func wholeWordPattern(keyword string) *regexp.Regexp {
	quoted := regexp.QuoteMeta(strings.ToLower(keyword))
	return regexp.MustCompile(`(?:\A|[^\p{L}\p{N}])` + quoted + `(?:[^\p{L}\p{N}]|\z)`)
}

// Match returns the metal categories mentioned in text as whole words.
// A category appears at most once; order follows the fixed category order.
func (f *KeywordFilter) Match(text string) (bool, []string) {
	lower := strings.ToLower(text)

	var found []string
	for _, metal := range categoryOrder {
		for _, p := range f.patterns[metal] {
			if p.MatchString(lower) {
				found = append(found, metal)
				break
			}
		}
	}
	return len(found) > 0, found
}

// PreFilter decides whether a feed entry is worth full classification.
// The sole criterion is a metal keyword hit in title+summary.
func (f *KeywordFilter) PreFilter(title, summary string) (bool, []string, string) {
	ok, metals := f.Match(title + " " + summary)
	if !ok {
		return false, nil, "нет упоминаний металлов"
	}
	return true, metals, "прошел предфильтр"
}

// Package scoring implements the fixed field-weight relevance policy used to
// rank search hits.
package scoring

import (
	"strings"

	"github.com/jessica-m-r/Buscador-Semantico-Reposteria/internal/tokenize"
)

// Category is a field a query token can match.
type Category string

const (
	CategoryName       Category = "name"
	CategoryIngredient Category = "ingredient"
	CategoryTool       Category = "tool"
	CategoryTechnique  Category = "technique"
	CategoryClass      Category = "class"
	CategoryAttribute  Category = "attribute"
)

// Weights of each category. Changing them changes ranking compatibility.
var Weights = map[Category]int{
	CategoryName:       5,
	CategoryIngredient: 3,
	CategoryTool:       2,
	CategoryTechnique:  2,
	CategoryClass:      1,
	CategoryAttribute:  1,
}

// Group holds the surfaces of one related entity (its names in every
// language) or of one attribute value.
type Group []string

// Surfaces are the strings a candidate exposes to matching, per category.
type Surfaces struct {
	Names       []string
	Classes     []string
	Ingredients []Group
	Tools       []Group
	Techniques  []Group
	Attributes  []Group

	// Categories only count towards MatchedAll; they carry no weight.
	Categories []string
}

// Matches reports whether token is a case-insensitive substring of surface.
// Tokens are expected to be lower-cased already.
func Matches(token, surface string) bool {
	return token != "" && strings.Contains(strings.ToLower(surface), token)
}

// MatchesAny reports whether token matches any of surfaces.
func MatchesAny(token string, surfaces []string) bool {
	for _, s := range surfaces {
		if Matches(token, s) {
			return true
		}
	}
	return false
}

// countGroups returns how many distinct groups token matches.
func countGroups(token string, groups []Group) int {
	n := 0
	for _, g := range groups {
		if MatchesAny(token, g) {
			n++
		}
	}
	return n
}

// Score computes the relevance of a candidate. Tokens are deduplicated.
// Each token adds the name and class weights at most once, and the
// ingredient, tool, technique and attribute weights once per distinct
// matching group.
func Score(tokens []string, s Surfaces) int {
	return Explain(tokens, s).Total()
}

// Breakdown is a per-category account of a score.
type Breakdown map[Category]int

// Total sums the breakdown.
func (b Breakdown) Total() int {
	total := 0
	for _, v := range b {
		total += v
	}
	return total
}

// Explain computes the per-category contributions of Score.
func Explain(tokens []string, s Surfaces) Breakdown {
	b := make(Breakdown)
	for _, tok := range tokenize.Unique(tokens) {
		if MatchesAny(tok, s.Names) {
			b[CategoryName] += Weights[CategoryName]
		}
		if MatchesAny(tok, s.Classes) {
			b[CategoryClass] += Weights[CategoryClass]
		}
		b[CategoryIngredient] += Weights[CategoryIngredient] * countGroups(tok, s.Ingredients)
		b[CategoryTool] += Weights[CategoryTool] * countGroups(tok, s.Tools)
		b[CategoryTechnique] += Weights[CategoryTechnique] * countGroups(tok, s.Techniques)
		b[CategoryAttribute] += Weights[CategoryAttribute] * countGroups(tok, s.Attributes)
	}
	for c, v := range b {
		if v == 0 {
			delete(b, c)
		}
	}
	return b
}

// MatchedAll reports whether every distinct token matches at least one
// surface of any category. It is false for an empty token list.
func MatchedAll(tokens []string, s Surfaces) bool {
	uniq := tokenize.Unique(tokens)
	if len(uniq) == 0 {
		return false
	}
	for _, tok := range uniq {
		if !matchesSurfaces(tok, s) {
			return false
		}
	}
	return true
}

func matchesSurfaces(tok string, s Surfaces) bool {
	if MatchesAny(tok, s.Names) || MatchesAny(tok, s.Classes) || MatchesAny(tok, s.Categories) {
		return true
	}
	for _, groups := range [][]Group{s.Ingredients, s.Tools, s.Techniques, s.Attributes} {
		if countGroups(tok, groups) > 0 {
			return true
		}
	}
	return false
}

// CountMatching returns how many distinct tokens match any of surfaces.
func CountMatching(tokens []string, surfaces []string) int {
	n := 0
	for _, tok := range tokenize.Unique(tokens) {
		if MatchesAny(tok, surfaces) {
			n++
		}
	}
	return n
}

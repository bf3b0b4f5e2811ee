// Package tokenize turns raw search queries into normalized search tokens.
package tokenize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MinTokenLength is the minimum number of runes a token must have.
const MinTokenLength = 2

// Supported languages.
const (
	Spanish = "es"
	English = "en"
)

var stopWords = map[string]map[string]bool{
	Spanish: set(
		"a", "al", "ante", "bajo", "con", "contra", "de", "del", "desde", "el",
		"en", "entre", "es", "esta", "este", "hacia", "hasta", "la", "las", "lo",
		"los", "mas", "más", "me", "mi", "muy", "ni", "o", "para", "pero", "por",
		"que", "se", "sin", "sobre", "su", "sus", "tras", "u", "un", "una",
		"unas", "uno", "unos", "y", "ya", "como", "cual", "donde",
	),
	English: set(
		"a", "an", "and", "are", "as", "at", "be", "but", "by", "for", "from",
		"how", "in", "into", "is", "it", "of", "on", "or", "that", "the", "this",
		"to", "was", "with", "without", "what", "which", "do", "does", "i",
	),
}

// allStopWords is the union used when no supported language is pinned.
var allStopWords = func() map[string]bool {
	all := make(map[string]bool)
	for _, words := range stopWords {
		for w := range words {
			all[w] = true
		}
	}
	return all
}()

func set(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

// Normalize reduces a language tag to a supported base language, or returns
// "" when the tag is empty, unparseable or not supported.
func Normalize(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return ""
	}
	tag, err := language.Parse(lang)
	if err != nil {
		return ""
	}
	base, _ := tag.Base()
	if _, ok := stopWords[base.String()]; ok {
		return base.String()
	}
	return ""
}

// Supported reports whether lang normalizes to a supported language.
func Supported(lang string) bool {
	return Normalize(lang) != ""
}

// Languages returns the supported language codes.
func Languages() []string {
	return []string{Spanish, English}
}

// IsStopWord reports whether word is a stop-word of lang, or of any
// supported language when lang is not supported.
func IsStopWord(word, lang string) bool {
	return stopList(Normalize(lang))[word]
}

func stopList(lang string) map[string]bool {
	if words, ok := stopWords[lang]; ok {
		return words
	}
	return allStopWords
}

// Tokenize lower-cases query, splits it on whitespace, trims surrounding
// punctuation and drops stop-words and tokens shorter than MinTokenLength.
// Order is preserved and duplicates are kept. An empty result means no
// match is possible.
func Tokenize(query, lang string) []string {
	norm := Normalize(lang)
	caser := cases.Lower(language.Und)
	if norm != "" {
		caser = cases.Lower(language.Make(norm))
	}
	stop := stopList(norm)

	fields := strings.Fields(caser.String(query))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		word := strings.TrimFunc(f, func(r rune) bool {
			return unicode.IsPunct(r) || unicode.IsSymbol(r)
		})
		if utf8.RuneCountInString(word) < MinTokenLength || stop[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// Unique returns tokens without duplicates, keeping first occurrences.
func Unique(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

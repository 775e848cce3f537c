package model

import (
	"regexp"
	"strings"
	"unicode"
)

var wordSeparators = regexp.MustCompile(`[_\-\s.]+`)

// acronyms stay upper case when they appear as a whole word in a label.
var acronyms = map[string]string{
	"id":  "ID",
	"url": "URL",
	"uri": "URI",
	"api": "API",
}

// DefaultLabeler turns a field name into a display label: "phoneNumber" and
// "phone_number" both become "Phone Number".
func DefaultLabeler(name string) string {
	var words []string
	for _, chunk := range wordSeparators.Split(strings.TrimSpace(name), -1) {
		for _, word := range splitCamelWords(chunk) {
			words = append(words, capitalise(word))
		}
	}
	return strings.Join(words, " ")
}

// Noun lower-cases a label for use inside sentences ("Phone Number" becomes
// "phone number") while keeping acronyms intact.
func Noun(label string) string {
	words := strings.Fields(label)
	for i, word := range words {
		if _, ok := acronyms[strings.ToLower(word)]; ok && word == strings.ToUpper(word) {
			continue
		}
		words[i] = strings.ToLower(word)
	}
	return strings.Join(words, " ")
}

func splitCamelWords(chunk string) []string {
	if chunk == "" {
		return nil
	}
	runes := []rune(chunk)
	var (
		words []string
		start int
	)
	for i := 1; i < len(runes); i++ {
		prev, cur := runes[i-1], runes[i]
		boundary := unicode.IsLower(prev) && unicode.IsUpper(cur) ||
			unicode.IsLetter(prev) && unicode.IsDigit(cur) ||
			unicode.IsDigit(prev) && unicode.IsLetter(cur)
		if boundary {
			words = append(words, string(runes[start:i]))
			start = i
		}
	}
	return append(words, string(runes[start:]))
}

func capitalise(word string) string {
	lower := strings.ToLower(word)
	if acronym, ok := acronyms[lower]; ok {
		return acronym
	}
	runes := []rune(lower)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

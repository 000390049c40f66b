package textindex

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TermCounts maps a feature (a word or a space-joined word pair) to its frequency
type TermCounts map[string]int

// Tokenize lowercases text and splits it into words of at least two
// letters, numbers or underscores, dropping English stop words. Combining
// marks end a word.
func Tokenize(text string) []string {
	var words []string
	var currentWord strings.Builder

	flush := func() {
		if currentWord.Len() == 0 {
			return
		}
		word := currentWord.String()
		currentWord.Reset()
		if utf8.RuneCountInString(word) < 2 || englishStopWords[word] {
			return
		}
		words = append(words, word)
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			currentWord.WriteRune(unicode.ToLower(r))
		} else {
			flush()
		}
	}

	// Don't forget the last word
	flush()

	return words
}

// Analyze counts the features of text: every word plus every run of up to
// ngramMax adjacent words that survived stop word removal
func Analyze(text string, ngramMax int) TermCounts {
	if ngramMax < 1 {
		ngramMax = 1
	}

	words := Tokenize(text)
	counts := make(TermCounts, len(words)*ngramMax)

	for n := 1; n <= ngramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			if n == 1 {
				counts[words[i]]++
				continue
			}
			counts[strings.Join(words[i:i+n], " ")]++
		}
	}

	return counts
}

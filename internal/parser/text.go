package parser

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var phraseReplacer = strings.NewReplacer(
	"½", "half",
	"—", "-",
	"™", "",
	"¢", "cent",
	"ç", "c",
	"û", "u",
	"é", "e",
	"°", " degree",
	"è", "e",
	"…", "",
)

const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// NormalizePhrase lowercases a label, folds accented Latin letters and removes
// ASCII punctuation. Invalid UTF-8 is dropped.
func NormalizePhrase(phrase string) string {
	phrase = strings.ToValidUTF8(phrase, "")
	phrase = strings.Trim(phrase, " ")
	phrase = phraseReplacer.Replace(phrase)

	phrase = strings.ToLower(foldLatinMarks(phrase))
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(asciiPunctuation, r) {
			return -1
		}
		return r
	}, phrase)
}

// foldLatinMarks drops combining marks that follow a Latin base letter.
// Marks on other scripts are kept, so が stays が.
func foldLatinMarks(phrase string) string {
	decomposed := norm.NFD.String(phrase)
	var b strings.Builder
	b.Grow(len(decomposed))
	latin := false
	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			if latin {
				continue
			}
		} else {
			latin = unicode.Is(unicode.Latin, r)
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

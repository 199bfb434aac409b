package streets

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

const digitsCategory = "0-9"

// streetCategory returns the index letter of a street name: its first
// letter without diacritics, upper case.
func streetCategory(name string) string {
	decomposed := norm.NFD.String(name)
	for _, r := range decomposed {
		switch {
		case unicode.IsDigit(r):
			return digitsCategory
		case unicode.IsLetter(r):
			return string(unicode.ToUpper(r))
		}
	}
	return "#"
}

// humanize turns a tag value like "fast_food" into "Fast Food".
func humanize(v string) string {
	return cases.Title(language.Und).String(strings.ReplaceAll(v, "_", " "))
}

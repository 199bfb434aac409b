package index

import (
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// The active collation is process-wide; every sort goes through
// withCollation, which holds mu for the whole save/apply/restore cycle.
var (
	mu      sync.Mutex
	current = collate.New(language.Und)
	matcher = language.NewMatcher(collate.Supported())
)

var rtlScripts = map[string]bool{
	"Arab": true, "Hebr": true, "Syrc": true, "Thaa": true,
	"Nkoo": true, "Adlm": true, "Rohg": true, "Mand": true,
}

// ParseLocale accepts POSIX locale names like "de_DE.UTF-8" as well as BCP 47
// tags.
func ParseLocale(locale string) (language.Tag, error) {
	s := locale
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	s = strings.ReplaceAll(s, "_", "-")
	if s == "" || s == "C" || s == "POSIX" {
		return language.Und, nil
	}
	return language.Parse(s)
}

// IsRTL reports whether the locale is written right to left.
func IsRTL(locale string) bool {
	tag, err := ParseLocale(locale)
	if err != nil {
		return false
	}
	script, _ := tag.Script()
	return rtlScripts[script.String()]
}

// withCollation runs fn with the collation of locale applied and restores
// the previous collation afterwards, also when fn panics. An unknown locale
// keeps the previous collation.
func withCollation(locale string, fn func(c *collate.Collator)) {
	mu.Lock()
	defer mu.Unlock()

	saved := current
	defer func() { current = saved }()

	if c, ok := collatorFor(locale); ok {
		current = c
	}

	fn(current)
}

func collatorFor(locale string) (*collate.Collator, bool) {
	tag, err := ParseLocale(locale)
	if err != nil {
		log.Warn().Err(err).Str("locale", locale).Msg("Unsupported locale, keeping previous collation")
		return nil, false
	}

	if tag == language.Und {
		return collate.New(language.Und), true
	}

	_, idx, conf := matcher.Match(tag)
	if conf == language.No {
		log.Warn().Str("locale", locale).Msg("No collation for locale, keeping previous collation")
		return nil, false
	}

	return collate.New(collate.Supported()[idx]), true
}

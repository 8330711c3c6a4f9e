package sidechannel

import (
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Language is a two-letter language code packed first letter high, as the
// disc stores it. Zero means the stream has no language.
type Language uint16

// ParseLanguage packs a two-letter code, or reads back the four hex digits
// String uses for codes that are not letters. Anything else yields zero.
func ParseLanguage(code string) Language {
	switch len(code) {
	case 2:
		return Language(uint16(code[0])<<8 | uint16(code[1]))
	case 4:
		v, err := strconv.ParseUint(code, 16, 16)
		if err != nil {
			return 0
		}
		return Language(v)
	default:
		return 0
	}
}

// IsZero reports whether l is the null language code.
func (l Language) IsZero() bool { return l == 0 }

// String returns the two-letter code. Codes whose bytes are not both ASCII
// letters are written as four hex digits so they survive text encodings.
func (l Language) String() string {
	if l == 0 {
		return ""
	}
	hi, lo := byte(l>>8), byte(l)
	if !isLetter(hi) || !isLetter(lo) {
		return fmt.Sprintf("%04x", uint16(l))
	}
	return string([]byte{hi, lo})
}

func isLetter(b byte) bool {
	return ('a' <= b && b <= 'z') || ('A' <= b && b <= 'Z')
}

// Tag returns the BCP 47 tag for l, or language.Und when l does not parse.
func (l Language) Tag() language.Tag {
	if l == 0 {
		return language.Und
	}
	tag, err := language.Parse(l.String())
	if err != nil {
		return language.Und
	}
	return tag
}

// Name returns the English name of the language, or the raw code when it is
// not a known language.
func (l Language) Name() string {
	tag := l.Tag()
	if tag == language.Und {
		return l.String()
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return l.String()
}

// MarshalText implements encoding.TextMarshaler.
func (l Language) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (l *Language) UnmarshalText(b []byte) error {
	*l = ParseLanguage(string(b))
	return nil
}

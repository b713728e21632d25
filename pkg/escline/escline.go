// Package escline tokenizes raw console input into arguments. The token
// machinery only deals in printable ASCII, so every other code point is
// rewritten to a literal "{{<decimal codepoint>}}" escape before splitting
// and restored per argument afterwards. A literal '{' is escaped as well,
// which keeps the escape syntax collision-free: after Encode, every "{{"
// in the line starts an escape.
package escline

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	// ErrNotText indicates input that cannot be represented as text
	ErrNotText = errors.New("input is not valid text")
	// ErrUnclosedQuote indicates an unterminated quoted section
	ErrUnclosedQuote = errors.New("unclosed quote")
	// ErrTrailingEscape indicates a backslash with nothing to escape
	ErrTrailingEscape = errors.New("trailing escape character")
)

// Encode rewrites every code point outside the plain ASCII range, plus any
// literal '{', as "{{<decimal codepoint>}}". Lines that are not valid text
// are rejected.
func Encode(line string) (string, error) {
	if !utf8.ValidString(line) {
		return "", ErrNotText
	}

	var b strings.Builder
	for _, r := range line {
		if r == '{' || r > unicode.MaxASCII {
			fmt.Fprintf(&b, "{{%d}}", r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String(), nil
}

// Decode restores "{{<decimal codepoint>}}" escapes to their code points.
// Sequences that do not parse as an escape are kept verbatim.
func Decode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); {
		if r, width, ok := decodeEscape(s[i:]); ok {
			b.WriteRune(r)
			i += width
			continue
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}

// decodeEscape parses a leading "{{<digits>}}" escape and returns the rune
// and the consumed width.
func decodeEscape(s string) (rune, int, bool) {
	if !strings.HasPrefix(s, "{{") {
		return 0, 0, false
	}
	end := strings.Index(s, "}}")
	if end < 2 {
		return 0, 0, false
	}

	var cp int
	for _, d := range s[2:end] {
		if d < '0' || d > '9' {
			return 0, 0, false
		}
		cp = cp*10 + int(d-'0')
	}
	if end == 2 || cp > utf8.MaxRune {
		return 0, 0, false
	}
	return rune(cp), end + 2, true
}

type splitState int

const (
	stateOutside splitState = iota
	stateSingleQuote
	stateDoubleQuote
)

// Fields tokenizes a raw input line shell-style: whitespace separates
// arguments, single quotes preserve everything literally, double quotes
// allow \" and \\ escapes, a backslash outside quotes escapes the next
// character. No globbing or variable expansion is performed. Non-ASCII
// content survives splitting losslessly via the Encode/Decode pair.
func Fields(line string) ([]string, error) {
	encoded, err := Encode(line)
	if err != nil {
		return nil, err
	}

	args, err := split(encoded)
	if err != nil {
		return nil, err
	}

	for i, arg := range args {
		args[i] = Decode(arg)
	}
	return args, nil
}

func split(line string) ([]string, error) {
	var args []string
	var token strings.Builder
	inToken := false

	flush := func() {
		if inToken {
			args = append(args, token.String())
			token.Reset()
			inToken = false
		}
	}

	state := stateOutside
	escaping := false

	for _, ch := range line {
		switch state {
		case stateOutside:
			if escaping {
				token.WriteRune(ch)
				inToken = true
				escaping = false
				continue
			}
			switch {
			case unicode.IsSpace(ch):
				flush()
			case ch == '\'':
				state = stateSingleQuote
				inToken = true
			case ch == '"':
				state = stateDoubleQuote
				inToken = true
			case ch == '\\':
				escaping = true
			default:
				token.WriteRune(ch)
				inToken = true
			}

		case stateSingleQuote:
			if ch == '\'' {
				state = stateOutside
				continue
			}
			token.WriteRune(ch)

		case stateDoubleQuote:
			if escaping {
				if ch != '\\' && ch != '"' {
					token.WriteRune('\\')
				}
				token.WriteRune(ch)
				escaping = false
				continue
			}
			switch ch {
			case '"':
				state = stateOutside
			case '\\':
				escaping = true
			default:
				token.WriteRune(ch)
			}
		}
	}

	if state != stateOutside {
		return nil, ErrUnclosedQuote
	}
	if escaping {
		return nil, ErrTrailingEscape
	}
	flush()

	return args, nil
}

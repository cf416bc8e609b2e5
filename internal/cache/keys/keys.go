package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
)

// Version is bumped whenever the encoding of cached results changes.
const Version = "v2"

// Key builds the cache key of an operation result. params are the operation
// arguments that change the result (CRS identifiers, datum, resolution);
// fingerprint identifies the input geometry.
func Key(op string, fingerprint uint64, params ...string) string {
	norm := make([]string, 0, len(params))
	for _, p := range params {
		norm = append(norm, collapseASCIIWhitespace(p))
	}
	paramText := strings.Join(norm, "|")
	paramSafe := sanitizeForKey(paramText)

	const maxParamTextLen = 120
	if len(paramSafe) > maxParamTextLen {
		paramSafe = paramSafe[:maxParamTextLen]
	}

	sum := xxhash.Sum64String(paramText)

	return fmt.Sprintf("seam:%s:%s:p=%s:h=%016x:g=%016x",
		Version, sanitizeForKey(strings.ToLower(strings.TrimSpace(op))), paramSafe, sum, fingerprint)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-' || r == '=' || r == '.':
			out = r
		default:
			// colons separate key segments, so they are folded too
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

// converts any run of ASCII whitespace to a single space.
func collapseASCIIWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	wasWS := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f' {
			if !wasWS {
				b.WriteByte(' ')
				wasWS = true
			}
			continue
		}
		b.WriteRune(r)
		wasWS = false
	}
	return strings.TrimSpace(b.String())
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		(r < unicode.MaxASCII && unicode.IsDigit(r))
}

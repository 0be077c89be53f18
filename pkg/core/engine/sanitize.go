// Copyright File2Knowledge Authors
// SPDX-License-Identifier: Apache-2.0

package engine

import (
	"strings"
	"unicode/utf8"
)

// SanitizeText normalizes a streamed text fragment for display and
// storage: control characters are removed (newline and tab survive),
// non-breaking spaces become regular spaces, and isolated surrogates or
// noncharacter code points are dropped. Sanitizing already-clean text is
// a no-op, so the function is idempotent.
func SanitizeText(s string) string {
	if isCleanASCII(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r == '\u00a0':
			b.WriteByte(' ')
		case r < 0x20, r == 0x7f, r >= 0x80 && r <= 0x9f:
			// C0/C1 controls and DEL
		case r == utf8.RuneError, r >= 0xd800 && r <= 0xdfff:
			// ill-formed input decodes to RuneError; surrogates can
			// only reach here through such input
		case isNoncharacter(r):
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func isCleanASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 0x7f {
			return false
		}
		if c < 0x20 && c != '\n' && c != '\t' {
			return false
		}
	}
	return true
}

// isNoncharacter reports the 66 Unicode noncharacters: U+FDD0..U+FDEF
// and the last two code points of every plane.
func isNoncharacter(r rune) bool {
	if r >= 0xfdd0 && r <= 0xfdef {
		return true
	}
	return r&0xfffe == 0xfffe
}

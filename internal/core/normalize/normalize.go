// Package normalize folds listing text so term matching ignores case, width and
// invisible characters. Pipeline order:
//  1. drop invalid UTF-8
//  2. NFKC
//  3. Unicode case fold
//  4. strip combining marks and format characters (ZWSP, ZWJ, BOM)
//  5. fold fullwidth forms to ASCII
//  6. collapse whitespace runs to one space and trim
//
// Digits and punctuation are kept as-is so model numbers like "4090" or
// "i7-13700" still match literally.
package normalize

import (
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/text/width"
)

// transformer chains are stateful, so each call borrows one
var chainPool = sync.Pool{
	New: func() any {
		return transform.Chain(
			norm.NFKC,
			cases.Fold(),
			runes.Remove(runes.In(unicode.Mn)),
			runes.Remove(runes.In(unicode.Cf)),
			width.Fold,
		)
	},
}

// Fold returns the comparison form of s
func Fold(s string) string {
	if s == "" {
		return ""
	}
	s = strings.ToValidUTF8(s, "")

	tr := chainPool.Get().(transform.Transformer)
	out, _, err := transform.String(tr, s)
	tr.Reset()
	chainPool.Put(tr)
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), " ")
}

// Contains reports whether needle occurs in haystack after folding both.
// An empty needle always matches.
func Contains(haystack, needle string) bool {
	n := Fold(needle)
	if n == "" {
		return true
	}
	return strings.Contains(Fold(haystack), n)
}

// Matcher holds a pre-folded haystack for testing many terms against one title
type Matcher struct{ folded string }

// NewMatcher folds s once
func NewMatcher(s string) Matcher { return Matcher{folded: Fold(s)} }

// Has reports whether term occurs in the folded text; empty terms match
func (m Matcher) Has(term string) bool {
	t := Fold(term)
	return t == "" || strings.Contains(m.folded, t)
}

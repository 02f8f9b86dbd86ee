// Package pathutil maps story titles and URLs to safe, deterministic
// on-disk names. Its two entry points, SanitizeTitle and DeriveFileName,
// touch no filesystem state; they are pure string transforms.
package pathutil

import (
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const defaultMaxTitleLen = 20

var (
	dropChars  = regexp.MustCompile(`[^\w\s-]`)
	whitespace = regexp.MustCompile(`\s{2,}`)

	// asciiDecomposer decomposes Unicode into NFD and strips everything
	// outside the ASCII range. Unlike Python's
	// unicodedata.normalize('NFKD', s).encode('ascii', 'ignore') it uses
	// canonical decomposition only, so compatibility characters such as
	// ligatures are dropped rather than expanded.
	asciiDecomposer = transform.Chain(norm.NFD, runes.Remove(runes.NotIn(&nonASCIIExclude)))
)

// nonASCIIExclude is the set of runes asciiDecomposer keeps: everything
// below U+0080 after decomposition (the decomposed form for a character
// like 'é' includes a combining accent that falls outside this range and
// is dropped, leaving the base letter).
var nonASCIIExclude = unicode.RangeTable{
	R16: []unicode.Range16{{Lo: 0x0000, Hi: 0x007F, Stride: 1}},
}

// SanitizeTitle normalizes a story title into a short, filesystem-safe
// fragment: it decomposes Unicode to NFD and drops non-ASCII codepoints,
// removes everything that is not alphanumeric, underscore, whitespace or
// hyphen, collapses runs of whitespace, trims the ends, and truncates to
// maxLen runes, trimming again any whitespace the cut leaves at the end
// so that the result is a fixed point of SanitizeTitle. Pass maxLen <= 0
// to use the default of 20.
func SanitizeTitle(title string, maxLen int) string {
	if maxLen <= 0 {
		maxLen = defaultMaxTitleLen
	}

	ascii, _, err := transform.String(asciiDecomposer, title)
	if err != nil {
		// transform.String only fails on malformed input; fall back to
		// the untransformed title rather than losing the record.
		ascii = title
	}

	cleaned := dropChars.ReplaceAllString(ascii, "")
	cleaned = whitespace.ReplaceAllString(cleaned, " ")
	cleaned = strings.TrimSpace(cleaned)

	r := []rune(cleaned)
	if len(r) > maxLen {
		r = r[:maxLen]
	}
	return strings.TrimSpace(string(r))
}

// defaultAllowedSuffixes is used by DeriveFileName when the caller passes
// a nil or empty suffix set.
var defaultAllowedSuffixes = map[string]bool{
	".html": true,
	".htm":  true,
	".pdf":  true,
}

// DeriveFileName returns the local file name to use for content fetched
// from url. If the URL's last path segment has an extension present in
// allowedSuffixes, that segment is used verbatim; otherwise defaultName
// is returned. It performs no I/O and does no content-type sniffing.
func DeriveFileName(rawURL, defaultName string, allowedSuffixes map[string]bool) string {
	if len(allowedSuffixes) == 0 {
		allowedSuffixes = defaultAllowedSuffixes
	}

	urlPath := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		urlPath = u.Path
	}

	base := path.Base(urlPath)
	ext := path.Ext(base)
	if base == "" || base == "." || base == "/" || ext == "" {
		return defaultName
	}
	if !allowedSuffixes[ext] {
		return defaultName
	}
	return base
}

package ghapi

import (
	"net/http"
	"strings"

	"github.com/fivetwenty-io/ghapi/internal/constants"
)

// Link relations used by GitHub pagination.
const (
	RelNext  = "next"
	RelLast  = "last"
	RelFirst = "first"
	RelPrev  = "prev"
)

// ParseLinks parses an RFC 8288 Link header into a map of relation to URL.
// Malformed entries are skipped; a header that cannot be parsed at all
// yields an empty map. URLs may contain commas.
func ParseLinks(header string) map[string]string {
	links := make(map[string]string)

	rest := header
	for {
		start := strings.IndexByte(rest, '<')
		if start < 0 {
			return links
		}

		end := strings.IndexByte(rest[start:], '>')
		if end < 0 {
			return links
		}

		target := strings.TrimSpace(rest[start+1 : start+end])
		rest = rest[start+end+1:]

		// Parameters run until the next entry.
		params := rest
		if next := strings.IndexByte(rest, '<'); next >= 0 {
			params = rest[:next]
			rest = rest[next:]
		} else {
			rest = ""
		}

		if target == "" {
			continue
		}

		for _, rel := range relations(params) {
			if _, seen := links[rel]; !seen {
				links[rel] = target
			}
		}
	}
}

func relations(params string) []string {
	for _, param := range strings.Split(params, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "rel") {
			continue
		}

		value = strings.TrimSpace(value)
		value = strings.TrimSuffix(value, ",")
		value = strings.Trim(strings.TrimSpace(value), `"`)

		return strings.Fields(strings.ToLower(value))
	}

	return nil
}

// NextURL returns the rel="next" target of a response, if any.
func NextURL(header http.Header) (string, bool) {
	next, ok := ParseLinks(header.Get(constants.HeaderLink))[RelNext]

	return next, ok
}

package roster

import (
	"strings"
	"unicode"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeCategory folds a category name to its stored form: trimmed,
// lower-cased and without accents, so "Séptima " matches "septima".
func NormalizeCategory(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, name)
	if err != nil {
		out = name
	}
	return strings.ToLower(strings.TrimSpace(out))
}

// categoryRequest is a deduplicated list of normalized names that remembers
// how each one was first spelled by the client. Blank names are kept so they
// are reported as missing.
type categoryRequest struct {
	names    []string
	original map[string]string
}

func newCategoryRequest(raw []string) categoryRequest {
	seen := mapset.NewThreadUnsafeSet[string]()
	req := categoryRequest{original: make(map[string]string, len(raw))}
	for _, r := range raw {
		n := NormalizeCategory(r)
		if !seen.Add(n) {
			continue
		}
		req.names = append(req.names, n)
		req.original[n] = strings.TrimSpace(r)
	}
	return req
}

// missing returns the client spelling of every requested name absent from found.
func (r categoryRequest) missing(found []string) []string {
	have := mapset.NewThreadUnsafeSet(found...)
	var out []string
	for _, n := range r.names {
		if !have.Contains(n) {
			out = append(out, r.original[n])
		}
	}
	return out
}

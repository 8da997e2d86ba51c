package message

import (
	"net/url"
	"strings"
)

// QueryParameters is an ordered list of key/value pairs, duplicates
// allowed, grounded on original_source/include/http/query_parameters.hpp's
// `std::vector<std::pair<std::string,std::string>>` — deliberately not a
// map, since the original comments document that a future templated
// `get<T>` needs to walk every matching pair in order, not just the first.
type QueryParameters struct {
	pairs []struct{ Key, Value string }
}

// ParseQuery splits a raw query string (the part after '?', percent-decoded
// per spec.md's "treat URI percent-decoding as a pure helper") into ordered
// key/value pairs.
func ParseQuery(raw string) QueryParameters {
	var q QueryParameters
	if raw == "" {
		return q
	}
	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		k, errK := url.QueryUnescape(key)
		if errK != nil {
			k = key
		}
		v, errV := url.QueryUnescape(value)
		if errV != nil {
			v = value
		}
		q.pairs = append(q.pairs, struct{ Key, Value string }{k, v})
	}
	return q
}

// Get returns the first value for key, or ("", false) if absent.
func (q QueryParameters) Get(key string) (string, bool) {
	for _, p := range q.pairs {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// GetAll returns every value for key, in order, for repeated query
// parameters (e.g. "?tag=a&tag=b").
func (q QueryParameters) GetAll(key string) []string {
	var out []string
	for _, p := range q.pairs {
		if p.Key == key {
			out = append(out, p.Value)
		}
	}
	return out
}

// Pairs returns every key/value pair in the order they appeared.
func (q QueryParameters) Pairs() []struct{ Key, Value string } {
	return q.pairs
}

// SplitPathQuery splits a request target containing '?' into its path and
// raw query components, per spec.md §4.5 ("Target containing ? is split
// and fed to the query parser").
func SplitPathQuery(target string) (path, rawQuery string) {
	path, rawQuery, found := strings.Cut(target, "?")
	if !found {
		return path, ""
	}
	return path, rawQuery
}

// Package extract locates lists of job records inside arbitrary JSON payloads.
//
// Nothing here does I/O. Each Strategy looks at a decoded payload and either
// returns the records it recognises or reports that it found nothing, so the
// guessing heuristics can be tested one at a time.
package extract

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"springwatch/internal/domain"
)

// Strategy returns the object-shaped entries of the list it recognises in payload.
type Strategy func(payload any) ([]domain.RawRecord, bool)

// ListKeys are the top-level keys the job boards we scrape put their results under.
var ListKeys = []string{"vacancies", "internships", "results", "items"}

// DefaultChain is the order the collector tries strategies in.
var DefaultChain = Chain(KnownKeys(ListKeys...), NestedData, TopLevelList)

// Chain applies strategies in order and returns the first success.
func Chain(strategies ...Strategy) Strategy {
	return func(payload any) ([]domain.RawRecord, bool) {
		for _, s := range strategies {
			if recs, ok := s(payload); ok {
				return recs, true
			}
		}
		return nil, false
	}
}

// KnownKeys picks the first of keys whose value is an array. Only that array
// is considered, even when it turns out to be empty.
func KnownKeys(keys ...string) Strategy {
	return func(payload any) ([]domain.RawRecord, bool) {
		obj, ok := payload.(map[string]any)
		if !ok {
			return nil, false
		}
		for _, k := range keys {
			if list, ok := obj[k].([]any); ok {
				return objects(list)
			}
		}
		return nil, false
	}
}

// NestedData handles GraphQL style envelopes: {"data": {"anything": [{...}]}}.
func NestedData(payload any) ([]domain.RawRecord, bool) {
	obj, ok := payload.(map[string]any)
	if !ok {
		return nil, false
	}
	data, ok := obj["data"].(map[string]any)
	if !ok {
		return nil, false
	}
	for _, k := range sortedKeys(data) {
		list, ok := data[k].([]any)
		if !ok || len(list) == 0 {
			continue
		}
		if _, ok := list[0].(map[string]any); ok {
			return objects(list)
		}
	}
	return nil, false
}

// TopLevelList handles payloads that are themselves a list of records.
func TopLevelList(payload any) ([]domain.RawRecord, bool) {
	list, ok := payload.([]any)
	if !ok {
		return nil, false
	}
	return objects(list)
}

// FromJSON decodes body and runs DefaultChain over it.
// Undecodable bodies yield nothing.
func FromJSON(body []byte) []domain.RawRecord {
	payload, err := Decode(body)
	if err != nil {
		return nil
	}
	recs, _ := DefaultChain(payload)
	return recs
}

// Decode parses JSON keeping numbers as json.Number.
func Decode(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// WalkPageData collects the entries of every list, at any depth, whose first
// element is an object with a "name" or "url" key. Children are visited
// before the list that holds them.
func WalkPageData(payload any) []domain.RawRecord {
	var out []domain.RawRecord
	switch v := payload.(type) {
	case map[string]any:
		for _, k := range sortedKeys(v) {
			out = append(out, WalkPageData(v[k])...)
		}
	case []any:
		for _, x := range v {
			out = append(out, WalkPageData(x)...)
		}
		if looksLikeListings(v) {
			recs, _ := objects(v)
			out = append(out, recs...)
		}
	}
	return out
}

// IsJSONContentType matches application/json and vendor types such as
// application/vnd.api+json.
func IsJSONContentType(ct string) bool {
	return strings.Contains(strings.ToLower(ct), "json")
}

func looksLikeListings(list []any) bool {
	if len(list) == 0 {
		return false
	}
	first, ok := list[0].(map[string]any)
	if !ok {
		return false
	}
	_, hasName := first["name"]
	_, hasURL := first["url"]
	return hasName || hasURL
}

// objects keeps the object-shaped entries; ok is false when none are left.
func objects(list []any) ([]domain.RawRecord, bool) {
	out := make([]domain.RawRecord, 0, len(list))
	for _, x := range list {
		if m, ok := x.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out, len(out) > 0
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

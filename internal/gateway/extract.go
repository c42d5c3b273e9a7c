package gateway

import (
	"fmt"
	"strconv"
)

// Extractor pulls an optional string out of a decoded JSON document
type Extractor func(doc map[string]any) (string, bool)

// Path returns an extractor for a nested string field. Non-string and
// empty values count as absent.
func Path(keys ...string) Extractor {
	return func(doc map[string]any) (string, bool) {
		cur, ok := lookup(doc, keys)
		if !ok {
			return "", false
		}
		s, ok := cur.(string)
		if !ok || s == "" {
			return "", false
		}
		return s, true
	}
}

// Value returns an extractor for a nested field of any type. A truthy
// value is present even when it is not a string, so FirstOf stops there;
// non-strings are rendered with fmt. Null, false, 0 and "" count as absent.
func Value(keys ...string) Extractor {
	return func(doc map[string]any) (string, bool) {
		cur, ok := lookup(doc, keys)
		if !ok {
			return "", false
		}
		switch v := cur.(type) {
		case nil:
			return "", false
		case string:
			return v, v != ""
		case bool:
			return strconv.FormatBool(v), v
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), v != 0
		default:
			return fmt.Sprint(v), true
		}
	}
}

func lookup(doc map[string]any, keys []string) (any, bool) {
	var cur any = doc
	for _, key := range keys {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		if cur, ok = obj[key]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// FirstOf tries extractors in order and returns the first hit
func FirstOf(doc map[string]any, extractors ...Extractor) (string, bool) {
	for _, extract := range extractors {
		if v, ok := extract(doc); ok {
			return v, true
		}
	}
	return "", false
}

// PaymentIDPaths lists where the provider may put the id of a created payment
var PaymentIDPaths = []Extractor{
	Path("paymentId"),
	Path("id"),
	Path("data", "id"),
	Path("identifier"),
}

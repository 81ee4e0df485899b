// Package fileset encodes the ordered list of file references belonging to
// one exam into the single file_path column, and back.
//
// The persisted form is asymmetric for backward compatibility: rows created
// before multi-page uploads hold a bare reference string, newer multi-page
// rows hold a JSON array of reference strings. Decode must therefore treat
// "parses as a JSON array" as the one and only multi-file signal; anything
// else is a single legacy reference, including strings that happen to be
// valid JSON of another shape (a bare number, an object, null).
package fileset

import (
	"encoding/json"
	"fmt"
)

// Encode serializes an ordered reference list for the file_path column.
// A single reference is stored as-is, without quoting; two or more are
// stored as a JSON array in the given order.
func Encode(refs []string) string {
	switch len(refs) {
	case 0:
		return ""
	case 1:
		return refs[0]
	}

	encoded, err := json.Marshal(refs)
	if err != nil {
		// json.Marshal cannot fail on []string; keep the single-file
		// fallback anyway so callers never see an invalid column value.
		return refs[0]
	}
	return string(encoded)
}

// Decode parses a stored file_path value back into an ordered reference
// list. It never fails: anything that is not a JSON array decodes as a
// one-element list holding the original string.
func Decode(stored string) []string {
	arr, ok := parseArray(stored)
	if !ok {
		return []string{stored}
	}

	refs := make([]string, 0, len(arr))
	for _, elem := range arr {
		if s, isString := elem.(string); isString {
			refs = append(refs, s)
			continue
		}
		// Arrays of non-strings still count as multi-file per the
		// array-detection rule; stringify the elements.
		refs = append(refs, fmt.Sprint(elem))
	}
	return refs
}

// IsMultiFile reports whether a stored value decodes to more than one
// reference. It reuses the exact parse rule of Decode so the two can
// never drift apart.
func IsMultiFile(stored string) bool {
	return len(Decode(stored)) > 1
}

// parseArray attempts the JSON-array interpretation of a stored value.
func parseArray(stored string) ([]interface{}, bool) {
	var v interface{}
	if err := json.Unmarshal([]byte(stored), &v); err != nil {
		return nil, false
	}
	arr, ok := v.([]interface{})
	return arr, ok
}

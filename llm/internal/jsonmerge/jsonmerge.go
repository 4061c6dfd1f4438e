// Package jsonmerge provides the path-based JSON mutation helpers shared by
// the openaicompat and anthropiccompat request builders: setting a single
// top-level field on an accumulating request body, and merging a
// caller-supplied extra_body map into it key by key, with extra_body winning
// on key collision.
package jsonmerge

import (
	"strings"

	"github.com/tidwall/sjson"
)

// Set writes value at the top-level key on body, escaping any sjson path
// metacharacters in key so keys containing ".", "*", or "?" are treated as
// literal JSON object keys rather than path expressions.
func Set(body []byte, key string, value any) ([]byte, error) {
	return sjson.SetBytes(body, EscapeKey(key), value)
}

// MergeExtraBody sets each top-level key of extra on body, with extra
// winning on any key collision. A colliding value is replaced whole; nested
// objects are not merged.
func MergeExtraBody(body []byte, extra map[string]any) ([]byte, error) {
	for key, value := range extra {
		b, err := Set(body, key, value)
		if err != nil {
			return nil, err
		}
		body = b
	}
	return body, nil
}

var keyEscaper = strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)

// EscapeKey escapes sjson/gjson path metacharacters in a raw top-level JSON
// key.
func EscapeKey(key string) string {
	return keyEscaper.Replace(key)
}

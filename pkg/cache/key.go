package cache

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Key generates a deterministic cache key for a call signature. The scope
// names the operation and prefixes the key for readable logs; the parts are
// canonicalized so logically identical calls hash identically regardless of
// map ordering or struct field order.
//
// Format: scope:md5hex
func Key(scope string, parts ...any) string {
	canonical := make([]any, len(parts))
	for i, part := range parts {
		canonical[i] = canonicalize(part)
	}

	data, err := json.Marshal(map[string]any{
		"scope": scope,
		"args":  canonical,
	})
	if err != nil {
		// Unmarshalable arguments (channels, funcs) never come from the
		// service layer; fall back to the verbose representation.
		data = []byte(fmt.Sprintf("%s:%#v", scope, parts))
	}

	sum := md5.Sum(data)
	return scope + ":" + hex.EncodeToString(sum[:])
}

// canonicalize reduces a value to JSON-native maps, slices, and scalars.
// Round-tripping through encoding/json turns structs into maps, and the
// final marshal in Key emits map keys sorted, so field and key order cannot
// influence the hash. Nested structures canonicalize recursively for free.
func canonicalize(v any) any {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}

	var norm any
	if err := json.Unmarshal(data, &norm); err != nil {
		return string(data)
	}
	return norm
}

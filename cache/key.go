package cache

import (
	"encoding/json"
	"fmt"
)

// Key identifies one cached read: a resource name plus the canonical
// serialization of its filter parameters. Two filter values that differ only
// in map ordering produce the same Key.
type Key struct {
	Resource string
	Params   string
}

func (k Key) String() string {
	if k.Params == "" {
		return k.Resource
	}
	return k.Resource + "?" + k.Params
}

// NewKey builds a Key for resource and params. params may be nil, a struct,
// or a map; it is serialized through JSON and re-marshalled so map key order
// never influences the result. Serialization failure falls back to fmt
// formatting; a stable, if ugly, key beats a lost cache slot.
func NewKey(resource string, params any) Key {
	return Key{Resource: resource, Params: canonicalParams(params)}
}

func canonicalParams(params any) string {
	if params == nil {
		return ""
	}

	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%+v", params)
	}

	// Round-trip through interface{} so json re-marshals maps with sorted
	// keys regardless of the caller's insertion order.
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return string(data)
	}
	canonical, err := json.Marshal(v)
	if err != nil {
		return string(data)
	}
	return string(canonical)
}

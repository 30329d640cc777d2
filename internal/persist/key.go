package persist

import "strings"

// Marker identifies keys written by the state persistence layer.
const Marker = "reduxPersist:"

// Key is a raw storage key split into the namespace before the last colon
// and the logical slice name after it.
type Key struct {
	Namespace string
	Logical   string
}

// ParseKey splits raw at its last colon. A key without a colon has an
// empty namespace.
func ParseKey(raw string) Key {
	i := strings.LastIndex(raw, ":")
	if i < 0 {
		return Key{Logical: raw}
	}
	return Key{Namespace: raw[:i], Logical: raw[i+1:]}
}

// CanonicalKey returns the raw key Set writes for logical.
func CanonicalKey(logical string) string {
	return Marker + logical
}

// IsRelevant reports whether raw belongs to persisted app state.
func IsRelevant(raw string) bool {
	return strings.Contains(raw, Marker)
}

func (k Key) String() string {
	if k.Namespace == "" {
		return k.Logical
	}
	return k.Namespace + ":" + k.Logical
}

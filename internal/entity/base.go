package entity

import "time"

// Scope distinguishes direct conversations from group conversations.
// Both streams are modeled identically but stored in separate keyed
// collections.
type Scope string

const (
	ScopeDirect Scope = "direct"
	ScopeGroup  Scope = "group"
)

// Valid reports whether s is a known scope.
func (s Scope) Valid() bool {
	return s == ScopeDirect || s == ScopeGroup
}

// NowUnixMilli returns current unix timestamp in milliseconds
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// Package access holds the static admin allow-list. Membership is loaded once
// at process startup; there is no runtime admin management.
package access

// List is an immutable set of admin user identifiers.
type List struct {
	ids map[int64]struct{}
}

// NewList builds an allow-list from the configured identifiers.
func NewList(ids []int64) *List {
	set := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return &List{ids: set}
}

// Allowed reports whether the user may perform admin operations.
func (l *List) Allowed(userID int64) bool {
	if l == nil {
		return false
	}
	_, ok := l.ids[userID]
	return ok
}

// Len returns the number of configured admins.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.ids)
}

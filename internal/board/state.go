package board

import (
	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

// SortConfig keeps one independently mutable rule per status column.
type SortConfig map[enums.OrderStatus]SortRule

// DefaultSortConfig returns the initial per-column rules.
func DefaultSortConfig() SortConfig {
	return SortConfig{
		enums.OrderStatusWaiting:      {Key: enums.SortKeyCreatedAt, Direction: enums.SortDesc},
		enums.OrderStatusInProduction: {Key: enums.SortKeyPriority, Direction: enums.SortAsc},
		enums.OrderStatusCompleted:    {Key: enums.SortKeyCompletedAt, Direction: enums.SortDesc},
	}
}

// Toggle applies a sort-button click: the active key flips direction, a new
// key starts ascending. The resulting rule is returned.
func (c SortConfig) Toggle(column enums.OrderStatus, key enums.SortKey) SortRule {
	current, ok := c[column]
	if ok && current.Key == key {
		current.Direction = current.Direction.Flip()
		c[column] = current
		return current
	}
	rule := SortRule{Key: key, Direction: enums.SortAsc}
	c[column] = rule
	return rule
}

// Clone copies the config so projections never share the live map.
func (c SortConfig) Clone() SortConfig {
	cloned := make(SortConfig, len(c))
	for column, rule := range c {
		cloned[column] = rule
	}
	return cloned
}

// ActiveSet tracks orders flagged as being worked on right now. View-only
// annotation with no backend representation.
type ActiveSet map[uuid.UUID]struct{}

// Toggle flips membership and reports whether the id is now in the set.
func (s ActiveSet) Toggle(id uuid.UUID) bool {
	if _, ok := s[id]; ok {
		delete(s, id)
		return false
	}
	s[id] = struct{}{}
	return true
}

// Has reports membership.
func (s ActiveSet) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the members in no particular order.
func (s ActiveSet) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	return ids
}

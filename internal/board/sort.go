package board

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

// SortRule selects the key and direction for one column.
type SortRule struct {
	Key       enums.SortKey       `json:"key"`
	Direction enums.SortDirection `json:"direction"`
}

// unranked marks orders absent from the priority map. They stay at the bottom
// of the column in both directions.
const unranked = int(^uint(0) >> 1)

// NewCollator builds the locale-aware collator used for factory names.
func NewCollator() *collate.Collator {
	return collate.New(language.Vietnamese, collate.IgnoreCase)
}

// SortColumn stably orders one column in place according to the rule.
func SortColumn(orders []Order, rule SortRule, ranks map[uuid.UUID]int, coll *collate.Collator) {
	sort.SliceStable(orders, func(i, j int) bool {
		return compareOrders(orders[i], orders[j], rule, ranks, coll) < 0
	})
}

// compareOrders applies the direction as a post-comparison multiplier. The
// missing-value handling for priority and deliveryDate returns early, before
// the multiplier, so unranked and undated orders sort last in both
// directions. That asymmetry is intentional: an undated order is never the
// top of the column just because the direction flipped.
func compareOrders(a, b Order, rule SortRule, ranks map[uuid.UUID]int, coll *collate.Collator) int {
	mult := rule.Direction.Multiplier()

	switch rule.Key {
	case enums.SortKeyPriority:
		ra := rankOf(a, ranks)
		rb := rankOf(b, ranks)
		if ra == rb {
			return 0
		}
		if ra == unranked {
			return 1
		}
		if rb == unranked {
			return -1
		}
		return compareInt(ra, rb) * mult

	case enums.SortKeyFactory:
		return compareFactory(a.Factory, b.Factory, coll) * mult

	case enums.SortKeyQuantity:
		return compareInt(quantityOrZero(a), quantityOrZero(b)) * mult

	case enums.SortKeyDeliveryDate:
		switch {
		case a.DeliveryDate == nil && b.DeliveryDate == nil:
			return 0
		case a.DeliveryDate == nil:
			return 1
		case b.DeliveryDate == nil:
			return -1
		}
		return compareTime(*a.DeliveryDate, *b.DeliveryDate) * mult

	case enums.SortKeyCreatedAt:
		return compareTime(a.CreatedAt, b.CreatedAt) * mult

	case enums.SortKeyCompletedAt:
		return compareTime(completedOrZero(a), completedOrZero(b)) * mult

	default:
		return 0
	}
}

func rankOf(order Order, ranks map[uuid.UUID]int) int {
	if rank, ok := ranks[order.ID]; ok {
		return rank
	}
	return unranked
}

func quantityOrZero(order Order) int {
	if order.Quantity == nil {
		return 0
	}
	return *order.Quantity
}

func completedOrZero(order Order) time.Time {
	if order.CompletedAt == nil {
		return time.Time{}
	}
	return *order.CompletedAt
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareTime(a, b time.Time) int {
	switch {
	case a.Before(b):
		return -1
	case a.After(b):
		return 1
	default:
		return 0
	}
}

func compareFactory(a, b string, coll *collate.Collator) int {
	if coll != nil {
		return coll.CompareString(a, b)
	}
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

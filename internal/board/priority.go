package board

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

// distantFuture stands in for a missing delivery date so undated orders rank
// after every dated one.
var distantFuture = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// ComputePriorities assigns 1-based urgency ranks to urgent, non-completed
// orders. Earlier delivery dates rank first; a missing date ranks last; ties
// fall to the earlier-created order. Orders outside the eligible set get no
// entry and consumers treat them as unranked.
func ComputePriorities(orders []Order) map[uuid.UUID]int {
	eligible := make([]Order, 0, len(orders))
	for _, order := range orders {
		if order.IsUrgent && order.Status != enums.OrderStatusCompleted {
			eligible = append(eligible, order)
		}
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		di := deliveryKey(eligible[i])
		dj := deliveryKey(eligible[j])
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return eligible[i].CreatedAt.Before(eligible[j].CreatedAt)
	})

	ranks := make(map[uuid.UUID]int, len(eligible))
	for idx, order := range eligible {
		ranks[order.ID] = idx + 1
	}
	return ranks
}

func deliveryKey(order Order) time.Time {
	if order.DeliveryDate == nil {
		return distantFuture
	}
	return *order.DeliveryDate
}

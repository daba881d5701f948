package board

import (
	"strings"

	"golang.org/x/text/collate"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

// Project derives the three-column view from a snapshot. It is pure: the
// same snapshot, config, search text, and collator always yield the same
// view, and the inputs are never mutated.
//
// Pipeline: filter by search, compute priorities over the filtered set,
// bucket by status (unknown statuses dropped silently), stable-sort each
// bucket by its rule.
func Project(orders []Order, config SortConfig, search string, coll *collate.Collator) BoardView {
	filtered := filterOrders(orders, search)
	ranks := ComputePriorities(filtered)

	view := BoardView{Ranks: ranks}
	for _, order := range filtered {
		switch order.Status {
		case enums.OrderStatusWaiting:
			view.Waiting = append(view.Waiting, order)
		case enums.OrderStatusInProduction:
			view.InProduction = append(view.InProduction, order)
		case enums.OrderStatusCompleted:
			view.Completed = append(view.Completed, order)
		}
	}

	SortColumn(view.Waiting, ruleFor(config, enums.OrderStatusWaiting), ranks, coll)
	SortColumn(view.InProduction, ruleFor(config, enums.OrderStatusInProduction), ranks, coll)
	SortColumn(view.Completed, ruleFor(config, enums.OrderStatusCompleted), ranks, coll)

	return view
}

func ruleFor(config SortConfig, column enums.OrderStatus) SortRule {
	if rule, ok := config[column]; ok {
		return rule
	}
	return DefaultSortConfig()[column]
}

func filterOrders(orders []Order, search string) []Order {
	needle := strings.ToLower(strings.TrimSpace(search))
	filtered := make([]Order, 0, len(orders))
	for _, order := range orders {
		if needle == "" ||
			strings.Contains(strings.ToLower(order.Name), needle) ||
			strings.Contains(strings.ToLower(order.Factory), needle) {
			filtered = append(filtered, order.Clone())
		}
	}
	return filtered
}

package board

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

func TestComputePrioritiesRanksAreContiguous(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	orders := []Order{
		urgentOrder("a", dayPtr(base.AddDate(0, 0, 3)), base),
		urgentOrder("b", dayPtr(base.AddDate(0, 0, 1)), base),
		urgentOrder("c", nil, base),
		urgentOrder("d", dayPtr(base.AddDate(0, 0, 2)), base),
		{ID: uuid.New(), Status: enums.OrderStatusWaiting, CreatedAt: base},
		{ID: uuid.New(), Status: enums.OrderStatusCompleted, IsUrgent: true, CreatedAt: base},
	}

	ranks := ComputePriorities(orders)

	if len(ranks) != 4 {
		t.Fatalf("expected 4 ranked orders, got %d", len(ranks))
	}
	seen := map[int]bool{}
	for id, rank := range ranks {
		if rank < 1 || rank > 4 {
			t.Fatalf("rank %d for %s out of 1..4", rank, id)
		}
		if seen[rank] {
			t.Fatalf("duplicate rank %d", rank)
		}
		seen[rank] = true
	}
}

func TestComputePrioritiesOrdersByDeliveryDateMissingLast(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	soon := urgentOrder("soon", dayPtr(base.AddDate(0, 0, 1)), base)
	later := urgentOrder("later", dayPtr(base.AddDate(0, 0, 9)), base)
	undated := urgentOrder("undated", nil, base)

	ranks := ComputePriorities([]Order{undated, later, soon})

	if ranks[soon.ID] != 1 {
		t.Fatalf("expected soonest delivery ranked 1, got %d", ranks[soon.ID])
	}
	if ranks[later.ID] != 2 {
		t.Fatalf("expected later delivery ranked 2, got %d", ranks[later.ID])
	}
	if ranks[undated.ID] != 3 {
		t.Fatalf("expected missing delivery ranked last, got %d", ranks[undated.ID])
	}
}

func TestComputePrioritiesTieBreaksOnEarlierCreation(t *testing.T) {
	delivery := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := Order{
		ID:           uuid.New(),
		Status:       enums.OrderStatusWaiting,
		IsUrgent:     true,
		DeliveryDate: &delivery,
		CreatedAt:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	second := Order{
		ID:           uuid.New(),
		Status:       enums.OrderStatusWaiting,
		IsUrgent:     true,
		DeliveryDate: &delivery,
		CreatedAt:    time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
	}

	ranks := ComputePriorities([]Order{first, second})

	if ranks[second.ID] != 1 {
		t.Fatalf("expected earlier-created order ranked 1, got %d", ranks[second.ID])
	}
	if ranks[first.ID] != 2 {
		t.Fatalf("expected later-created order ranked 2, got %d", ranks[first.ID])
	}
}

func TestComputePrioritiesExcludesCompletedAndNonUrgent(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	completed := Order{ID: uuid.New(), Status: enums.OrderStatusCompleted, IsUrgent: true, CreatedAt: base}
	calm := Order{ID: uuid.New(), Status: enums.OrderStatusInProduction, CreatedAt: base}

	ranks := ComputePriorities([]Order{completed, calm})

	if len(ranks) != 0 {
		t.Fatalf("expected no ranks, got %v", ranks)
	}
}

func urgentOrder(name string, delivery *time.Time, createdAt time.Time) Order {
	return Order{
		ID:           uuid.New(),
		Name:         name,
		Status:       enums.OrderStatusWaiting,
		IsUrgent:     true,
		DeliveryDate: delivery,
		CreatedAt:    createdAt,
	}
}

func dayPtr(t time.Time) *time.Time {
	return &t
}

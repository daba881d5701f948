package board

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

func TestSortColumnDeliveryDateMissingSortsLastBothDirections(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	early := Order{ID: uuid.New(), Name: "early", DeliveryDate: dayPtr(base)}
	late := Order{ID: uuid.New(), Name: "late", DeliveryDate: dayPtr(base.AddDate(0, 0, 5))}
	undated := Order{ID: uuid.New(), Name: "undated"}

	for _, direction := range []enums.SortDirection{enums.SortAsc, enums.SortDesc} {
		orders := []Order{undated, late, early}
		SortColumn(orders, SortRule{Key: enums.SortKeyDeliveryDate, Direction: direction}, nil, nil)

		if orders[2].ID != undated.ID {
			t.Fatalf("direction %s: expected undated order last, got %q", direction, orders[2].Name)
		}
		if direction == enums.SortAsc && orders[0].ID != early.ID {
			t.Fatalf("asc: expected earliest first, got %q", orders[0].Name)
		}
		if direction == enums.SortDesc && orders[0].ID != late.ID {
			t.Fatalf("desc: expected latest first, got %q", orders[0].Name)
		}
	}
}

func TestSortColumnPriorityUnrankedSortsLastBothDirections(t *testing.T) {
	ranked1 := Order{ID: uuid.New(), Name: "ranked1"}
	ranked2 := Order{ID: uuid.New(), Name: "ranked2"}
	unrankedOrder := Order{ID: uuid.New(), Name: "unranked"}
	ranks := map[uuid.UUID]int{ranked1.ID: 1, ranked2.ID: 2}

	for _, direction := range []enums.SortDirection{enums.SortAsc, enums.SortDesc} {
		orders := []Order{unrankedOrder, ranked2, ranked1}
		SortColumn(orders, SortRule{Key: enums.SortKeyPriority, Direction: direction}, ranks, nil)

		if orders[2].ID != unrankedOrder.ID {
			t.Fatalf("direction %s: expected unranked order last, got %q", direction, orders[2].Name)
		}
	}
}

func TestSortColumnFactoryIsCaseInsensitive(t *testing.T) {
	a := Order{ID: uuid.New(), Factory: "xưởng an khang"}
	b := Order{ID: uuid.New(), Factory: "Xưởng Bình Minh"}
	orders := []Order{b, a}

	SortColumn(orders, SortRule{Key: enums.SortKeyFactory, Direction: enums.SortAsc}, nil, NewCollator())

	if orders[0].ID != a.ID {
		t.Fatalf("expected %q first, got %q", a.Factory, orders[0].Factory)
	}
}

func TestSortColumnQuantityMissingCountsAsZero(t *testing.T) {
	qty := 50
	counted := Order{ID: uuid.New(), Name: "counted", Quantity: &qty}
	uncounted := Order{ID: uuid.New(), Name: "uncounted"}
	orders := []Order{counted, uncounted}

	SortColumn(orders, SortRule{Key: enums.SortKeyQuantity, Direction: enums.SortAsc}, nil, nil)
	if orders[0].ID != uncounted.ID {
		t.Fatalf("asc: expected missing quantity first, got %q", orders[0].Name)
	}

	SortColumn(orders, SortRule{Key: enums.SortKeyQuantity, Direction: enums.SortDesc}, nil, nil)
	if orders[0].ID != counted.ID {
		t.Fatalf("desc: expected counted quantity first, got %q", orders[0].Name)
	}
}

func TestSortColumnCompletedAtMissingSortsFirstAscending(t *testing.T) {
	done := time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
	finished := Order{ID: uuid.New(), Name: "finished", CompletedAt: &done}
	unfinished := Order{ID: uuid.New(), Name: "unfinished"}
	orders := []Order{finished, unfinished}

	SortColumn(orders, SortRule{Key: enums.SortKeyCompletedAt, Direction: enums.SortAsc}, nil, nil)

	if orders[0].ID != unfinished.ID {
		t.Fatalf("expected missing completed_at first under asc, got %q", orders[0].Name)
	}
}

func TestSortColumnIsStableForEqualKeys(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	first := Order{ID: uuid.New(), Name: "first", CreatedAt: created}
	second := Order{ID: uuid.New(), Name: "second", CreatedAt: created}
	third := Order{ID: uuid.New(), Name: "third", CreatedAt: created}
	orders := []Order{first, second, third}

	SortColumn(orders, SortRule{Key: enums.SortKeyCreatedAt, Direction: enums.SortAsc}, nil, nil)

	for idx, want := range []string{"first", "second", "third"} {
		if orders[idx].Name != want {
			t.Fatalf("stability broken at %d: got %q want %q", idx, orders[idx].Name, want)
		}
	}
}

package board

import (
	"time"

	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

type mutationKind int

const (
	mutationInsert mutationKind = iota
	mutationUpdate
	mutationDelete
)

// Handle captures the pre-mutation state of the touched order so a failed
// remote call can restore it exactly. One handle covers one mutation.
type Handle struct {
	kind     mutationKind
	orderID  uuid.UUID
	snapshot Order
}

// OrderID identifies the order the handle guards.
func (h *Handle) OrderID() uuid.UUID {
	return h.orderID
}

// StageInsert adds the order locally before the remote create resolves.
func (s *Store) StageInsert(order Order) *Handle {
	s.mu.Lock()
	handle := &Handle{kind: mutationInsert, orderID: order.ID}
	if idx := s.indexLocked(order.ID); idx >= 0 {
		// Insert over an existing id behaves as an update for rollback.
		handle.kind = mutationUpdate
		handle.snapshot = s.orders[idx].Clone()
		s.orders[idx] = order.Clone()
	} else {
		s.orders = append(s.orders, order.Clone())
	}
	view := s.projectLocked("stage")
	s.mu.Unlock()
	s.emit(view)
	return handle
}

// StageStatus moves the order to a new column. The completed timestamp is
// set exactly when the status is completed and cleared otherwise; repeating
// the same transition changes nothing.
func (s *Store) StageStatus(id uuid.UUID, status enums.OrderStatus) (*Handle, bool) {
	return s.stageUpdate(id, func(order *Order) {
		order.Status = status
		if status == enums.OrderStatusCompleted {
			if order.CompletedAt == nil {
				now := s.now()
				order.CompletedAt = &now
			}
		} else {
			order.CompletedAt = nil
		}
	})
}

// StageUrgency flips the urgency flag.
func (s *Store) StageUrgency(id uuid.UUID) (*Handle, bool) {
	return s.stageUpdate(id, func(order *Order) {
		order.IsUrgent = !order.IsUrgent
	})
}

// StageEdit applies a caller-provided field mutation.
func (s *Store) StageEdit(id uuid.UUID, mutate func(*Order)) (*Handle, bool) {
	return s.stageUpdate(id, mutate)
}

// StageDelete removes the order locally before the remote delete resolves.
func (s *Store) StageDelete(id uuid.UUID) (*Handle, bool) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, false
	}
	handle := &Handle{
		kind:     mutationDelete,
		orderID:  id,
		snapshot: s.orders[idx].Clone(),
	}
	s.orders = append(s.orders[:idx], s.orders[idx+1:]...)
	view := s.projectLocked("stage")
	s.mu.Unlock()
	s.emit(view)
	return handle, true
}

func (s *Store) stageUpdate(id uuid.UUID, mutate func(*Order)) (*Handle, bool) {
	if mutate == nil {
		return nil, false
	}
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, false
	}
	handle := &Handle{
		kind:     mutationUpdate,
		orderID:  id,
		snapshot: s.orders[idx].Clone(),
	}
	mutate(&s.orders[idx])
	s.orders[idx].ID = id
	view := s.projectLocked("stage")
	s.mu.Unlock()
	s.emit(view)
	return handle, true
}

// Confirm finishes a successful mutation. The local copy already reflects
// the intent; only server-computed fields are patched in. A nil server copy
// leaves the optimistic state as-is.
func (s *Store) Confirm(handle *Handle, server *Order) {
	if handle == nil {
		return
	}
	if handle.kind == mutationDelete || server == nil {
		return
	}
	s.mu.Lock()
	idx := s.indexLocked(handle.orderID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	s.orders[idx].CompletedAt = cloneTimePtr(server.CompletedAt)
	s.orders[idx].UpdatedAt = server.UpdatedAt
	if server.ImageURL != nil {
		url := *server.ImageURL
		s.orders[idx].ImageURL = &url
	}
	if s.orders[idx].CreatedAt.IsZero() {
		s.orders[idx].CreatedAt = server.CreatedAt
	}
	view := s.projectLocked("confirm")
	s.mu.Unlock()
	s.emit(view)
}

// Revert restores the exact pre-mutation snapshot after a remote failure.
// There is no partial success: the whole staged change is undone.
func (s *Store) Revert(handle *Handle) {
	if handle == nil {
		return
	}
	s.mu.Lock()
	idx := s.indexLocked(handle.orderID)
	switch handle.kind {
	case mutationInsert:
		if idx >= 0 {
			s.orders = append(s.orders[:idx], s.orders[idx+1:]...)
		}
	case mutationUpdate:
		if idx >= 0 {
			s.orders[idx] = handle.snapshot.Clone()
		} else {
			s.orders = append(s.orders, handle.snapshot.Clone())
		}
	case mutationDelete:
		if idx < 0 {
			s.orders = append(s.orders, handle.snapshot.Clone())
		}
	}
	view := s.projectLocked("revert")
	s.mu.Unlock()
	s.emit(view)
}

// Merge applies one change-feed delta and reports whether the store changed.
//
// Insert is exactly-once by identifier: a duplicate (usually because the
// optimistic path already added the row) is a no-op and the remote copy of
// non-identifier fields arrives through the subsequent update event.
// Update replaces in place and ignores unknown ids. Delete ignores absence.
func (s *Store) Merge(event Event) bool {
	s.mu.Lock()
	applied := false
	switch event.Type {
	case enums.OrderEventInsert:
		if s.indexLocked(event.Order.ID) < 0 {
			s.orders = append(s.orders, event.Order.Clone())
			applied = true
		}
	case enums.OrderEventUpdate:
		if idx := s.indexLocked(event.Order.ID); idx >= 0 {
			s.orders[idx] = event.Order.Clone()
			applied = true
		}
	case enums.OrderEventDelete:
		if idx := s.indexLocked(event.OrderID); idx >= 0 {
			s.orders = append(s.orders[:idx], s.orders[idx+1:]...)
			applied = true
		}
	}
	var view BoardView
	if applied {
		view = s.projectLocked("merge")
	}
	s.mu.Unlock()

	outcome := "noop"
	if applied {
		outcome = "applied"
		s.emit(view)
	}
	s.board.IncMerge(string(event.Type), outcome)
	return applied
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cloned := *t
	return &cloned
}

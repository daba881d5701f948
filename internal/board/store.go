package board

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/collate"

	"github.com/donhangtem/orderboard-backend/pkg/enums"
	"github.com/donhangtem/orderboard-backend/pkg/metrics"
)

// RenderSink receives one view per content-changing mutation. It runs
// outside the store lock, so it may call back into the store.
type RenderSink func(BoardView)

// Store is the authoritative in-memory mirror of the orders table. All
// mutation goes through its methods; the mutex replaces the cooperative
// single-threaded scheduling the board logic originally relied on.
type Store struct {
	mu     sync.Mutex
	orders []Order
	search string
	config SortConfig
	active ActiveSet
	coll   *collate.Collator
	sink   RenderSink
	board  *metrics.BoardMetrics
	now    func() time.Time
}

// NewStore builds an empty store. Both sink and boardMetrics may be nil.
func NewStore(sink RenderSink, boardMetrics *metrics.BoardMetrics) *Store {
	return &Store{
		config: DefaultSortConfig(),
		active: make(ActiveSet),
		coll:   NewCollator(),
		sink:   sink,
		board:  boardMetrics,
		now:    time.Now,
	}
}

// ReplaceAll swaps in a fresh snapshot. Used on startup and after
// authentication-state transitions, because the visible order set changes.
func (s *Store) ReplaceAll(orders []Order) {
	s.mu.Lock()
	s.orders = make([]Order, 0, len(orders))
	for _, order := range orders {
		s.orders = append(s.orders, order.Clone())
	}
	view := s.projectLocked("replace")
	s.mu.Unlock()
	s.emit(view)
}

// Snapshot returns a deep copy of the current order list.
func (s *Store) Snapshot() []Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := make([]Order, 0, len(s.orders))
	for _, order := range s.orders {
		snapshot = append(snapshot, order.Clone())
	}
	return snapshot
}

// View projects the current state without notifying the sink.
func (s *Store) View() BoardView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.projectLocked("view")
}

// Get returns a copy of one order by id.
func (s *Store) Get(id uuid.UUID) (Order, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx := s.indexLocked(id); idx >= 0 {
		return s.orders[idx].Clone(), true
	}
	return Order{}, false
}

// Len reports how many orders the store holds.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// SetSearch updates the free-text filter and re-renders.
func (s *Store) SetSearch(text string) {
	s.mu.Lock()
	s.search = text
	view := s.projectLocked("search")
	s.mu.Unlock()
	s.emit(view)
}

// Search returns the current filter text.
func (s *Store) Search() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.search
}

// ToggleSort applies a sort-button click for one column and re-renders.
func (s *Store) ToggleSort(column enums.OrderStatus, key enums.SortKey) SortRule {
	s.mu.Lock()
	rule := s.config.Toggle(column, key)
	view := s.projectLocked("sort")
	s.mu.Unlock()
	s.emit(view)
	return rule
}

// SortRules returns a copy of the per-column configuration.
func (s *Store) SortRules() SortConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.config.Clone()
}

// ToggleActive flips the view-only "being worked on" annotation and reports
// the new membership. The annotation never reaches the backend.
func (s *Store) ToggleActive(id uuid.UUID) bool {
	s.mu.Lock()
	nowActive := s.active.Toggle(id)
	view := s.projectLocked("active")
	s.mu.Unlock()
	s.emit(view)
	return nowActive
}

// ActiveIDs lists the annotated orders.
func (s *Store) ActiveIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active.IDs()
}

func (s *Store) projectLocked(trigger string) BoardView {
	start := time.Now()
	view := Project(s.orders, s.config, s.search, s.coll)
	s.board.ObserveProjection(trigger, time.Since(start))
	return view
}

func (s *Store) indexLocked(id uuid.UUID) int {
	for idx := range s.orders {
		if s.orders[idx].ID == id {
			return idx
		}
	}
	return -1
}

func (s *Store) emit(view BoardView) {
	if s.sink != nil {
		s.sink(view)
	}
	s.board.IncRender()
}

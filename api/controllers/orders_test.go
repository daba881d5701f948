package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/api/middleware"
	"github.com/donhangtem/orderboard-backend/internal/board"
	"github.com/donhangtem/orderboard-backend/internal/orders"
	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
	pkgerrors "github.com/donhangtem/orderboard-backend/pkg/errors"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
)

type testOrdersService struct {
	createFn        func(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error)
	updateFn        func(ctx context.Context, input orders.UpdateOrderInput) (*models.Order, error)
	deleteFn        func(ctx context.Context, id uuid.UUID, actor orders.Actor) error
	changeStatusFn  func(ctx context.Context, id uuid.UUID, status enums.OrderStatus, actor orders.Actor) (*models.Order, error)
	toggleUrgencyFn func(ctx context.Context, id uuid.UUID, actor orders.Actor) (*models.Order, error)
}

func (s *testOrdersService) Create(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return nil, errors.New("not implemented")
}

func (s *testOrdersService) Update(ctx context.Context, input orders.UpdateOrderInput) (*models.Order, error) {
	if s.updateFn != nil {
		return s.updateFn(ctx, input)
	}
	return nil, errors.New("not implemented")
}

func (s *testOrdersService) Delete(ctx context.Context, id uuid.UUID, actor orders.Actor) error {
	if s.deleteFn != nil {
		return s.deleteFn(ctx, id, actor)
	}
	return errors.New("not implemented")
}

func (s *testOrdersService) ChangeStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, actor orders.Actor) (*models.Order, error) {
	if s.changeStatusFn != nil {
		return s.changeStatusFn(ctx, id, status, actor)
	}
	return nil, errors.New("not implemented")
}

func (s *testOrdersService) ToggleUrgency(ctx context.Context, id uuid.UUID, actor orders.Actor) (*models.Order, error) {
	if s.toggleUrgencyFn != nil {
		return s.toggleUrgencyFn(ctx, id, actor)
	}
	return nil, errors.New("not implemented")
}

func (s *testOrdersService) List(ctx context.Context) ([]models.Order, error) {
	return nil, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func addRouteParam(r *http.Request, key, value string) *http.Request {
	routeCtx := chi.NewRouteContext()
	routeCtx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

func asAuthed(r *http.Request, userID uuid.UUID) *http.Request {
	ctx := middleware.WithUserID(r.Context(), userID.String())
	ctx = middleware.WithRole(ctx, string(enums.UserRoleStaff))
	return r.WithContext(ctx)
}

func seededStore(t *testing.T, orderIDs ...uuid.UUID) *board.Store {
	t.Helper()
	store := board.NewStore(nil, nil)
	seed := make([]board.Order, 0, len(orderIDs))
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i, id := range orderIDs {
		seed = append(seed, board.Order{
			ID:        id,
			Name:      "tem nhãn",
			Status:    enums.OrderStatusWaiting,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	store.ReplaceAll(seed)
	return store
}

func TestOrderCreateMergesIntoBoard(t *testing.T) {
	userID := uuid.New()
	created := &models.Order{
		ID:        uuid.New(),
		Name:      "hộp carton",
		Status:    enums.OrderStatusWaiting,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	svc := &testOrdersService{
		createFn: func(ctx context.Context, input orders.CreateOrderInput) (*models.Order, error) {
			if input.Name != "hộp carton" {
				t.Fatalf("unexpected name %q", input.Name)
			}
			if input.Actor.UserID != userID {
				t.Fatalf("unexpected actor %s", input.Actor.UserID)
			}
			return created, nil
		},
	}
	store := seededStore(t)

	body := bytes.NewBufferString(`{"name":"hộp carton"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", body)
	req.Header.Set("Content-Type", "application/json")
	req = asAuthed(req, userID)

	resp := httptest.NewRecorder()
	OrderCreate(svc, store, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if _, ok := store.Get(created.ID); !ok {
		t.Fatal("expected created order merged into board")
	}
}

func TestOrderCreateValidationSkipsBoard(t *testing.T) {
	store := seededStore(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req = asAuthed(req, uuid.New())

	resp := httptest.NewRecorder()
	OrderCreate(&testOrdersService{}, store, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty board, got %d orders", store.Len())
	}
}

func TestOrderChangeStatusConfirmsServerRow(t *testing.T) {
	orderID := uuid.New()
	store := seededStore(t, orderID)

	serverCompleted := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	svc := &testOrdersService{
		changeStatusFn: func(ctx context.Context, id uuid.UUID, status enums.OrderStatus, actor orders.Actor) (*models.Order, error) {
			return &models.Order{
				ID:          orderID,
				Name:        "tem nhãn",
				Status:      enums.OrderStatusCompleted,
				CompletedAt: &serverCompleted,
				UpdatedAt:   serverCompleted,
			}, nil
		},
	}

	body := bytes.NewBufferString(`{"status":"completed"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	req = asAuthed(req, uuid.New())
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	OrderChangeStatus(svc, store, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	got, ok := store.Get(orderID)
	if !ok {
		t.Fatal("order missing from board")
	}
	if got.Status != enums.OrderStatusCompleted {
		t.Fatalf("expected completed, got %s", got.Status)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(serverCompleted) {
		t.Fatalf("expected server completion time %v, got %v", serverCompleted, got.CompletedAt)
	}
}

func TestOrderChangeStatusRevertsOnFailure(t *testing.T) {
	orderID := uuid.New()
	store := seededStore(t, orderID)

	svc := &testOrdersService{
		changeStatusFn: func(ctx context.Context, id uuid.UUID, status enums.OrderStatus, actor orders.Actor) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order already completed")
		},
	}

	body := bytes.NewBufferString(`{"status":"inProduction"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	req = asAuthed(req, uuid.New())
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	OrderChangeStatus(svc, store, testLogger())(resp, req)

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", resp.Code, resp.Body.String())
	}
	got, ok := store.Get(orderID)
	if !ok {
		t.Fatal("order missing from board after revert")
	}
	if got.Status != enums.OrderStatusWaiting {
		t.Fatalf("expected revert to waiting, got %s", got.Status)
	}
}

func TestOrderChangeStatusRejectsUnknownStatus(t *testing.T) {
	orderID := uuid.New()
	store := seededStore(t, orderID)

	body := bytes.NewBufferString(`{"status":"shipped"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/status", body)
	req.Header.Set("Content-Type", "application/json")
	req = asAuthed(req, uuid.New())
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	OrderChangeStatus(&testOrdersService{}, store, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestOrderUpdateConfirmsEditedFields(t *testing.T) {
	orderID := uuid.New()
	store := seededStore(t, orderID)

	updatedAt := time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC)
	svc := &testOrdersService{
		updateFn: func(ctx context.Context, input orders.UpdateOrderInput) (*models.Order, error) {
			if input.OrderID != orderID {
				t.Fatalf("unexpected order id %s", input.OrderID)
			}
			if input.Name == nil || *input.Name != "tem bạc" {
				t.Fatalf("expected name patch, got %v", input.Name)
			}
			return &models.Order{
				ID:        orderID,
				Name:      "tem bạc",
				Status:    enums.OrderStatusWaiting,
				UpdatedAt: updatedAt,
			}, nil
		},
	}

	body := bytes.NewBufferString(`{"name":"tem bạc"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String(), body)
	req.Header.Set("Content-Type", "application/json")
	req = asAuthed(req, uuid.New())
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	OrderUpdate(svc, store, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	got, _ := store.Get(orderID)
	if got.Name != "tem bạc" {
		t.Fatalf("expected edited name on board, got %q", got.Name)
	}
	if !got.UpdatedAt.Equal(updatedAt) {
		t.Fatalf("expected server updated_at %v, got %v", updatedAt, got.UpdatedAt)
	}
}

func TestOrderUpdateRevertsOnFailure(t *testing.T) {
	orderID := uuid.New()
	store := seededStore(t, orderID)

	svc := &testOrdersService{
		updateFn: func(ctx context.Context, input orders.UpdateOrderInput) (*models.Order, error) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		},
	}

	body := bytes.NewBufferString(`{"name":"tem bạc"}`)
	req := httptest.NewRequest(http.MethodPatch, "/api/v1/orders/"+orderID.String(), body)
	req.Header.Set("Content-Type", "application/json")
	req = asAuthed(req, uuid.New())
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	OrderUpdate(svc, store, testLogger())(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Code)
	}
	got, _ := store.Get(orderID)
	if got.Name != "tem nhãn" {
		t.Fatalf("expected original name after revert, got %q", got.Name)
	}
}

func TestOrderToggleUrgencyRoundTrip(t *testing.T) {
	orderID := uuid.New()
	store := seededStore(t, orderID)

	svc := &testOrdersService{
		toggleUrgencyFn: func(ctx context.Context, id uuid.UUID, actor orders.Actor) (*models.Order, error) {
			return &models.Order{
				ID:        orderID,
				Name:      "tem nhãn",
				Status:    enums.OrderStatusWaiting,
				IsUrgent:  true,
				UpdatedAt: time.Now().UTC(),
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders/"+orderID.String()+"/urgency", nil)
	req = asAuthed(req, uuid.New())
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	OrderToggleUrgency(svc, store, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	got, _ := store.Get(orderID)
	if !got.IsUrgent {
		t.Fatal("expected urgency flag on board")
	}
}

func TestOrderDeleteRemovesFromBoard(t *testing.T) {
	orderID := uuid.New()
	store := seededStore(t, orderID)

	svc := &testOrdersService{
		deleteFn: func(ctx context.Context, id uuid.UUID, actor orders.Actor) error {
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/"+orderID.String(), nil)
	req = asAuthed(req, uuid.New())
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	OrderDelete(svc, store, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if _, ok := store.Get(orderID); ok {
		t.Fatal("expected order removed from board")
	}

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if deleted, _ := envelope.Data["deleted"].(bool); !deleted {
		t.Fatal("response missing deleted flag")
	}
}

func TestOrderDeleteRestoresOnFailure(t *testing.T) {
	orderID := uuid.New()
	store := seededStore(t, orderID)

	svc := &testOrdersService{
		deleteFn: func(ctx context.Context, id uuid.UUID, actor orders.Actor) error {
			return pkgerrors.New(pkgerrors.CodeForbidden, "staff cannot delete completed orders")
		},
	}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/"+orderID.String(), nil)
	req = asAuthed(req, uuid.New())
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	OrderDelete(svc, store, testLogger())(resp, req)

	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.Code)
	}
	if _, ok := store.Get(orderID); !ok {
		t.Fatal("expected order restored after failed delete")
	}
}

func TestOrderMutationRequiresIdentity(t *testing.T) {
	orderID := uuid.New()
	store := seededStore(t, orderID)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/orders/"+orderID.String(), nil)
	req = addRouteParam(req, "orderId", orderID.String())

	resp := httptest.NewRecorder()
	OrderDelete(&testOrdersService{}, store, testLogger())(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
	if _, ok := store.Get(orderID); !ok {
		t.Fatal("board must be untouched without identity")
	}
}

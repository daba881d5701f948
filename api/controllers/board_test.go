package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/internal/board"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
)

func decodeBoardEnvelope(t *testing.T, body []byte) boardViewPayload {
	t.Helper()
	var envelope struct {
		Data boardViewPayload `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal board payload: %v", err)
	}
	return envelope.Data
}

func TestBoardViewAppliesSearchFilter(t *testing.T) {
	store := board.NewStore(nil, nil)
	store.ReplaceAll([]board.Order{
		{ID: uuid.New(), Name: "tem nhãn chai", Status: enums.OrderStatusWaiting, CreatedAt: time.Now()},
		{ID: uuid.New(), Name: "hộp carton", Status: enums.OrderStatusWaiting, CreatedAt: time.Now()},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/board?search=carton", nil)
	resp := httptest.NewRecorder()
	BoardView(store, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	payload := decodeBoardEnvelope(t, resp.Body.Bytes())
	if payload.Search != "carton" {
		t.Fatalf("expected search echoed, got %q", payload.Search)
	}
	if len(payload.Waiting) != 1 || payload.Waiting[0].Name != "hộp carton" {
		t.Fatalf("expected only the matching order, got %+v", payload.Waiting)
	}
	if store.Search() != "carton" {
		t.Fatalf("expected filter persisted, got %q", store.Search())
	}
}

func TestBoardViewWithoutSearchKeepsFilter(t *testing.T) {
	store := board.NewStore(nil, nil)
	store.SetSearch("carton")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/board", nil)
	resp := httptest.NewRecorder()
	BoardView(store, testLogger())(resp, req)

	payload := decodeBoardEnvelope(t, resp.Body.Bytes())
	if payload.Search != "carton" {
		t.Fatalf("expected previous filter kept, got %q", payload.Search)
	}
}

func TestBoardSortTogglesDirection(t *testing.T) {
	store := board.NewStore(nil, nil)

	body := bytes.NewBufferString(`{"column":"waiting","key":"factory"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/board/sort", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	BoardSort(store, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	rule := store.SortRules()[enums.OrderStatusWaiting]
	if rule.Key != enums.SortKeyFactory || rule.Direction != enums.SortAsc {
		t.Fatalf("expected new key ascending, got %+v", rule)
	}

	// Second click on the same key flips the direction.
	body = bytes.NewBufferString(`{"column":"waiting","key":"factory"}`)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/board/sort", body)
	req.Header.Set("Content-Type", "application/json")
	resp = httptest.NewRecorder()
	BoardSort(store, testLogger())(resp, req)

	rule = store.SortRules()[enums.OrderStatusWaiting]
	if rule.Direction != enums.SortDesc {
		t.Fatalf("expected flipped direction, got %+v", rule)
	}
}

func TestBoardSortRejectsUnknownColumn(t *testing.T) {
	store := board.NewStore(nil, nil)

	body := bytes.NewBufferString(`{"column":"archived","key":"factory"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/board/sort", body)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	BoardSort(store, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestBoardToggleActiveRoundTrip(t *testing.T) {
	store := board.NewStore(nil, nil)
	orderID := uuid.New()

	toggle := func() map[string]any {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/board/active/"+orderID.String(), nil)
		req = addRouteParam(req, "orderId", orderID.String())
		resp := httptest.NewRecorder()
		BoardToggleActive(store, testLogger())(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.Code)
		}
		var envelope struct {
			Data map[string]any `json:"data"`
		}
		if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("unmarshal response: %v", err)
		}
		return envelope.Data
	}

	if data := toggle(); data["active"] != true {
		t.Fatalf("expected active true after first toggle, got %v", data["active"])
	}
	if data := toggle(); data["active"] != false {
		t.Fatalf("expected active false after second toggle, got %v", data["active"])
	}
	if len(store.ActiveIDs()) != 0 {
		t.Fatal("expected empty active set after round trip")
	}
}

func TestBoardToggleActiveInvalidID(t *testing.T) {
	store := board.NewStore(nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/board/active/nope", nil)
	req = addRouteParam(req, "orderId", "nope")
	resp := httptest.NewRecorder()
	BoardToggleActive(store, testLogger())(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/api/responses"
	"github.com/donhangtem/orderboard-backend/api/validators"
	"github.com/donhangtem/orderboard-backend/internal/board"
	"github.com/donhangtem/orderboard-backend/internal/orders"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
	pkgerrors "github.com/donhangtem/orderboard-backend/pkg/errors"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
)

type boardViewPayload struct {
	Waiting      []orders.OrderDTO   `json:"waiting"`
	InProduction []orders.OrderDTO   `json:"inProduction"`
	Completed    []orders.OrderDTO   `json:"completed"`
	Ranks        map[uuid.UUID]int   `json:"priority_ranks"`
	SortRules    map[string]sortRule `json:"sort_rules"`
	ActiveIDs    []uuid.UUID         `json:"active_ids"`
	Search       string              `json:"search"`
}

type sortRule struct {
	Key       enums.SortKey       `json:"key"`
	Direction enums.SortDirection `json:"direction"`
}

// BoardView returns the current projection. A `search` query parameter
// updates the shared filter first, mirroring the live-typed search box.
func BoardView(store *board.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("search") {
			store.SetSearch(validators.SanitizeString(r.URL.Query().Get("search"), 200))
		}
		responses.WriteSuccess(w, buildViewPayload(store))
	}
}

type boardSortRequest struct {
	Column string `json:"column" validate:"required"`
	Key    string `json:"key" validate:"required"`
}

// BoardSort applies one sort-button click for a column and returns the
// resulting rule plus the re-projected board.
func BoardSort(store *board.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req boardSortRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		column, err := enums.ParseOrderStatus(req.Column)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid column"))
			return
		}
		key, err := enums.ParseSortKey(req.Key)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sort key"))
			return
		}

		rule := store.ToggleSort(column, key)
		responses.WriteSuccess(w, map[string]any{
			"column": column,
			"rule":   sortRule{Key: rule.Key, Direction: rule.Direction},
			"board":  buildViewPayload(store),
		})
	}
}

// BoardToggleActive flips the "being worked on" annotation for one order.
// The flag is view state only and never reaches the orders table.
func BoardToggleActive(store *board.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		active := store.ToggleActive(id)
		responses.WriteSuccess(w, map[string]any{
			"order_id": id,
			"active":   active,
		})
	}
}

func buildViewPayload(store *board.Store) boardViewPayload {
	view := store.View()
	rules := store.SortRules()

	payload := boardViewPayload{
		Waiting:      orderDTOs(view.Waiting),
		InProduction: orderDTOs(view.InProduction),
		Completed:    orderDTOs(view.Completed),
		Ranks:        view.Ranks,
		SortRules:    make(map[string]sortRule, len(rules)),
		ActiveIDs:    store.ActiveIDs(),
		Search:       store.Search(),
	}
	for column, rule := range rules {
		payload.SortRules[string(column)] = sortRule{Key: rule.Key, Direction: rule.Direction}
	}
	return payload
}

func orderDTOs(items []board.Order) []orders.OrderDTO {
	out := make([]orders.OrderDTO, 0, len(items))
	for _, item := range items {
		out = append(out, orders.OrderDTO{
			ID:           item.ID,
			Name:         item.Name,
			Factory:      item.Factory,
			Quantity:     item.Quantity,
			Unit:         item.Unit,
			DeliveryDate: item.DeliveryDate,
			Status:       item.Status,
			IsUrgent:     item.IsUrgent,
			ImageURL:     item.ImageURL,
			UserID:       item.UserID,
			CompletedAt:  item.CompletedAt,
			CreatedAt:    item.CreatedAt,
			UpdatedAt:    item.UpdatedAt,
		})
	}
	return out
}

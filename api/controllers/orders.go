package controllers

import (
	"net/http"

	"github.com/donhangtem/orderboard-backend/api/responses"
	"github.com/donhangtem/orderboard-backend/api/validators"
	"github.com/donhangtem/orderboard-backend/internal/board"
	"github.com/donhangtem/orderboard-backend/internal/orders"
	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
	pkgerrors "github.com/donhangtem/orderboard-backend/pkg/errors"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
)

// OrderCreate persists the order first, then merges it into the board. The
// server assigns the id, so there is nothing to stage optimistically; the
// change-feed copy of the same insert collapses by id.
func OrderCreate(svc orders.Service, store *board.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input orders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.Actor = actor

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		store.Merge(board.Event{Type: enums.OrderEventInsert, Order: boardOrderFromModel(order)})
		responses.WriteSuccessStatus(w, http.StatusCreated, orders.FromModel(order))
	}
}

// OrderUpdate stages the edit on the board, calls the backend, and either
// confirms with the server row or reverts to the pre-edit snapshot.
func OrderUpdate(svc orders.Service, store *board.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var input orders.UpdateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input.OrderID = id
		input.Actor = actor

		handle, _ := store.StageEdit(id, func(order *board.Order) {
			applyBoardEdit(order, input)
		})

		result, err := svc.Update(r.Context(), input)
		if err != nil {
			store.Revert(handle)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmOrMerge(store, handle, result)
		responses.WriteSuccess(w, orders.FromModel(result))
	}
}

type changeStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

// OrderChangeStatus moves the order between columns with the same
// stage-confirm-revert flow as edits.
func OrderChangeStatus(svc orders.Service, store *board.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req changeStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseOrderStatus(req.Status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order status"))
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		handle, _ := store.StageStatus(id, status)

		result, err := svc.ChangeStatus(r.Context(), id, status, actor)
		if err != nil {
			store.Revert(handle)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmOrMerge(store, handle, result)
		responses.WriteSuccess(w, orders.FromModel(result))
	}
}

func OrderToggleUrgency(svc orders.Service, store *board.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		handle, _ := store.StageUrgency(id)

		result, err := svc.ToggleUrgency(r.Context(), id, actor)
		if err != nil {
			store.Revert(handle)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirmOrMerge(store, handle, result)
		responses.WriteSuccess(w, orders.FromModel(result))
	}
}

// OrderDelete removes the order optimistically and restores it if the
// backend refuses. A delete of an already-gone order still succeeds.
func OrderDelete(svc orders.Service, store *board.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := urlUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		handle, _ := store.StageDelete(id)

		if err := svc.Delete(r.Context(), id, actor); err != nil {
			store.Revert(handle)
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"order_id": id, "deleted": true})
	}
}

// confirmOrMerge finishes the optimistic mutation. When the order was not in
// the store (handle is nil, a race with the change feed) the server row is
// merged as an update instead so the board still converges.
func confirmOrMerge(store *board.Store, handle *board.Handle, result *models.Order) {
	if result == nil {
		return
	}
	serverCopy := boardOrderFromModel(result)
	if handle != nil {
		store.Confirm(handle, &serverCopy)
		return
	}
	store.Merge(board.Event{Type: enums.OrderEventUpdate, Order: serverCopy})
}

func applyBoardEdit(order *board.Order, input orders.UpdateOrderInput) {
	if input.Name != nil {
		order.Name = *input.Name
	}
	if input.Factory != nil {
		order.Factory = *input.Factory
	}
	if input.Quantity != nil {
		qty := *input.Quantity
		order.Quantity = &qty
	}
	if input.Unit != nil {
		order.Unit = *input.Unit
	}
	if input.ClearDeliveryDate {
		order.DeliveryDate = nil
	} else if input.DeliveryDate != nil {
		date := *input.DeliveryDate
		order.DeliveryDate = &date
	}
	if input.ClearImageURL {
		order.ImageURL = nil
	} else if input.ImageURL != nil {
		url := *input.ImageURL
		order.ImageURL = &url
	}
}

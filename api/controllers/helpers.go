package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/api/middleware"
	"github.com/donhangtem/orderboard-backend/internal/board"
	"github.com/donhangtem/orderboard-backend/internal/orders"
	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	"github.com/donhangtem/orderboard-backend/pkg/enums"
	pkgerrors "github.com/donhangtem/orderboard-backend/pkg/errors"
)

func actorFromRequest(r *http.Request) (orders.Actor, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	role, err := enums.ParseUserRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		role = enums.UserRoleStaff
	}
	return orders.Actor{UserID: userID, Role: role}, nil
}

func urlUUID(r *http.Request, param string) (uuid.UUID, error) {
	raw := chi.URLParam(r, param)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").
			WithDetails(map[string]any{"param": param})
	}
	return id, nil
}

func boardOrderFromModel(o *models.Order) board.Order {
	return board.Order{
		ID:           o.ID,
		Name:         o.Name,
		Factory:      o.Factory,
		Quantity:     o.Quantity,
		Unit:         o.Unit,
		DeliveryDate: o.DeliveryDate,
		Status:       o.Status,
		IsUrgent:     o.IsUrgent,
		ImageURL:     o.ImageURL,
		UserID:       o.UserID,
		CompletedAt:  o.CompletedAt,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

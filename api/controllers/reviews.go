package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/donhangtem/orderboard-backend/api/responses"
	"github.com/donhangtem/orderboard-backend/api/validators"
	"github.com/donhangtem/orderboard-backend/internal/reviews"
	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
	"github.com/donhangtem/orderboard-backend/pkg/pagination"
)

type reviewDTO struct {
	ID        uuid.UUID `json:"id"`
	OrderID   uuid.UUID `json:"order_id"`
	UserID    uuid.UUID `json:"user_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

type submitReviewRequest struct {
	Content string `json:"content" validate:"required"`
}

func ReviewList(svc *reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := urlUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, next, err := svc.ListPage(r.Context(), orderID, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"items":       reviewDTOs(items),
			"next_cursor": next,
		})
	}
}

func ReviewSubmit(svc *reviews.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := urlUUID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var req submitReviewRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		review, err := svc.Submit(r.Context(), orderID, actor.UserID, req.Content)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, reviewFromModel(review))
	}
}

func reviewFromModel(review *models.Review) reviewDTO {
	return reviewDTO{
		ID:        review.ID,
		OrderID:   review.OrderID,
		UserID:    review.UserID,
		Content:   review.Content,
		CreatedAt: review.CreatedAt,
	}
}

func reviewDTOs(items []models.Review) []reviewDTO {
	out := make([]reviewDTO, 0, len(items))
	for i := range items {
		out = append(out, reviewFromModel(&items[i]))
	}
	return out
}

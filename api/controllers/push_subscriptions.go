package controllers

import (
	"net/http"

	"github.com/donhangtem/orderboard-backend/api/responses"
	"github.com/donhangtem/orderboard-backend/api/validators"
	"github.com/donhangtem/orderboard-backend/internal/notifications"
	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	pkgerrors "github.com/donhangtem/orderboard-backend/pkg/errors"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
)

type pushSubscriptionRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		P256DH string `json:"p256dh" validate:"required"`
		Auth   string `json:"auth" validate:"required"`
	} `json:"keys" validate:"required"`
}

// PushSubscribe registers the browser's push subscription. The endpoint is
// the natural key, so re-subscribing from the same browser is an upsert.
func PushSubscribe(repo notifications.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pushSubscriptionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		subscription := &models.PushSubscription{
			UserID:   actor.UserID,
			Endpoint: req.Endpoint,
			P256DH:   req.Keys.P256DH,
			Auth:     req.Keys.Auth,
		}
		if err := repo.Upsert(r.Context(), subscription); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store push subscription"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"subscribed": true})
	}
}

type pushUnsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

// PushUnsubscribe drops the subscription for one endpoint. Unknown
// endpoints succeed, matching how browsers retry unsubscription.
func PushUnsubscribe(repo notifications.Repository, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req pushUnsubscribeRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := repo.DeleteByEndpoint(r.Context(), req.Endpoint); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete push subscription"))
			return
		}
		responses.WriteSuccess(w, map[string]any{"subscribed": false})
	}
}

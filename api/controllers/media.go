package controllers

import (
	"errors"
	"net/http"

	"github.com/donhangtem/orderboard-backend/api/responses"
	"github.com/donhangtem/orderboard-backend/api/validators"
	"github.com/donhangtem/orderboard-backend/internal/media"
	pkgerrors "github.com/donhangtem/orderboard-backend/pkg/errors"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
)

// maxMultipartBytes leaves headroom over the service's 10 MiB image cap for
// the multipart framing itself.
const maxMultipartBytes = 11 * 1024 * 1024

// MediaUpload accepts one webp image as the multipart field "file".
func MediaUpload(svc *media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, maxMultipartBytes)
		if err := r.ParseMultipartForm(maxMultipartBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "file too large"))
				return
			}
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid multipart body"))
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "multipart field 'file' required"))
			return
		}
		defer file.Close()

		output, err := svc.Upload(r.Context(), media.UploadInput{
			UserID:      actor.UserID,
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Size:        header.Size,
			Body:        file,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, output)
	}
}

type mediaDeleteRequest struct {
	ObjectPath string `json:"object_path" validate:"required"`
}

// MediaDelete removes one stored image by its object path. Deleting an
// object that is already gone succeeds.
func MediaDelete(svc *media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req mediaDeleteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.RemoveByPath(r.Context(), req.ObjectPath); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"object_path": req.ObjectPath, "deleted": true})
	}
}

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"

	pkgerrors "github.com/donhangtem/orderboard-backend/pkg/errors"
	"github.com/donhangtem/orderboard-backend/pkg/logger"
	"github.com/donhangtem/orderboard-backend/pkg/storage/gcs"
)

const (
	maxUploadBytes  = 10 * 1024 * 1024
	webpContentType = "image/webp"
)

type objectStore interface {
	Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error)
	Delete(ctx context.Context, object string) error
	PublicURL(object string) string
	ObjectFromURL(rawURL string) string
}

// Clock supplies upload timestamps; swapped out in tests.
type Clock func() int64

// Service stores order images. Images are always webp, keyed as
// userID/unixms-name.webp inside the configured bucket.
type Service struct {
	store objectStore
	logg  *logger.Logger
	nowMS Clock
}

// UploadInput describes one incoming order image.
type UploadInput struct {
	UserID      uuid.UUID
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadOutput returns where the image landed.
type UploadOutput struct {
	ObjectPath string `json:"object_path"`
	PublicURL  string `json:"public_url"`
}

// NewService builds the media service over a GCS-backed object store.
func NewService(store objectStore, logg *logger.Logger, nowMS Clock) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if nowMS == nil {
		return nil, fmt.Errorf("clock required")
	}
	return &Service{store: store, logg: logg, nowMS: nowMS}, nil
}

// Upload validates and stores one webp image.
func (s *Service) Upload(ctx context.Context, input UploadInput) (*UploadOutput, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file body required")
	}
	if input.Size > maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file too large")
	}
	if !strings.EqualFold(input.ContentType, webpContentType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order images must be webp")
	}

	object := s.buildObjectPath(input.UserID, input.FileName)
	url, err := s.store.Upload(ctx, object, webpContentType, input.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload image")
	}
	return &UploadOutput{ObjectPath: object, PublicURL: url}, nil
}

// RemoveByURL deletes the object behind a public URL. Unknown URLs and
// already-deleted objects are successes.
func (s *Service) RemoveByURL(ctx context.Context, rawURL string) error {
	object := s.store.ObjectFromURL(rawURL)
	if object == "" {
		if s.logg != nil {
			s.logg.Warn(ctx, "image url outside managed bucket, skipping delete")
		}
		return nil
	}
	return s.RemoveByPath(ctx, object)
}

// RemoveByPath deletes one stored object; absence is a success.
func (s *Service) RemoveByPath(ctx context.Context, object string) error {
	if strings.TrimSpace(object) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "object path required")
	}
	if err := s.store.Delete(ctx, object); err != nil {
		if errors.Is(err, gcs.ErrObjectNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete image")
	}
	return nil
}

// Cleanup drops an uploaded object after a failed follow-up write, so a
// crashed order save does not leave orphans behind. Failures are logged only.
func (s *Service) Cleanup(ctx context.Context, object string) {
	if err := s.RemoveByPath(ctx, object); err != nil && s.logg != nil {
		s.logg.Error(ctx, "cleanup orphaned image", err)
	}
}

func (s *Service) buildObjectPath(userID uuid.UUID, fileName string) string {
	name := sanitizeFileName(fileName)
	if name == "" {
		name = "image"
	}
	name = strings.TrimSuffix(name, path.Ext(name))
	return fmt.Sprintf("%s/%d-%s.webp", userID, s.nowMS(), name)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" || clean == "." || clean == "/" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}

package reviews

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/donhangtem/orderboard-backend/pkg/db/models"
	pkgerrors "github.com/donhangtem/orderboard-backend/pkg/errors"
	"github.com/donhangtem/orderboard-backend/pkg/pagination"
)

type reviewRepository interface {
	Create(ctx context.Context, review *models.Review) error
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Review, error)
	ListByOrderPage(ctx context.Context, orderID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Review, error)
}

type orderFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
}

// Service handles review submission and listing for an order.
type Service struct {
	repo   reviewRepository
	orders orderFinder
}

// NewService builds the reviews service.
func NewService(repo reviewRepository, orders orderFinder) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if orders == nil {
		return nil, fmt.Errorf("order finder required")
	}
	return &Service{repo: repo, orders: orders}, nil
}

// Submit attaches a non-empty note to an existing order.
func (s *Service) Submit(ctx context.Context, orderID, userID uuid.UUID, content string) (*models.Review, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "review content cannot be empty")
	}

	if _, err := s.orders.FindByID(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}

	review := &models.Review{
		OrderID: orderID,
		UserID:  userID,
		Content: trimmed,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert review")
	}
	return review, nil
}

// List returns the order's reviews newest first.
func (s *Service) List(ctx context.Context, orderID uuid.UUID) ([]models.Review, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	reviews, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return reviews, nil
}

// ListPage returns one page of the order's reviews newest first, plus the
// cursor for the next page when more remain.
func (s *Service) ListPage(ctx context.Context, orderID uuid.UUID, params pagination.Params) ([]models.Review, string, error) {
	if orderID == uuid.Nil {
		return nil, "", pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	reviews, err := s.repo.ListByOrderPage(ctx, orderID, cursor, pagination.LimitWithBuffer(params.Limit))
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}

	next := ""
	if len(reviews) > limit {
		reviews = reviews[:limit]
		last := reviews[len(reviews)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return reviews, next, nil
}

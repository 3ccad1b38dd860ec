package service

import (
	"context"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/model"
)

type ReviewStore interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	CreateReview(ctx context.Context, r *model.Review) error
	GetReview(ctx context.Context, id int64) (*model.Review, error)
	ListReviews(ctx context.Context, vendorID *int64, page Page) ([]model.Review, error)
	DeleteReview(ctx context.Context, id int64) error
	RefreshVendorRating(ctx context.Context, vendorID int64) error
}

type ReviewService struct {
	store ReviewStore
}

func NewReviewService(store ReviewStore) *ReviewService {
	return &ReviewService{store: store}
}

type ReviewInput struct {
	OrderID int64  `json:"order_id" validate:"required,gt=0"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (s *ReviewService) Reviews(ctx context.Context, vendorID *int64, page Page) ([]model.Review, error) {
	return s.store.ListReviews(ctx, vendorID, page)
}

// Create reviews a delivered order of the customer. Each order is reviewed once.
func (s *ReviewService) Create(ctx context.Context, customerID int64, in ReviewInput) (*model.Review, error) {
	if err := check(in).OrNil(); err != nil {
		return nil, err
	}

	order, err := s.store.GetOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, apperr.NotFound("order", in.OrderID)
	}
	if order.Status != model.OrderDelivered {
		return nil, apperr.Invalid("order_id", "only delivered orders can be reviewed")
	}

	review := &model.Review{
		OrderID:    order.ID,
		CustomerID: customerID,
		VendorID:   order.VendorID,
		Rating:     in.Rating,
		Comment:    in.Comment,
	}
	err = s.store.RunAtomic(ctx, func(ctx context.Context) error {
		if err := s.store.CreateReview(ctx, review); err != nil {
			return err
		}
		return s.store.RefreshVendorRating(ctx, review.VendorID)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *ReviewService) Delete(ctx context.Context, id int64) error {
	return s.store.RunAtomic(ctx, func(ctx context.Context) error {
		review, err := s.store.GetReview(ctx, id)
		if err != nil {
			return err
		}
		if err := s.store.DeleteReview(ctx, id); err != nil {
			return err
		}
		return s.store.RefreshVendorRating(ctx, review.VendorID)
	})
}

package service

import (
	"context"
	"fmt"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/cart"
	"fsanano/food-market/internal/model"
)

type DishFinder interface {
	GetDish(ctx context.Context, id int64) (*model.Dish, error)
}

// StorageFor returns the durable storage holding one user's cart and theme.
type StorageFor func(userID int64) cart.Storage

// CartService drives a user's server-side cart. Every call loads the cart,
// applies one mutation and persists it again.
type CartService struct {
	storage StorageFor
	dishes  DishFinder
}

func NewCartService(storage StorageFor, dishes DishFinder) *CartService {
	return &CartService{storage: storage, dishes: dishes}
}

// CartView is the cart with its derived totals.
type CartView struct {
	Lines         []cart.Line `json:"items"`
	Total         int64       `json:"total"`
	TotalItems    int         `json:"total_items"`
	TotalDiscount int64       `json:"total_discount"`
	Message       string      `json:"-"`
}

func view(c *cart.Cart, message string) *CartView {
	return &CartView{
		Lines:         c.Lines(),
		Total:         c.Total(),
		TotalItems:    c.TotalItems(),
		TotalDiscount: c.TotalDiscount(),
		Message:       message,
	}
}

func (s *CartService) load(ctx context.Context, userID int64) (*cart.Cart, error) {
	c, err := cart.Load(ctx, s.storage(userID), cart.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return c, nil
}

func (s *CartService) Get(ctx context.Context, userID int64) (*CartView, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	return view(c, ""), nil
}

// Add puts quantity portions of a dish in the cart at its current price.
func (s *CartService) Add(ctx context.Context, userID, dishID int64, quantity int) (*CartView, error) {
	if quantity < 1 {
		return nil, apperr.Invalid("quantity", "must be at least 1")
	}
	dish, err := s.dishes.GetDish(ctx, dishID)
	if err != nil {
		return nil, err
	}
	if !dish.IsAvailable {
		return nil, apperr.Invalid("dish_id", fmt.Sprintf("%s is not available", dish.Name))
	}

	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	msg, err := c.Add(ctx, cart.Item{
		ID:              dish.ID,
		Name:            dish.Name,
		Price:           dish.Price,
		DiscountedPrice: dish.DiscountedPrice,
		VendorID:        dish.VendorID,
	}, quantity)
	if err != nil {
		return nil, err
	}
	return view(c, msg), nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, userID, dishID int64, quantity int) (*CartView, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.UpdateQuantity(ctx, dishID, quantity); err != nil {
		return nil, err
	}
	return view(c, "Cart updated"), nil
}

func (s *CartService) Remove(ctx context.Context, userID, dishID int64) (*CartView, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.Remove(ctx, dishID); err != nil {
		return nil, err
	}
	return view(c, "Item removed from cart"), nil
}

func (s *CartService) Clear(ctx context.Context, userID int64) (*CartView, error) {
	c, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := c.Clear(ctx); err != nil {
		return nil, err
	}
	return view(c, "Cart cleared"), nil
}

func (s *CartService) Theme(ctx context.Context, userID int64) (cart.Theme, error) {
	return cart.LoadTheme(ctx, s.storage(userID), cart.ThemeKey)
}

func (s *CartService) SetTheme(ctx context.Context, userID int64, t cart.Theme) error {
	return cart.SaveTheme(ctx, s.storage(userID), cart.ThemeKey, t)
}

// UserStoragePrefix namespaces one user's keys in shared storage.
func UserStoragePrefix(userID int64) string {
	return fmt.Sprintf("user:%d:", userID)
}

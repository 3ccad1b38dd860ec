package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/geo"
	"fsanano/food-market/internal/model"
	"fsanano/food-market/internal/notification"
	"fsanano/food-market/internal/repository"
	"fsanano/food-market/internal/service/routing"
)

type OrderStore interface {
	RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error
	GetDishForUpdate(ctx context.Context, id int64) (*model.Dish, error)
	UpdateDishStock(ctx context.Context, dishID int64, quantity int) error
	CreateOrder(ctx context.Context, o *model.Order) error
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
	GetOrderForUpdate(ctx context.Context, id int64) (*model.Order, error)
	ListOrders(ctx context.Context, f repository.OrderFilter, page Page) ([]model.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) error
	GetLocation(ctx context.Context, id int64) (*model.UserLocation, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
	GetVendorProfile(ctx context.Context, id int64) (*model.VendorProfile, error)
}

type RouteEstimator interface {
	Estimate(ctx context.Context, from, to geo.Point) (*routing.Estimate, error)
}

type OrderService struct {
	store    OrderStore
	notifier Notifier
	routes   RouteEstimator
}

func NewOrderService(store OrderStore, notifier Notifier, routes RouteEstimator) *OrderService {
	return &OrderService{store: store, notifier: notifier, routes: routes}
}

// OrderScope restricts order access to one customer or one vendor.
// The zero value is unrestricted and is used for admins.
type OrderScope struct {
	CustomerID *int64
	VendorID   *int64
}

func CustomerScope(id int64) OrderScope { return OrderScope{CustomerID: &id} }
func VendorScope(id int64) OrderScope   { return OrderScope{VendorID: &id} }

func (sc OrderScope) allows(o *model.Order) bool {
	if sc.CustomerID != nil && o.CustomerID != *sc.CustomerID {
		return false
	}
	if sc.VendorID != nil && o.VendorID != *sc.VendorID {
		return false
	}
	return true
}

func (sc OrderScope) filter(status model.OrderStatus) repository.OrderFilter {
	return repository.OrderFilter{CustomerID: sc.CustomerID, VendorID: sc.VendorID, Status: status}
}

type OrderItemInput struct {
	DishID   int64 `json:"dish_id" validate:"gt=0"`
	Quantity int   `json:"quantity" validate:"min=1"`
}

type PlaceOrderInput struct {
	Items      []OrderItemInput `json:"items" validate:"required,min=1,max=50,dive"`
	LocationID *int64           `json:"location_id" validate:"omitempty,gt=0"`
	Address    string           `json:"address" validate:"required_without=LocationID,max=500"`
	Latitude   *float64         `json:"latitude" validate:"required_with=Longitude,omitempty,latitude"`
	Longitude  *float64         `json:"longitude" validate:"required_with=Latitude,omitempty,longitude"`
	Notes      string           `json:"notes" validate:"max=1000"`
}

func (in PlaceOrderInput) validate() error {
	v := check(in)
	seen := make(map[int64]bool, len(in.Items))
	for i, item := range in.Items {
		if seen[item.DishID] {
			v.Add(fmt.Sprintf("items.%d.dish_id", i), "is listed more than once")
		}
		seen[item.DishID] = true
	}
	return v.OrNil()
}

// PlaceOrder creates a pending order for customer. Dish rows are locked while
// availability and stock are checked, and prices are snapshotted at the
// dish's effective price.
func (s *OrderService) PlaceOrder(ctx context.Context, customer *model.User, in PlaceOrderInput) (*model.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	order := &model.Order{
		CustomerID:      customer.ID,
		Status:          model.OrderPending,
		DeliveryAddress: strings.TrimSpace(in.Address),
		DeliveryLat:     in.Latitude,
		DeliveryLng:     in.Longitude,
		Notes:           in.Notes,
	}

	if in.LocationID != nil {
		loc, err := s.store.GetLocation(ctx, *in.LocationID)
		if err != nil {
			return nil, err
		}
		if loc.UserID != customer.ID {
			return nil, apperr.NotFound("location", *in.LocationID)
		}
		order.DeliveryAddress = loc.Address
		order.DeliveryLat = &loc.Latitude
		order.DeliveryLng = &loc.Longitude
	}

	// Lock dishes in id order so concurrent orders cannot deadlock.
	items := make([]OrderItemInput, len(in.Items))
	copy(items, in.Items)
	sort.Slice(items, func(i, j int) bool { return items[i].DishID < items[j].DishID })

	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		order.Items = order.Items[:0]
		order.Total = 0

		for _, item := range items {
			dish, err := s.store.GetDishForUpdate(ctx, item.DishID)
			if err != nil {
				return err
			}
			if !dish.IsAvailable {
				return apperr.Invalid("items", fmt.Sprintf("%s is not available", dish.Name))
			}
			if order.VendorID == 0 {
				order.VendorID = dish.VendorID
			} else if dish.VendorID != order.VendorID {
				return apperr.Invalid("items", "all dishes must come from the same vendor")
			}
			if dish.Stock != nil && *dish.Stock < item.Quantity {
				return apperr.Conflict(fmt.Sprintf("insufficient stock for %s", dish.Name))
			}

			if err := s.store.UpdateDishStock(ctx, dish.ID, item.Quantity); err != nil {
				return err
			}

			unit := dish.EffectivePrice()
			order.Items = append(order.Items, model.OrderItem{
				DishID:    dish.ID,
				Name:      dish.Name,
				UnitPrice: unit,
				Quantity:  item.Quantity,
			})
			order.Total += unit * int64(item.Quantity)
		}

		return s.store.CreateOrder(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, customer, order, fmt.Sprintf("Order #%d received", order.ID),
		fmt.Sprintf("Your order #%d has been placed and is waiting for the vendor.", order.ID))
	return order, nil
}

func (s *OrderService) Orders(ctx context.Context, scope OrderScope, status model.OrderStatus, page Page) ([]model.Order, error) {
	if status != "" && !status.Valid() {
		return nil, apperr.Invalid("status", "is not a known order status")
	}
	return s.store.ListOrders(ctx, scope.filter(status), page)
}

func (s *OrderService) Order(ctx context.Context, scope OrderScope, id int64) (*model.Order, error) {
	o, err := s.store.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !scope.allows(o) {
		return nil, apperr.NotFound("order", id)
	}
	return o, nil
}

// UpdateStatus moves an order along its status machine. Cancelling returns
// the ordered portions to stock.
func (s *OrderService) UpdateStatus(ctx context.Context, scope OrderScope, id int64, next model.OrderStatus) (*model.Order, error) {
	if !next.Valid() {
		return nil, apperr.Invalid("status", "is not a known order status")
	}
	return s.transition(ctx, scope, id, next, nil)
}

// Cancel cancels the customer's own order while it is still pending.
func (s *OrderService) Cancel(ctx context.Context, customerID, id int64) (*model.Order, error) {
	return s.transition(ctx, CustomerScope(customerID), id, model.OrderCancelled, func(o *model.Order) error {
		if o.Status != model.OrderPending {
			return apperr.Invalid("status", "only pending orders can be cancelled")
		}
		return nil
	})
}

func (s *OrderService) transition(ctx context.Context, scope OrderScope, id int64, next model.OrderStatus, guard func(*model.Order) error) (*model.Order, error) {
	var order *model.Order
	err := s.store.RunAtomic(ctx, func(ctx context.Context) error {
		locked, err := s.store.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !scope.allows(locked) {
			return apperr.NotFound("order", id)
		}
		if guard != nil {
			if err := guard(locked); err != nil {
				return err
			}
		}
		if !locked.Status.CanTransitionTo(next) {
			return apperr.Invalid("status", fmt.Sprintf("cannot change order from %s to %s", locked.Status, next))
		}
		if err := s.store.UpdateOrderStatus(ctx, id, next); err != nil {
			return err
		}

		order, err = s.store.GetOrder(ctx, id)
		if err != nil {
			return err
		}
		if next == model.OrderCancelled {
			for _, item := range order.Items {
				if err := s.store.UpdateDishStock(ctx, item.DishID, -item.Quantity); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// The status change is committed; a missing customer only skips the notification.
	customer, err := s.store.GetUserByID(ctx, order.CustomerID)
	if err != nil {
		return order, nil
	}
	s.notify(ctx, customer, order, fmt.Sprintf("Order #%d is %s", order.ID, statusLabel(next)),
		fmt.Sprintf("Your order #%d is now %s.", order.ID, statusLabel(next)))
	return order, nil
}

// Route estimates the delivery route from the order's vendor to its drop-off point.
func (s *OrderService) Route(ctx context.Context, scope OrderScope, id int64) (*routing.Estimate, error) {
	o, err := s.Order(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if o.DeliveryLat == nil || o.DeliveryLng == nil {
		return nil, apperr.Invalid("delivery", "order has no delivery coordinates")
	}
	vendor, err := s.store.GetVendorProfile(ctx, o.VendorID)
	if err != nil {
		return nil, err
	}
	return s.routes.Estimate(ctx,
		geo.Point{Lat: vendor.Latitude, Lng: vendor.Longitude},
		geo.Point{Lat: *o.DeliveryLat, Lng: *o.DeliveryLng})
}

func (s *OrderService) notify(ctx context.Context, customer *model.User, o *model.Order, title, body string) {
	s.notifier.Notify(ctx, notification.Event{
		Type:  notification.DeliveryUpdate,
		Title: title,
		Body:  body,
		Payload: map[string]any{
			"order_id": o.ID,
			"status":   o.Status,
		},
		Target: customer,
	})
}

func statusLabel(s model.OrderStatus) string {
	return strings.ReplaceAll(string(s), "_", " ")
}

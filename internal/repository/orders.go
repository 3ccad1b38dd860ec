package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"fsanano/food-market/internal/model"
)

const orderColumns = `id, customer_id, vendor_id, status, total, delivery_address, delivery_lat, delivery_lng, notes, created_at, updated_at`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(&o.ID, &o.CustomerID, &o.VendorID, &o.Status, &o.Total, &o.DeliveryAddress,
		&o.DeliveryLat, &o.DeliveryLng, &o.Notes, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrder inserts the order and its items. Call it inside RunAtomic.
func (r *Repository) CreateOrder(ctx context.Context, o *model.Order) error {
	exec := r.getExecutor(ctx)
	err := exec.QueryRow(ctx,
		`INSERT INTO orders (customer_id, vendor_id, status, total, delivery_address, delivery_lat, delivery_lng, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		o.CustomerID, o.VendorID, o.Status, o.Total, o.DeliveryAddress, o.DeliveryLat, o.DeliveryLng, o.Notes,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range o.Items {
		item := &o.Items[i]
		item.OrderID = o.ID
		err := exec.QueryRow(ctx,
			`INSERT INTO order_items (order_id, dish_id, name, unit_price, quantity)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			item.OrderID, item.DishID, item.Name, item.UnitPrice, item.Quantity,
		).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

// GetOrder returns the order with its items.
func (r *Repository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "order", id)
	}

	rows, err := r.getExecutor(ctx).Query(ctx,
		`SELECT id, order_id, dish_id, name, unit_price, quantity FROM order_items WHERE order_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	defer rows.Close()

	o.Items = []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.DishID, &it.Name, &it.UnitPrice, &it.Quantity); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, it)
	}
	return o, rows.Err()
}

// OrderFilter narrows ListOrders; nil or empty fields are not filtered on.
type OrderFilter struct {
	CustomerID *int64
	VendorID   *int64
	Status     model.OrderStatus
}

func (r *Repository) ListOrders(ctx context.Context, f OrderFilter, page Page) ([]model.Order, error) {
	page = page.normalized()

	var (
		where []string
		args  []any
	)
	if f.CustomerID != nil {
		args = append(args, *f.CustomerID)
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if f.VendorID != nil {
		args = append(args, *f.VendorID)
		where = append(where, fmt.Sprintf("vendor_id = $%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}

	sql := `SELECT ` + orderColumns + ` FROM orders`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, page.Limit, page.Offset)
	sql += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.getExecutor(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []model.Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}
	return orders, rows.Err()
}

// GetOrderForUpdate locks the order row for the rest of the transaction.
func (r *Repository) GetOrderForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	o, err := scanOrder(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "order", id)
	}
	return o, nil
}

func (r *Repository) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) error {
	tag, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}
	return requireAffected(tag, "order", id)
}

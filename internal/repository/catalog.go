package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/model"
)

func (r *Repository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.getExecutor(ctx).Query(ctx, `SELECT id, name, description, created_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *Repository) CreateCategory(ctx context.Context, c *model.Category) error {
	err := r.getExecutor(ctx).QueryRow(ctx,
		`INSERT INTO categories (name, description) VALUES ($1, $2) RETURNING id, created_at`,
		c.Name, c.Description,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("category already exists")
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *Repository) UpdateCategory(ctx context.Context, c *model.Category) error {
	err := r.getExecutor(ctx).QueryRow(ctx,
		`UPDATE categories SET name = $1, description = $2 WHERE id = $3 RETURNING created_at`,
		c.Name, c.Description, c.ID,
	).Scan(&c.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflict("category already exists")
		}
		return notFound(err, "category", c.ID)
	}
	return nil
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	tag, err := r.getExecutor(ctx).Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireAffected(tag, "category", id)
}

const dishColumns = `id, vendor_id, category_id, name, description, price, discounted_price, stock, is_available, created_at, updated_at`

func scanDish(row pgx.Row) (*model.Dish, error) {
	var d model.Dish
	err := row.Scan(&d.ID, &d.VendorID, &d.CategoryID, &d.Name, &d.Description, &d.Price,
		&d.DiscountedPrice, &d.Stock, &d.IsAvailable, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DishFilter narrows ListDishes; nil fields are not filtered on.
type DishFilter struct {
	VendorID      *int64
	CategoryID    *int64
	AvailableOnly bool
}

func (r *Repository) ListDishes(ctx context.Context, f DishFilter, page Page) ([]model.Dish, error) {
	page = page.normalized()

	var (
		where []string
		args  []any
	)
	if f.VendorID != nil {
		args = append(args, *f.VendorID)
		where = append(where, fmt.Sprintf("vendor_id = $%d", len(args)))
	}
	if f.CategoryID != nil {
		args = append(args, *f.CategoryID)
		where = append(where, fmt.Sprintf("category_id = $%d", len(args)))
	}
	if f.AvailableOnly {
		where = append(where, "is_available")
	}

	sql := `SELECT ` + dishColumns + ` FROM dishes`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, page.Limit, page.Offset)
	sql += fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.getExecutor(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list dishes: %w", err)
	}
	defer rows.Close()

	dishes := []model.Dish{}
	for rows.Next() {
		d, err := scanDish(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dish: %w", err)
		}
		dishes = append(dishes, *d)
	}
	return dishes, rows.Err()
}

func (r *Repository) GetDish(ctx context.Context, id int64) (*model.Dish, error) {
	d, err := scanDish(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+dishColumns+` FROM dishes WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err, "dish", id)
	}
	return d, nil
}

// GetDishForUpdate locks the dish row for the rest of the transaction.
func (r *Repository) GetDishForUpdate(ctx context.Context, id int64) (*model.Dish, error) {
	d, err := scanDish(r.getExecutor(ctx).QueryRow(ctx, `SELECT `+dishColumns+` FROM dishes WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, notFound(err, "dish", id)
	}
	return d, nil
}

func (r *Repository) CreateDish(ctx context.Context, d *model.Dish) error {
	err := r.getExecutor(ctx).QueryRow(ctx,
		`INSERT INTO dishes (vendor_id, category_id, name, description, price, discounted_price, stock, is_available)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		d.VendorID, d.CategoryID, d.Name, d.Description, d.Price, d.DiscountedPrice, d.Stock, d.IsAvailable,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create dish: %w", err)
	}
	return nil
}

func (r *Repository) UpdateDish(ctx context.Context, d *model.Dish) error {
	err := r.getExecutor(ctx).QueryRow(ctx,
		`UPDATE dishes
		 SET category_id = $1, name = $2, description = $3, price = $4, discounted_price = $5,
		     stock = $6, is_available = $7, updated_at = now()
		 WHERE id = $8
		 RETURNING updated_at`,
		d.CategoryID, d.Name, d.Description, d.Price, d.DiscountedPrice, d.Stock, d.IsAvailable, d.ID,
	).Scan(&d.UpdatedAt)
	if err != nil {
		return notFound(err, "dish", d.ID)
	}
	return nil
}

func (r *Repository) DeleteDish(ctx context.Context, id int64) error {
	tag, err := r.getExecutor(ctx).Exec(ctx, `DELETE FROM dishes WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.Conflict("dish has been ordered and cannot be deleted")
		}
		return fmt.Errorf("failed to delete dish: %w", err)
	}
	return requireAffected(tag, "dish", id)
}

// UpdateDishStock decrements the dish's remaining portions when it tracks stock.
func (r *Repository) UpdateDishStock(ctx context.Context, dishID int64, quantity int) error {
	_, err := r.getExecutor(ctx).Exec(ctx,
		`UPDATE dishes SET stock = stock - $1 WHERE id = $2 AND stock IS NOT NULL`, quantity, dishID)
	if err != nil {
		return fmt.Errorf("failed to update dish stock: %w", err)
	}
	return nil
}

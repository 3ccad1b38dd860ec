// Package cart holds a shopping cart keyed by item id and persists it after
// every mutation.
package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"fsanano/food-market/internal/apperr"
)

// Line is one item in the cart with a price snapshot. Prices are minor units.
type Line struct {
	ItemID          int64  `json:"id"`
	Name            string `json:"name"`
	Price           int64  `json:"price"`
	DiscountedPrice *int64 `json:"discounted_price,omitempty"`
	Quantity        int    `json:"quantity"`
	VendorID        int64  `json:"vendor_id"`
}

// UnitPrice is the discounted price if present, else the list price.
func (l Line) UnitPrice() int64 {
	if l.DiscountedPrice != nil {
		return *l.DiscountedPrice
	}
	return l.Price
}

// Item is what gets added; quantity is given separately.
type Item struct {
	ID              int64
	Name            string
	Price           int64
	DiscountedPrice *int64
	VendorID        int64
}

type Cart struct {
	store Storage
	key   string
	lines []Line
}

// Load hydrates the cart stored under key. Missing or malformed data yields
// an empty cart; only a storage failure is returned as an error.
func Load(ctx context.Context, store Storage, key string) (*Cart, error) {
	c := &Cart{store: store, key: key}

	data, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return c, nil
	}

	var lines []Line
	if err := json.Unmarshal(data, &lines); err != nil {
		return c, nil
	}
	c.lines = sanitize(lines)
	return c, nil
}

// sanitize drops lines that break the cart invariants: unique ids, quantity >= 1.
func sanitize(lines []Line) []Line {
	seen := make(map[int64]bool, len(lines))
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.Quantity < 1 || seen[l.ItemID] {
			continue
		}
		seen[l.ItemID] = true
		out = append(out, l)
	}
	return out
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) index(itemID int64) int {
	for i, l := range c.lines {
		if l.ItemID == itemID {
			return i
		}
	}
	return -1
}

// Add puts quantity of item in the cart, increasing an existing line rather
// than appending a duplicate. It returns a confirmation for the user.
func (c *Cart) Add(ctx context.Context, item Item, quantity int) (string, error) {
	if quantity < 1 {
		return "", apperr.Invalid("quantity", "must be at least 1")
	}

	next := c.Lines()
	var msg string
	if i := c.index(item.ID); i >= 0 {
		next[i].Quantity += quantity
		msg = fmt.Sprintf("Added %d more %s of %s to cart", quantity, plural(quantity, "item", "items"), item.Name)
	} else {
		next = append(next, Line{
			ItemID:          item.ID,
			Name:            item.Name,
			Price:           item.Price,
			DiscountedPrice: item.DiscountedPrice,
			Quantity:        quantity,
			VendorID:        item.VendorID,
		})
		if quantity == 1 {
			msg = fmt.Sprintf("%s added to cart", item.Name)
		} else {
			msg = fmt.Sprintf("%d %s of %s added to cart", quantity, plural(quantity, "item", "items"), item.Name)
		}
	}

	if err := c.commit(ctx, next); err != nil {
		return "", err
	}
	return msg, nil
}

// Remove deletes the line for itemID; removing an absent item is a no-op.
func (c *Cart) Remove(ctx context.Context, itemID int64) error {
	i := c.index(itemID)
	if i < 0 {
		return nil
	}
	next := make([]Line, 0, len(c.lines)-1)
	next = append(next, c.lines[:i]...)
	next = append(next, c.lines[i+1:]...)
	return c.commit(ctx, next)
}

// UpdateQuantity overwrites the quantity of itemID; quantity <= 0 removes it.
func (c *Cart) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity <= 0 {
		return c.Remove(ctx, itemID)
	}
	i := c.index(itemID)
	if i < 0 {
		return nil
	}
	next := c.Lines()
	next[i].Quantity = quantity
	return c.commit(ctx, next)
}

func (c *Cart) Clear(ctx context.Context) error {
	return c.commit(ctx, []Line{})
}

// commit persists next and only then makes it the cart state.
func (c *Cart) commit(ctx context.Context, next []Line) error {
	if next == nil {
		next = []Line{}
	}
	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("failed to encode cart: %w", err)
	}
	if err := c.store.Set(ctx, c.key, data); err != nil {
		return fmt.Errorf("failed to save cart: %w", err)
	}
	c.lines = next
	return nil
}

func (c *Cart) Total() int64 {
	var total int64
	for _, l := range c.lines {
		total += l.UnitPrice() * int64(l.Quantity)
	}
	return total
}

func (c *Cart) TotalItems() int {
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

func (c *Cart) TotalDiscount() int64 {
	var discount int64
	for _, l := range c.lines {
		if l.DiscountedPrice != nil {
			discount += (l.Price - *l.DiscountedPrice) * int64(l.Quantity)
		}
	}
	return discount
}

func (c *Cart) Contains(itemID int64) bool {
	return c.index(itemID) >= 0
}

func (c *Cart) Get(itemID int64) (Line, bool) {
	if i := c.index(itemID); i >= 0 {
		return c.lines[i], true
	}
	return Line{}, false
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

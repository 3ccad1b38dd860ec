package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/geo"
	"fsanano/food-market/internal/model"
	"fsanano/food-market/internal/notification"
	"fsanano/food-market/internal/repository"
)

// memStore is an in-memory stand-in for the postgres repository.
type memStore struct {
	mu sync.Mutex

	users         map[int64]*model.User
	vendors       map[int64]*model.VendorProfile
	categories    map[int64]*model.Category
	dishes        map[int64]*model.Dish
	orders        map[int64]*model.Order
	reviews       map[int64]*model.Review
	conversations map[uuid.UUID]*model.Conversation
	messages      []model.Message
	locations     map[int64]*model.UserLocation
	notifications []model.Notification

	nextID int64
}

func newMemStore() *memStore {
	return &memStore{
		users:         map[int64]*model.User{},
		vendors:       map[int64]*model.VendorProfile{},
		categories:    map[int64]*model.Category{},
		dishes:        map[int64]*model.Dish{},
		orders:        map[int64]*model.Order{},
		reviews:       map[int64]*model.Review{},
		conversations: map[uuid.UUID]*model.Conversation{},
		locations:     map[int64]*model.UserLocation{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

// RunAtomic snapshots dishes and orders and restores them when fn fails.
func (m *memStore) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	m.mu.Lock()
	dishes := make(map[int64]model.Dish, len(m.dishes))
	for id, d := range m.dishes {
		cp := *d
		if d.Stock != nil {
			s := *d.Stock
			cp.Stock = &s
		}
		dishes[id] = cp
	}
	orders := make(map[int64]model.Order, len(m.orders))
	for id, o := range m.orders {
		orders[id] = *o
	}
	m.mu.Unlock()

	if err := fn(ctx); err != nil {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.dishes = map[int64]*model.Dish{}
		for id, d := range dishes {
			d := d
			m.dishes[id] = &d
		}
		m.orders = map[int64]*model.Order{}
		for id, o := range orders {
			o := o
			m.orders[id] = &o
		}
		return err
	}
	return nil
}

func (m *memStore) addUser(u *model.User) *model.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == 0 {
		u.ID = m.id()
	}
	if u.Status == "" {
		u.Status = model.StatusActive
	}
	m.users[u.ID] = u
	return u
}

func (m *memStore) addVendor(v *model.VendorProfile) *model.VendorProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = m.id()
	m.vendors[v.ID] = v
	return v
}

func (m *memStore) addDish(d *model.Dish) *model.Dish {
	m.mu.Lock()
	defer m.mu.Unlock()
	d.ID = m.id()
	m.dishes[d.ID] = d
	return d
}

func (m *memStore) CreateUser(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperr.Conflict("email already registered")
		}
	}
	u.ID = m.id()
	m.users[u.ID] = u
	return nil
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperr.NotFound("user", email)
}

func (m *memStore) ListUsers(_ context.Context, _ repository.Page) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.User{}
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) UpdateUserStatus(_ context.Context, id int64, status model.UserStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	u.Status = status
	return nil
}

func (m *memStore) ListCategories(context.Context) ([]model.Category, error) {
	out := []model.Category{}
	for _, c := range m.categories {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memStore) CreateCategory(_ context.Context, c *model.Category) error {
	c.ID = m.id()
	m.categories[c.ID] = c
	return nil
}

func (m *memStore) UpdateCategory(_ context.Context, c *model.Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return apperr.NotFound("category", c.ID)
	}
	m.categories[c.ID] = c
	return nil
}

func (m *memStore) DeleteCategory(_ context.Context, id int64) error {
	delete(m.categories, id)
	return nil
}

func (m *memStore) ListVendors(_ context.Context, verifiedOnly bool, _ repository.Page) ([]model.VendorProfile, error) {
	out := []model.VendorProfile{}
	for _, v := range m.vendors {
		if v.IsVerified || !verifiedOnly {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *memStore) GetVendorProfile(_ context.Context, id int64) (*model.VendorProfile, error) {
	v, ok := m.vendors[id]
	if !ok {
		return nil, apperr.NotFound("vendor", id)
	}
	return v, nil
}

func (m *memStore) CreateVendorProfile(_ context.Context, v *model.VendorProfile) error {
	v.ID = m.id()
	m.vendors[v.ID] = v
	return nil
}

func (m *memStore) UpdateVendorProfile(_ context.Context, v *model.VendorProfile) error {
	m.vendors[v.ID] = v
	return nil
}

func (m *memStore) ListVerifiedVendorsInBox(_ context.Context, box geo.Box) ([]model.VendorProfile, error) {
	out := []model.VendorProfile{}
	for _, v := range m.vendors {
		if v.IsVerified && box.Contains(geo.Point{Lat: v.Latitude, Lng: v.Longitude}) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *memStore) SetVendorVerified(_ context.Context, id int64, verified bool) error {
	v, ok := m.vendors[id]
	if !ok {
		return apperr.NotFound("vendor", id)
	}
	v.IsVerified = verified
	return nil
}

func (m *memStore) ListDishes(_ context.Context, f repository.DishFilter, _ repository.Page) ([]model.Dish, error) {
	out := []model.Dish{}
	for _, d := range m.dishes {
		if f.VendorID != nil && d.VendorID != *f.VendorID {
			continue
		}
		out = append(out, *d)
	}
	return out, nil
}

func (m *memStore) GetDish(_ context.Context, id int64) (*model.Dish, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.dishes[id]
	if !ok {
		return nil, apperr.NotFound("dish", id)
	}
	cp := *d
	return &cp, nil
}

func (m *memStore) GetDishForUpdate(ctx context.Context, id int64) (*model.Dish, error) {
	return m.GetDish(ctx, id)
}

func (m *memStore) CreateDish(_ context.Context, d *model.Dish) error {
	d.ID = m.id()
	m.dishes[d.ID] = d
	return nil
}

func (m *memStore) UpdateDish(_ context.Context, d *model.Dish) error {
	m.dishes[d.ID] = d
	return nil
}

func (m *memStore) DeleteDish(_ context.Context, id int64) error {
	if _, ok := m.dishes[id]; !ok {
		return apperr.NotFound("dish", id)
	}
	delete(m.dishes, id)
	return nil
}

func (m *memStore) UpdateDishStock(_ context.Context, dishID int64, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d := m.dishes[dishID]; d != nil && d.Stock != nil {
		left := *d.Stock - quantity
		d.Stock = &left
	}
	return nil
}

func (m *memStore) CreateOrder(_ context.Context, o *model.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = m.id()
	o.CreatedAt = time.Now()
	for i := range o.Items {
		o.Items[i].ID = m.id()
		o.Items[i].OrderID = o.ID
	}
	cp := *o
	cp.Items = append([]model.OrderItem(nil), o.Items...)
	m.orders[o.ID] = &cp
	return nil
}

func (m *memStore) GetOrder(_ context.Context, id int64) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound("order", id)
	}
	cp := *o
	return &cp, nil
}

func (m *memStore) GetOrderForUpdate(ctx context.Context, id int64) (*model.Order, error) {
	return m.GetOrder(ctx, id)
}

func (m *memStore) ListOrders(_ context.Context, f repository.OrderFilter, _ repository.Page) ([]model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []model.Order{}
	for _, o := range m.orders {
		if f.CustomerID != nil && o.CustomerID != *f.CustomerID {
			continue
		}
		if f.VendorID != nil && o.VendorID != *f.VendorID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *memStore) UpdateOrderStatus(_ context.Context, id int64, status model.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return apperr.NotFound("order", id)
	}
	o.Status = status
	return nil
}

func (m *memStore) CreateReview(_ context.Context, r *model.Review) error {
	for _, existing := range m.reviews {
		if existing.OrderID == r.OrderID {
			return apperr.Conflict("order already reviewed")
		}
	}
	r.ID = m.id()
	m.reviews[r.ID] = r
	return nil
}

func (m *memStore) GetReview(_ context.Context, id int64) (*model.Review, error) {
	r, ok := m.reviews[id]
	if !ok {
		return nil, apperr.NotFound("review", id)
	}
	return r, nil
}

func (m *memStore) ListReviews(_ context.Context, vendorID *int64, _ repository.Page) ([]model.Review, error) {
	out := []model.Review{}
	for _, r := range m.reviews {
		if vendorID == nil || r.VendorID == *vendorID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memStore) DeleteReview(_ context.Context, id int64) error {
	if _, ok := m.reviews[id]; !ok {
		return apperr.NotFound("review", id)
	}
	delete(m.reviews, id)
	return nil
}

func (m *memStore) RefreshVendorRating(_ context.Context, vendorID int64) error {
	var sum, n int
	for _, r := range m.reviews {
		if r.VendorID == vendorID {
			sum += r.Rating
			n++
		}
	}
	if v := m.vendors[vendorID]; v != nil {
		v.Rating = 0
		if n > 0 {
			v.Rating = float64(sum) / float64(n)
		}
	}
	return nil
}

func (m *memStore) CreateConversation(_ context.Context, c *model.Conversation) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.conversations[c.ID] = c
	return nil
}

func (m *memStore) GetConversation(_ context.Context, id uuid.UUID) (*model.Conversation, error) {
	c, ok := m.conversations[id]
	if !ok {
		return nil, apperr.NotFound("conversation", id)
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ListConversations(_ context.Context, userID *int64, _ repository.Page) ([]model.Conversation, error) {
	out := []model.Conversation{}
	for _, c := range m.conversations {
		if userID == nil || c.UserID == *userID {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) SetConversationStatus(_ context.Context, id uuid.UUID, status model.ConversationStatus) error {
	c, ok := m.conversations[id]
	if !ok {
		return apperr.NotFound("conversation", id)
	}
	c.Status = status
	return nil
}

func (m *memStore) CreateMessage(_ context.Context, msg *model.Message) error {
	msg.ID = m.id()
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *memStore) ListMessages(_ context.Context, id uuid.UUID, _ repository.Page) ([]model.Message, error) {
	out := []model.Message{}
	for _, msg := range m.messages {
		if msg.ConversationID == id {
			out = append(out, msg)
		}
	}
	return out, nil
}

func (m *memStore) CreateLocation(_ context.Context, l *model.UserLocation) error {
	if l.IsDefault {
		for _, existing := range m.locations {
			if existing.UserID == l.UserID {
				existing.IsDefault = false
			}
		}
	}
	l.ID = m.id()
	m.locations[l.ID] = l
	return nil
}

func (m *memStore) GetLocation(_ context.Context, id int64) (*model.UserLocation, error) {
	l, ok := m.locations[id]
	if !ok {
		return nil, apperr.NotFound("location", id)
	}
	return l, nil
}

func (m *memStore) ListLocations(_ context.Context, userID int64) ([]model.UserLocation, error) {
	out := []model.UserLocation{}
	for _, l := range m.locations {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memStore) ListNotifications(_ context.Context, userID int64, _ repository.Page) ([]model.Notification, error) {
	out := []model.Notification{}
	for _, n := range m.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, userID int64, id uuid.UUID) error {
	for i := range m.notifications {
		if m.notifications[i].ID == id && m.notifications[i].UserID == userID {
			now := time.Now()
			m.notifications[i].ReadAt = &now
			return nil
		}
	}
	return apperr.NotFound("notification", id)
}

func (m *memStore) SetNotificationPreference(_ context.Context, userID int64, key string, enabled bool) error {
	u, ok := m.users[userID]
	if !ok {
		return apperr.NotFound("user", userID)
	}
	if u.Preferences == nil {
		u.Preferences = map[string]bool{}
	}
	u.Preferences[key] = enabled
	return nil
}

// recordingNotifier captures events instead of delivering them.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (n *recordingNotifier) Notify(_ context.Context, ev notification.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) last() notification.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return notification.Event{}
	}
	return n.events[len(n.events)-1]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.events)
}

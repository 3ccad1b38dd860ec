package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/suite"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/cart"
	"fsanano/food-market/internal/handler"
	"fsanano/food-market/internal/metrics"
	"fsanano/food-market/internal/model"
	"fsanano/food-market/internal/notification"
	"fsanano/food-market/internal/repository"
	"fsanano/food-market/internal/service"
)

// fakeStore backs the users, vendor profiles and dishes the router touches.
type fakeStore struct {
	mu       sync.Mutex
	users    map[int64]*model.User
	profiles map[int64]*model.VendorProfile
	dishes   map[int64]*model.Dish
	nextID   int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*model.User),
		profiles: make(map[int64]*model.VendorProfile),
		dishes:   make(map[int64]*model.Dish),
		nextID:   100,
	}
}

func (f *fakeStore) GetUserByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperr.NotFound("user", email)
}

func (f *fakeStore) CreateUser(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	u.ID = f.nextID
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) ListUsers(_ context.Context, _ repository.Page) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeStore) UpdateUserStatus(_ context.Context, id int64, status model.UserStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	u.Status = status
	return nil
}

func (f *fakeStore) GetVendorProfileByUserID(_ context.Context, userID int64) (*model.VendorProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, apperr.NotFound("vendor profile", userID)
	}
	return p, nil
}

func (f *fakeStore) GetDish(_ context.Context, id int64) (*model.Dish, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.dishes[id]
	if !ok {
		return nil, apperr.NotFound("dish", id)
	}
	return d, nil
}

// fakeChat keeps support conversations in memory.
type fakeChat struct {
	mu            sync.Mutex
	conversations []model.Conversation
	messages      []model.Message
}

func (f *fakeChat) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeChat) CreateConversation(_ context.Context, c *model.Conversation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = uuid.New()
	f.conversations = append(f.conversations, *c)
	return nil
}

func (f *fakeChat) GetConversation(_ context.Context, id uuid.UUID) (*model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.conversations {
		if c.ID == id {
			return &c, nil
		}
	}
	return nil, apperr.NotFound("conversation", id)
}

func (f *fakeChat) ListConversations(_ context.Context, userID *int64, _ repository.Page) ([]model.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Conversation{}
	for _, c := range f.conversations {
		if userID == nil || c.UserID == *userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChat) SetConversationStatus(_ context.Context, id uuid.UUID, status model.ConversationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.conversations {
		if f.conversations[i].ID == id {
			f.conversations[i].Status = status
			return nil
		}
	}
	return apperr.NotFound("conversation", id)
}

func (f *fakeChat) CreateMessage(_ context.Context, m *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m.ID = int64(len(f.messages) + 1)
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeChat) ListMessages(_ context.Context, id uuid.UUID, _ repository.Page) ([]model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []model.Message{}
	for _, m := range f.messages {
		if m.ConversationID == id {
			out = append(out, m)
		}
	}
	return out, nil
}

type RouterSuite struct {
	suite.Suite

	store   *fakeStore
	chat    *fakeChat
	tokens  *auth.TokenIssuer
	redis   *redis.Client
	limiter *handler.RateLimiter
	h       *handler.Handler
}

func TestRouter(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	log, _ := test.NewNullLogger()
	mr := miniredis.RunT(s.T())
	s.redis = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.T().Cleanup(func() { s.redis.Close() })

	s.store = newFakeStore()
	s.chat = &fakeChat{}
	s.tokens = auth.NewTokenIssuer("test-secret", time.Hour)
	s.limiter = handler.NewRateLimiter(0.001, 3)

	carts := service.NewCartService(func(userID int64) cart.Storage {
		return cart.NewRedisStorage(s.redis, service.UserStoragePrefix(userID))
	}, s.store)

	s.h = handler.NewHandler(handler.Deps{
		Auth:     service.NewAuthService(s.store, s.tokens),
		Catalog:  service.NewCatalogService(nil, 5),
		Admin:    service.NewAdminService(s.store, nil),
		Chat:     service.NewChatService(s.chat),
		Carts:    carts,
		Resolver: auth.NewResolver(s.tokens, s.store, log),
		Vendors:  s.store,
		Stream:   notification.NewRedisBroadcaster(s.redis),
		Limiter:  s.limiter,
		Metrics:  metrics.New(),
		Log:      log,
	})
}

func (s *RouterSuite) addUser(id int64, role model.Role, status model.UserStatus) string {
	u := &model.User{ID: id, Name: "User", Email: "user@example.com", Role: role, Status: status}
	s.store.users[id] = u
	token, err := s.tokens.Issue(u)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func (s *RouterSuite) TestHealth() {
	rec, body := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(true, body["success"])
}

func (s *RouterSuite) TestAdminRoute_CustomerTokenForbidden() {
	token := s.addUser(1, model.RoleCustomer, model.StatusActive)

	rec, body := s.do(http.MethodGet, "/admin/users", token, nil)

	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal(false, body["success"])
	s.Equal(float64(http.StatusForbidden), body["status"])
	s.Equal("wrong_role", body["reason"])
	s.NotContains(body, "debug")
}

func (s *RouterSuite) TestAdminRoute_Unauthenticated() {
	rec, body := s.do(http.MethodGet, "/admin/users", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("Unauthenticated.", body["message"])

	rec, _ = s.do(http.MethodGet, "/admin/users", "not-a-token", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestAdminRoute_SuspendedAdmin() {
	token := s.addUser(1, model.RoleAdmin, model.StatusSuspended)

	rec, body := s.do(http.MethodGet, "/admin/users", token, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("suspended", body["reason"])
}

func (s *RouterSuite) TestChat_SuspendedAdminSeesOnlyOwnConversations() {
	token := s.addUser(1, model.RoleAdmin, model.StatusSuspended)
	s.chat.conversations = []model.Conversation{
		{ID: uuid.New(), UserID: 1, Subject: "Mine", Status: model.ConversationOpen},
		{ID: uuid.New(), UserID: 2, Subject: "Theirs", Status: model.ConversationOpen},
	}
	theirs := s.chat.conversations[1].ID.String()

	rec, body := s.do(http.MethodGet, "/chat/conversations", token, nil)
	s.Equal(http.StatusOK, rec.Code)
	convs := body["data"].([]any)
	s.Require().Len(convs, 1)
	s.Equal("Mine", convs[0].(map[string]any)["subject"])

	rec, _ = s.do(http.MethodGet, "/chat/conversations/"+theirs+"/messages", token, nil)
	s.Equal(http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodPost, "/chat/conversations/"+theirs+"/messages", token, map[string]string{"body": "hello"})
	s.Equal(http.StatusNotFound, rec.Code)
	s.Empty(s.chat.messages)

	rec, body = s.do(http.MethodGet, "/admin/chat/conversations", token, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("suspended", body["reason"])
}

func (s *RouterSuite) TestChat_ActiveAdminSeesAllConversations() {
	token := s.addUser(1, model.RoleAdmin, model.StatusActive)
	s.chat.conversations = []model.Conversation{
		{ID: uuid.New(), UserID: 2, Subject: "Late order", Status: model.ConversationOpen},
		{ID: uuid.New(), UserID: 3, Subject: "Refund", Status: model.ConversationOpen},
	}

	rec, body := s.do(http.MethodGet, "/chat/conversations", token, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Empty(body["data"])

	rec, body = s.do(http.MethodGet, "/admin/chat/conversations", token, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Len(body["data"], 2)

	rec, _ = s.do(http.MethodPost, "/admin/chat/conversations/"+s.chat.conversations[0].ID.String()+"/messages", token, map[string]string{"body": "On its way"})
	s.Equal(http.StatusCreated, rec.Code)
	s.Len(s.chat.messages, 1)
}

func (s *RouterSuite) TestAdminRoute_ListsUsers() {
	token := s.addUser(1, model.RoleAdmin, model.StatusActive)
	s.addUser(2, model.RoleCustomer, model.StatusActive)

	rec, body := s.do(http.MethodGet, "/admin/users", token, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Len(body["data"], 2)
}

func (s *RouterSuite) TestAdminSetUserStatus() {
	token := s.addUser(1, model.RoleAdmin, model.StatusActive)
	s.addUser(2, model.RoleCustomer, model.StatusActive)

	rec, _ := s.do(http.MethodPut, "/admin/users/2/status", token, map[string]string{"status": "suspended"})
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(model.StatusSuspended, s.store.users[2].Status)

	rec, body := s.do(http.MethodPut, "/admin/users/abc/status", token, map[string]string{"status": "suspended"})
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Resource not found.", body["message"])
}

func (s *RouterSuite) TestVendorRoute_ProfileIncomplete() {
	token := s.addUser(1, model.RoleVendor, model.StatusActive)

	rec, body := s.do(http.MethodGet, "/vendor/profile", token, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("profile_incomplete", body["reason"])

	s.store.profiles[1] = &model.VendorProfile{ID: 5, UserID: 1}
	rec, body = s.do(http.MethodGet, "/vendor/profile", token, nil)
	s.Equal(http.StatusForbidden, rec.Code)
	s.Equal("unverified", body["reason"])

	s.store.profiles[1].IsVerified = true
	rec, body = s.do(http.MethodGet, "/vendor/profile", token, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(float64(5), body["data"].(map[string]any)["id"])
}

func (s *RouterSuite) TestUnknownRoute() {
	rec, body := s.do(http.MethodGet, "/nowhere", "", nil)
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("Route not found.", body["message"])
	s.Equal(false, body["success"])
}

func (s *RouterSuite) TestMethodNotAllowed() {
	rec, body := s.do(http.MethodDelete, "/categories", "", nil)
	s.Equal(http.StatusMethodNotAllowed, rec.Code)
	s.Equal(float64(http.StatusMethodNotAllowed), body["status"])
}

func (s *RouterSuite) TestRegisterLoginAndCurrentUser() {
	rec, body := s.do(http.MethodPost, "/register", "", map[string]string{
		"name":     "Ada",
		"email":    "Ada@Example.com",
		"password": "correct-horse",
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	data := body["data"].(map[string]any)
	s.NotEmpty(data["token"])

	rec, body = s.do(http.MethodPost, "/login", "", map[string]string{"email": "ada@example.com", "password": "correct-horse"})
	s.Require().Equal(http.StatusOK, rec.Code)
	token := body["data"].(map[string]any)["token"].(string)

	rec, body = s.do(http.MethodGet, "/user", token, nil)
	s.Equal(http.StatusOK, rec.Code)
	user := body["data"].(map[string]any)["user"].(map[string]any)
	s.Equal("ada@example.com", user["email"])
	s.NotContains(user, "password_hash")
}

func (s *RouterSuite) TestRegister_ValidationErrors() {
	rec, body := s.do(http.MethodPost, "/register", "", map[string]string{"email": "nope", "password": "short"})

	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	errs := body["errors"].(map[string]any)
	s.Contains(errs, "name")
	s.Contains(errs, "email")
	s.Contains(errs, "password")
}

func (s *RouterSuite) TestLogin_WrongPassword() {
	s.do(http.MethodPost, "/register", "", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "correct-horse"})

	rec, body := s.do(http.MethodPost, "/login", "", map[string]string{"email": "ada@example.com", "password": "battery-staple"})
	s.Equal(http.StatusUnauthorized, rec.Code)
	s.Equal("invalid email or password", body["message"])
}

func (s *RouterSuite) TestLogin_RateLimited() {
	creds := map[string]string{"email": "ghost@example.com", "password": "whatever1"}
	for i := 0; i < 3; i++ {
		rec, _ := s.do(http.MethodPost, "/login", "", creds)
		s.Equal(http.StatusUnauthorized, rec.Code)
	}

	rec, body := s.do(http.MethodPost, "/login", "", creds)
	s.Equal(http.StatusTooManyRequests, rec.Code)
	s.Equal(float64(http.StatusTooManyRequests), body["status"])
	s.NotEmpty(rec.Header().Get("Retry-After"))
}

func (s *RouterSuite) TestInvalidBody() {
	req := httptest.NewRequest(http.MethodPost, "/register", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), "invalid request body")
}

func (s *RouterSuite) TestNearbyVendors_Validation() {
	rec, body := s.do(http.MethodGet, "/vendors/nearby?lat=abc", "", nil)

	s.Equal(http.StatusUnprocessableEntity, rec.Code)
	errs := body["errors"].(map[string]any)
	s.Equal([]any{"must be a number"}, errs["lat"])
	s.Equal([]any{"is required"}, errs["lng"])
}

func (s *RouterSuite) TestCart() {
	token := s.addUser(7, model.RoleCustomer, model.StatusActive)
	discounted := int64(4000)
	s.store.dishes[1] = &model.Dish{ID: 1, VendorID: 3, Name: "Pizza", Price: 5000, DiscountedPrice: &discounted, IsAvailable: true}

	rec, body := s.do(http.MethodPost, "/cart/items", token, map[string]any{"dish_id": 1, "quantity": 2})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal("2 items of Pizza added to cart", body["message"])
	data := body["data"].(map[string]any)
	s.Equal(float64(8000), data["total"])
	s.Equal(float64(2), data["total_items"])
	s.Equal(float64(2000), data["total_discount"])

	rec, body = s.do(http.MethodPut, "/cart/items/1", token, map[string]any{"quantity": 0})
	s.Equal(http.StatusOK, rec.Code)
	s.Equal(float64(0), body["data"].(map[string]any)["total_items"])

	rec, _ = s.do(http.MethodPost, "/cart/items", token, map[string]any{"dish_id": 99})
	s.Equal(http.StatusNotFound, rec.Code)

	rec, _ = s.do(http.MethodGet, "/cart", "", nil)
	s.Equal(http.StatusUnauthorized, rec.Code)
}

func (s *RouterSuite) TestTheme() {
	token := s.addUser(7, model.RoleCustomer, model.StatusActive)

	rec, body := s.do(http.MethodGet, "/user/theme", token, nil)
	s.Equal(http.StatusOK, rec.Code)
	s.Equal("system", body["data"].(map[string]any)["theme"])

	rec, _ = s.do(http.MethodPut, "/user/theme", token, map[string]string{"theme": "dark"})
	s.Equal(http.StatusOK, rec.Code)

	rec, body = s.do(http.MethodGet, "/user/theme", token, nil)
	s.Equal("dark", body["data"].(map[string]any)["theme"])

	rec, _ = s.do(http.MethodPut, "/user/theme", token, map[string]string{"theme": "neon"})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.do(http.MethodGet, "/health", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.h.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `food_market_http_requests_total{method="GET",route="/health",status="200"} 1`)
}

func (s *RouterSuite) TestNotificationStream() {
	token := s.addUser(7, model.RoleCustomer, model.StatusActive)

	srv := httptest.NewServer(s.h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/stream?access_token=" + token
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().NoError(err)
	defer conn.Close()
	s.Equal(http.StatusSwitchingProtocols, resp.StatusCode)

	push := notification.Push{Title: "Your order is on its way", UserID: 7, Channels: []string{notification.UserChannel(7)}}
	s.Require().NoError(notification.NewRedisBroadcaster(s.redis).Broadcast(context.Background(), push))

	s.Require().NoError(conn.SetReadDeadline(time.Now().Add(2 * time.Second)))
	_, data, err := conn.ReadMessage()
	s.Require().NoError(err)

	var got notification.Push
	s.Require().NoError(json.Unmarshal(data, &got))
	s.Equal("Your order is on its way", got.Title)
}

func (s *RouterSuite) TestNotificationStream_RequiresToken() {
	srv := httptest.NewServer(s.h)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/notifications/stream"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	s.Require().Error(err)
	s.Require().NotNil(resp)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
}

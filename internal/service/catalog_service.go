package service

import (
	"context"
	"strings"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/geo"
	"fsanano/food-market/internal/model"
	"fsanano/food-market/internal/repository"
)

type CatalogStore interface {
	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, c *model.Category) error
	UpdateCategory(ctx context.Context, c *model.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	ListVendors(ctx context.Context, verifiedOnly bool, page Page) ([]model.VendorProfile, error)
	GetVendorProfile(ctx context.Context, id int64) (*model.VendorProfile, error)
	CreateVendorProfile(ctx context.Context, v *model.VendorProfile) error
	UpdateVendorProfile(ctx context.Context, v *model.VendorProfile) error
	ListVerifiedVendorsInBox(ctx context.Context, box geo.Box) ([]model.VendorProfile, error)
	SetVendorVerified(ctx context.Context, id int64, verified bool) error

	ListDishes(ctx context.Context, f repository.DishFilter, page Page) ([]model.Dish, error)
	GetDish(ctx context.Context, id int64) (*model.Dish, error)
	CreateDish(ctx context.Context, d *model.Dish) error
	UpdateDish(ctx context.Context, d *model.Dish) error
	DeleteDish(ctx context.Context, id int64) error
}

type CatalogService struct {
	store    CatalogStore
	radiusKM float64
}

func NewCatalogService(store CatalogStore, defaultRadiusKM float64) *CatalogService {
	return &CatalogService{store: store, radiusKM: defaultRadiusKM}
}

type CategoryInput struct {
	Name        string `json:"name" validate:"notblank,max=100"`
	Description string `json:"description"`
}

func (in CategoryInput) validate() error {
	return check(in).OrNil()
}

func (s *CatalogService) Categories(ctx context.Context) ([]model.Category, error) {
	return s.store.ListCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (*model.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &model.Category{Name: strings.TrimSpace(in.Name), Description: in.Description}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (*model.Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c := &model.Category{ID: id, Name: strings.TrimSpace(in.Name), Description: in.Description}
	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id int64) error {
	return s.store.DeleteCategory(ctx, id)
}

// Vendors lists vendors by rating. Public callers only see verified vendors.
func (s *CatalogService) Vendors(ctx context.Context, verifiedOnly bool, page Page) ([]model.VendorProfile, error) {
	return s.store.ListVendors(ctx, verifiedOnly, page)
}

// Vendor returns a verified vendor; unverified vendors are hidden from the public.
func (s *CatalogService) Vendor(ctx context.Context, id int64) (*model.VendorProfile, error) {
	v, err := s.store.GetVendorProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if !v.IsVerified {
		return nil, apperr.NotFound("vendor", id)
	}
	return v, nil
}

// NearbyVendors returns verified vendors within radiusKM of origin, closest
// first. A zero radius uses the configured default.
func (s *CatalogService) NearbyVendors(ctx context.Context, origin geo.Point, radiusKM float64) ([]model.NearbyVendor, error) {
	if radiusKM == 0 {
		radiusKM = s.radiusKM
	}

	query := nearbyQuery{Latitude: origin.Lat, Longitude: origin.Lng, RadiusKM: radiusKM}
	if err := check(query).OrNil(); err != nil {
		return nil, err
	}

	candidates, err := s.store.ListVerifiedVendorsInBox(ctx, geo.BoundingBox(origin, radiusKM))
	if err != nil {
		return nil, err
	}
	return geo.Nearby(origin, candidates, radiusKM), nil
}

type nearbyQuery struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	RadiusKM  float64 `json:"radius_km" validate:"gt=0,lte=50"`
}

type VendorInput struct {
	BusinessName string  `json:"business_name" validate:"notblank,max=255"`
	Description  string  `json:"description"`
	Phone        string  `json:"phone" validate:"max=32"`
	Address      string  `json:"address" validate:"notblank"`
	Latitude     float64 `json:"latitude" validate:"latitude"`
	Longitude    float64 `json:"longitude" validate:"longitude"`
}

func (in VendorInput) validate() error {
	return check(in).OrNil()
}

func (in VendorInput) apply(p *model.VendorProfile) {
	p.BusinessName = strings.TrimSpace(in.BusinessName)
	p.Description = in.Description
	p.Phone = in.Phone
	p.Address = in.Address
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude
}

// CreateVendorProfile creates the caller's profile. New profiles start unverified.
func (s *CatalogService) CreateVendorProfile(ctx context.Context, userID int64, in VendorInput) (*model.VendorProfile, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &model.VendorProfile{UserID: userID}
	in.apply(p)
	if err := s.store.CreateVendorProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) UpdateVendorProfile(ctx context.Context, profile *model.VendorProfile, in VendorInput) (*model.VendorProfile, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	updated := *profile
	in.apply(&updated)
	if err := s.store.UpdateVendorProfile(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (s *CatalogService) VerifyVendor(ctx context.Context, id int64, verified bool) (*model.VendorProfile, error) {
	if err := s.store.SetVendorVerified(ctx, id, verified); err != nil {
		return nil, err
	}
	return s.store.GetVendorProfile(ctx, id)
}

func (s *CatalogService) Dishes(ctx context.Context, f repository.DishFilter, page Page) ([]model.Dish, error) {
	return s.store.ListDishes(ctx, f, page)
}

func (s *CatalogService) Dish(ctx context.Context, id int64) (*model.Dish, error) {
	return s.store.GetDish(ctx, id)
}

type DishInput struct {
	CategoryID      *int64 `json:"category_id" validate:"omitempty,gt=0"`
	Name            string `json:"name" validate:"notblank,max=255"`
	Description     string `json:"description"`
	Price           int64  `json:"price" validate:"gt=0"`
	DiscountedPrice *int64 `json:"discounted_price" validate:"omitempty,gte=0,ltfield=Price"`
	Stock           *int   `json:"stock" validate:"omitempty,gte=0"`
	IsAvailable     *bool  `json:"is_available"`
}

func (in DishInput) validate() error {
	return check(in).OrNil()
}

func (in DishInput) apply(d *model.Dish) {
	d.CategoryID = in.CategoryID
	d.Name = strings.TrimSpace(in.Name)
	d.Description = in.Description
	d.Price = in.Price
	d.DiscountedPrice = in.DiscountedPrice
	d.Stock = in.Stock
	if in.IsAvailable != nil {
		d.IsAvailable = *in.IsAvailable
	}
}

func (s *CatalogService) CreateDish(ctx context.Context, vendorID int64, in DishInput) (*model.Dish, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	d := &model.Dish{VendorID: vendorID, IsAvailable: true}
	in.apply(d)
	if err := s.store.CreateDish(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// VendorDish returns a dish owned by vendorID. Other vendors' dishes are reported as missing.
func (s *CatalogService) VendorDish(ctx context.Context, vendorID, id int64) (*model.Dish, error) {
	d, err := s.store.GetDish(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.VendorID != vendorID {
		return nil, apperr.NotFound("dish", id)
	}
	return d, nil
}

func (s *CatalogService) UpdateDish(ctx context.Context, vendorID, id int64, in DishInput) (*model.Dish, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	d, err := s.VendorDish(ctx, vendorID, id)
	if err != nil {
		return nil, err
	}
	in.apply(d)
	if err := s.store.UpdateDish(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDish removes a dish. A nil vendorID deletes any vendor's dish.
func (s *CatalogService) DeleteDish(ctx context.Context, vendorID *int64, id int64) error {
	if vendorID != nil {
		if _, err := s.VendorDish(ctx, *vendorID, id); err != nil {
			return err
		}
	}
	return s.store.DeleteDish(ctx, id)
}

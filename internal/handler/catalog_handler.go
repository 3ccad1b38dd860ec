package handler

import (
	"net/http"

	"fsanano/food-market/internal/apperr"
	"fsanano/food-market/internal/auth"
	"fsanano/food-market/internal/geo"
	"fsanano/food-market/internal/repository"
	"fsanano/food-market/internal/service"
)

func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.deps.Catalog.Categories(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, categories)
}

func (h *Handler) ListVendors(w http.ResponseWriter, r *http.Request) {
	h.listVendors(w, r, true)
}

func (h *Handler) AdminListVendors(w http.ResponseWriter, r *http.Request) {
	h.listVendors(w, r, false)
}

func (h *Handler) listVendors(w http.ResponseWriter, r *http.Request, verifiedOnly bool) {
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	vendors, err := h.deps.Catalog.Vendors(r.Context(), verifiedOnly, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, vendors)
}

func (h *Handler) NearbyVendors(w http.ResponseWriter, r *http.Request) {
	v := apperr.NewValidation()
	for _, name := range []string{"lat", "lng"} {
		if r.URL.Query().Get(name) == "" {
			v.Add(name, "is required")
		}
	}
	origin := geo.Point{Lat: optionalFloat(r, "lat", v), Lng: optionalFloat(r, "lng", v)}
	radius := optionalFloat(r, "radius_km", v)
	if err := v.OrNil(); err != nil {
		h.fail(w, r, err)
		return
	}

	vendors, err := h.deps.Catalog.NearbyVendors(r.Context(), origin, radius)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, vendors)
}

func (h *Handler) GetVendor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "vendor")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	vendor, err := h.deps.Catalog.Vendor(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, vendor)
}

func (h *Handler) CreateVendorProfile(w http.ResponseWriter, r *http.Request) {
	var req service.VendorInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	profile, err := h.deps.Catalog.CreateVendorProfile(r.Context(), auth.Principal(r.Context()).ID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, profile)
}

func (h *Handler) GetVendorProfile(w http.ResponseWriter, r *http.Request) {
	ok(w, auth.VendorProfile(r.Context()))
}

func (h *Handler) UpdateVendorProfile(w http.ResponseWriter, r *http.Request) {
	var req service.VendorInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	profile, err := h.deps.Catalog.UpdateVendorProfile(r.Context(), auth.VendorProfile(r.Context()), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, profile)
}

type VerifyRequest struct {
	Verified bool `json:"is_verified"`
}

func (h *Handler) AdminVerifyVendor(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "vendor")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req VerifyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	profile, err := h.deps.Catalog.VerifyVendor(r.Context(), id, req.Verified)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, profile)
}

func (h *Handler) ListDishes(w http.ResponseWriter, r *http.Request) {
	filter, err := dishFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	filter.AvailableOnly = true
	h.listDishes(w, r, filter)
}

func (h *Handler) ListVendorDishes(w http.ResponseWriter, r *http.Request) {
	vendorID := auth.VendorProfile(r.Context()).ID
	h.listDishes(w, r, repository.DishFilter{VendorID: &vendorID})
}

func (h *Handler) AdminListDishes(w http.ResponseWriter, r *http.Request) {
	filter, err := dishFilter(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.listDishes(w, r, filter)
}

func (h *Handler) listDishes(w http.ResponseWriter, r *http.Request, filter repository.DishFilter) {
	page, err := pageParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dishes, err := h.deps.Catalog.Dishes(r.Context(), filter, page)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, dishes)
}

func dishFilter(r *http.Request) (repository.DishFilter, error) {
	vendorID, err := optionalInt64(r, "vendor_id")
	if err != nil {
		return repository.DishFilter{}, err
	}
	categoryID, err := optionalInt64(r, "category_id")
	if err != nil {
		return repository.DishFilter{}, err
	}
	return repository.DishFilter{VendorID: vendorID, CategoryID: categoryID}, nil
}

func (h *Handler) GetDish(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "dish")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dish, err := h.deps.Catalog.Dish(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, dish)
}

func (h *Handler) GetVendorDish(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "dish")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	dish, err := h.deps.Catalog.VendorDish(r.Context(), auth.VendorProfile(r.Context()).ID, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, dish)
}

func (h *Handler) CreateDish(w http.ResponseWriter, r *http.Request) {
	var req service.DishInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	dish, err := h.deps.Catalog.CreateDish(r.Context(), auth.VendorProfile(r.Context()).ID, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, dish)
}

func (h *Handler) UpdateDish(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "dish")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.DishInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	dish, err := h.deps.Catalog.UpdateDish(r.Context(), auth.VendorProfile(r.Context()).ID, id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, dish)
}

func (h *Handler) DeleteVendorDish(w http.ResponseWriter, r *http.Request) {
	vendorID := auth.VendorProfile(r.Context()).ID
	h.deleteDish(w, r, &vendorID)
}

func (h *Handler) AdminDeleteDish(w http.ResponseWriter, r *http.Request) {
	h.deleteDish(w, r, nil)
}

func (h *Handler) deleteDish(w http.ResponseWriter, r *http.Request, vendorID *int64) {
	id, err := idParam(r, "id", "dish")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.deps.Catalog.DeleteDish(r.Context(), vendorID, id); err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, nil, "Dish deleted")
}

func (h *Handler) AdminCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req service.CategoryInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	category, err := h.deps.Catalog.CreateCategory(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	created(w, category)
}

func (h *Handler) AdminUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "category")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var req service.CategoryInput
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	category, err := h.deps.Catalog.UpdateCategory(r.Context(), id, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	ok(w, category)
}

func (h *Handler) AdminDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id", "category")
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.deps.Catalog.DeleteCategory(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	okWithMessage(w, nil, "Category deleted")
}

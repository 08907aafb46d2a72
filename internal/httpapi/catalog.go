package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"posadmin/internal/domain"
	"posadmin/internal/service"
)

var errNotFound = errors.New("not found")

func pathID(r *http.Request) string {
	return strings.TrimSpace(mux.Vars(r)["id"])
}

func productFilterFromQuery(q url.Values) (domain.ProductFilter, error) {
	filter := domain.ProductFilter{
		CategoryID:  strings.TrimSpace(q.Get("categoryId")),
		VendorID:    strings.TrimSpace(q.Get("vendorId")),
		StockStatus: domain.StockStatus(strings.TrimSpace(q.Get("stockStatus"))),
		SortBy:      strings.TrimSpace(q.Get("sortBy")),
		SortDir:     strings.ToLower(strings.TrimSpace(q.Get("sortDir"))),
	}
	for _, raw := range strings.Split(q.Get("tags"), ",") {
		if tag := strings.TrimSpace(raw); tag != "" {
			filter.Tags = append(filter.Tags, tag)
		}
	}
	for name, dst := range map[string]**decimal.Decimal{"minPrice": &filter.MinPrice, "maxPrice": &filter.MaxPrice} {
		raw := strings.TrimSpace(q.Get(name))
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return filter, errors.New(name + " must be a number")
		}
		*dst = &d
	}
	return filter, nil
}

func (a *API) handleListProducts(w http.ResponseWriter, r *http.Request) {
	filter, err := productFilterFromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var products []domain.Product
	if query := strings.TrimSpace(r.URL.Query().Get("q")); query != "" {
		products, err = a.service.SearchProducts(r.Context(), query)
		if err == nil {
			products = service.FilterProducts(products, filter)
		}
	} else {
		products, err = a.service.FilterProducts(r.Context(), filter)
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	var req domain.Product
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	product, err := a.service.AddProduct(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"product": product})
}

func (a *API) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := a.service.GetProduct(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": product, "stockStatus": service.StockStatusOf(product)})
}

func (a *API) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch domain.ProductPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.service.UpdateProduct(r.Context(), pathID(r), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"product": updated})
}

func (a *API) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteProduct(r.Context(), pathID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	var (
		customers []domain.Customer
		err       error
	)
	if query := strings.TrimSpace(r.URL.Query().Get("q")); query != "" {
		customers, err = a.service.SearchCustomers(r.Context(), query)
	} else {
		customers, err = a.service.ListCustomers(r.Context())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customers": customers})
}

func (a *API) handleCreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req domain.Customer
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	customer, err := a.service.AddCustomer(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"customer": customer})
}

func (a *API) handleGetCustomer(w http.ResponseWriter, r *http.Request) {
	customer, err := a.service.GetCustomer(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": customer})
}

func (a *API) handleUpdateCustomer(w http.ResponseWriter, r *http.Request) {
	var patch domain.CustomerPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.service.UpdateCustomer(r.Context(), pathID(r), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"customer": updated})
}

func (a *API) handleDeleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteCustomer(r.Context(), pathID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleCustomerOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := a.service.OrdersByCustomer(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *API) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := a.service.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": categories})
}

func (a *API) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var req domain.Category
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	category, err := a.service.AddCategory(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"category": category})
}

func (a *API) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch domain.DirectoryPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.service.UpdateCategory(r.Context(), pathID(r), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": updated})
}

func (a *API) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteCategory(r.Context(), pathID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleListVendors(w http.ResponseWriter, r *http.Request) {
	vendors, err := a.service.ListVendors(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vendors": vendors})
}

func (a *API) handleGetVendor(w http.ResponseWriter, r *http.Request) {
	vendor, err := a.service.GetVendor(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vendor": vendor})
}

func (a *API) handleCreateVendor(w http.ResponseWriter, r *http.Request) {
	var req domain.Vendor
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	vendor, err := a.service.AddVendor(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"vendor": vendor})
}

func (a *API) handleUpdateVendor(w http.ResponseWriter, r *http.Request) {
	var patch domain.DirectoryPatch
	if err := decodeJSON(r, &patch); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	updated, err := a.service.UpdateVendor(r.Context(), pathID(r), patch)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if updated == nil {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"vendor": updated})
}

func (a *API) handleDeleteVendor(w http.ResponseWriter, r *http.Request) {
	if err := a.service.DeleteVendor(r.Context(), pathID(r)); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.service.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (a *API) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var req domain.Settings
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	settings, err := a.service.SaveSettings(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

func (a *API) handleListCashiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"cashiers": a.auth.ListCashiers(r.Context())})
}

func (a *API) handleCreateCashier(w http.ResponseWriter, r *http.Request) {
	var req domain.CashierCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	cashier, err := a.auth.CreateCashier(r.Context(), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"cashier": cashier})
}

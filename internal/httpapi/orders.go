package httpapi

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"posadmin/internal/domain"
	"posadmin/internal/receipt"
)

func (a *API) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req domain.CartRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	quote, err := a.service.QuoteCart(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (a *API) handleCheckout(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	order, err := a.service.Checkout(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"order": order})
}

func (a *API) handleListOrders(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var (
		orders []domain.Order
		err    error
	)
	switch {
	case strings.TrimSpace(query.Get("customerId")) != "":
		orders, err = a.service.OrdersByCustomer(r.Context(), strings.TrimSpace(query.Get("customerId")))
	case strings.TrimSpace(query.Get("status")) != "":
		status := domain.OrderStatus(strings.TrimSpace(query.Get("status")))
		if !status.Valid() {
			writeError(w, http.StatusBadRequest, errors.New("unknown order status"))
			return
		}
		orders, err = a.service.OrdersByStatus(r.Context(), status)
	default:
		orders, err = a.service.ListOrders(r.Context())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (a *API) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.GetOrder(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status domain.OrderStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a.writeOrderPatch(w, func() (*domain.Order, error) {
		return a.service.UpdateOrderStatus(r.Context(), pathID(r), req.Status)
	})
}

func (a *API) handleOrderCustomer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Customer *domain.OrderCustomer `json:"customer"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	a.writeOrderPatch(w, func() (*domain.Order, error) {
		return a.service.UpdateOrderCustomer(r.Context(), pathID(r), req.Customer)
	})
}

func (a *API) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	a.writeOrderPatch(w, func() (*domain.Order, error) {
		return a.service.CancelOrder(r.Context(), pathID(r))
	})
}

func (a *API) writeOrderPatch(w http.ResponseWriter, patch func() (*domain.Order, error)) {
	order, err := patch()
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, errNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": order})
}

func (a *API) handleOrderBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := a.service.RemainingBalance(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orderId": pathID(r), "remainingBalance": balance})
}

func (a *API) handleReceipt(w http.ResponseWriter, r *http.Request) {
	order, err := a.service.GetOrder(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	settings, err := a.service.GetSettings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := receipt.Render(&buf, order, settings, receipt.Options{}); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="`+receipt.Filename(order)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleRefund requires manager approval: the PIN or a TOTP code in the body.
// Approval attempts count against a per-client limit.
func (a *API) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req domain.RefundRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if !a.auth.ApprovalConfigured() {
		writeError(w, http.StatusForbidden, errors.New("manager approval is not configured"))
		return
	}
	if !a.pinLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many manager approval attempts"))
		return
	}
	if !a.auth.ApproveRefund(req.ManagerPIN, req.ManagerCode) {
		writeError(w, http.StatusForbidden, errors.New("manager approval required"))
		return
	}
	req.ManagerPIN, req.ManagerCode = "", ""

	result, err := a.service.ProcessRefund(r.Context(), pathID(r), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (a *API) handleRestock(w http.ResponseWriter, r *http.Request) {
	result, err := a.service.RestockRefund(r.Context(), pathID(r), strings.TrimSpace(mux.Vars(r)["refundId"]))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

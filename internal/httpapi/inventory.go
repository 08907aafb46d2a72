package httpapi

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"posadmin/internal/domain"
	"posadmin/internal/service"
)

const dateOnly = "2006-01-02"

// parseBound reads an RFC 3339 time or a bare date. A bare upper bound covers
// the whole day.
func parseBound(raw string, upper bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, errors.New("dates must be RFC 3339 or YYYY-MM-DD")
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

func dateRange(q url.Values) (from, to time.Time, ok bool, err error) {
	rawFrom, rawTo := q.Get("from"), q.Get("to")
	if strings.TrimSpace(rawFrom) == "" && strings.TrimSpace(rawTo) == "" {
		return from, to, false, nil
	}
	from = time.Unix(0, 0).UTC()
	to = time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC)
	if strings.TrimSpace(rawFrom) != "" {
		if from, err = parseBound(rawFrom, false); err != nil {
			return from, to, false, err
		}
	}
	if strings.TrimSpace(rawTo) != "" {
		if to, err = parseBound(rawTo, true); err != nil {
			return from, to, false, err
		}
	}
	return from, to, true, nil
}

func (a *API) handleListLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, hasRange, err := dateRange(q)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var entries []domain.InventoryLogEntry
	switch {
	case q.Get("productId") != "":
		entries, err = a.service.LogsByProductID(r.Context(), q.Get("productId"))
	case q.Get("userId") != "":
		entries, err = a.service.LogsByUser(r.Context(), q.Get("userId"))
	case q.Get("reasonType") != "":
		reason := domain.ReasonType(q.Get("reasonType"))
		if !reason.Valid() {
			writeError(w, http.StatusBadRequest, errors.New("unknown reason type"))
			return
		}
		entries, err = a.service.LogsByReasonType(r.Context(), reason)
	case hasRange:
		entries, err = a.service.LogsByDateRange(r.Context(), from, to)
	default:
		entries, err = a.service.ListInventoryLogs(r.Context())
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	if limit := parsePositiveLimit(q.Get("limit"), len(entries), 0); limit < len(entries) {
		entries = entries[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *API) handleProductLogs(w http.ResponseWriter, r *http.Request) {
	entries, err := a.service.LogsByProductID(r.Context(), pathID(r))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (a *API) handleAddLog(w http.ResponseWriter, r *http.Request) {
	var req domain.InventoryLogEntry
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entry, err := a.service.AddInventoryLog(r.Context(), req)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"entry": entry})
}

func (a *API) handleClearLogs(w http.ResponseWriter, r *http.Request) {
	if err := a.service.ClearInventoryLogs(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAdjustStock reports the entries already applied alongside the error
// when a later change fails.
func (a *API) handleAdjustStock(w http.ResponseWriter, r *http.Request) {
	var req domain.StockAdjustmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := a.service.AdjustStock(r.Context(), req.Changes)
	if entries == nil {
		entries = []domain.InventoryLogEntry{}
	}
	if err != nil {
		status := statusFor(err)
		if status >= 500 {
			writeError(w, status, err)
			return
		}
		writeJSON(w, status, map[string]any{"error": err.Error(), "entries": entries})
		return
	}
	writeJSON(w, http.StatusOK, domain.StockAdjustmentResponse{Entries: entries})
}

func (a *API) handleLowStock(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.LowStockProducts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (a *API) handleInventoryValue(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"value": service.InventoryValue(products)})
}

func (a *API) handleReorderSuggestions(w http.ResponseWriter, r *http.Request) {
	resp, err := a.service.ReorderSuggestions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

package httpapi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"posadmin/internal/domain"
	"posadmin/internal/transfer"
)

func entityParam(r *http.Request) (string, error) {
	entity := strings.ToLower(strings.TrimSpace(mux.Vars(r)["entity"]))
	switch entity {
	case transfer.EntityProducts, transfer.EntityCustomers, transfer.EntityInventory:
		return entity, nil
	}
	return "", fmt.Errorf("unknown entity %q", entity)
}

// handleExport streams the collection as CSV (default) or XLSX. With
// archive=true the file is also uploaded to the configured bucket.
func (a *API) handleExport(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	format, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var buf bytes.Buffer
	switch entity {
	case transfer.EntityProducts:
		var products []domain.Product
		if products, err = a.service.ListProducts(r.Context()); err == nil {
			err = transfer.WriteProducts(&buf, format, products)
		}
	case transfer.EntityCustomers:
		var customers []domain.Customer
		if customers, err = a.service.ListCustomers(r.Context()); err == nil {
			err = transfer.WriteCustomers(&buf, format, customers)
		}
	case transfer.EntityInventory:
		var entries []domain.InventoryLogEntry
		if entries, err = a.service.ListInventoryLogs(r.Context()); err == nil {
			err = transfer.WriteInventoryLogs(&buf, format, entries)
		}
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	name := transfer.Filename(entity, format, time.Now())
	if archiveRequested, _ := strconv.ParseBool(r.URL.Query().Get("archive")); archiveRequested {
		if a.opts.Archive == nil {
			writeError(w, http.StatusBadRequest, errors.New("export archive is not configured"))
			return
		}
		key, err := a.opts.Archive.Upload(r.Context(), name, format.ContentType(), buf.Bytes())
		if err != nil {
			writeError(w, http.StatusBadGateway, err)
			return
		}
		w.Header().Set("X-Archive-Key", key)
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// importSource returns the uploaded file and its name, from a multipart
// "file" field or from the raw body named by the filename query parameter.
func importSource(r *http.Request) (io.ReadCloser, string, error) {
	if strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadBody); err != nil {
			return nil, "", fmt.Errorf("read upload: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", errors.New("multipart field \"file\" is required")
		}
		return file, header.Filename, nil
	}
	name := strings.TrimSpace(r.URL.Query().Get("filename"))
	if name == "" {
		return nil, "", errors.New("filename query parameter is required for raw uploads")
	}
	return r.Body, name, nil
}

func (a *API) handleImport(w http.ResponseWriter, r *http.Request) {
	entity, err := entityParam(r)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	mode := domain.ImportMode(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("mode"))))
	if mode == "" {
		mode = domain.ImportAdd
	}
	if !mode.Valid() {
		writeError(w, http.StatusBadRequest, fmt.Errorf("unknown import mode %q", mode))
		return
	}

	src, name, err := importSource(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	defer src.Close()

	format, err := transfer.FormatFromFilename(name)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var (
		report  domain.ImportReport
		skipped int
		errs    []string
	)
	switch entity {
	case transfer.EntityProducts:
		var res transfer.Result[domain.Product]
		if res, err = transfer.ReadProducts(src, format); err == nil {
			skipped, errs = res.Skipped, res.Errors
			report, err = a.service.ImportProducts(r.Context(), res.Rows, mode)
		}
	case transfer.EntityCustomers:
		var res transfer.Result[domain.Customer]
		if res, err = transfer.ReadCustomers(src, format); err == nil {
			skipped, errs = res.Skipped, res.Errors
			report, err = a.service.ImportCustomers(r.Context(), res.Rows, mode)
		}
	case transfer.EntityInventory:
		var res transfer.Result[domain.InventoryLogEntry]
		if res, err = transfer.ReadInventoryLogs(src, format); err == nil {
			skipped, errs = res.Skipped, res.Errors
			report, err = a.service.ImportInventoryLogs(r.Context(), res.Rows, mode)
		}
	}
	if err != nil {
		writeServiceError(w, err)
		return
	}

	report.Skipped += skipped
	report.Errors = append(errs, report.Errors...)
	log.Info().Str("entity", entity).Str("mode", string(mode)).Str("file", name).
		Int("added", report.Added).Int("updated", report.Updated).Int("skipped", report.Skipped).
		Msg("import finished")
	writeJSON(w, http.StatusOK, report)
}

// Package transfer moves products, customers and inventory ledger rows in
// and out of CSV and XLSX files. Every entity has a fixed column set;
// parsing is lenient and skips rows it cannot read instead of failing the
// whole file.
package transfer

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"posadmin/internal/domain"
)

var (
	ErrUnsupportedFile = errors.New("unsupported file type, use .csv or .xlsx")
	ErrEmptyImport     = errors.New("file contains no importable rows")
	ErrHeaderMismatch  = errors.New("file header does not match the expected columns")
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	EntityProducts  = "products"
	EntityCustomers = "customers"
	EntityInventory = "inventory"
)

// FormatFromFilename picks the format from the file extension, ignoring case.
func FormatFromFilename(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(strings.TrimSpace(name))) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx":
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFile
}

func ParseFormat(value string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(value))) {
	case FormatCSV, "":
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", ErrUnsupportedFile
}

func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename is the download name for an export, e.g. products-20240301-090000.csv.
func Filename(entity string, format Format, at time.Time) string {
	return fmt.Sprintf("%s-%s.%s", entity, at.UTC().Format("20060102-150405"), format)
}

// Result is the outcome of parsing one file.
type Result[T any] struct {
	Rows    []T
	Skipped int
	Errors  []string
}

func WriteProducts(w io.Writer, format Format, products []domain.Product) error {
	return write(w, format, productTable, products)
}

func ReadProducts(r io.Reader, format Format) (Result[domain.Product], error) {
	return read(r, format, productTable)
}

func WriteCustomers(w io.Writer, format Format, customers []domain.Customer) error {
	return write(w, format, customerTable, customers)
}

func ReadCustomers(r io.Reader, format Format) (Result[domain.Customer], error) {
	return read(r, format, customerTable)
}

func WriteInventoryLogs(w io.Writer, format Format, entries []domain.InventoryLogEntry) error {
	return write(w, format, inventoryTable, entries)
}

func ReadInventoryLogs(r io.Reader, format Format) (Result[domain.InventoryLogEntry], error) {
	return read(r, format, inventoryTable)
}

func write[T any](w io.Writer, format Format, t table[T], rows []T) error {
	switch format {
	case FormatCSV:
		return writeCSV(w, t, rows)
	case FormatXLSX:
		return writeXLSX(w, t, rows)
	}
	return ErrUnsupportedFile
}

func read[T any](r io.Reader, format Format, t table[T]) (Result[T], error) {
	var (
		records [][]string
		dropped []string
		err     error
	)
	switch format {
	case FormatCSV:
		records, dropped, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return Result[T]{}, ErrUnsupportedFile
	}
	if err != nil {
		return Result[T]{}, err
	}
	res, err := t.decode(records)
	if len(dropped) > 0 {
		res.Skipped += len(dropped)
		res.Errors = append(dropped, res.Errors...)
	}
	return res, err
}

package transfer

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posadmin/internal/domain"
)

func intp(v int) *int { return &v }

func sampleProducts() []domain.Product {
	at := time.Date(2024, 3, 1, 9, 30, 0, 123456789, time.UTC)
	return []domain.Product{
		{
			ID: "prod-1", Name: "Espresso Beans", Description: "Dark roast",
			Price: decimal.RequireFromString("24.5"), Cost: decimal.RequireFromString("13.25"),
			Inventory: intp(40), MinStock: 10, SKU: "BEV-1", Barcode: "0123456789012",
			CategoryID: "cat-1", VendorID: "ven-1", Status: domain.ProductStatusActive,
			Tags: []string{"coffee", "whole bean"}, Image: "https://img.test/beans.png",
			CreatedAt: at, UpdatedAt: at.Add(time.Hour),
		},
		{
			ID: "prod-2", Name: `Tote, "Large"`, Description: "line one\nline two",
			Price: decimal.RequireFromString("15"), Cost: decimal.RequireFromString("4"),
			Inventory: nil, Status: domain.ProductStatusDraft,
			Tags:      []string{"a|b", `back\slash`, "plain"},
			CreatedAt: at, UpdatedAt: at,
		},
	}
}

func asJSON(t *testing.T, v any) string {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return string(raw)
}

func TestProductsCSVRoundTrip(t *testing.T) {
	products := sampleProducts()

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, FormatCSV, products))
	assert.True(t, strings.HasPrefix(buf.String(), "id,name,description,price,cost,inventory,minStock,sku,barcode,categoryId,vendorId,status,tags,image,createdAt,updatedAt\n"))

	res, err := ReadProducts(&buf, FormatCSV)
	require.NoError(t, err)
	assert.Zero(t, res.Skipped)
	assert.JSONEq(t, asJSON(t, products), asJSON(t, res.Rows))
	assert.Nil(t, res.Rows[1].Inventory)
}

func TestProductsXLSXRoundTrip(t *testing.T) {
	products := sampleProducts()

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, FormatXLSX, products))

	res, err := ReadProducts(bytes.NewReader(buf.Bytes()), FormatXLSX)
	require.NoError(t, err)
	assert.JSONEq(t, asJSON(t, products), asJSON(t, res.Rows))
}

func TestCustomersRoundTrip(t *testing.T) {
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	customers := []domain.Customer{{
		ID: "cust-1", FullName: "Ada Lovelace", Email: "ada@example.test", Phone: "+1 555 0100",
		CompanyName: "Engines, Ltd", Address: domain.Address{Street: "1 Main St", City: "Springfield", State: "IL", Zip: "00601", Country: "US"},
		Notes: "prefers email", Orders: 3, AmountSpent: decimal.RequireFromString("120.75"),
		CreatedAt: at, UpdatedAt: at,
	}}

	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteCustomers(&buf, format, customers))
			res, err := ReadCustomers(bytes.NewReader(buf.Bytes()), format)
			require.NoError(t, err)
			assert.JSONEq(t, asJSON(t, customers), asJSON(t, res.Rows))
		})
	}
}

func TestInventoryLogsRoundTrip(t *testing.T) {
	entries := []domain.InventoryLogEntry{{
		ID: "1709285400000000000", Timestamp: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		ProductID: "prod-1", ProductName: "Espresso Beans", ProductSKU: "BEV-1",
		PreviousQuantity: 40, NewQuantity: 35, QuantityChange: -5, ReasonType: domain.ReasonSale,
		Notes: "counter sale", ReferenceNumber: "ORD-1", UserID: "admin", UserName: "admin",
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteInventoryLogs(&buf, FormatCSV, entries))
	res, err := ReadInventoryLogs(&buf, FormatCSV)
	require.NoError(t, err)
	assert.JSONEq(t, asJSON(t, entries), asJSON(t, res.Rows))
}

func TestReadSkipsBadRows(t *testing.T) {
	input := "\ufeffid,timestamp,productId,productName,productSku,previousQuantity,newQuantity,quantityChange,reasonType,notes,referenceNumber,userId,userName\n" +
		"1,,p1,Beans,,1,2,1,purchase,,,,\n" +
		"2,,p1,Beans,,1,2,1,purchase\n" +
		"3,,p1,Beans,,one,2,1,purchase,,,,\n" +
		"4,,p1,Beans,,1,2,1,stolen,,,,\n" +
		"\n" +
		"5,,p2,Milk,,0,4,4,count,,,,\n"

	res, err := ReadInventoryLogs(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "1", res.Rows[0].ID)
	assert.Equal(t, "5", res.Rows[1].ID)
	assert.Equal(t, 3, res.Skipped)
	require.Len(t, res.Errors, 3)
	assert.Contains(t, res.Errors[0], "row 3")
}

func TestReadCountsUnparseableCSVRecords(t *testing.T) {
	input := "id,timestamp,productId,productName,productSku,previousQuantity,newQuantity,quantityChange,reasonType,notes,referenceNumber,userId,userName\n" +
		"1,,p1,Beans,,1,2,1,purchase,,,,\n" +
		"2,,p1,Be\"ans,,1,2,1,purchase,,,,\n" +
		"3,,p1,Beans,,one,2,1,purchase,,,,\n" +
		"4,,p2,Milk,,0,4,4,count,,,,\n"

	res, err := ReadInventoryLogs(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "4", res.Rows[1].ID)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], "row 3")
	assert.Contains(t, res.Errors[0], "quote")
	assert.Contains(t, res.Errors[1], "row 4")
}

func TestReadQuotedCRLFBecomesLF(t *testing.T) {
	input := "id,name,description,price,cost,inventory,minStock,sku,barcode,categoryId,vendorId,status,tags,image,createdAt,updatedAt\r\n" +
		"p1,Beans,\"line one\r\nline two\",1.5,0.5,,0,,,,,active,,,,\r\n"

	res, err := ReadProducts(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "line one\nline two", res.Rows[0].Description)
}

func TestReadHeaderInAnyOrder(t *testing.T) {
	input := "name,id,description,price,cost,inventory,minStock,sku,barcode,categoryId,vendorId,status,tags,image,createdAt,updatedAt\n" +
		"Beans,p1,,1.5,0.5,,0,,,,,active,x|y,,,\n"
	res, err := ReadProducts(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "p1", res.Rows[0].ID)
	assert.Equal(t, "Beans", res.Rows[0].Name)
	assert.Equal(t, []string{"x", "y"}, res.Rows[0].Tags)
	assert.False(t, res.Rows[0].Tracked())
}

func TestReadErrors(t *testing.T) {
	_, err := ReadProducts(strings.NewReader("id,name\np1,Beans\n"), FormatCSV)
	assert.ErrorIs(t, err, ErrHeaderMismatch)

	_, err = ReadProducts(strings.NewReader(""), FormatCSV)
	assert.ErrorIs(t, err, ErrEmptyImport)

	var buf bytes.Buffer
	require.NoError(t, WriteProducts(&buf, FormatCSV, nil))
	_, err = ReadProducts(&buf, FormatCSV)
	assert.ErrorIs(t, err, ErrEmptyImport)

	_, err = ReadProducts(strings.NewReader("x"), Format("pdf"))
	assert.ErrorIs(t, err, ErrUnsupportedFile)
}

func TestFormatFromFilename(t *testing.T) {
	cases := map[string]error{
		"products.csv":    nil,
		"PRODUCTS.CSV":    nil,
		"export.XLSX":     nil,
		"products.txt":    ErrUnsupportedFile,
		"products.csv.gz": ErrUnsupportedFile,
		"noextension":     ErrUnsupportedFile,
	}
	for name, want := range cases {
		_, err := FormatFromFilename(name)
		if want == nil {
			assert.NoError(t, err, name)
		} else {
			assert.ErrorIs(t, err, want, name)
		}
	}

	f, err := FormatFromFilename("a.Xlsx")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)
}

func TestTagsEscaping(t *testing.T) {
	tags := []string{"a|b", `c\d`, `\|`, "plain"}
	joined := JoinTags(tags)
	assert.Equal(t, `a\|b|c\\d|\\\||plain`, joined)
	assert.Equal(t, tags, SplitTags(joined))

	assert.Nil(t, SplitTags(""))
	assert.Equal(t, []string{"x", "y"}, SplitTags("x||y|"))
}

func TestFilename(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 5, 7, 0, time.UTC)
	assert.Equal(t, "products-20240301-090507.csv", Filename(EntityProducts, FormatCSV, at))
}

package transfer

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"posadmin/internal/domain"
)

const tagSeparator = '|'

var productTable = table[domain.Product]{
	entity: EntityProducts,
	columns: []column[domain.Product]{
		{"id", func(p domain.Product) string { return p.ID }, func(p *domain.Product, v string) error { p.ID = strings.TrimSpace(v); return nil }},
		{"name", func(p domain.Product) string { return p.Name }, func(p *domain.Product, v string) error { p.Name = v; return nil }},
		{"description", func(p domain.Product) string { return p.Description }, func(p *domain.Product, v string) error { p.Description = v; return nil }},
		{"price", func(p domain.Product) string { return p.Price.String() }, func(p *domain.Product, v string) error { return parseMoney(v, &p.Price) }},
		{"cost", func(p domain.Product) string { return p.Cost.String() }, func(p *domain.Product, v string) error { return parseMoney(v, &p.Cost) }},
		{"inventory", func(p domain.Product) string { return formatOptionalInt(p.Inventory) }, func(p *domain.Product, v string) error { return parseOptionalInt(v, &p.Inventory) }},
		{"minStock", func(p domain.Product) string { return strconv.Itoa(p.MinStock) }, func(p *domain.Product, v string) error { return parseInt(v, &p.MinStock) }},
		{"sku", func(p domain.Product) string { return p.SKU }, func(p *domain.Product, v string) error { p.SKU = strings.TrimSpace(v); return nil }},
		{"barcode", func(p domain.Product) string { return p.Barcode }, func(p *domain.Product, v string) error { p.Barcode = strings.TrimSpace(v); return nil }},
		{"categoryId", func(p domain.Product) string { return p.CategoryID }, func(p *domain.Product, v string) error { p.CategoryID = strings.TrimSpace(v); return nil }},
		{"vendorId", func(p domain.Product) string { return p.VendorID }, func(p *domain.Product, v string) error { p.VendorID = strings.TrimSpace(v); return nil }},
		{"status", func(p domain.Product) string { return string(p.Status) }, parseProductStatus},
		{"tags", func(p domain.Product) string { return JoinTags(p.Tags) }, func(p *domain.Product, v string) error { p.Tags = SplitTags(v); return nil }},
		{"image", func(p domain.Product) string { return p.Image }, func(p *domain.Product, v string) error { p.Image = v; return nil }},
		{"createdAt", func(p domain.Product) string { return formatTime(p.CreatedAt) }, func(p *domain.Product, v string) error { return parseTime(v, &p.CreatedAt) }},
		{"updatedAt", func(p domain.Product) string { return formatTime(p.UpdatedAt) }, func(p *domain.Product, v string) error { return parseTime(v, &p.UpdatedAt) }},
	},
}

var customerTable = table[domain.Customer]{
	entity: EntityCustomers,
	columns: []column[domain.Customer]{
		{"id", func(c domain.Customer) string { return c.ID }, func(c *domain.Customer, v string) error { c.ID = strings.TrimSpace(v); return nil }},
		{"fullName", func(c domain.Customer) string { return c.FullName }, func(c *domain.Customer, v string) error { c.FullName = v; return nil }},
		{"email", func(c domain.Customer) string { return c.Email }, func(c *domain.Customer, v string) error { c.Email = strings.TrimSpace(v); return nil }},
		{"phone", func(c domain.Customer) string { return c.Phone }, func(c *domain.Customer, v string) error { c.Phone = v; return nil }},
		{"companyName", func(c domain.Customer) string { return c.CompanyName }, func(c *domain.Customer, v string) error { c.CompanyName = v; return nil }},
		{"street", func(c domain.Customer) string { return c.Address.Street }, func(c *domain.Customer, v string) error { c.Address.Street = v; return nil }},
		{"city", func(c domain.Customer) string { return c.Address.City }, func(c *domain.Customer, v string) error { c.Address.City = v; return nil }},
		{"state", func(c domain.Customer) string { return c.Address.State }, func(c *domain.Customer, v string) error { c.Address.State = v; return nil }},
		{"zip", func(c domain.Customer) string { return c.Address.Zip }, func(c *domain.Customer, v string) error { c.Address.Zip = v; return nil }},
		{"country", func(c domain.Customer) string { return c.Address.Country }, func(c *domain.Customer, v string) error { c.Address.Country = v; return nil }},
		{"notes", func(c domain.Customer) string { return c.Notes }, func(c *domain.Customer, v string) error { c.Notes = v; return nil }},
		{"orders", func(c domain.Customer) string { return strconv.Itoa(c.Orders) }, func(c *domain.Customer, v string) error { return parseInt(v, &c.Orders) }},
		{"amountSpent", func(c domain.Customer) string { return c.AmountSpent.String() }, func(c *domain.Customer, v string) error { return parseMoney(v, &c.AmountSpent) }},
		{"createdAt", func(c domain.Customer) string { return formatTime(c.CreatedAt) }, func(c *domain.Customer, v string) error { return parseTime(v, &c.CreatedAt) }},
		{"updatedAt", func(c domain.Customer) string { return formatTime(c.UpdatedAt) }, func(c *domain.Customer, v string) error { return parseTime(v, &c.UpdatedAt) }},
	},
}

var inventoryTable = table[domain.InventoryLogEntry]{
	entity: EntityInventory,
	columns: []column[domain.InventoryLogEntry]{
		{"id", func(e domain.InventoryLogEntry) string { return e.ID }, func(e *domain.InventoryLogEntry, v string) error { e.ID = strings.TrimSpace(v); return nil }},
		{"timestamp", func(e domain.InventoryLogEntry) string { return formatTime(e.Timestamp) }, func(e *domain.InventoryLogEntry, v string) error { return parseTime(v, &e.Timestamp) }},
		{"productId", func(e domain.InventoryLogEntry) string { return e.ProductID }, func(e *domain.InventoryLogEntry, v string) error { e.ProductID = strings.TrimSpace(v); return nil }},
		{"productName", func(e domain.InventoryLogEntry) string { return e.ProductName }, func(e *domain.InventoryLogEntry, v string) error { e.ProductName = v; return nil }},
		{"productSku", func(e domain.InventoryLogEntry) string { return e.ProductSKU }, func(e *domain.InventoryLogEntry, v string) error { e.ProductSKU = v; return nil }},
		{"previousQuantity", func(e domain.InventoryLogEntry) string { return strconv.Itoa(e.PreviousQuantity) }, func(e *domain.InventoryLogEntry, v string) error { return parseInt(v, &e.PreviousQuantity) }},
		{"newQuantity", func(e domain.InventoryLogEntry) string { return strconv.Itoa(e.NewQuantity) }, func(e *domain.InventoryLogEntry, v string) error { return parseInt(v, &e.NewQuantity) }},
		{"quantityChange", func(e domain.InventoryLogEntry) string { return strconv.Itoa(e.QuantityChange) }, func(e *domain.InventoryLogEntry, v string) error { return parseInt(v, &e.QuantityChange) }},
		{"reasonType", func(e domain.InventoryLogEntry) string { return string(e.ReasonType) }, parseReason},
		{"notes", func(e domain.InventoryLogEntry) string { return e.Notes }, func(e *domain.InventoryLogEntry, v string) error { e.Notes = v; return nil }},
		{"referenceNumber", func(e domain.InventoryLogEntry) string { return e.ReferenceNumber }, func(e *domain.InventoryLogEntry, v string) error { e.ReferenceNumber = v; return nil }},
		{"userId", func(e domain.InventoryLogEntry) string { return e.UserID }, func(e *domain.InventoryLogEntry, v string) error { e.UserID = v; return nil }},
		{"userName", func(e domain.InventoryLogEntry) string { return e.UserName }, func(e *domain.InventoryLogEntry, v string) error { e.UserName = v; return nil }},
	},
}

func parseProductStatus(p *domain.Product, v string) error {
	status := domain.ProductStatus(strings.ToLower(strings.TrimSpace(v)))
	if status != "" && !status.Valid() {
		return errors.New("unknown status " + strconv.Quote(v))
	}
	p.Status = status
	return nil
}

func parseReason(e *domain.InventoryLogEntry, v string) error {
	reason := domain.ReasonType(strings.ToLower(strings.TrimSpace(v)))
	if !reason.Valid() {
		return errors.New("unknown reason " + strconv.Quote(v))
	}
	e.ReasonType = reason
	return nil
}

// parseMoney reads an empty cell as zero.
func parseMoney(v string, dst *decimal.Decimal) error {
	v = strings.TrimSpace(v)
	if v == "" {
		*dst = decimal.Zero
		return nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return err
	}
	if d.IsNegative() {
		return errors.New("must not be negative")
	}
	*dst = d
	return nil
}

func parseInt(v string, dst *int) error {
	v = strings.TrimSpace(v)
	if v == "" {
		*dst = 0
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

// An empty inventory cell means the product is not tracked.
func parseOptionalInt(v string, dst **int) error {
	v = strings.TrimSpace(v)
	if v == "" {
		*dst = nil
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return err
	}
	*dst = &n
	return nil
}

func formatOptionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339Nano)
}

func parseTime(v string, dst *time.Time) error {
	v = strings.TrimSpace(v)
	if v == "" {
		*dst = time.Time{}
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return err
	}
	*dst = t
	return nil
}

// JoinTags joins tags with '|', escaping '|' and '\' inside a tag with a
// backslash.
func JoinTags(tags []string) string {
	var b strings.Builder
	for i, tag := range tags {
		if i > 0 {
			b.WriteRune(tagSeparator)
		}
		for _, r := range tag {
			if r == tagSeparator || r == '\\' {
				b.WriteByte('\\')
			}
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SplitTags reverses JoinTags. Empty tags are dropped.
func SplitTags(value string) []string {
	if value == "" {
		return nil
	}
	var (
		tags    []string
		current strings.Builder
		escaped bool
	)
	flush := func() {
		if tag := strings.TrimSpace(current.String()); tag != "" {
			tags = append(tags, current.String())
		}
		current.Reset()
	}
	for _, r := range value {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == tagSeparator:
			flush()
		default:
			current.WriteRune(r)
		}
	}
	if escaped {
		current.WriteByte('\\')
	}
	flush()
	return tags
}

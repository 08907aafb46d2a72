package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Persisted collections and API payloads carry money as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDraft    ProductStatus = "draft"
)

func (s ProductStatus) Valid() bool {
	switch s {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDraft:
		return true
	}
	return false
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Cost        decimal.Decimal `json:"cost"`
	Inventory   *int            `json:"inventory"`
	MinStock    int             `json:"minStock"`
	SKU         string          `json:"sku,omitempty"`
	Barcode     string          `json:"barcode,omitempty"`
	CategoryID  string          `json:"categoryId,omitempty"`
	VendorID    string          `json:"vendorId,omitempty"`
	Status      ProductStatus   `json:"status"`
	Tags        []string        `json:"tags,omitempty"`
	Image       string          `json:"image,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// Tracked reports whether the product keeps an inventory count.
func (p Product) Tracked() bool {
	return p.Inventory != nil
}

func (p Product) Stock() int {
	if p.Inventory == nil {
		return 0
	}
	return *p.Inventory
}

type ProductPatch struct {
	Name        *string          `json:"name,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price,omitempty"`
	Cost        *decimal.Decimal `json:"cost,omitempty"`
	Inventory   NullableInt      `json:"inventory"`
	MinStock    *int             `json:"minStock,omitempty"`
	SKU         *string          `json:"sku,omitempty"`
	Barcode     *string          `json:"barcode,omitempty"`
	CategoryID  *string          `json:"categoryId,omitempty"`
	VendorID    *string          `json:"vendorId,omitempty"`
	Status      *ProductStatus   `json:"status,omitempty"`
	Tags        *[]string        `json:"tags,omitempty"`
	Image       *string          `json:"image,omitempty"`
}

type StockStatus string

const (
	StockInStock   StockStatus = "in_stock"
	StockLow       StockStatus = "low_stock"
	StockOut       StockStatus = "out_of_stock"
	StockUntracked StockStatus = "untracked"
)

const (
	SortAscending  = "asc"
	SortDescending = "desc"
)

type ProductFilter struct {
	CategoryID  string
	VendorID    string
	MinPrice    *decimal.Decimal
	MaxPrice    *decimal.Decimal
	StockStatus StockStatus
	Tags        []string
	SortBy      string
	SortDir     string
}

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Zip     string `json:"zip,omitempty"`
	Country string `json:"country,omitempty"`
}

type Customer struct {
	ID          string          `json:"id"`
	FullName    string          `json:"fullName"`
	Email       string          `json:"email,omitempty"`
	Phone       string          `json:"phone,omitempty"`
	CompanyName string          `json:"companyName,omitempty"`
	Address     Address         `json:"address"`
	Notes       string          `json:"notes,omitempty"`
	Orders      int             `json:"orders"`
	AmountSpent decimal.Decimal `json:"amountSpent"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

type CustomerPatch struct {
	FullName    *string  `json:"fullName,omitempty"`
	Email       *string  `json:"email,omitempty"`
	Phone       *string  `json:"phone,omitempty"`
	CompanyName *string  `json:"companyName,omitempty"`
	Address     *Address `json:"address,omitempty"`
	Notes       *string  `json:"notes,omitempty"`
}

type Category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Vendor struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contactName,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// DirectoryPatch updates categories and vendors; fields a category does not
// carry are ignored.
type DirectoryPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	ContactName *string `json:"contactName,omitempty"`
	Email       *string `json:"email,omitempty"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	Notes       *string `json:"notes,omitempty"`
}

type ReasonType string

const (
	ReasonPurchase   ReasonType = "purchase"
	ReasonSale       ReasonType = "sale"
	ReasonReturn     ReasonType = "return"
	ReasonDamage     ReasonType = "damage"
	ReasonAdjustment ReasonType = "adjustment"
	ReasonCount      ReasonType = "count"
	ReasonTransfer   ReasonType = "transfer"
	ReasonOther      ReasonType = "other"
)

func (r ReasonType) Valid() bool {
	switch r {
	case ReasonPurchase, ReasonSale, ReasonReturn, ReasonDamage,
		ReasonAdjustment, ReasonCount, ReasonTransfer, ReasonOther:
		return true
	}
	return false
}

type InventoryLogEntry struct {
	ID               string     `json:"id"`
	Timestamp        time.Time  `json:"timestamp"`
	ProductID        string     `json:"productId"`
	ProductName      string     `json:"productName"`
	ProductSKU       string     `json:"productSku,omitempty"`
	PreviousQuantity int        `json:"previousQuantity"`
	NewQuantity      int        `json:"newQuantity"`
	QuantityChange   int        `json:"quantityChange"`
	ReasonType       ReasonType `json:"reasonType"`
	Notes            string     `json:"notes,omitempty"`
	ReferenceNumber  string     `json:"referenceNumber,omitempty"`
	UserID           string     `json:"userId,omitempty"`
	UserName         string     `json:"userName,omitempty"`
}

type StockChange struct {
	ProductID       string     `json:"productId"`
	QuantityChange  int        `json:"quantityChange"`
	ReasonType      ReasonType `json:"reasonType"`
	Notes           string     `json:"notes,omitempty"`
	ReferenceNumber string     `json:"referenceNumber,omitempty"`
}

type StockAdjustmentRequest struct {
	Changes []StockChange `json:"changes"`
}

type StockAdjustmentResponse struct {
	Entries []InventoryLogEntry `json:"entries"`
}

type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "pending"
	OrderStatusCompleted       OrderStatus = "completed"
	OrderStatusCancelled       OrderStatus = "cancelled"
	OrderStatusRefunded        OrderStatus = "refunded"
	OrderStatusPartialRefunded OrderStatus = "partial-refunded"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusCompleted, OrderStatusCancelled,
		OrderStatusRefunded, OrderStatusPartialRefunded:
		return true
	}
	return false
}

// OrderCustomer is a weak reference to a customer. A nil reference, or one
// without an ID, is a walk-in sale.
type OrderCustomer struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type OrderItem struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	SKU      string          `json:"sku,omitempty"`
	Quantity int             `json:"quantity"`
	Discount *Discount       `json:"discount,omitempty"`
}

type Order struct {
	ID            string          `json:"id"`
	Date          time.Time       `json:"date"`
	Customer      *OrderCustomer  `json:"customer"`
	Items         []OrderItem     `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Discount      decimal.Decimal `json:"discount"`
	OrderDiscount *Discount       `json:"orderDiscount,omitempty"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	Payment       Payment         `json:"payment"`
	Notes         string          `json:"notes,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	Status        OrderStatus     `json:"status"`
	Refunds       []Refund        `json:"refunds,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func (o Order) IsWalkIn() bool {
	return o.Customer == nil || o.Customer.ID == ""
}

func (o Order) RefundedAmount() decimal.Decimal {
	total := decimal.Zero
	for _, refund := range o.Refunds {
		total = total.Add(refund.Amount)
	}
	return total
}

type ItemCondition string

const (
	ConditionNew     ItemCondition = "new"
	ConditionDamaged ItemCondition = "damaged"
	ConditionOpened  ItemCondition = "opened"
)

func (c ItemCondition) Valid() bool {
	switch c {
	case ConditionNew, ConditionDamaged, ConditionOpened:
		return true
	}
	return false
}

type RefundMethod string

const (
	RefundCash        RefundMethod = "cash"
	RefundCard        RefundMethod = "card"
	RefundStoreCredit RefundMethod = "store_credit"
)

func (m RefundMethod) Valid() bool {
	switch m {
	case RefundCash, RefundCard, RefundStoreCredit:
		return true
	}
	return false
}

type RefundItem struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Condition ItemCondition   `json:"condition"`
	Tax       decimal.Decimal `json:"tax"`
}

type Refund struct {
	ID          string          `json:"id"`
	OrderID     string          `json:"orderId"`
	Timestamp   time.Time       `json:"timestamp"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Tax         decimal.Decimal `json:"tax"`
	Amount      decimal.Decimal `json:"amount"`
	Items       []RefundItem    `json:"items"`
	Method      RefundMethod    `json:"method"`
	Note        string          `json:"note,omitempty"`
	RestockedAt *time.Time      `json:"restockedAt,omitempty"`
}

type CartItem struct {
	ProductID string         `json:"productId"`
	Quantity  int            `json:"quantity"`
	Discount  *DiscountInput `json:"discount,omitempty"`
}

type CartRequest struct {
	Items         []CartItem     `json:"items"`
	OrderDiscount *DiscountInput `json:"orderDiscount,omitempty"`
	ApplyTax      bool           `json:"applyTax"`
}

type CartQuote struct {
	Items    []OrderItem     `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}

type CheckoutRequest struct {
	CartRequest
	Customer *OrderCustomer `json:"customer,omitempty"`
	Payment  Payment        `json:"payment"`
	Notes    string         `json:"notes,omitempty"`
	Tags     []string       `json:"tags,omitempty"`
	Status   OrderStatus    `json:"status,omitempty"`
}

type RefundLine struct {
	ItemID    string        `json:"itemId"`
	Quantity  int           `json:"quantity"`
	Condition ItemCondition `json:"condition"`
}

type RefundRequest struct {
	Items       []RefundLine `json:"items"`
	Method      RefundMethod `json:"method"`
	Note        string       `json:"note,omitempty"`
	ManagerPIN  string       `json:"managerPin,omitempty"`
	ManagerCode string       `json:"managerCode,omitempty"`
}

type RefundResult struct {
	Order                Order           `json:"order"`
	Refund               Refund          `json:"refund"`
	RemainingBalance     decimal.Decimal `json:"remainingBalance"`
	HasRestockCandidates bool            `json:"hasRestockCandidates"`
	InventoryUpdated     bool            `json:"inventoryUpdated"`
}

type RestockResult struct {
	Refund  Refund              `json:"refund"`
	Entries []InventoryLogEntry `json:"entries"`
}

type ReorderSuggestion struct {
	ProductID      string          `json:"productId"`
	Name           string          `json:"name"`
	SKU            string          `json:"sku,omitempty"`
	VendorID       string          `json:"vendorId,omitempty"`
	CurrentStock   int             `json:"currentStock"`
	MinStock       int             `json:"minStock"`
	DailyVelocity  float64         `json:"dailyVelocity"`
	RecommendedQty int             `json:"recommendedQty"`
	EstimatedCost  decimal.Decimal `json:"estimatedCost"`
}

type ReorderSuggestionResponse struct {
	GeneratedAt string              `json:"generatedAt"`
	Suggestions []ReorderSuggestion `json:"suggestions"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"accessToken"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expiresAt"`
}

type Actor struct {
	Username string
	Role     string
}

type CashierCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CashierUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserAccount is the persisted form of an API login.
type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type ImportMode string

const (
	ImportAdd     ImportMode = "add"
	ImportUpdate  ImportMode = "update"
	ImportReplace ImportMode = "replace"
)

func (m ImportMode) Valid() bool {
	switch m {
	case ImportAdd, ImportUpdate, ImportReplace:
		return true
	}
	return false
}

type ImportReport struct {
	Entity  string     `json:"entity"`
	Mode    ImportMode `json:"mode"`
	Added   int        `json:"added"`
	Updated int        `json:"updated"`
	Skipped int        `json:"skipped"`
	Errors  []string   `json:"errors,omitempty"`
}

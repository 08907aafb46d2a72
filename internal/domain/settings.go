package domain

import "github.com/shopspring/decimal"

type BusinessHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

type StoreInfo struct {
	Name          string                   `json:"name"`
	Email         string                   `json:"email,omitempty"`
	Phone         string                   `json:"phone,omitempty"`
	Address       string                   `json:"address,omitempty"`
	BusinessHours map[string]BusinessHours `json:"businessHours,omitempty"`
}

type TaxSettings struct {
	Enabled         bool            `json:"enabled"`
	Rate            decimal.Decimal `json:"rate"`
	Inclusive       bool            `json:"inclusive"`
	ApplyToShipping bool            `json:"applyToShipping"`
}

type PaymentMethods struct {
	Cash        bool `json:"cash"`
	Card        bool `json:"card"`
	StoreCredit bool `json:"storeCredit"`
	Other       bool `json:"other"`
}

func (m PaymentMethods) Allows(method PaymentMethod) bool {
	switch method {
	case PaymentCash:
		return m.Cash
	case PaymentCard:
		return m.Card
	case PaymentStoreCredit:
		return m.StoreCredit
	case PaymentOther:
		return m.Other
	}
	return false
}

type Notifications struct {
	LowStockAlerts     bool `json:"lowStockAlerts"`
	OrderConfirmations bool `json:"orderConfirmations"`
	RefundAlerts       bool `json:"refundAlerts"`
	DailySummary       bool `json:"dailySummary"`
}

type Appearance struct {
	Theme       string `json:"theme"`
	AccentColor string `json:"accentColor"`
	CompactMode bool   `json:"compactMode"`
}

// Settings is stored as a single object under the store_settings key.
type Settings struct {
	StoreInfo      StoreInfo      `json:"storeInfo"`
	TaxSettings    TaxSettings    `json:"taxSettings"`
	PaymentMethods PaymentMethods `json:"paymentMethods"`
	Notifications  Notifications  `json:"notifications"`
	Appearance     Appearance     `json:"appearance"`
}

var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func DefaultSettings(taxRate decimal.Decimal) Settings {
	hours := make(map[string]BusinessHours, len(Weekdays))
	for _, day := range Weekdays {
		hours[day] = BusinessHours{Open: "09:00", Close: "18:00", Closed: day == "sunday"}
	}
	return Settings{
		StoreInfo: StoreInfo{Name: "My Store", BusinessHours: hours},
		TaxSettings: TaxSettings{
			Enabled: true,
			Rate:    taxRate,
		},
		PaymentMethods: PaymentMethods{Cash: true, Card: true, StoreCredit: true, Other: true},
		Notifications:  Notifications{LowStockAlerts: true, OrderConfirmations: true, RefundAlerts: true},
		Appearance:     Appearance{Theme: "light", AccentColor: "#4f46e5"},
	}
}

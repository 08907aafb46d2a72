package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash        PaymentMethod = "cash"
	PaymentCard        PaymentMethod = "card"
	PaymentStoreCredit PaymentMethod = "store_credit"
	PaymentOther       PaymentMethod = "other"
)

type CashPayment struct {
	Tendered decimal.Decimal `json:"tendered"`
	Change   decimal.Decimal `json:"change"`
}

type CardPayment struct {
	Brand    string `json:"brand,omitempty"`
	Last4    string `json:"last4,omitempty"`
	AuthCode string `json:"authCode,omitempty"`
}

type StoreCreditPayment struct {
	CreditID     string          `json:"creditId"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
}

type OtherPayment struct {
	Reference string `json:"reference,omitempty"`
}

// Payment is keyed by Method; exactly the detail block named by Method is set.
type Payment struct {
	Method      PaymentMethod       `json:"method"`
	Cash        *CashPayment        `json:"cash,omitempty"`
	Card        *CardPayment        `json:"card,omitempty"`
	StoreCredit *StoreCreditPayment `json:"storeCredit,omitempty"`
	Other       *OtherPayment       `json:"other,omitempty"`
}

func CashTendered(tendered decimal.Decimal) Payment {
	return Payment{Method: PaymentCash, Cash: &CashPayment{Tendered: tendered}}
}

func CardPaid(brand, last4 string) Payment {
	return Payment{Method: PaymentCard, Card: &CardPayment{Brand: brand, Last4: last4}}
}

func (p Payment) Validate() error {
	present := 0
	for _, set := range []bool{p.Cash != nil, p.Card != nil, p.StoreCredit != nil, p.Other != nil} {
		if set {
			present++
		}
	}
	if present > 1 {
		return errors.New("payment must carry a single method detail")
	}

	switch p.Method {
	case PaymentCash:
		if p.Cash == nil {
			return errors.New("cash payment requires cash details")
		}
		if p.Cash.Tendered.IsNegative() {
			return errors.New("tendered amount must not be negative")
		}
	case PaymentCard:
		if p.Card == nil {
			return errors.New("card payment requires card details")
		}
		if p.Card.Last4 != "" && !isDigits(p.Card.Last4, 4) {
			return errors.New("card last4 must be 4 digits")
		}
	case PaymentStoreCredit:
		if p.StoreCredit == nil || p.StoreCredit.CreditID == "" {
			return errors.New("store credit payment requires a credit id")
		}
	case PaymentOther:
		if p.Other == nil {
			return errors.New("other payment requires details")
		}
	default:
		return fmt.Errorf("unsupported payment method %q", p.Method)
	}
	return nil
}

func isDigits(value string, length int) bool {
	if len(value) != length {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod 支付方式
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCredit   PaymentMethod = "credit"
)

// Valid 是否为已知支付方式
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentTransfer, PaymentCredit:
		return true
	}
	return false
}

// CreditState 赊购状态，仅 credit 采购持有
type CreditState string

const (
	CreditPending CreditState = "pending"
	CreditPaid    CreditState = "paid"
)

// Valid 是否为已知赊购状态
func (s CreditState) Valid() bool {
	return s == CreditPending || s == CreditPaid
}

// PaymentState 派生的支付状态机状态
const (
	StateCreditPending = "CREDIT_PENDING"
	StateCreditPaid    = "CREDIT_PAID"
	StateDirectUnpaid  = "DIRECT_UNPAID"
	StateDirectPaid    = "DIRECT_PAID"
)

// Purchase 采购记录
// 带条目的采购其 Total 恒等于条目小计之和；不带条目的旧式采购 Total 由调用方直接给出。
type Purchase struct {
	ID            uint             `json:"id" gorm:"primaryKey;autoIncrement"`
	SupplierID    uint             `json:"supplier_id" gorm:"not null;index"`
	SupplierName  string           `json:"supplier_name,omitempty" gorm:"-"`
	InvoiceNumber string           `json:"invoice_number" gorm:"size:50;not null"`
	Category      string           `json:"category" gorm:"size:50;not null;index"`
	Description   string           `json:"description" gorm:"type:text;not null"`
	Quantity      *int             `json:"quantity,omitempty"`
	UnitPrice     *decimal.Decimal `json:"unit_price,omitempty" gorm:"type:decimal(12,2)"`
	Total         decimal.Decimal  `json:"total" gorm:"type:decimal(12,2);not null"`
	PurchaseDate  time.Time        `json:"purchase_date" gorm:"not null;index"`
	PaymentMethod PaymentMethod    `json:"payment_method" gorm:"size:20;not null"`
	CreditState   *CreditState     `json:"credit_state,omitempty" gorm:"size:20"`
	PaymentDate   *time.Time       `json:"payment_date,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`

	Supplier *Supplier      `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
	Items    []PurchaseItem `json:"items,omitempty" gorm:"foreignKey:PurchaseID"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// PaymentState 根据支付方式派生当前状态：
// credit 采购看 CreditState，cash/transfer 采购看 PaymentDate 是否存在，
// 两种解释互斥，不会同时生效。
func (p *Purchase) PaymentState() string {
	if p.PaymentMethod == PaymentCredit {
		if p.CreditState != nil && *p.CreditState == CreditPaid {
			return StateCreditPaid
		}
		return StateCreditPending
	}
	if p.PaymentDate != nil {
		return StateDirectPaid
	}
	return StateDirectUnpaid
}

// IsPaid 当前是否已支付
func (p *Purchase) IsPaid() bool {
	s := p.PaymentState()
	return s == StateCreditPaid || s == StateDirectPaid
}

// NormalizeCategory 类别统一为去空格的小写形式
func NormalizeCategory(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

package service

import (
	"time"

	"github.com/bitfantasy/compras/internal/entity"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// PurchaseInput 采购请求体，日期为 YYYY-MM-DD 字符串
type PurchaseInput struct {
	SupplierID    uint             `json:"supplier_id" binding:"required"`
	InvoiceNumber string           `json:"invoice_number"`
	Category      string           `json:"category"`
	Description   string           `json:"description"`
	Quantity      *int             `json:"quantity"`
	UnitPrice     *decimal.Decimal `json:"unit_price"`
	Total         decimal.Decimal  `json:"total"`
	PurchaseDate  string           `json:"purchase_date"`
	PaymentMethod string           `json:"payment_method"`
	CreditState   string           `json:"credit_state"`
	PaymentDate   string           `json:"payment_date"`
	Items         []ItemInput      `json:"items"`
}

// ItemInput 采购条目请求体。参考号与编码是编码的两个子段，
// 两者都有时用 "-" 连接存储。
type ItemInput struct {
	Quantity    int             `json:"quantity"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Code        string          `json:"code"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// ToEntity 转换为采购实体，日期解析失败返回校验错误
func (in *PurchaseInput) ToEntity() (*entity.Purchase, error) {
	p := &entity.Purchase{
		SupplierID:    in.SupplierID,
		InvoiceNumber: in.InvoiceNumber,
		Category:      in.Category,
		Description:   in.Description,
		Quantity:      in.Quantity,
		UnitPrice:     in.UnitPrice,
		Total:         in.Total,
		PaymentMethod: entity.PaymentMethod(in.PaymentMethod),
	}

	if in.PurchaseDate != "" {
		t, err := time.Parse(dateLayout, in.PurchaseDate)
		if err != nil {
			return nil, validationf("purchase_date", "采购日期格式应为 YYYY-MM-DD")
		}
		p.PurchaseDate = t
	}
	if in.CreditState != "" {
		state := entity.CreditState(in.CreditState)
		p.CreditState = &state
	}
	if in.PaymentDate != "" {
		t, err := time.Parse(dateLayout, in.PaymentDate)
		if err != nil {
			return nil, validationf("payment_date", "付款日期格式应为 YYYY-MM-DD")
		}
		p.PaymentDate = &t
	}
	return p, nil
}

// ToEntities 转换条目列表，编码由两个子段组合而成
func ToEntities(inputs []ItemInput) []entity.PurchaseItem {
	items := make([]entity.PurchaseItem, len(inputs))
	for i, in := range inputs {
		items[i] = entity.PurchaseItem{
			Quantity:    in.Quantity,
			Description: in.Description,
			Code:        entity.ComposeItemCode(in.Reference, in.Code),
			UnitPrice:   in.UnitPrice,
		}
	}
	return items
}

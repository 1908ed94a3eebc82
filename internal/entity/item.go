package entity

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PurchaseItem 采购条目
type PurchaseItem struct {
	ID          uint            `json:"id" gorm:"primaryKey;autoIncrement"`
	PurchaseID  uint            `json:"purchase_id" gorm:"not null;index"`
	Quantity    int             `json:"quantity" gorm:"not null"`
	Description string          `json:"description" gorm:"size:200;not null"`
	Code        string          `json:"code,omitempty" gorm:"size:80"`
	UnitPrice   decimal.Decimal `json:"unit_price" gorm:"type:decimal(12,2);not null"`
	Subtotal    decimal.Decimal `json:"subtotal" gorm:"type:decimal(12,2);not null"`
	SortOrder   int             `json:"sort_order" gorm:"not null;default:0"`
	CreatedAt   time.Time       `json:"created_at"`
}

func (PurchaseItem) TableName() string {
	return "purchase_items"
}

// RecalcSubtotal 重算小计 = 数量 × 单价，保留两位小数
func (i *PurchaseItem) RecalcSubtotal() {
	i.Subtotal = decimal.NewFromInt(int64(i.Quantity)).Mul(i.UnitPrice).Round(2)
}

// ComposeItemCode 组合条目编码：仅当参考号与编码都存在时用 "-" 连接
func ComposeItemCode(ref, code string) string {
	ref = strings.TrimSpace(ref)
	code = strings.TrimSpace(code)
	if ref == "" {
		return code
	}
	if code == "" {
		return ref
	}
	return ref + "-" + code
}

// SplitItemCode 按第一个 "-" 拆回参考号与编码
func SplitItemCode(full string) (ref, code string) {
	if idx := strings.Index(full, "-"); idx >= 0 {
		return full[:idx], full[idx+1:]
	}
	return "", full
}

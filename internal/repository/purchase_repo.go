package repository

import (
	"time"

	"github.com/bitfantasy/compras/internal/entity"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PurchaseRepository struct {
	db *gorm.DB
}

func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Insert 插入采购记录并回填自增ID。条目不随采购级联写入，由调用方逐条插入。
func (r *PurchaseRepository) Insert(p *entity.Purchase) error {
	return r.db.Omit(clause.Associations).Create(p).Error
}

func (r *PurchaseRepository) Update(p *entity.Purchase) error {
	return r.db.Omit(clause.Associations).Save(p).Error
}

func (r *PurchaseRepository) GetByID(id uint) (*entity.Purchase, error) {
	var p entity.Purchase
	err := r.db.Preload("Supplier").
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		First(&p, id).Error
	if err != nil {
		return nil, err
	}
	fillSupplierName(&p)
	return &p, nil
}

func (r *PurchaseRepository) Delete(id uint) error {
	return r.db.Delete(&entity.Purchase{}, id).Error
}

// PurchaseFilter 列表过滤条件，零值字段不参与过滤
type PurchaseFilter struct {
	SupplierID    uint
	Category      string
	PaymentMethod entity.PaymentMethod
	From          *time.Time
	To            *time.Time
}

func (r *PurchaseRepository) List(f PurchaseFilter) ([]entity.Purchase, error) {
	query := r.db.Model(&entity.Purchase{}).Preload("Supplier")
	if f.SupplierID != 0 {
		query = query.Where("supplier_id = ?", f.SupplierID)
	}
	if f.Category != "" {
		query = query.Where("category = ?", entity.NormalizeCategory(f.Category))
	}
	if f.PaymentMethod != "" {
		query = query.Where("payment_method = ?", f.PaymentMethod)
	}
	if f.From != nil {
		query = query.Where("purchase_date >= ?", *f.From)
	}
	if f.To != nil {
		query = query.Where("purchase_date <= ?", *f.To)
	}
	var purchases []entity.Purchase
	err := query.Order("purchase_date DESC").Find(&purchases).Error
	for i := range purchases {
		fillSupplierName(&purchases[i])
	}
	return purchases, err
}

func (r *PurchaseRepository) PendingCredits() ([]entity.Purchase, error) {
	return r.listCreditsByState(entity.CreditPending)
}

func (r *PurchaseRepository) PaidCredits() ([]entity.Purchase, error) {
	return r.listCreditsByState(entity.CreditPaid)
}

func (r *PurchaseRepository) listCreditsByState(state entity.CreditState) ([]entity.Purchase, error) {
	var purchases []entity.Purchase
	err := r.db.Preload("Supplier").
		Where("payment_method = ? AND credit_state = ?", entity.PaymentCredit, state).
		Order("purchase_date DESC").
		Find(&purchases).Error
	for i := range purchases {
		fillSupplierName(&purchases[i])
	}
	return purchases, err
}

func (r *PurchaseRepository) TotalBySupplier(supplierID uint) (decimal.Decimal, error) {
	return r.sumTotal("supplier_id = ?", supplierID)
}

func (r *PurchaseRepository) TotalByCategory(category string) (decimal.Decimal, error) {
	return r.sumTotal("category = ?", entity.NormalizeCategory(category))
}

func (r *PurchaseRepository) TotalByPeriod(from, to time.Time) (decimal.Decimal, error) {
	return r.sumTotal("purchase_date >= ? AND purchase_date <= ?", from, to)
}

func (r *PurchaseRepository) TotalPendingCredits() (decimal.Decimal, error) {
	return r.sumTotal("payment_method = ? AND credit_state = ?", entity.PaymentCredit, entity.CreditPending)
}

func (r *PurchaseRepository) PendingBySupplier(supplierID uint) (decimal.Decimal, error) {
	return r.sumTotal("supplier_id = ? AND payment_method = ? AND credit_state = ?",
		supplierID, entity.PaymentCredit, entity.CreditPending)
}

func (r *PurchaseRepository) sumTotal(cond string, args ...interface{}) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	err := r.db.Model(&entity.Purchase{}).
		Select("COALESCE(SUM(total), 0) AS total").
		Where(cond, args...).
		Scan(&result).Error
	return result.Total, err
}

func fillSupplierName(p *entity.Purchase) {
	if p.Supplier != nil {
		p.SupplierName = p.Supplier.Name
	}
}

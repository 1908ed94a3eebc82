package repository

import (
	"fmt"
	"strings"

	"github.com/bitfantasy/compras/internal/entity"
	"gorm.io/gorm"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

// Insert 插入采购条目并回填自增ID。
// 条目不变式在这里再校验一次，不只依赖服务层：非法数据一律拒绝入库。
func (r *ItemRepository) Insert(item *entity.PurchaseItem) error {
	if item.PurchaseID == 0 {
		return fmt.Errorf("purchase item: invalid purchase id %d", item.PurchaseID)
	}
	if item.Quantity <= 0 {
		return fmt.Errorf("purchase item: invalid quantity %d", item.Quantity)
	}
	item.Description = strings.TrimSpace(item.Description)
	if item.Description == "" {
		return fmt.Errorf("purchase item: empty description")
	}
	if !item.UnitPrice.IsPositive() {
		return fmt.Errorf("purchase item: invalid unit price %s", item.UnitPrice)
	}
	if !item.Subtotal.IsPositive() {
		return fmt.Errorf("purchase item: invalid subtotal %s", item.Subtotal)
	}
	item.Code = strings.TrimSpace(item.Code)
	return r.db.Create(item).Error
}

func (r *ItemRepository) GetByID(id uint) (*entity.PurchaseItem, error) {
	var item entity.PurchaseItem
	err := r.db.First(&item, id).Error
	return &item, err
}

func (r *ItemRepository) ListByPurchase(purchaseID uint) ([]entity.PurchaseItem, error) {
	var items []entity.PurchaseItem
	err := r.db.Where("purchase_id = ?", purchaseID).
		Order("sort_order ASC").
		Find(&items).Error
	return items, err
}

// DeleteByPurchase 删除采购的全部条目，返回删除行数。0 行也算成功。
func (r *ItemRepository) DeleteByPurchase(purchaseID uint) (int64, error) {
	result := r.db.Where("purchase_id = ?", purchaseID).Delete(&entity.PurchaseItem{})
	return result.RowsAffected, result.Error
}

func (r *ItemRepository) CountByPurchase(purchaseID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entity.PurchaseItem{}).
		Where("purchase_id = ?", purchaseID).
		Count(&count).Error
	return count, err
}

// SumQuantityByPurchase 单个采购的条目数量合计，无条目时为 0
func (r *ItemRepository) SumQuantityByPurchase(purchaseID uint) (int, error) {
	var result struct{ Total int }
	err := r.db.Model(&entity.PurchaseItem{}).
		Select("COALESCE(SUM(quantity), 0) AS total").
		Where("purchase_id = ?", purchaseID).
		Scan(&result).Error
	return result.Total, err
}

// SumQuantityByPurchases 多个采购一次分组查询拿到数量合计，
// 避免逐行查询。没有条目的采购ID不出现在结果里。
func (r *ItemRepository) SumQuantityByPurchases(ids []uint) (map[uint]int, error) {
	quantities := make(map[uint]int, len(ids))
	if len(ids) == 0 {
		return quantities, nil
	}

	var rows []struct {
		PurchaseID uint
		Total      int
	}
	err := r.db.Model(&entity.PurchaseItem{}).
		Select("purchase_id, SUM(quantity) AS total").
		Where("purchase_id IN ?", ids).
		Group("purchase_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		quantities[row.PurchaseID] = row.Total
	}
	return quantities, nil
}

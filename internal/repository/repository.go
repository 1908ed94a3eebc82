package repository

import "gorm.io/gorm"

// Repositories 仓库集合
type Repositories struct {
	Purchase *PurchaseRepository
	Item     *ItemRepository
	Supplier *SupplierRepository
	Category *CategoryRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Purchase: NewPurchaseRepository(db),
		Item:     NewItemRepository(db),
		Supplier: NewSupplierRepository(db),
		Category: NewCategoryRepository(db),
	}
}

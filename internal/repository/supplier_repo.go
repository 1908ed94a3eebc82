package repository

import (
	"github.com/bitfantasy/compras/internal/entity"
	"gorm.io/gorm"
)

type SupplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) *SupplierRepository {
	return &SupplierRepository{db: db}
}

func (r *SupplierRepository) Insert(s *entity.Supplier) error {
	return r.db.Create(s).Error
}

func (r *SupplierRepository) Update(s *entity.Supplier) error {
	return r.db.Save(s).Error
}

func (r *SupplierRepository) GetByID(id uint) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.db.First(&s, id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SupplierRepository) Delete(id uint) error {
	return r.db.Delete(&entity.Supplier{}, id).Error
}

func (r *SupplierRepository) List() ([]entity.Supplier, error) {
	var suppliers []entity.Supplier
	err := r.db.Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

func (r *SupplierRepository) ListActive() ([]entity.Supplier, error) {
	var suppliers []entity.Supplier
	err := r.db.Where("active = ?", true).Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

// FindByNIT 按NIT精确查找，不存在时返回 nil
func (r *SupplierRepository) FindByNIT(nit string) (*entity.Supplier, error) {
	var s entity.Supplier
	err := r.db.Where("nit = ?", nit).First(&s).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SupplierRepository) SearchByName(name string) ([]entity.Supplier, error) {
	var suppliers []entity.Supplier
	err := r.db.Where("name LIKE ?", "%"+name+"%").Order("name ASC").Find(&suppliers).Error
	return suppliers, err
}

package repository

import (
	"github.com/bitfantasy/compras/internal/entity"
	"gorm.io/gorm"
)

type CategoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

func (r *CategoryRepository) List() ([]string, error) {
	var names []string
	err := r.db.Model(&entity.Category{}).
		Order("name ASC").
		Pluck("name", &names).Error
	return names, err
}

func (r *CategoryRepository) Insert(name string) error {
	return r.db.Create(&entity.Category{Name: name}).Error
}

func (r *CategoryRepository) Exists(name string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Category{}).Where("name = ?", name).Count(&count).Error
	return count > 0, err
}

package service

import "github.com/bitfantasy/compras/internal/entity"

// CategoryStore 类别存储契约
type CategoryStore interface {
	List() ([]string, error)
	Insert(name string) error
	Exists(name string) (bool, error)
}

// CategoryService 动态采购类别
type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) List() ([]string, error) {
	return s.store.List()
}

// Add 新增类别，名称规范化为小写后查重
func (s *CategoryService) Add(name string) (string, error) {
	normalized := entity.NormalizeCategory(name)
	if normalized == "" {
		return "", validationf("name", "类别名称不能为空")
	}

	exists, err := s.store.Exists(normalized)
	if err != nil {
		return "", storageErr("check category", err)
	}
	if exists {
		return "", validationf("name", "类别已存在")
	}

	if err := s.store.Insert(normalized); err != nil {
		return "", storageErr("insert category", err)
	}
	return normalized, nil
}

func (s *CategoryService) Exists(name string) (bool, error) {
	normalized := entity.NormalizeCategory(name)
	if normalized == "" {
		return false, nil
	}
	return s.store.Exists(normalized)
}

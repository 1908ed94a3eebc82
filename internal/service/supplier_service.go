package service

import (
	"regexp"
	"strings"

	"github.com/bitfantasy/compras/internal/entity"
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.[a-zA-Z]{2,}$`)

// SupplierStore 供应商存储契约
type SupplierStore interface {
	Insert(s *entity.Supplier) error
	Update(s *entity.Supplier) error
	GetByID(id uint) (*entity.Supplier, error)
	Delete(id uint) error
	List() ([]entity.Supplier, error)
	ListActive() ([]entity.Supplier, error)
	FindByNIT(nit string) (*entity.Supplier, error)
	SearchByName(name string) ([]entity.Supplier, error)
}

// SupplierService 供应商业务逻辑
type SupplierService struct {
	store SupplierStore
}

func NewSupplierService(store SupplierStore) *SupplierService {
	return &SupplierService{store: store}
}

// Register 登记供应商：名称必填，NIT 不能重复，邮箱格式校验
func (s *SupplierService) Register(sup *entity.Supplier) (*entity.Supplier, error) {
	if err := s.validate(sup, 0); err != nil {
		return nil, err
	}
	if err := s.store.Insert(sup); err != nil {
		return nil, storageErr("insert supplier", err)
	}
	return sup, nil
}

// Update 更新供应商，NIT 查重时排除自身
func (s *SupplierService) Update(sup *entity.Supplier) (*entity.Supplier, error) {
	if _, err := s.store.GetByID(sup.ID); err != nil {
		return nil, validationf("id", "供应商 %d 不存在", sup.ID)
	}
	if err := s.validate(sup, sup.ID); err != nil {
		return nil, err
	}
	if err := s.store.Update(sup); err != nil {
		return nil, storageErr("update supplier", err)
	}
	return sup, nil
}

func (s *SupplierService) validate(sup *entity.Supplier, selfID uint) error {
	sup.Name = strings.TrimSpace(sup.Name)
	if sup.Name == "" {
		return validationf("name", "供应商名称不能为空")
	}

	sup.NIT = strings.TrimSpace(sup.NIT)
	if sup.NIT != "" {
		existing, err := s.store.FindByNIT(sup.NIT)
		if err != nil {
			return storageErr("find supplier by nit", err)
		}
		if existing != nil && existing.ID != selfID {
			return validationf("nit", "NIT %s 已被其他供应商使用", sup.NIT)
		}
	}

	if sup.Email != "" && !emailPattern.MatchString(sup.Email) {
		return validationf("email", "邮箱格式不正确")
	}
	return nil
}

func (s *SupplierService) Get(id uint) (*entity.Supplier, error) {
	return s.store.GetByID(id)
}

func (s *SupplierService) List() ([]entity.Supplier, error) {
	return s.store.List()
}

func (s *SupplierService) ListActive() ([]entity.Supplier, error) {
	return s.store.ListActive()
}

// Search 按名称模糊搜索，空关键字返回全部
func (s *SupplierService) Search(name string) ([]entity.Supplier, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.store.List()
	}
	return s.store.SearchByName(name)
}

func (s *SupplierService) Delete(id uint) error {
	if _, err := s.store.GetByID(id); err != nil {
		return validationf("id", "供应商 %d 不存在", id)
	}
	if err := s.store.Delete(id); err != nil {
		return storageErr("delete supplier", err)
	}
	return nil
}

// SetActive 启用或停用供应商
func (s *SupplierService) SetActive(id uint, active bool) error {
	sup, err := s.store.GetByID(id)
	if err != nil {
		return validationf("id", "供应商 %d 不存在", id)
	}
	sup.Active = active
	if err := s.store.Update(sup); err != nil {
		return storageErr("update supplier", err)
	}
	return nil
}

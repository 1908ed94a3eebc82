package service

import (
	"github.com/bitfantasy/compras/internal/repository"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Services 服务聚合
type Services struct {
	Purchase *PurchaseService
	Supplier *SupplierService
	Category *CategoryService
	Report   *ReportService
	Session  *SessionService
}

func NewServices(repos *repository.Repositories, rdb *redis.Client, logger *zap.Logger) *Services {
	purchase := NewPurchaseService(repos.Purchase, repos.Item, logger)
	return &Services{
		Purchase: purchase,
		Supplier: NewSupplierService(repos.Supplier),
		Category: NewCategoryService(repos.Category),
		Report:   NewReportService(purchase, logger),
		Session:  NewSessionService(rdb),
	}
}

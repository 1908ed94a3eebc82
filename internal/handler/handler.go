package handler

import (
	"errors"
	"net/http"

	"github.com/bitfantasy/compras/internal/service"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Handlers HTTP处理器集合
type Handlers struct {
	Purchase *PurchaseHandler
	Supplier *SupplierHandler
	Category *CategoryHandler
	Auth     *AuthHandler
}

func NewHandlers(services *service.Services) *Handlers {
	return &Handlers{
		Purchase: NewPurchaseHandler(services.Purchase, services.Report),
		Supplier: NewSupplierHandler(services.Supplier),
		Category: NewCategoryHandler(services.Category),
		Auth:     NewAuthHandler(services.Session, services.Purchase),
	}
}

// respondError 按错误类型映射响应码：校验错误 400，记录不存在 404，其余 500
func respondError(c *gin.Context, err error) {
	if service.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"code": 50001, "message": err.Error()})
}

func respondOK(c *gin.Context, data interface{}) {
	if data == nil {
		c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": 0, "message": "success", "data": data})
}

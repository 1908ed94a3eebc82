package handler

import (
	"net/http"

	"github.com/bitfantasy/compras/internal/service"
	"github.com/gin-gonic/gin"
)

type CategoryHandler struct {
	svc *service.CategoryService
}

func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.svc.List()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, categories)
}

// Create 新增类别，名称统一转小写存储
func (h *CategoryHandler) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	name, err := h.svc.Add(req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"name": name})
}

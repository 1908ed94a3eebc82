package handler

import (
	"net/http"

	"github.com/bitfantasy/compras/internal/entity"
	"github.com/bitfantasy/compras/internal/service"
	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	svc *service.SupplierService
}

func NewSupplierHandler(svc *service.SupplierService) *SupplierHandler {
	return &SupplierHandler{svc: svc}
}

func (h *SupplierHandler) Create(c *gin.Context) {
	var sup entity.Supplier
	if err := c.ShouldBindJSON(&sup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	created, err := h.svc.Register(&sup)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, created)
}

func (h *SupplierHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var sup entity.Supplier
	if err := c.ShouldBindJSON(&sup); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	sup.ID = id
	updated, err := h.svc.Update(&sup)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, updated)
}

func (h *SupplierHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	sup, err := h.svc.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": "供应商不存在"})
		return
	}
	respondOK(c, sup)
}

func (h *SupplierHandler) List(c *gin.Context) {
	var (
		suppliers []entity.Supplier
		err       error
	)
	switch {
	case c.Query("name") != "":
		suppliers, err = h.svc.Search(c.Query("name"))
	case c.Query("active") == "true":
		suppliers, err = h.svc.ListActive()
	default:
		suppliers, err = h.svc.List()
	}
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, suppliers)
}

func (h *SupplierHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

// SetActive 启用或停用供应商
func (h *SupplierHandler) SetActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	if err := h.svc.SetActive(id, *req.Active); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/bitfantasy/compras/internal/entity"
	"github.com/bitfantasy/compras/internal/repository"
	"github.com/bitfantasy/compras/internal/service"
	"github.com/gin-gonic/gin"
)

type PurchaseHandler struct {
	svc    *service.PurchaseService
	report *service.ReportService
}

func NewPurchaseHandler(svc *service.PurchaseService, report *service.ReportService) *PurchaseHandler {
	return &PurchaseHandler{svc: svc, report: report}
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "无效的ID"})
		return 0, false
	}
	return uint(id), true
}

func parseFilter(c *gin.Context) (repository.PurchaseFilter, error) {
	var f repository.PurchaseFilter
	if v := c.Query("supplier_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return f, fmt.Errorf("无效的供应商ID: %s", v)
		}
		f.SupplierID = uint(id)
	}
	f.Category = c.Query("category")
	f.PaymentMethod = entity.PaymentMethod(c.Query("payment_method"))
	if v := c.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("起始日期格式应为 YYYY-MM-DD")
		}
		f.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return f, fmt.Errorf("结束日期格式应为 YYYY-MM-DD")
		}
		f.To = &t
	}
	return f, nil
}

// Create 登记不含条目的采购
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req service.PurchaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	p, err := req.ToEntity()
	if err != nil {
		respondError(c, err)
		return
	}
	created, err := h.svc.Register(p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, created)
}

// CreateWithItems 登记采购及其条目，总额由条目小计推导
func (h *PurchaseHandler) CreateWithItems(c *gin.Context) {
	var req service.PurchaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	p, err := req.ToEntity()
	if err != nil {
		respondError(c, err)
		return
	}
	created, err := h.svc.RegisterWithItems(p, service.ToEntities(req.Items))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, created)
}

func (h *PurchaseHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.PurchaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	p, err := req.ToEntity()
	if err != nil {
		respondError(c, err)
		return
	}
	p.ID = id
	updated, err := h.svc.Update(p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, updated)
}

// ReplaceItems 整体替换采购条目并重算总额
func (h *PurchaseHandler) ReplaceItems(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.PurchaseInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	p, err := req.ToEntity()
	if err != nil {
		respondError(c, err)
		return
	}
	p.ID = id
	updated, err := h.svc.ReplaceItems(p, service.ToEntities(req.Items))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, updated)
}

// purchaseRow 列表行，附带条目总数量
type purchaseRow struct {
	entity.Purchase
	ItemQuantity int `json:"item_quantity"`
}

func (h *PurchaseHandler) List(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	purchases, err := h.svc.List(filter)
	if err != nil {
		respondError(c, err)
		return
	}

	ids := make([]uint, len(purchases))
	for i, p := range purchases {
		ids[i] = p.ID
	}
	quantities, err := h.svc.BatchQuantities(ids)
	if err != nil {
		respondError(c, err)
		return
	}

	rows := make([]purchaseRow, len(purchases))
	for i, p := range purchases {
		rows[i] = purchaseRow{Purchase: p, ItemQuantity: quantities[p.ID]}
	}
	respondOK(c, gin.H{"items": rows, "total": len(rows)})
}

func (h *PurchaseHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	p, err := h.svc.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"code": 10002, "message": "采购记录不存在"})
		return
	}
	respondOK(c, p)
}

func (h *PurchaseHandler) Items(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	items, err := h.svc.ItemsOfPurchase(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, items)
}

// Quantity 条目总数量，走缓存
func (h *PurchaseHandler) Quantity(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	qty, err := h.svc.QuantityOf(id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"purchase_id": id, "quantity": qty})
}

func (h *PurchaseHandler) Delete(c *gin.Context) {
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

// Pay 标记付款
func (h *PurchaseHandler) Pay(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req struct {
		PaymentDate string `json:"payment_date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", req.PaymentDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "付款日期格式应为 YYYY-MM-DD"})
		return
	}
	if err := h.svc.MarkPaid(id, date); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, nil)
}

func (h *PurchaseHandler) PendingCredits(c *gin.Context) {
	purchases, err := h.svc.PendingCredits()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, purchases)
}

func (h *PurchaseHandler) PaidCredits(c *gin.Context) {
	purchases, err := h.svc.PaidCredits()
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, purchases)
}

// Totals 金额汇总，按查询参数选择维度
func (h *PurchaseHandler) Totals(c *gin.Context) {
	switch {
	case c.Query("supplier_id") != "" && c.Query("pending") == "true":
		id, err := strconv.ParseUint(c.Query("supplier_id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "无效的供应商ID"})
			return
		}
		total, err := h.svc.PendingBySupplier(uint(id))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"total": total})
	case c.Query("supplier_id") != "":
		id, err := strconv.ParseUint(c.Query("supplier_id"), 10, 32)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "无效的供应商ID"})
			return
		}
		total, err := h.svc.TotalBySupplier(uint(id))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"total": total})
	case c.Query("category") != "":
		total, err := h.svc.TotalByCategory(c.Query("category"))
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"total": total})
	case c.Query("from") != "" && c.Query("to") != "":
		from, err1 := time.Parse("2006-01-02", c.Query("from"))
		to, err2 := time.Parse("2006-01-02", c.Query("to"))
		if err1 != nil || err2 != nil {
			c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "日期格式应为 YYYY-MM-DD"})
			return
		}
		total, err := h.svc.TotalByPeriod(from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"total": total})
	case c.Query("pending") == "true":
		total, err := h.svc.TotalPendingCredits()
		if err != nil {
			respondError(c, err)
			return
		}
		respondOK(c, gin.H{"total": total})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": "缺少汇总维度参数"})
	}
}

// Export 导出采购记录为 Excel
func (h *PurchaseHandler) Export(c *gin.Context) {
	filter, err := parseFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": 10001, "message": err.Error()})
		return
	}
	f, err := h.report.ExportPurchases(filter)
	if err != nil {
		respondError(c, err)
		return
	}
	filename := fmt.Sprintf("purchases_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+filename)
	if err := f.Write(c.Writer); err != nil {
		respondError(c, err)
		return
	}
}

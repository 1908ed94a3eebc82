package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/bitfantasy/compras/internal/entity"
	"github.com/bitfantasy/compras/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PurchaseStore 采购记录存储契约
type PurchaseStore interface {
	Insert(p *entity.Purchase) error
	Update(p *entity.Purchase) error
	GetByID(id uint) (*entity.Purchase, error)
	Delete(id uint) error
	List(f repository.PurchaseFilter) ([]entity.Purchase, error)
	PendingCredits() ([]entity.Purchase, error)
	PaidCredits() ([]entity.Purchase, error)
	TotalBySupplier(supplierID uint) (decimal.Decimal, error)
	TotalByCategory(category string) (decimal.Decimal, error)
	TotalByPeriod(from, to time.Time) (decimal.Decimal, error)
	TotalPendingCredits() (decimal.Decimal, error)
	PendingBySupplier(supplierID uint) (decimal.Decimal, error)
}

// ItemStore 采购条目存储契约
type ItemStore interface {
	Insert(item *entity.PurchaseItem) error
	ListByPurchase(purchaseID uint) ([]entity.PurchaseItem, error)
	DeleteByPurchase(purchaseID uint) (int64, error)
	CountByPurchase(purchaseID uint) (int64, error)
	SumQuantityByPurchase(purchaseID uint) (int, error)
	SumQuantityByPurchases(ids []uint) (map[uint]int, error)
}

// PurchaseService 采购业务逻辑：草稿校验、总额与条目对账、
// 数量聚合缓存与批量聚合。
type PurchaseService struct {
	purchases PurchaseStore
	items     ItemStore
	qtyCache  *QuantityCache
	logger    *zap.Logger
}

func NewPurchaseService(purchases PurchaseStore, items ItemStore, logger *zap.Logger) *PurchaseService {
	s := &PurchaseService{
		purchases: purchases,
		items:     items,
		logger:    logger,
	}
	s.qtyCache = NewQuantityCache(quantityCacheCapacity, items.SumQuantityByPurchase)
	return s
}

// ValidateDraft 校验采购草稿。按固定顺序检查，返回第一条被违反的规则；
// 纯函数，不触达存储。
func (s *PurchaseService) ValidateDraft(p *entity.Purchase) error {
	if p.SupplierID == 0 {
		return validationf("supplier_id", "必须选择供应商")
	}
	if p.InvoiceNumber == "" {
		return validationf("invoice_number", "发票号不能为空")
	}
	if p.Category == "" {
		return validationf("category", "必须选择类别")
	}
	if p.Description == "" {
		return validationf("description", "描述不能为空")
	}
	if !p.Total.IsPositive() {
		return validationf("total", "总额必须大于零")
	}
	if p.PurchaseDate.IsZero() {
		return validationf("purchase_date", "采购日期不能为空")
	}
	if !p.PaymentMethod.Valid() {
		return validationf("payment_method", "必须选择支付方式")
	}

	if p.PaymentMethod == entity.PaymentCredit {
		if p.CreditState == nil {
			return validationf("credit_state", "赊购必须指定赊购状态")
		}
		if !p.CreditState.Valid() {
			return validationf("credit_state", "未知的赊购状态 %s", *p.CreditState)
		}
		if *p.CreditState == entity.CreditPaid && p.PaymentDate == nil {
			return validationf("payment_date", "赊购已付清时必须填写付款日期")
		}
		if *p.CreditState == entity.CreditPending && p.PaymentDate != nil {
			return validationf("payment_date", "待付赊购不能有付款日期")
		}
	} else if p.CreditState != nil {
		return validationf("credit_state", "只有赊购才能有赊购状态")
	}

	return nil
}

// ReconcileTotals 逐条重算小计并求和。保持输入顺序；任何条目违反不变式、
// 列表为空或总额不为正都使整个操作失败，不返回部分结果。
func (s *PurchaseService) ReconcileTotals(items []entity.PurchaseItem) ([]entity.PurchaseItem, decimal.Decimal, error) {
	if len(items) == 0 {
		return nil, decimal.Zero, validationf("items", "至少需要一个采购条目")
	}

	reconciled := make([]entity.PurchaseItem, len(items))
	total := decimal.Zero
	for i, item := range items {
		if item.Quantity <= 0 {
			return nil, decimal.Zero, validationf("items", "条目 %d：数量必须大于零", i+1)
		}
		item.Description = strings.TrimSpace(item.Description)
		if item.Description == "" {
			return nil, decimal.Zero, validationf("items", "条目 %d：描述不能为空", i+1)
		}
		if !item.UnitPrice.IsPositive() {
			return nil, decimal.Zero, validationf("items", "条目 %d：单价必须大于零", i+1)
		}
		item.RecalcSubtotal()
		total = total.Add(item.Subtotal)
		reconciled[i] = item
	}

	if !total.IsPositive() {
		return nil, decimal.Zero, validationf("total", "总额必须大于零")
	}
	return reconciled, total, nil
}

// Register 登记不带条目的采购（旧式），总额由调用方给出
func (s *PurchaseService) Register(p *entity.Purchase) (*entity.Purchase, error) {
	p.Category = entity.NormalizeCategory(p.Category)
	if err := s.ValidateDraft(p); err != nil {
		return nil, err
	}
	if err := s.purchases.Insert(p); err != nil {
		return nil, storageErr("insert purchase", err)
	}
	return p, nil
}

// Update 更新不带条目的采购
func (s *PurchaseService) Update(p *entity.Purchase) (*entity.Purchase, error) {
	if _, err := s.purchases.GetByID(p.ID); err != nil {
		return nil, validationf("id", "采购 %d 不存在", p.ID)
	}
	p.Category = entity.NormalizeCategory(p.Category)
	if err := s.ValidateDraft(p); err != nil {
		return nil, err
	}
	if err := s.purchases.Update(p); err != nil {
		return nil, storageErr("update purchase", err)
	}
	return p, nil
}

// RegisterWithItems 登记带条目的采购：对账得出总额 → 校验草稿 → 写采购 →
// 按位置分配从零起的连续排序逐条写条目。
// 条目写入中途失败时已写入的采购与条目不回滚，错误里标出失败的序号。
func (s *PurchaseService) RegisterWithItems(p *entity.Purchase, items []entity.PurchaseItem) (*entity.Purchase, error) {
	reconciled, total, err := s.ReconcileTotals(items)
	if err != nil {
		return nil, err
	}
	p.Total = total
	p.Category = entity.NormalizeCategory(p.Category)

	if err := s.ValidateDraft(p); err != nil {
		return nil, err
	}
	if err := s.purchases.Insert(p); err != nil {
		return nil, storageErr("insert purchase", err)
	}

	if err := s.insertItems(p.ID, reconciled); err != nil {
		return nil, err
	}

	s.qtyCache.Invalidate(p.ID)
	s.logger.Info("purchase registered with items",
		zap.Uint("purchase_id", p.ID),
		zap.Int("items", len(reconciled)),
		zap.String("total", total.String()),
	)
	p.Items = reconciled
	return p, nil
}

// ReplaceItems 更新采购并整组替换条目：旧条目全部删除，新条目以全新ID
// 和重算的排序重新插入（条目从不原地更新）。成功后使该采购的数量缓存失效。
func (s *PurchaseService) ReplaceItems(p *entity.Purchase, items []entity.PurchaseItem) (*entity.Purchase, error) {
	reconciled, total, err := s.ReconcileTotals(items)
	if err != nil {
		return nil, err
	}
	p.Total = total
	p.Category = entity.NormalizeCategory(p.Category)

	if err := s.ValidateDraft(p); err != nil {
		return nil, err
	}
	if _, err := s.purchases.GetByID(p.ID); err != nil {
		return nil, validationf("id", "采购 %d 不存在", p.ID)
	}
	if err := s.purchases.Update(p); err != nil {
		return nil, storageErr("update purchase", err)
	}

	// 从这里起条目集合开始变动，中途失败也可能已删旧插新，
	// 无论成败都要失效缓存，否则留下失败前的脏数量
	defer s.qtyCache.Invalidate(p.ID)

	// 删除失败只告警不中断，与旧条目共存总比丢新条目好
	if _, err := s.items.DeleteByPurchase(p.ID); err != nil {
		s.logger.Warn("failed to delete previous items",
			zap.Uint("purchase_id", p.ID), zap.Error(err))
	}

	if err := s.insertItems(p.ID, reconciled); err != nil {
		return nil, err
	}

	s.logger.Info("purchase items replaced",
		zap.Uint("purchase_id", p.ID),
		zap.Int("items", len(reconciled)),
		zap.String("total", total.String()),
	)
	p.Items = reconciled
	return p, nil
}

func (s *PurchaseService) insertItems(purchaseID uint, items []entity.PurchaseItem) error {
	for i := range items {
		items[i].ID = 0 // 强制 INSERT 新行
		items[i].PurchaseID = purchaseID
		items[i].SortOrder = i
		if err := s.items.Insert(&items[i]); err != nil {
			s.logger.Error("item insert failed mid-sequence",
				zap.Uint("purchase_id", purchaseID),
				zap.Int("failed_ordinal", i+1),
				zap.Int("total_items", len(items)),
				zap.Error(err),
			)
			return storageStepErr("insert item",
				fmt.Sprintf("item %d of %d", i+1, len(items)), err)
		}
	}
	return nil
}

// MarkPaid 标记采购已支付，单向转换：
// CREDIT_PENDING→CREDIT_PAID、DIRECT_UNPAID→DIRECT_PAID，都要求付款日期。
func (s *PurchaseService) MarkPaid(id uint, paymentDate time.Time) error {
	p, err := s.purchases.GetByID(id)
	if err != nil {
		return validationf("id", "采购 %d 不存在", id)
	}
	if p.IsPaid() {
		return validationf("id", "该采购已标记为已支付")
	}
	if paymentDate.IsZero() {
		return validationf("payment_date", "必须填写付款日期")
	}

	if p.PaymentMethod == entity.PaymentCredit {
		paid := entity.CreditPaid
		p.CreditState = &paid
	}
	p.PaymentDate = &paymentDate

	if err := s.purchases.Update(p); err != nil {
		return storageErr("update purchase", err)
	}
	return nil
}

// Delete 删除采购。条目随采购级联删除，因此同样要使数量缓存失效。
func (s *PurchaseService) Delete(id uint) error {
	if _, err := s.purchases.GetByID(id); err != nil {
		return validationf("id", "采购 %d 不存在", id)
	}
	if err := s.purchases.Delete(id); err != nil {
		return storageErr("delete purchase", err)
	}
	s.qtyCache.Invalidate(id)
	return nil
}

// --- 查询 ---

func (s *PurchaseService) Get(id uint) (*entity.Purchase, error) {
	return s.purchases.GetByID(id)
}

func (s *PurchaseService) List(f repository.PurchaseFilter) ([]entity.Purchase, error) {
	return s.purchases.List(f)
}

func (s *PurchaseService) PendingCredits() ([]entity.Purchase, error) {
	return s.purchases.PendingCredits()
}

func (s *PurchaseService) PaidCredits() ([]entity.Purchase, error) {
	return s.purchases.PaidCredits()
}

func (s *PurchaseService) ItemsOfPurchase(purchaseID uint) ([]entity.PurchaseItem, error) {
	return s.items.ListByPurchase(purchaseID)
}

func (s *PurchaseService) CountItems(purchaseID uint) (int64, error) {
	return s.items.CountByPurchase(purchaseID)
}

// --- 汇总 ---

func (s *PurchaseService) TotalBySupplier(supplierID uint) (decimal.Decimal, error) {
	return s.purchases.TotalBySupplier(supplierID)
}

func (s *PurchaseService) TotalByCategory(category string) (decimal.Decimal, error) {
	return s.purchases.TotalByCategory(category)
}

func (s *PurchaseService) TotalByPeriod(from, to time.Time) (decimal.Decimal, error) {
	return s.purchases.TotalByPeriod(from, to)
}

func (s *PurchaseService) TotalPendingCredits() (decimal.Decimal, error) {
	return s.purchases.TotalPendingCredits()
}

func (s *PurchaseService) PendingBySupplier(supplierID uint) (decimal.Decimal, error) {
	return s.purchases.PendingBySupplier(supplierID)
}

// --- 数量聚合 ---

// QuantityOf 单个采购的条目数量合计，走LRU缓存；
// 适合详情页的重复查询。
func (s *PurchaseService) QuantityOf(purchaseID uint) (int, error) {
	return s.qtyCache.Get(purchaseID)
}

// BatchQuantities 多个采购一次分组查询拿到数量合计，绕过单条缓存；
// 列表页一次性展示用这个，空输入直接返回空映射不查存储。
// 没有条目的采购ID不出现在结果里，调用方按零处理。
func (s *PurchaseService) BatchQuantities(ids []uint) (map[uint]int, error) {
	if len(ids) == 0 {
		return map[uint]int{}, nil
	}
	return s.items.SumQuantityByPurchases(ids)
}

// ClearQuantityCache 清空数量缓存，会话边界（登出、切换供应商）时调用
func (s *PurchaseService) ClearQuantityCache() {
	s.qtyCache.Clear()
}

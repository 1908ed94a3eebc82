package service

import (
	"fmt"

	"github.com/bitfantasy/compras/internal/repository"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ReportService 报表服务，负责采购记录的 Excel 导出
type ReportService struct {
	purchases *PurchaseService
	logger    *zap.Logger
}

func NewReportService(purchases *PurchaseService, logger *zap.Logger) *ReportService {
	return &ReportService{purchases: purchases, logger: logger}
}

// ExportPurchases 按筛选条件导出采购列表为 Excel 文件
func (s *ReportService) ExportPurchases(filter repository.PurchaseFilter) (*excelize.File, error) {
	purchases, err := s.purchases.List(filter)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, len(purchases))
	for i, p := range purchases {
		ids[i] = p.ID
	}
	quantities, err := s.purchases.BatchQuantities(ids)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	sheetName := "采购记录"
	f.SetSheetName("Sheet1", sheetName)

	headers := []string{"ID", "采购日期", "供应商", "发票号", "类别", "描述", "支付方式", "状态", "条目数量", "总额"}
	for i, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	// 设置表头样式
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err == nil {
		f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%c1", 'A'+len(headers)-1), headerStyle)
	}

	for i, p := range purchases {
		row := i + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), p.ID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), p.PurchaseDate.Format(dateLayout))
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), p.SupplierName)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), p.InvoiceNumber)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), p.Category)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), p.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), string(p.PaymentMethod))
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), p.PaymentState())
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), quantities[p.ID])
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), p.Total.StringFixed(2))
	}

	s.logger.Info("导出采购记录", zap.Int("count", len(purchases)))
	return f, nil
}

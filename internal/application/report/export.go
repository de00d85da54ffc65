package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

const salesSheet = "Ventas"

func salesHeaders(currency string) []interface{} {
	return []interface{}{"Número", "Fecha", "Cliente", "Método de pago", "Vendedor",
		fmt.Sprintf("Total (%s)", currency), fmt.Sprintf("Impuesto (%s)", currency)}
}

// SalesExport is a rendered workbook ready to stream
type SalesExport struct {
	FileName string
	Rows     int
	file     *excelize.File
}

// ContentType is the MIME type of the workbook
func (e *SalesExport) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// WriteTo streams the workbook and releases it
func (e *SalesExport) WriteTo(w io.Writer) (int64, error) {
	defer func() { _ = e.file.Close() }()
	return e.file.WriteTo(w)
}

// ExportSales renders the live sales of an inclusive date range as XLSX,
// one row per sale plus a total row. Amounts are in the business currency and
// the tax column applies the configured rate to each sale total.
func (s *ReportService) ExportSales(ctx context.Context, filter ExportFilter) (*SalesExport, error) {
	from, to, err := s.exportRange(filter)
	if err != nil {
		return nil, err
	}
	sales, err := s.sales.SalesBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}
	biz, err := s.currentBusiness(ctx)
	if err != nil {
		return nil, err
	}
	headers := salesHeaders(biz.Currency.String())

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", salesSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("prepare sheet: %w", err)
	}
	if err := f.SetSheetRow(salesSheet, "A1", &headers); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write headers: %w", err)
	}

	total, tax := decimal.Zero, decimal.Zero
	for i, sale := range sales {
		saleTax := biz.TaxFor(sale.Total)
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			sale.SaleNumber,
			sale.SaleDate.Format(time.DateOnly),
			sale.CustomerName,
			string(sale.PaymentMethod),
			sale.SellerName,
			sale.Total.InexactFloat64(),
			saleTax.InexactFloat64(),
		}
		if err := f.SetSheetRow(salesSheet, cell, &row); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write sale %s: %w", sale.SaleNumber, err)
		}
		total = total.Add(sale.Total)
		tax = tax.Add(saleTax)
	}

	totalCell, _ := excelize.CoordinatesToCellName(5, len(sales)+2)
	totalRow := []interface{}{"Total", total.InexactFloat64(), tax.InexactFloat64()}
	if err := f.SetSheetRow(salesSheet, totalCell, &totalRow); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write total: %w", err)
	}

	last := to.AddDate(0, 0, -1)
	s.logger.Info("Sales exported",
		zap.String("from", from.Format(time.DateOnly)),
		zap.String("to", last.Format(time.DateOnly)),
		zap.Int("rows", len(sales)))

	return &SalesExport{
		FileName: fmt.Sprintf("ventas_%s_%s.xlsx", from.Format("20060102"), last.Format("20060102")),
		Rows:     len(sales),
		file:     f,
	}, nil
}

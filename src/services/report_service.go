package services

import (
	"context"
	"fmt"
	"io"

	"portfolio/src/models"
	"portfolio/src/utils"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const holdingsSheet = "Holdings"

type ReportServiceI interface {
	GenerateHoldingsXLSX(ctx context.Context, holdings []models.HoldingRow) (*excelize.File, error)
	RenderAllocationChart(ctx context.Context, w io.Writer, totals []models.AssetTotal) error
}

type ReportService struct{}

func NewReportService() *ReportService {
	return &ReportService{}
}

// GenerateHoldingsXLSX writes one header row and one row per holding.
func (rs *ReportService) GenerateHoldingsXLSX(ctx context.Context, holdings []models.HoldingRow) (*excelize.File, error) {
	logger := utils.LoggerFromContext(ctx)

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", holdingsSheet); err != nil {
		return nil, err
	}

	header := make([]interface{}, len(models.HoldingColumns))
	for i, column := range models.HoldingColumns {
		header[i] = column
	}
	if err := f.SetSheetRow(holdingsSheet, "A1", &header); err != nil {
		return nil, err
	}

	rowIndex := 1
	for _, h := range holdings {
		if !h.HasHolding() {
			continue
		}
		rowIndex++
		row := []interface{}{
			h.AccountName,
			h.AccountType,
			stringOrEmpty(h.Ticker),
			stringOrEmpty(h.Name),
			stringOrEmpty(h.Category),
			nullableFloat(h.CurrentPrice),
			nullableFloat(h.Shares),
			nullableFloat(h.MarketValue),
			nullableFloat(h.Percent),
		}
		cell, err := excelize.CoordinatesToCellName(1, rowIndex)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(holdingsSheet, cell, &row); err != nil {
			return nil, err
		}
	}

	if err := rs.applyStyles(f, rowIndex); err != nil {
		logger.Warnf("could not style holdings sheet: %v", err)
	}
	return f, nil
}

func (rs *ReportService) applyStyles(f *excelize.File, lastRow int) error {
	lastCell, err := excelize.CoordinatesToCellName(len(models.HoldingColumns), 1)
	if err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6E6"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(holdingsSheet, "A1", lastCell, headerStyle); err != nil {
		return err
	}

	percentStyle, err := f.NewStyle(&excelize.Style{NumFmt: 10})
	if err != nil {
		return err
	}
	percentColumn, err := excelize.ColumnNumberToName(len(models.HoldingColumns))
	if err != nil {
		return err
	}
	if lastRow > 1 {
		if err := f.SetCellStyle(holdingsSheet, percentColumn+"2", fmt.Sprintf("%s%d", percentColumn, lastRow), percentStyle); err != nil {
			return err
		}
	}
	return f.SetColWidth(holdingsSheet, "A", percentColumn, 15)
}

// RenderAllocationChart renders a pie of market value per asset. Assets
// without market value are left out.
func (rs *ReportService) RenderAllocationChart(ctx context.Context, w io.Writer, totals []models.AssetTotal) error {
	pie := charts.NewPie()
	pie.SetGlobalOptions(
		charts.WithAnimation(false),
		charts.WithTitleOpts(opts.Title{Title: "Allocation"}),
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Allocation",
			Width:     "900px",
			Height:    "600px",
		}),
	)

	items := make([]opts.PieData, 0, len(totals))
	for i, total := range totals {
		if !total.TotalMarketValue.IsPositive() {
			continue
		}
		items = append(items, opts.PieData{
			Name:      total.Ticker,
			Value:     total.TotalMarketValue.InexactFloat64(),
			ItemStyle: &opts.ItemStyle{Color: utils.GetChartColor(i)},
		})
	}
	pie.AddSeries("Market value", items,
		charts.WithLabelOpts(opts.Label{
			Show:      opts.Bool(true),
			Formatter: "{b}: {d}%",
		}),
	)

	utils.LoggerFromContext(ctx).Debugf("rendering allocation chart with %d assets", len(items))
	return pie.Render(w)
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullableFloat(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.InexactFloat64()
}

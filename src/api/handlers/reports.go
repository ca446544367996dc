package handlers

import (
	"bytes"
	"fmt"
	"net/http"
)

// GetHoldingsExport downloads every holding of the user as a spreadsheet.
func (h *Handler) GetHoldingsExport(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	holdings, err := h.repository(r).AllHoldings(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	xlsxFile, err := h.ReportService.GenerateHoldingsXLSX(ctx, holdings)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	defer xlsxFile.Close()

	var buf bytes.Buffer
	if err := xlsxFile.Write(&buf); err != nil {
		h.HandleErrors(w, r, fmt.Errorf("failed to write holdings workbook: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=holdings.xlsx")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	_, _ = buf.WriteTo(w)
}

// GetAllocation renders the market value of each asset as a pie chart page.
func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.requestContext(r)
	defer cancel()

	totals, err := h.repository(r).AssetTotals(ctx)
	if err != nil {
		h.HandleErrors(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := h.ReportService.RenderAllocationChart(ctx, &buf, totals); err != nil {
		h.HandleErrors(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

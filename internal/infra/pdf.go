package infra

// Stock balance report rendered with go-pdf/fpdf.
// A4 portrait:
//   - system name header, generation time and author
//   - product table (name, model, balance), rows in the order given
//   - totals: product count and units in stock
//   - page numbers in the footer

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/luis-polezi/stock-control/internal/model"
)

// WriteBalanceReport renders the balance report for products to w.
func WriteBalanceReport(w io.Writer, products []model.Product, generatedAt time.Time, generatedBy string) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AliasNbPages("")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	col1 := contentW * 0.50 // name
	col2 := contentW * 0.32 // model
	col3 := contentW * 0.18 // balance

	tableHeader := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.SetFillColor(230, 230, 230)
		pdf.CellFormat(col1, 7, "Product", "1", 0, "L", true, 0, "")
		pdf.CellFormat(col2, 7, "Model (Color)", "1", 0, "L", true, 0, "")
		pdf.CellFormat(col3, 7, "Balance", "1", 1, "R", true, 0, "")
	}

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 8, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 15)
	pdf.CellFormat(contentW, 9, tr(model.SystemName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW, 5, "Stock balance report", "", 1, "C", false, 0, "")
	pdf.CellFormat(contentW, 5, tr(fmt.Sprintf("Generated %s by %s", generatedAt.Format(model.DateLayout), generatedBy)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// ── Rows ─────────────────────────────────────────────────────────────────
	tableHeader()
	pdf.SetFont("Helvetica", "", 9)
	units := 0
	for _, p := range products {
		if pdf.GetY() > 270 {
			pdf.AddPage()
			tableHeader()
			pdf.SetFont("Helvetica", "", 9)
		}
		pdf.CellFormat(col1, 6, tr(truncate(p.Name, 48)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 6, tr(truncate(p.Model, 30)), "1", 0, "L", false, 0, "")
		pdf.CellFormat(col3, 6, fmt.Sprintf("%d", p.Balance), "1", 1, "R", false, 0, "")
		units += p.Balance
	}

	// ── Totals ───────────────────────────────────────────────────────────────
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(col1+col2, 6, fmt.Sprintf("Products: %d", len(products)), "", 0, "L", false, 0, "")
	pdf.CellFormat(col3, 6, fmt.Sprintf("%d", units), "", 1, "R", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("pdf: %w", err)
	}
	return pdf.Output(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "..."
}

package reports

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

const (
	pdfMargin   = 15.0
	pdfRowH     = 7.0
	pdfLabelW   = 90.0
	pdfHeadingH = 10.0
)

// RenderOverviewPDF writes the overview and the monthly trip performance
// as an A4 document.
func RenderOverviewPDF(o *Overview, t *TransportReport, q Query, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("TransportPro Overview Report", true)
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(true, pdfMargin)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "TransportPro Overview Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Period: "+period(q), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Generated: "+generated.Format("02 Jan 2006 15:04"), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	section(pdf, "Key figures")
	row(pdf, "Total revenue", money(o.KPIs.TotalRevenue))
	row(pdf, "Total profit", money(o.KPIs.TotalProfit))
	row(pdf, "Total investment", money(o.KPIs.TotalInvestment))
	row(pdf, "Active trips", fmt.Sprint(o.KPIs.ActiveTrips))

	section(pdf, "Transport")
	row(pdf, "Trips", fmt.Sprint(o.Transport.TotalTrips))
	row(pdf, "Completed", fmt.Sprint(o.Transport.Completed))
	row(pdf, "Average profit per trip", money(o.Transport.AvgProfitPerTrip))
	row(pdf, "Transport profit", money(o.Transport.TotalTransportProfit))

	section(pdf, "Inventory")
	row(pdf, "Trucks", fmt.Sprint(o.Inventory.TotalTrucks))
	row(pdf, "Sold", fmt.Sprint(o.Inventory.Sold))
	row(pdf, "Pending NOCs", fmt.Sprint(o.Inventory.PendingNOCs))
	row(pdf, "Inventory profit", money(o.Inventory.TotalInventoryProfit))

	if t != nil && len(t.MonthlyPerformance) > 0 {
		section(pdf, "Monthly performance")
		widths := []float64{40, 30, 55, 55}
		pdf.SetFont("Helvetica", "B", 10)
		for i, h := range []string{"Month", "Trips", "Revenue", "Profit"} {
			pdf.CellFormat(widths[i], pdfRowH, h, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 10)
		for _, m := range t.MonthlyPerformance {
			pdf.CellFormat(widths[0], pdfRowH, m.Month, "1", 0, "L", false, 0, "")
			pdf.CellFormat(widths[1], pdfRowH, fmt.Sprint(m.Trips), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[2], pdfRowH, money(m.Revenue), "1", 0, "R", false, 0, "")
			pdf.CellFormat(widths[3], pdfRowH, money(m.Profit), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return out.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, pdfHeadingH, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func row(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(pdfLabelW, pdfRowH, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, pdfRowH, value, "", 1, "R", false, 0, "")
}

// money formats an amount with two decimals. The core fonts have no rupee
// glyph, so the currency is spelled out.
func money(v float64) string {
	return "Rs " + decimal.NewFromFloat(v).StringFixed(2)
}

func period(q Query) string {
	switch {
	case q.From != nil && q.To != nil:
		return q.From.Format("02 Jan 2006") + " to " + q.To.Format("02 Jan 2006")
	case q.From != nil:
		return "from " + q.From.Format("02 Jan 2006")
	case q.To != nil:
		return "until " + q.To.Format("02 Jan 2006")
	default:
		return "all time"
	}
}

// Package report renders token usage reports for download.
package report

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"github.com/snobbots/chatbot-backend/internal/entity"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	reportTitle = "Token Usage Report"
)

var categoryLabels = map[entity.UsageCategory]string{
	entity.CategoryFileUpload: "File uploads",
	entity.CategoryRawText:    "Raw text",
	entity.CategoryQAPairs:    "QA pairs",
	entity.CategoryWebCrawl:   "Web crawling",
	entity.CategoryAskQuery:   "Ask queries",
}

type PDFFormatter struct{}

func NewPDFFormatter() *PDFFormatter {
	return &PDFFormatter{}
}

// Format renders one tenant's per-bot usage as a PDF document.
func (f *PDFFormatter) Format(tenantID string, rows []*entity.BotUsage) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(0, 10, reportTitle)
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("Tenant: %s", tenantID))
	pdf.Ln(12)

	var grandTotal int64
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 13)
		pdf.Cell(0, 8, row.ChatbotTitle)
		pdf.Ln(8)

		pdf.SetFont("Arial", "", 11)
		for _, cat := range entity.AllUsageCategories {
			pdf.Cell(60, 7, categoryLabels[cat])
			pdf.CellFormat(40, 7, fmt.Sprintf("%d", row.ByCategory(cat)), "", 0, "R", false, 0, "")
			pdf.Ln(7)
		}

		pdf.SetFont("Arial", "B", 11)
		pdf.Cell(60, 7, "Bot total")
		pdf.CellFormat(40, 7, fmt.Sprintf("%d", row.Total()), "", 0, "R", false, 0, "")
		pdf.Ln(11)

		grandTotal += row.Total()
	}

	pdf.SetFont("Arial", "B", 13)
	pdf.Cell(60, 8, "All bots")
	pdf.CellFormat(40, 8, fmt.Sprintf("%d", grandTotal), "", 0, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (f *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (f *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}

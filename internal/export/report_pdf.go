package export

import (
	"bytes"
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF рисует лист простой таблицей на A4.
func RenderPDF(s SheetSpec) ([]byte, error) {
	if len(s.Header) == 0 {
		return nil, fmt.Errorf("pdf requires at least one header")
	}
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()
	// встроенные шрифты gofpdf — cp1252; знаки вне кодировки заменяются
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	if s.Title != "" {
		pdf.SetFont("Arial", "B", 14)
		pdf.CellFormat(0, 10, tr(s.Title), "", 1, "C", false, 0, "")
		pdf.Ln(5)
	}

	pdf.SetFont("Arial", "B", 10)
	colWidth := 190.0 / float64(len(s.Header))
	for _, h := range s.Header {
		pdf.CellFormat(colWidth, 8, tr(h), "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, row := range s.Rows {
		for c := range s.Header {
			v := ""
			if c < len(row) {
				v = row[c]
			}
			pdf.CellFormat(colWidth, 7, tr(v), "1", 0, "", false, 0, "")
		}
		pdf.Ln(-1)
	}

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

package export

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/kyefa/internal/models"
	"github.com/Spok95/kyefa/internal/validators"
)

// SampleSize — сколько строк показывать в предпросмотре импорта.
const SampleSize = 5

var ErrNoRows = errors.New("the file contains no student rows")

// ImportRow — строка листа, прошедшая проверку. Line — номер строки в Excel.
type ImportRow struct {
	Line       int
	FirstName  string
	Surname    string
	OtherNames *string
	Gender     models.Gender
	ClassLevel models.ClassLevel
}

func (r ImportRow) Payload() models.CreateStudentPayload {
	return models.CreateStudentPayload{
		FirstName:  r.FirstName,
		Surname:    r.Surname,
		OtherNames: r.OtherNames,
		Gender:     r.Gender,
		ClassLevel: r.ClassLevel,
	}
}

// ImportPreview живёт до подтверждения или отмены импорта.
type ImportPreview struct {
	Path       string
	Headers    []string
	SampleRows [][]string
	TotalRows  int
	Rows       []ImportRow
	Data       []byte
}

type RowError struct {
	Line    int
	Message string
}

// ReportedRows — сколько невалидных строк перечисляется в тексте ошибки.
const ReportedRows = 5

// InvalidRowsError отклоняет файл целиком; в тексте первые ReportedRows строк.
type InvalidRowsError struct {
	Rows []RowError
}

func (e *InvalidRowsError) Error() string {
	parts := make([]string, 0, ReportedRows)
	for i, r := range e.Rows {
		if i == ReportedRows {
			break
		}
		parts = append(parts, fmt.Sprintf("row %d: %s", r.Line, r.Message))
	}
	more := ""
	if len(e.Rows) > ReportedRows {
		more = fmt.Sprintf(" (and %d more)", len(e.Rows)-ReportedRows)
	}
	return fmt.Sprintf("%d invalid row(s): %s%s", len(e.Rows), strings.Join(parts, "; "), more)
}

// ParseStudents читает книгу из памяти и проверяет каждую строку теми же
// правилами, что и форма создания. Пустые строки пропускаются.
func ParseStudents(path string, data []byte) (*ImportPreview, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheet := StudentsSheet
	if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	headers := trimAll(rows[0])
	if err := checkHeaders(headers); err != nil {
		return nil, err
	}

	p := &ImportPreview{Path: path, Headers: headers, Data: data}
	var bad []RowError
	for i, raw := range rows[1:] {
		cells := trimAll(raw)
		if isBlank(cells) {
			continue
		}
		line := i + 2
		row, msg := parseRow(line, cells)
		if msg != "" {
			bad = append(bad, RowError{Line: line, Message: msg})
			continue
		}
		p.Rows = append(p.Rows, row)
		if len(p.SampleRows) < SampleSize {
			p.SampleRows = append(p.SampleRows, pad(cells, len(TemplateHeaders)))
		}
	}
	if len(bad) > 0 {
		return nil, &InvalidRowsError{Rows: bad}
	}
	if len(p.Rows) == 0 {
		return nil, ErrNoRows
	}
	p.TotalRows = len(p.Rows)
	return p, nil
}

func parseRow(line int, cells []string) (ImportRow, string) {
	c := pad(cells, len(TemplateHeaders))
	form := validators.StudentForm{
		FirstName:  c[0],
		Surname:    c[1],
		Gender:     models.Gender(c[3]),
		ClassLevel: models.ClassLevel(c[4]),
	}
	if err := validators.ValidateStudent(form); err != nil {
		return ImportRow{}, err.Error()
	}
	g, ok := models.ParseGender(c[3])
	if !ok {
		return ImportRow{}, fmt.Sprintf("Unknown gender %q.", c[3])
	}
	cl, ok := models.ParseClassLevel(c[4])
	if !ok {
		return ImportRow{}, fmt.Sprintf("Unknown class level %q.", c[4])
	}
	return ImportRow{
		Line:       line,
		FirstName:  c[0],
		Surname:    c[1],
		OtherNames: models.OptionalString(c[2]),
		Gender:     g,
		ClassLevel: cl,
	}, ""
}

func checkHeaders(got []string) error {
	if len(got) < len(TemplateHeaders) {
		return fmt.Errorf("expected columns %s, got %s",
			strings.Join(TemplateHeaders, ", "), strings.Join(got, ", "))
	}
	for i, h := range TemplateHeaders {
		if !strings.EqualFold(got[i], h) {
			return fmt.Errorf("column %s must be %q, got %q", colName(i+1), h, got[i])
		}
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.TrimSpace(s)
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}

func pad(cells []string, n int) []string {
	if len(cells) >= n {
		return cells[:n]
	}
	out := make([]string, n)
	copy(out, cells)
	return out
}

package export

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Spok95/kyefa/internal/analytics"
	"github.com/Spok95/kyefa/internal/models"
	"github.com/Spok95/kyefa/internal/validators"
)

func templateBytes(t *testing.T) []byte {
	t.Helper()
	w, err := NewTemplate()
	require.NoError(t, err)
	b, err := w.Bytes()
	require.NoError(t, err)
	return b
}

func TestTemplate_Structure(t *testing.T) {
	f, err := excelize.OpenReader(bytes.NewReader(templateBytes(t)))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(StudentsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2, "шапка + пример")
	assert.Equal(t, TemplateHeaders, rows[0])

	visible, err := f.GetSheetVisible(ListsSheet)
	require.NoError(t, err)
	assert.False(t, visible)

	genders, err := f.GetCellValue(ListsSheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, string(models.Female), genders)
	lastClass, err := f.GetCellValue(ListsSheet, "B9")
	require.NoError(t, err)
	assert.Equal(t, string(models.ALevel2), lastClass)

	dvs, err := f.GetDataValidations(StudentsSheet)
	require.NoError(t, err)
	require.Len(t, dvs, 2)
	bySqref := map[string]*excelize.DataValidation{}
	for _, dv := range dvs {
		bySqref[dv.Sqref] = dv
	}
	g := bySqref["D2:D1000"]
	require.NotNil(t, g)
	assert.Contains(t, g.Formula1, "Lists!$A$1:$A$2")
	require.NotNil(t, g.ErrorTitle)
	assert.Equal(t, "Invalid gender", *g.ErrorTitle)
	c := bySqref["E2:E1000"]
	require.NotNil(t, c)
	assert.Contains(t, c.Formula1, "Lists!$B$1:$B$9")
}

func TestTemplate_RoundTrip(t *testing.T) {
	p, err := ParseStudents("template.xlsx", templateBytes(t))
	require.NoError(t, err)
	require.Equal(t, 1, p.TotalRows)
	require.Len(t, p.Rows, 1)

	row := p.Rows[0]
	assert.Equal(t, 2, row.Line)
	payload := row.Payload()
	assert.Equal(t, "John", payload.FirstName)
	assert.Equal(t, "Doe", payload.Surname)
	require.NotNil(t, payload.OtherNames)
	assert.Equal(t, "Kwame", *payload.OtherNames)
	assert.Equal(t, models.Male, payload.Gender)
	assert.Equal(t, models.IGCSE1, payload.ClassLevel)
	assert.Equal(t, TemplateHeaders, p.Headers)
	assert.Len(t, p.SampleRows, 1)
}

func TestWriteTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "students.xlsx")
	require.NoError(t, WriteTemplate(path))
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	_ = f.Close()
}

func sheetBytes(t *testing.T, rows [][]string) []byte {
	t.Helper()
	w, err := NewWorkbook([]SheetSpec{{Title: StudentsSheet, Header: TemplateHeaders, Rows: rows}})
	require.NoError(t, err)
	b, err := w.Bytes()
	require.NoError(t, err)
	return b
}

func TestParseStudents_InvalidRows(t *testing.T) {
	data := sheetBytes(t, [][]string{
		{"Ama", "Owusu", "", "female", "WASSCE1"},
		{"", "Doe", "", "Male", "IGCSE1"},
		{"Kofi", "Boateng", "", "Other", "IGCSE1"},
		{"Yaw", "Asante", "", "Male", "Grade 9"},
	})
	_, err := ParseStudents("bad.xlsx", data)
	var ie *InvalidRowsError
	require.True(t, errors.As(err, &ie))
	require.Len(t, ie.Rows, 3)
	assert.Equal(t, RowError{Line: 3, Message: validators.MsgFirstName}, ie.Rows[0])
	assert.Equal(t, 4, ie.Rows[1].Line)
	assert.Contains(t, ie.Rows[1].Message, "Unknown gender")
	assert.Contains(t, ie.Rows[2].Message, "Unknown class level")
	assert.Contains(t, err.Error(), "3 invalid row(s)")
}

func TestInvalidRowsError_ListsFirstFive(t *testing.T) {
	rows := make([]RowError, 7)
	for i := range rows {
		rows[i] = RowError{Line: i + 2, Message: validators.MsgSurname}
	}
	msg := (&InvalidRowsError{Rows: rows}).Error()

	assert.True(t, strings.HasPrefix(msg, "7 invalid row(s): row 2: "), msg)
	assert.Contains(t, msg, "row 6: ")
	assert.NotContains(t, msg, "row 7: ")
	assert.True(t, strings.HasSuffix(msg, " (and 2 more)"), msg)

	short := (&InvalidRowsError{Rows: rows[:ReportedRows]}).Error()
	assert.NotContains(t, short, "more")
}

func TestParseStudents_SkipsBlankRowsAndNormalisesGender(t *testing.T) {
	data := sheetBytes(t, [][]string{
		{"Ama", "Owusu", "", "female", "WASSCE1"},
		{"", "", "", "", ""},
		{"Kojo", "Mensah", "  ", "MALE", "ALevel1"},
	})
	p, err := ParseStudents("ok.xlsx", data)
	require.NoError(t, err)
	require.Equal(t, 2, p.TotalRows)
	assert.Equal(t, models.Female, p.Rows[0].Gender)
	assert.Nil(t, p.Rows[1].OtherNames)
	assert.Equal(t, 4, p.Rows[1].Line)
}

func TestParseStudents_BadHeaderAndEmpty(t *testing.T) {
	w, err := NewWorkbook([]SheetSpec{{Title: "Data", Header: []string{"Name", "Class"}}})
	require.NoError(t, err)
	b, err := w.Bytes()
	require.NoError(t, err)
	_, err = ParseStudents("x.xlsx", b)
	require.Error(t, err)

	_, err = ParseStudents("empty.xlsx", sheetBytes(t, nil))
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = ParseStudents("junk.xlsx", []byte("not a workbook"))
	assert.Error(t, err)
}

func sampleReport() analytics.Report {
	id := "b4c9e1a2-0000-4000-8000-000000000001"
	return analytics.Report{
		TotalStudents:   1,
		ExpectedRevenue: 100,
		TotalRevenue:    40,
		CollectionRate:  40,
		Projected:       analytics.Project(100),
		TeacherEarnings: []models.TeacherEarnings{{TeacherName: "Mr. Kobi", TotalPeriods: 2, TotalEarnings: 70, SharePercentage: 100}},
		Payments:        []models.Payment{{StudentID: id, Amount: 40, Method: "Cash", DatePaid: models.NewDate(2025, 2, 3)}},
		StudentNames:    map[string]string{id: "Ama Owusu"},
	}
}

func TestReportSheet(t *testing.T) {
	r := sampleReport()

	s, err := ReportSheet(r, models.ReportProjectedIncome)
	require.NoError(t, err)
	assert.Equal(t, []string{"Teachers", "50.0%", "50.00"}, s.Rows[2])

	s, err = ReportSheet(r, models.ReportStudentPayments)
	require.NoError(t, err)
	require.Len(t, s.Rows, 1)
	assert.Equal(t, "03/02/2025", s.Rows[0][0])
	assert.Equal(t, "Ama Owusu", s.Rows[0][1])

	_, err = ReportSheet(r, "nope")
	assert.Error(t, err)
}

func TestReportWorkbookAndPDF(t *testing.T) {
	w, err := ReportWorkbook(sampleReport(), models.ReportTeacherEarnings)
	require.NoError(t, err)
	assert.Equal(t, "Teacher Earnings", w.File.GetSheetName(0))
	assert.Len(t, w.File.GetSheetList(), len(models.ReportTypes))

	s, err := ReportSheet(sampleReport(), models.ReportCollectionStatus)
	require.NoError(t, err)
	pdf, err := RenderPDF(s)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(pdf, []byte("%PDF")))

	_, err = RenderPDF(SheetSpec{})
	assert.Error(t, err)
}

func TestReportFilename(t *testing.T) {
	got := ReportFilename(models.ReportCollectionStatus, ".pdf", time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, "Kyefa - Collection Status - 2025-01-31.pdf", got)
}

package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/kyefa/internal/models"
)

const (
	StudentsSheet = "Students"
	ListsSheet    = "Lists"

	// строки с проверкой списком: вся рабочая область под шапкой
	validatedRows = 1000
)

// TemplateHeaders — порядок колонок шаблона и импорта.
var TemplateHeaders = []string{"First Name", "Surname", "Other Names", "Gender", "Class Level"}

var exampleRow = []string{"John", "Doe", "Kwame", string(models.Male), string(models.IGCSE1)}

const (
	colGender     = "D"
	colClassLevel = "E"
)

// NewTemplate строит книгу для массового импорта: видимый лист Students
// с шапкой и примером, скрытый лист Lists со значениями перечислений и две
// проверки-списка на колонки Gender и Class Level.
func NewTemplate() (*Workbook, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", StudentsSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if err := writeSheet(f, StudentsSheet, TemplateHeaders, [][]string{exampleRow}); err != nil {
		return nil, err
	}
	if err := ApplyDefaultExcelFormatting(f, StudentsSheet); err != nil {
		return nil, fmt.Errorf("format template: %w", err)
	}

	if _, err := f.NewSheet(ListsSheet); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	for i, g := range models.Genders {
		if err := f.SetCellStr(ListsSheet, fmt.Sprintf("A%d", i+1), string(g)); err != nil {
			return nil, err
		}
	}
	for i, c := range models.ClassLevels {
		if err := f.SetCellStr(ListsSheet, fmt.Sprintf("B%d", i+1), string(c)); err != nil {
			return nil, err
		}
	}

	rules := []struct {
		col, source, title, msg string
	}{
		{colGender, listRange("A", len(models.Genders)),
			"Invalid gender", "Please choose a gender from the list."},
		{colClassLevel, listRange("B", len(models.ClassLevels)),
			"Invalid class level", "Please choose a class level from the list."},
	}
	for _, r := range rules {
		dv := excelize.NewDataValidation(true)
		dv.Sqref = fmt.Sprintf("%s2:%s%d", r.col, r.col, validatedRows)
		dv.SetSqrefDropList(r.source)
		dv.SetError(excelize.DataValidationErrorStyleStop, r.title, r.msg)
		if err := f.AddDataValidation(StudentsSheet, dv); err != nil {
			return nil, fmt.Errorf("add validation %s: %w", r.col, err)
		}
	}

	if err := f.SetSheetVisible(ListsSheet, false); err != nil {
		return nil, fmt.Errorf("hide %s: %w", ListsSheet, err)
	}
	idx, err := f.GetSheetIndex(StudentsSheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return &Workbook{File: f}, nil
}

// WriteTemplate пишет шаблон по выбранному пути.
func WriteTemplate(path string) error {
	w, err := NewTemplate()
	if err != nil {
		return err
	}
	return w.SaveAs(path)
}

func listRange(col string, n int) string {
	return fmt.Sprintf("%s!$%s$1:$%s$%d", ListsSheet, col, col, n)
}

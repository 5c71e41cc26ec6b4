package fsm

import (
	"context"
	"fmt"
	"os"

	"github.com/Spok95/kyefa/internal/analytics"
	"github.com/Spok95/kyefa/internal/apperr"
	"github.com/Spok95/kyefa/internal/dialog"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/export"
	"github.com/Spok95/kyefa/internal/fsm/fsmutil"
	"github.com/Spok95/kyefa/internal/models"
)

type ExportFormat string

const (
	FormatXLSX ExportFormat = "xlsx"
	FormatPDF  ExportFormat = "pdf"
)

func ParseExportFormat(s string) (ExportFormat, bool) {
	switch ExportFormat(s) {
	case FormatXLSX, FormatPDF:
		return ExportFormat(s), true
	}
	return "", false
}

type SelectReportType struct {
	reportScoped
	Type models.ReportType
}

type UpdateDateFilterFrom struct {
	reportScoped
	Value string
}

type UpdateDateFilterTo struct {
	reportScoped
	Value string
}

type ApplyReportFilters struct{ reportScoped }

type RefreshReports struct{ reportScoped }

type ReportsLoaded struct {
	reportScoped
	Students []models.Student
	Payments []models.Payment
	Periods  []models.TeachingPeriod
}

type ReportsFailed struct {
	reportScoped
	Err error
}

type ExportReport struct {
	reportScoped
	Format ExportFormat
}

type ReportExported struct {
	reportScoped
	Path string
}

type ReportExportFailed struct {
	reportScoped
	Err error
}

const msgNotLoaded = "Load the report data before exporting."

type ReportsState struct {
	Type     models.ReportType
	FromText string
	ToText   string
	// Filter — последний применённый диапазон.
	Filter      analytics.Filter
	FilterError string

	Report    analytics.Report
	Loaded    bool
	IsLoading bool
	Error     string

	IsExporting bool
	LastExport  string
	ExportError string

	students []models.Student
	payments []models.Payment
	periods  []models.TeachingPeriod
}

func newReportsState() *ReportsState {
	return &ReportsState{Type: models.ReportCollectionStatus}
}

func (s *ReportsState) recompute() {
	s.Report = analytics.Build(s.students, s.payments, s.periods, s.Filter)
}

func (s *ReportsState) update(msg DashboardMsg, e *env) []effect.Effect {
	switch m := msg.(type) {
	case SelectReportType:
		if _, ok := models.ParseReportType(string(m.Type)); ok {
			s.Type = m.Type
		}
	case UpdateDateFilterFrom:
		s.FromText = m.Value
		s.FilterError = ""
	case UpdateDateFilterTo:
		s.ToText = m.Value
		s.FilterError = ""
	case ApplyReportFilters:
		from, err := fsmutil.ParseOptionalDate(s.FromText)
		if err != nil {
			s.FilterError = "Start date must be in DD/MM/YYYY format."
			return nil
		}
		to, err := fsmutil.ParseOptionalDate(s.ToText)
		if err != nil {
			s.FilterError = "End date must be in DD/MM/YYYY format."
			return nil
		}
		if from != nil && to != nil && to.Before(*from) {
			s.FilterError = "Start date must not be after end date."
			return nil
		}
		s.FilterError = ""
		s.Filter = analytics.Filter{From: from, To: to}
		if s.Loaded {
			s.recompute()
		}

	case RefreshReports:
		if s.IsLoading {
			return nil
		}
		s.IsLoading = true
		s.Error = ""
		return one(loadReports(e))
	case ReportsLoaded:
		s.IsLoading = false
		s.students, s.payments, s.periods = m.Students, m.Payments, m.Periods
		s.Loaded = true
		s.recompute()
	case ReportsFailed:
		s.IsLoading = false
		s.Error = apperr.Message(m.Err)

	case ExportReport:
		if !s.Loaded {
			s.ExportError = msgNotLoaded
			return nil
		}
		if s.IsExporting {
			return nil
		}
		format := m.Format
		if format == "" {
			format = FormatXLSX
		}
		s.IsExporting = true
		s.ExportError = ""
		return one(exportReport(e, s.Report, s.Type, format))
	case ReportExported:
		s.IsExporting = false
		s.LastExport = m.Path
	case ReportExportFailed:
		s.IsExporting = false
		s.ExportError = apperr.Message(m.Err)
	}
	return nil
}

func loadReports(e *env) effect.Effect {
	return e.effect("load_reports", func(ctx context.Context) Msg {
		students, err := e.Gateway.ListStudents(ctx)
		if err != nil {
			return ReportsFailed{Err: err}
		}
		payments, err := e.Gateway.ListPayments(ctx)
		if err != nil {
			return ReportsFailed{Err: err}
		}
		periods, err := e.Gateway.ListTeachingPeriods(ctx)
		if err != nil {
			return ReportsFailed{Err: err}
		}
		return ReportsLoaded{Students: students, Payments: payments, Periods: periods}
	})
}

func exportReport(e *env, r analytics.Report, t models.ReportType, format ExportFormat) effect.Effect {
	name := export.ReportFilename(t, string(format), e.Now())
	filter := dialog.Spreadsheet
	if format == FormatPDF {
		filter = dialog.PDF
	}
	return e.effect("export_report", func(ctx context.Context) Msg {
		path, err := e.Dialogs.SaveFile(ctx, name, filter)
		if err != nil {
			return ReportExportFailed{Err: apperr.NewIO(err)}
		}
		if err := writeReport(path, r, t, format); err != nil {
			return ReportExportFailed{Err: apperr.NewIO(err)}
		}
		return ReportExported{Path: path}
	})
}

func writeReport(path string, r analytics.Report, t models.ReportType, format ExportFormat) error {
	switch format {
	case FormatXLSX:
		w, err := export.ReportWorkbook(r, t)
		if err != nil {
			return err
		}
		return w.SaveAs(path)
	case FormatPDF:
		sheet, err := export.ReportSheet(r, t)
		if err != nil {
			return err
		}
		b, err := export.RenderPDF(sheet)
		if err != nil {
			return err
		}
		return os.WriteFile(path, b, 0o644)
	}
	return fmt.Errorf("unsupported format %q", format)
}

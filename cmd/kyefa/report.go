package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Spok95/kyefa/internal/analytics"
	"github.com/Spok95/kyefa/internal/dialog"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/fsm"
	"github.com/Spok95/kyefa/internal/models"
)

func newReportCmd(c *cli) *cobra.Command {
	var typ, format, from, to, out string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the finance summary and optionally export a report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, ok := models.ParseReportType(typ)
			if !ok {
				return fmt.Errorf("unknown report type %q", typ)
			}
			if format == "" && out != "" {
				format = strings.TrimPrefix(strings.ToLower(filepath.Ext(out)), ".")
			}
			ef := fsm.FormatXLSX
			if format != "" {
				if ef, ok = fsm.ParseExportFormat(format); !ok {
					return fmt.Errorf("unknown export format %q", format)
				}
			}

			o := sessionOpts{dialogs: dialog.Preset{Save: out}}
			return c.withSession(cmd.Context(), o, func(s *session) error {
				msgs := []effect.Msg{
					fsm.SelectReportType{Type: rt},
					fsm.UpdateDateFilterFrom{Value: from},
					fsm.UpdateDateFilterTo{Value: to},
					fsm.ApplyReportFilters{},
					fsm.RefreshReports{},
				}
				if err := s.dispatch(cmd.Context(), msgs...); err != nil {
					return err
				}
				var (
					r       analytics.Report
					problem string
				)
				s.view(func(d *fsm.DashboardState) {
					r = d.Reports.Report
					problem = d.Reports.FilterError
					if problem == "" {
						problem = d.Reports.Error
					}
				})
				if problem != "" {
					return errors.New(problem)
				}
				printSummary(cmd, rt, r)

				if out == "" {
					return nil
				}
				if err := s.dispatch(cmd.Context(), fsm.ExportReport{Format: ef}); err != nil {
					return err
				}
				var path string
				s.view(func(d *fsm.DashboardState) {
					path, problem = d.Reports.LastExport, d.Reports.ExportError
				})
				if problem != "" {
					return errors.New(problem)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report saved to %s\n", path)
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&typ, "type", string(models.ReportCollectionStatus),
		"projected_income|collection_status|teacher_earnings|student_payments")
	fl.StringVar(&format, "format", "", "xlsx|pdf (default: from --out extension, else xlsx)")
	fl.StringVar(&from, "from", "", "start date DD/MM/YYYY")
	fl.StringVar(&to, "to", "", "end date DD/MM/YYYY")
	fl.StringVar(&out, "out", "", "file or directory to export to")
	return cmd
}

func printSummary(cmd *cobra.Command, t models.ReportType, r analytics.Report) {
	w := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(w, "%s\n", t.Title())
	_, _ = fmt.Fprintf(w, "Active students:  %d\n", r.TotalStudents)
	_, _ = fmt.Fprintf(w, "Expected revenue: %.2f\n", r.ExpectedRevenue)
	_, _ = fmt.Fprintf(w, "Collected:        %.2f\n", r.TotalRevenue)
	_, _ = fmt.Fprintf(w, "Collection rate:  %.1f%%\n", r.CollectionRate)
}

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Spok95/kyefa/internal/dialog"
	"github.com/Spok95/kyefa/internal/export"
	"github.com/Spok95/kyefa/internal/fsm"
)

var errImportCancelled = errors.New("import cancelled")

func newImportCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "import <path>",
		Short: "Preview and upload students from a filled-in template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := sessionOpts{dialogs: dialog.Preset{Open: args[0]}}
			return c.withSession(cmd.Context(), o, func(s *session) error {
				if err := s.dispatch(cmd.Context(), fsm.ImportStudentsFromExcel{}); err != nil {
					return err
				}
				var (
					preview *export.ImportPreview
					problem string
				)
				s.view(func(d *fsm.DashboardState) {
					preview, problem = d.Students.ImportPreview, d.Students.ImportError
				})
				if problem != "" {
					return errors.New(problem)
				}
				if preview == nil {
					return errors.New("no preview produced")
				}
				out := cmd.OutOrStdout()
				printPreview(out, preview)

				if !yes && !confirm(cmd.InOrStdin(), out, preview.TotalRows) {
					_ = s.dispatch(cmd.Context(), fsm.CancelImport{})
					return errImportCancelled
				}
				if err := s.dispatch(cmd.Context(), fsm.ConfirmImport{}); err != nil {
					return err
				}
				var notice string
				var total int
				s.view(func(d *fsm.DashboardState) {
					problem, notice = d.Students.ImportError, d.Students.Notice
					total = len(d.Students.Students)
				})
				if problem != "" {
					return errors.New(problem)
				}
				_, _ = fmt.Fprintf(out, "%s Roster now has %d student(s).\n", notice, total)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "upload without asking")
	return cmd
}

func printPreview(w io.Writer, p *export.ImportPreview) {
	_, _ = fmt.Fprintf(w, "%s: %d row(s)\n", p.Path, p.TotalRows)
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, strings.Join(p.Headers, "\t"))
	for _, row := range p.SampleRows {
		_, _ = fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
	if extra := p.TotalRows - len(p.SampleRows); extra > 0 {
		_, _ = fmt.Fprintf(w, "... and %d more\n", extra)
	}
}

func confirm(in io.Reader, out io.Writer, n int) bool {
	_, _ = fmt.Fprintf(out, "Upload %d student(s)? [y/N] ", n)
	line, _ := bufio.NewReader(in).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

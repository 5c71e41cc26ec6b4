package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Spok95/kyefa/internal/dialog"
	"github.com/Spok95/kyefa/internal/fsm"
)

func newTemplateCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "template <path>",
		Short: "Write the student import template (.xlsx)",
		Long:  "Write the student import template. A directory path gets the default file name.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			o := sessionOpts{dialogs: dialog.Preset{Save: args[0]}}
			return c.withSession(cmd.Context(), o, func(s *session) error {
				if err := s.dispatch(cmd.Context(), fsm.GenerateExcelTemplate{}); err != nil {
					return err
				}
				var path, problem string
				s.view(func(d *fsm.DashboardState) {
					path, problem = d.Students.TemplatePath, d.Students.TemplateError
				})
				if problem != "" {
					return errors.New(problem)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Template saved to %s\n", path)
				return nil
			})
		},
	}
}

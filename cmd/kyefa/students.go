package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/fsm"
	"github.com/Spok95/kyefa/internal/models"
)

func newStudentsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "students",
		Short: "Manage the student roster",
	}
	cmd.AddCommand(
		newStudentsListCmd(c),
		newStudentsAddCmd(c),
		newStudentsEditCmd(c),
		newStudentsDeleteCmd(c),
	)
	return cmd
}

func newStudentsListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print the roster sorted by surname",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSession(cmd.Context(), sessionOpts{}, func(s *session) error {
				var (
					list []models.Student
					err  error
				)
				s.view(func(d *fsm.DashboardState) {
					list = d.Students.Students
					if d.Students.FetchError != "" {
						err = errors.New(d.Students.FetchError)
					}
				})
				if err != nil {
					return err
				}
				printRoster(cmd.OutOrStdout(), list)
				return nil
			})
		},
	}
}

func printRoster(w io.Writer, list []models.Student) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tNAME\tGENDER\tCLASS\tFEE\tSTATUS")
	for _, st := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%s\n",
			st.ID, st.Name.Full(), st.Gender, st.ClassLevel, st.FeeAmount, st.PaymentStatus)
	}
	_ = tw.Flush()
	_, _ = fmt.Fprintf(w, "%d student(s)\n", len(list))
}

// studentFlags — поля формы ученика; пустые флаги не трогают поле.
type studentFlags struct {
	first, surname, other, gender, class string
}

func (f *studentFlags) bind(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.first, "first", "", "first name")
	fl.StringVar(&f.surname, "surname", "", "surname")
	fl.StringVar(&f.other, "other", "", "other names")
	fl.StringVar(&f.gender, "gender", "", "Male|Female")
	fl.StringVar(&f.class, "class", "", "class level, e.g. IGCSE1")
}

// messages: для каждого заданного флага — сообщение изменения поля.
func (f *studentFlags) messages(cmd *cobra.Command, mk func(fsm.StudentField, string) effect.Msg) []effect.Msg {
	fields := []struct {
		flag  string
		field fsm.StudentField
		value string
	}{
		{"first", fsm.FieldFirstName, f.first},
		{"surname", fsm.FieldSurname, f.surname},
		{"other", fsm.FieldOtherNames, f.other},
		{"gender", fsm.FieldGender, f.gender},
		{"class", fsm.FieldClassLevel, f.class},
	}
	var out []effect.Msg
	for _, x := range fields {
		if cmd.Flags().Changed(x.flag) {
			out = append(out, mk(x.field, x.value))
		}
	}
	return out
}

func newStudentsAddCmd(c *cli) *cobra.Command {
	var f studentFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a student",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withSession(cmd.Context(), sessionOpts{}, func(s *session) error {
				msgs := f.messages(cmd, func(field fsm.StudentField, v string) effect.Msg {
					return fsm.CreateFieldChanged{Field: field, Value: v}
				})
				if err := s.dispatch(cmd.Context(), append(msgs, fsm.SubmitNewStudent{})...); err != nil {
					return err
				}
				var problem, notice string
				s.view(func(d *fsm.DashboardState) {
					problem, notice = d.Students.FormError, d.Students.Notice
				})
				if problem != "" {
					return errors.New(problem)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), notice)
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newStudentsEditCmd(c *cli) *cobra.Command {
	var f studentFlags
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Update a student; only the given fields change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid student id %q", args[0])
			}
			return c.withSession(cmd.Context(), sessionOpts{}, func(s *session) error {
				var found bool
				s.view(func(d *fsm.DashboardState) { _, found = d.Students.Find(id) })
				if !found {
					return fmt.Errorf("student %s not found", id)
				}
				msgs := []effect.Msg{fsm.EditStudent{ID: id}}
				msgs = append(msgs, f.messages(cmd, func(field fsm.StudentField, v string) effect.Msg {
					return fsm.EditFieldChanged{Field: field, Value: v}
				})...)
				msgs = append(msgs, fsm.UpdateStudent{ID: id})
				if err := s.dispatch(cmd.Context(), msgs...); err != nil {
					return err
				}
				var problem, notice string
				s.view(func(d *fsm.DashboardState) {
					problem, notice = d.Students.EditError, d.Students.Notice
				})
				if problem != "" {
					return errors.New(problem)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), notice)
				return nil
			})
		},
	}
	f.bind(cmd)
	return cmd
}

func newStudentsDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a student",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid student id %q", args[0])
			}
			return c.withSession(cmd.Context(), sessionOpts{}, func(s *session) error {
				if err := s.dispatch(cmd.Context(), fsm.DeleteStudent{ID: id}); err != nil {
					return err
				}
				var problem, notice string
				s.view(func(d *fsm.DashboardState) {
					problem, notice = d.Students.EditError, d.Students.Notice
				})
				if problem != "" {
					return errors.New(problem)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), notice)
				return nil
			})
		},
	}
}

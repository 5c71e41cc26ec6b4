package fsm

import (
	"context"
	"sort"
	"strings"

	"github.com/Spok95/kyefa/internal/apperr"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/fsm/fsmutil"
	"github.com/Spok95/kyefa/internal/models"
	"github.com/Spok95/kyefa/internal/validators"
)

type UserField int

const (
	UserUsername UserField = iota + 1
	UserPassword
	UserFirstName
	UserSurname
	UserOtherNames
	UserRole
)

type UserForm struct {
	Username   string
	Password   string
	FirstName  string
	Surname    string
	OtherNames string
	Role       models.Role
}

func (f *UserForm) set(field UserField, v string) {
	switch field {
	case UserUsername:
		f.Username = v
	case UserPassword:
		f.Password = v
	case UserFirstName:
		f.FirstName = v
	case UserSurname:
		f.Surname = v
	case UserOtherNames:
		f.OtherNames = v
	case UserRole:
		f.Role, _ = models.ParseRole(v)
	}
}

type FetchUsers struct{ userScoped }

type UsersFetched struct {
	userScoped
	Users []models.UserRecord
}

type UserFetchFailed struct {
	userScoped
	Err error
}

type UpdateUserSearch struct {
	userScoped
	Query string
}

type ShowAddUserDialog struct{ userScoped }

type HideAddUserDialog struct{ userScoped }

type UserFieldChanged struct {
	userScoped
	Field UserField
	Value string
}

type SubmitNewUser struct{ userScoped }

type UserCreated struct {
	userScoped
	User models.UserRecord
}

type UserCreationFailed struct {
	userScoped
	Err error
}

type DeleteUser struct {
	userScoped
	ID string
}

type UserDeleted struct {
	userScoped
	ID string
}

type ResetUserPassword struct {
	userScoped
	ID string
}

type UserPasswordReset struct {
	userScoped
	ID      string
	Message string
}

type UserActionFailed struct {
	userScoped
	Err error
}

const msgSelfDelete = "You cannot delete your own account."

type UserAccessState struct {
	// Users отсортированы по логину.
	Users  []models.UserRecord
	Search string

	ShowDialog bool
	Form       UserForm
	FormError  string
	IsSaving   bool

	IsLoading   bool
	FetchError  string
	ActionError string
	Notice      string
}

// Visible фильтрует по логину, имени и роли.
func (s *UserAccessState) Visible() []models.UserRecord {
	out := make([]models.UserRecord, 0, len(s.Users))
	for _, u := range s.Users {
		if fsmutil.MatchesQuery(s.Search, u.Username, u.Name().Full(), string(u.Role)) {
			out = append(out, u)
		}
	}
	return out
}

func (s *UserAccessState) update(msg DashboardMsg, e *env) []effect.Effect {
	switch m := msg.(type) {
	case FetchUsers:
		s.IsLoading = true
		s.FetchError = ""
		return one(listUsers(e))
	case UsersFetched:
		s.IsLoading = false
		s.Users = append([]models.UserRecord(nil), m.Users...)
		sortUsers(s.Users)
	case UserFetchFailed:
		s.IsLoading = false
		s.FetchError = apperr.Message(m.Err)

	case UpdateUserSearch:
		s.Search = m.Query
	case ShowAddUserDialog:
		s.ShowDialog = true
		s.Form = UserForm{}
		s.FormError = ""
	case HideAddUserDialog:
		s.ShowDialog = false
		s.Form = UserForm{}
		s.FormError = ""
	case UserFieldChanged:
		s.Form.set(m.Field, m.Value)
		s.FormError = ""
	case SubmitNewUser:
		if !s.ShowDialog || s.IsSaving {
			return nil
		}
		f := s.Form
		if err := validators.ValidateUser(validators.UserForm{
			Username:  f.Username,
			FirstName: f.FirstName,
			Surname:   f.Surname,
			Role:      f.Role,
			Password:  f.Password,
		}); err != nil {
			s.FormError = err.Error()
			return nil
		}
		s.FormError = ""
		s.IsSaving = true
		return one(createUser(e, models.CreateUserPayload{
			Username:   strings.TrimSpace(f.Username),
			Password:   f.Password,
			Role:       f.Role,
			FirstName:  strings.TrimSpace(f.FirstName),
			Surname:    strings.TrimSpace(f.Surname),
			OtherNames: models.OptionalString(f.OtherNames),
		}))
	case UserCreated:
		s.IsSaving = false
		s.Users = append(s.Users, m.User)
		sortUsers(s.Users)
		s.ShowDialog = false
		s.Form = UserForm{}
		s.Notice = "User " + m.User.Username + " created."
	case UserCreationFailed:
		s.IsSaving = false
		s.FormError = apperr.Message(m.Err)

	case DeleteUser:
		s.ActionError = ""
		if m.ID == e.session.UserID.String() {
			s.ActionError = msgSelfDelete
			return nil
		}
		return one(deleteUser(e, m.ID))
	case UserDeleted:
		out := make([]models.UserRecord, 0, len(s.Users))
		for _, u := range s.Users {
			if u.ID != m.ID {
				out = append(out, u)
			}
		}
		s.Users = out
		s.Notice = "User deleted."
	case ResetUserPassword:
		s.ActionError = ""
		return one(resetPassword(e, m.ID))
	case UserPasswordReset:
		s.Notice = m.Message
	case UserActionFailed:
		s.ActionError = apperr.Message(m.Err)
	}
	return nil
}

func sortUsers(list []models.UserRecord) {
	sort.SliceStable(list, func(i, j int) bool {
		return strings.ToLower(list[i].Username) < strings.ToLower(list[j].Username)
	})
}

func listUsers(e *env) effect.Effect {
	return e.effect("list_users", func(ctx context.Context) Msg {
		list, err := e.Gateway.ListUsers(ctx)
		if err != nil {
			return UserFetchFailed{Err: err}
		}
		return UsersFetched{Users: list}
	})
}

func createUser(e *env, p models.CreateUserPayload) effect.Effect {
	return e.effect("create_user", func(ctx context.Context) Msg {
		u, err := e.Gateway.CreateUser(ctx, p)
		if err != nil {
			return UserCreationFailed{Err: err}
		}
		return UserCreated{User: u}
	})
}

func deleteUser(e *env, id string) effect.Effect {
	return e.effect("delete_user", func(ctx context.Context) Msg {
		if err := e.Gateway.DeleteUser(ctx, id); err != nil {
			return UserActionFailed{Err: err}
		}
		return UserDeleted{ID: id}
	})
}

func resetPassword(e *env, id string) effect.Effect {
	return e.effect("reset_password", func(ctx context.Context) Msg {
		msg, err := e.Gateway.ResetUserPassword(ctx, id)
		if err != nil {
			return UserActionFailed{Err: err}
		}
		return UserPasswordReset{ID: id, Message: msg}
	})
}

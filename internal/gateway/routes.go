package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/Spok95/kyefa/internal/apperr"
	"github.com/Spok95/kyefa/internal/models"
	"github.com/Spok95/kyefa/internal/observability"
)

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login различает 401/404/прочее и транспортные ошибки.
func (c *Client) Login(ctx context.Context, username, password string) (models.UserRecord, error) {
	b, err := json.Marshal(credentials{Username: username, Password: password})
	if err != nil {
		return models.UserRecord{}, apperr.NewLoginError(apperr.ServerError, err.Error())
	}
	resp, err := c.send(ctx, "login", http.MethodPost, "/login", bytes.NewReader(b), "application/json")
	if err != nil {
		return models.UserRecord{}, apperr.NewLoginError(apperr.LoginNetworkIssue,
			fmt.Sprintf("Could not connect to the server: %v", err))
	}
	switch {
	case resp.status == http.StatusOK:
		var rec models.UserRecord
		if err := json.Unmarshal(resp.body, &rec); err != nil {
			return models.UserRecord{}, apperr.NewLoginError(apperr.ServerError,
				fmt.Sprintf("Failed to parse server response: %v", err))
		}
		return rec, nil
	case resp.status == http.StatusUnauthorized:
		return models.UserRecord{}, apperr.NewLoginError(apperr.InvalidCredentials, "Incorrect username or password.")
	case resp.status == http.StatusNotFound:
		return models.UserRecord{}, apperr.NewLoginError(apperr.UserNotFound, "User with that username does not exist.")
	default:
		e := apperr.NewLoginError(apperr.ServerError,
			fmt.Sprintf("Server returned an unexpected status: %d %s", resp.status, http.StatusText(resp.status)))
		if isSystemStatus(resp.status) {
			observability.CaptureOp("login", e)
		}
		return models.UserRecord{}, e
	}
}

func (c *Client) ListStudents(ctx context.Context) ([]models.Student, error) {
	var out []models.Student
	if err := c.call(ctx, "list_students", http.MethodGet, "/students", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateStudent(ctx context.Context, p models.CreateStudentPayload) (models.Student, error) {
	var out models.Student
	err := c.call(ctx, "create_student", http.MethodPost, "/students", p, &out)
	return out, err
}

func (c *Client) UpdateStudent(ctx context.Context, p models.UpdateStudentPayload) (models.Student, error) {
	var out models.Student
	err := c.call(ctx, "update_student", http.MethodPut, "/students", p, &out)
	return out, err
}

func (c *Client) DeleteStudent(ctx context.Context, id uuid.UUID) error {
	return c.call(ctx, "delete_student", http.MethodDelete, "/students/"+id.String(), nil, nil)
}

// ImportStudents загружает файл целиком; разбор строк и нормализация — на сервере.
func (c *Client) ImportStudents(ctx context.Context, filename string, data []byte) error {
	body, ct, err := multipartFile("file", filename, data)
	if err != nil {
		return apperr.NewIO(err)
	}
	resp, err := c.send(ctx, "import_students", http.MethodPost, "/students/import", body, ct)
	if err != nil {
		return c.networkErr("import_students", err)
	}
	return c.decode("import_students", resp, nil)
}

func (c *Client) ListTeachingPeriods(ctx context.Context) ([]models.TeachingPeriod, error) {
	var out []models.TeachingPeriod
	if err := c.call(ctx, "list_periods", http.MethodGet, "/teaching-periods", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SaveTeachingPeriod(ctx context.Context, p models.TeachingPeriod) (models.TeachingPeriod, error) {
	var out models.TeachingPeriod
	method, op := http.MethodPost, "create_period"
	if p.ID != "" {
		method, op = http.MethodPut, "update_period"
	}
	err := c.call(ctx, op, method, "/teaching-periods", p, &out)
	return out, err
}

func (c *Client) DeleteTeachingPeriod(ctx context.Context, id string) error {
	return c.call(ctx, "delete_period", http.MethodDelete, "/teaching-periods/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListPayments(ctx context.Context) ([]models.Payment, error) {
	var out []models.Payment
	if err := c.call(ctx, "list_payments", http.MethodGet, "/payments", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) RecordPayment(ctx context.Context, p models.Payment) (models.Payment, error) {
	var out models.Payment
	err := c.call(ctx, "record_payment", http.MethodPost, "/payments", p, &out)
	return out, err
}

func (c *Client) ListUsers(ctx context.Context) ([]models.UserRecord, error) {
	var out []models.UserRecord
	if err := c.call(ctx, "list_users", http.MethodGet, "/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, p models.CreateUserPayload) (models.UserRecord, error) {
	var out models.UserRecord
	err := c.call(ctx, "create_user", http.MethodPost, "/users", p, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.call(ctx, "delete_user", http.MethodDelete, "/users/"+url.PathEscape(id), nil, nil)
}

type resetResult struct {
	Message string `json:"message"`
}

// ResetUserPassword возвращает текст сервера (обычно временный пароль или инструкцию).
func (c *Client) ResetUserPassword(ctx context.Context, id string) (string, error) {
	var out resetResult
	if err := c.call(ctx, "reset_password", http.MethodPost, "/users/"+url.PathEscape(id)+"/reset-password", nil, &out); err != nil {
		return "", err
	}
	if out.Message == "" {
		out.Message = "Password reset."
	}
	return out.Message, nil
}

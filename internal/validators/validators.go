// Package validators — проверки форм. Каждая функция возвращает первое
// нарушенное правило одним сообщением; порядок правил = порядок полей в структуре.
package validators

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/Spok95/kyefa/internal/models"
)

var validate = validator.New()

// FieldError — первое нарушение; Message показывается под формой.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

type messages map[string]string

// first переводит ошибки validator в сообщение первого поля.
// Ключ — "Field.tag", затем просто "Field".
func first(err error, m messages) error {
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err
	}
	fe := ve[0]
	if msg, ok := m[fe.Field()+"."+fe.Tag()]; ok {
		return &FieldError{Field: fe.Field(), Message: msg}
	}
	if msg, ok := m[fe.Field()]; ok {
		return &FieldError{Field: fe.Field(), Message: msg}
	}
	return &FieldError{Field: fe.Field(), Message: fe.Error()}
}

// StudentForm — общий вход для форм создания и редактирования ученика.
type StudentForm struct {
	FirstName  string            `validate:"required"`
	Surname    string            `validate:"required"`
	Gender     models.Gender     `validate:"required"`
	ClassLevel models.ClassLevel `validate:"required"`
}

const (
	MsgFirstName  = "First name cannot be empty."
	MsgSurname    = "Surname cannot be empty."
	MsgGender     = "Please select a gender."
	MsgClassLevel = "Please select a class level."
)

var studentMessages = messages{
	"FirstName":  MsgFirstName,
	"Surname":    MsgSurname,
	"Gender":     MsgGender,
	"ClassLevel": MsgClassLevel,
}

// ValidateStudent: имя → фамилия → пол → класс. Пробельные строки считаются пустыми.
func ValidateStudent(f StudentForm) error {
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.Surname = strings.TrimSpace(f.Surname)
	return first(validate.Struct(f), studentMessages)
}

// PeriodForm — форма урока; дату разбирает вызывающий (формат ДД/ММ/ГГГГ).
type PeriodForm struct {
	Subject     string  `validate:"required"`
	Class       string  `validate:"required"`
	TeacherName string  `validate:"required"`
	Rate        float64 `validate:"gt=0"`
	StartTime   uint32  `validate:"max=23"`
	EndTime     uint32  `validate:"max=24,gtfield=StartTime"`
}

var periodMessages = messages{
	"Subject":         "Subject cannot be empty.",
	"Class":           "Class cannot be empty.",
	"TeacherName":     "Teacher name cannot be empty.",
	"Rate":            "Rate must be greater than zero.",
	"StartTime":       "Start hour must be between 0 and 23.",
	"EndTime.gtfield": "End hour must be after start hour.",
	"EndTime":         "End hour must be between 1 and 24.",
}

func ValidatePeriod(f PeriodForm) error {
	f.Subject = strings.TrimSpace(f.Subject)
	f.Class = strings.TrimSpace(f.Class)
	f.TeacherName = strings.TrimSpace(f.TeacherName)
	return first(validate.Struct(f), periodMessages)
}

type PaymentForm struct {
	StudentID string  `validate:"required,uuid"`
	Amount    float64 `validate:"gt=0"`
	Method    string  `validate:"required"`
}

var paymentMessages = messages{
	"StudentID.required": "Please select a student.",
	"StudentID":          "Selected student is not valid.",
	"Amount":             "Amount must be greater than zero.",
	"Method":             "Please enter a payment method.",
}

func ValidatePayment(f PaymentForm) error {
	f.StudentID = strings.TrimSpace(f.StudentID)
	f.Method = strings.TrimSpace(f.Method)
	return first(validate.Struct(f), paymentMessages)
}

type UserForm struct {
	Username  string      `validate:"required,min=3,alphanum"`
	FirstName string      `validate:"required"`
	Surname   string      `validate:"required"`
	Role      models.Role `validate:"required"`
	Password  string      `validate:"min=8"`
}

var userMessages = messages{
	"Username.required": "Username cannot be empty.",
	"Username.min":      "Username must be at least 3 characters.",
	"Username":          "Username may contain only letters and digits.",
	"FirstName":         "First name cannot be empty.",
	"Surname":           "Surname cannot be empty.",
	"Role":              "Please select a role.",
	"Password":          "Password must be at least 8 characters.",
}

func ValidateUser(f UserForm) error {
	f.Username = strings.TrimSpace(f.Username)
	f.FirstName = strings.TrimSpace(f.FirstName)
	f.Surname = strings.TrimSpace(f.Surname)
	return first(validate.Struct(f), userMessages)
}

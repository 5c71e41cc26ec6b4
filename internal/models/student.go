package models

import (
	"strings"

	"github.com/google/uuid"
)

type Gender string

const (
	Male   Gender = "Male"
	Female Gender = "Female"
)

// Genders — закрытый список для выпадающих списков и шаблона Excel.
var Genders = []Gender{Male, Female}

func ParseGender(s string) (Gender, bool) {
	s = strings.TrimSpace(s)
	for _, g := range Genders {
		if strings.EqualFold(s, string(g)) {
			return g, true
		}
	}
	return "", false
}

type ClassLevel string

const (
	LowerSecondaryYear8 ClassLevel = "LowerSecondaryYear8"
	LowerSecondaryYear9 ClassLevel = "LowerSecondaryYear9"
	IGCSE1              ClassLevel = "IGCSE1"
	IGCSE2              ClassLevel = "IGCSE2"
	WASSCE1             ClassLevel = "WASSCE1"
	WASSCE2             ClassLevel = "WASSCE2"
	WASSCE3             ClassLevel = "WASSCE3"
	ALevel1             ClassLevel = "ALevel1"
	ALevel2             ClassLevel = "ALevel2"
)

var ClassLevels = []ClassLevel{
	LowerSecondaryYear8,
	LowerSecondaryYear9,
	IGCSE1,
	IGCSE2,
	WASSCE1,
	WASSCE2,
	WASSCE3,
	ALevel1,
	ALevel2,
}

// ParseClassLevel принимает значение ровно в том виде, в каком оно лежит в шаблоне.
func ParseClassLevel(s string) (ClassLevel, bool) {
	s = strings.TrimSpace(s)
	for _, c := range ClassLevels {
		if s == string(c) {
			return c, true
		}
	}
	return "", false
}

type PaymentStatus string

const (
	Paid    PaymentStatus = "Paid"
	Partial PaymentStatus = "Partial"
	NotPaid PaymentStatus = "NotPaid"
	Exempt  PaymentStatus = "Exempt"
)

type PersonName struct {
	FirstName  string  `json:"first_name"`
	Surname    string  `json:"surname"`
	OtherNames *string `json:"other_names,omitempty"`
}

// Full — "Имя Другие Фамилия" для вывода.
func (n PersonName) Full() string {
	parts := []string{n.FirstName}
	if n.OtherNames != nil && strings.TrimSpace(*n.OtherNames) != "" {
		parts = append(parts, strings.TrimSpace(*n.OtherNames))
	}
	parts = append(parts, n.Surname)
	return strings.Join(parts, " ")
}

type Student struct {
	ID            uuid.UUID     `json:"id"`
	Name          PersonName    `json:"name"`
	Gender        Gender        `json:"gender"`
	ClassLevel    ClassLevel    `json:"class_level"`
	IsActive      bool          `json:"is_active"`
	FeeAmount     float64       `json:"fee_amount"`
	PaymentStatus PaymentStatus `json:"payment_status"`
}

type CreateStudentPayload struct {
	FirstName  string     `json:"first_name"`
	Surname    string     `json:"surname"`
	OtherNames *string    `json:"other_names,omitempty"`
	Gender     Gender     `json:"gender"`
	ClassLevel ClassLevel `json:"class_level"`
}

type UpdateStudentPayload struct {
	ID         uuid.UUID  `json:"id"`
	FirstName  string     `json:"first_name"`
	Surname    string     `json:"surname"`
	OtherNames *string    `json:"other_names,omitempty"`
	Gender     Gender     `json:"gender"`
	ClassLevel ClassLevel `json:"class_level"`
}

// OptionalString — пустая строка после trim превращается в nil.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

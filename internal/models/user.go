package models

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type Role string

const (
	Admin           Role = "Admin"
	CommitteeMember Role = "CommitteeMember"
	Headteacher     Role = "Headteacher"
	DataEntry       Role = "DataEntry"
	Staff           Role = "Staff"
	Teacher         Role = "Teacher"
)

var Roles = []Role{Admin, CommitteeMember, Headteacher, DataEntry, Staff, Teacher}

func ParseRole(s string) (Role, bool) {
	for _, r := range Roles {
		if strings.EqualFold(strings.TrimSpace(s), string(r)) {
			return r, true
		}
	}
	return "", false
}

// UserRecord — ответ POST /login и элементы GET /users.
type UserRecord struct {
	ID         string  `json:"id"`
	Username   string  `json:"username"`
	Role       Role    `json:"role"`
	IsActive   bool    `json:"is_active"`
	FirstName  string  `json:"first_name"`
	Surname    string  `json:"surname"`
	OtherNames *string `json:"other_names,omitempty"`
}

func (r UserRecord) Name() PersonName {
	return PersonName{FirstName: r.FirstName, Surname: r.Surname, OtherNames: r.OtherNames}
}

// Session живёт от входа до выхода и не меняется.
type Session struct {
	UserID      uuid.UUID
	Username    string
	Role        Role
	DisplayName string
}

func NewSession(r UserRecord) (Session, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return Session{}, fmt.Errorf("invalid user id %q: %w", r.ID, err)
	}
	return Session{
		UserID:      id,
		Username:    r.Username,
		Role:        r.Role,
		DisplayName: strings.TrimSpace(r.FirstName + " " + r.Surname),
	}, nil
}

type CreateUserPayload struct {
	Username   string  `json:"username"`
	Password   string  `json:"password"`
	Role       Role    `json:"role"`
	FirstName  string  `json:"first_name"`
	Surname    string  `json:"surname"`
	OtherNames *string `json:"other_names,omitempty"`
}

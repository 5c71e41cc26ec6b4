package apperr

import (
	"errors"
	"fmt"
)

type LoginKind int

const (
	UserNotFound LoginKind = iota + 1
	InvalidCredentials
	LoginNetworkIssue
	ServerError
)

func (k LoginKind) String() string {
	switch k {
	case UserNotFound:
		return "User not found"
	case InvalidCredentials:
		return "Invalid credentials"
	case LoginNetworkIssue:
		return "Network problem"
	case ServerError:
		return "Server error"
	}
	return "Login error"
}

// LoginError — ошибки экрана входа; Message показывается пользователю как есть.
type LoginError struct {
	Kind    LoginKind
	Message string
}

func (e *LoginError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewLoginError(kind LoginKind, msg string) *LoginError {
	return &LoginError{Kind: kind, Message: msg}
}

type Kind int

const (
	Network Kind = iota + 1
	Serialization
	Backend
	IO
	Configuration
	// Validation: содержимое файла не прошло проверку (импорт).
	Validation
)

func (k Kind) String() string {
	switch k {
	case Network:
		return "Network Issue"
	case Serialization:
		return "Serialization Error"
	case Backend:
		return "Backend API Error"
	case IO:
		return "IO Error"
	case Configuration:
		return "Configuration Error"
	case Validation:
		return "Validation Error"
	}
	return "Error"
}

// Error — ошибка мутаций (create/update/delete/import) и локального ввода-вывода.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil && e.Message == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func NewNetwork(err error) *Error {
	return &Error{Kind: Network, Message: err.Error(), Err: err}
}

func NewSerialization(err error) *Error {
	return &Error{Kind: Serialization, Message: err.Error(), Err: err}
}

func NewBackend(msg string) *Error {
	return &Error{Kind: Backend, Message: msg}
}

func NewIO(err error) *Error {
	return &Error{Kind: IO, Message: err.Error(), Err: err}
}

func NewConfiguration(err error) *Error {
	return &Error{Kind: Configuration, Message: err.Error(), Err: err}
}

func NewValidation(err error) *Error {
	return &Error{Kind: Validation, Message: err.Error(), Err: err}
}

// KindOf возвращает Kind из цепочки ошибок, 0 если это не *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// Message — то, что показывается рядом с формой.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var le *LoginError
	if errors.As(err, &le) {
		return le.Message
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Message != "" {
			return e.Message
		}
	}
	return err.Error()
}

// Package fsmutil — мелкие помощники для переходов модулей: разбор дат из
// полей ввода и поиск по списку.
package fsmutil

import (
	"fmt"
	"strings"
	"time"
)

// DateInputLayout — формат полей дат в формах и фильтрах.
const DateInputLayout = "02/01/2006"

var dateLayouts = []string{
	DateInputLayout,
	"2/1/2006",
	"2006-01-02",
}

// ParseDate разбирает ДД/ММ/ГГГГ (допускаются одна цифра и ISO-формат).
func ParseDate(input string) (time.Time, error) {
	s := strings.TrimSpace(input)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("date %q must be in DD/MM/YYYY format: %w", s, lastErr)
}

// ParseOptionalDate: пустая строка — нет ограничения (nil).
func ParseOptionalDate(input string) (*time.Time, error) {
	if strings.TrimSpace(input) == "" {
		return nil, nil
	}
	t, err := ParseDate(input)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateInputLayout)
}

// MatchesQuery — регистронезависимый поиск подстроки хотя бы в одном поле.
// Пустой запрос совпадает со всем.
func MatchesQuery(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, f := range fields {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

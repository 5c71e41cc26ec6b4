package models

import (
	"encoding/json"
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Date — календарная дата без времени, на проводе "YYYY-MM-DD".
type Date struct {
	time.Time
}

func NewDate(y int, m time.Month, d int) Date {
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(DateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return fmt.Errorf("date %q: %w", s, err)
	}
	*d = Date{t}
	return nil
}

// TeachingPeriod — проведённый урок; часы начала/конца целые (0..23).
type TeachingPeriod struct {
	ID          string  `json:"id,omitempty"`
	Subject     string  `json:"subject"`
	Class       string  `json:"class"`
	Rate        float64 `json:"rate"`
	Date        Date    `json:"date"`
	StartTime   uint32  `json:"start_time"`
	EndTime     uint32  `json:"end_time"`
	TeacherName string  `json:"teacher_name"`
}

func (p TeachingPeriod) Hours() uint32 {
	if p.EndTime <= p.StartTime {
		return 0
	}
	return p.EndTime - p.StartTime
}

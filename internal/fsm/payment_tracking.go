package fsm

import (
	"context"
	"strings"

	"github.com/Spok95/kyefa/internal/apperr"
	"github.com/Spok95/kyefa/internal/effect"
	"github.com/Spok95/kyefa/internal/models"
	"github.com/Spok95/kyefa/internal/validators"
)

type PaymentField int

const (
	PaymentStudent PaymentField = iota + 1
	PaymentAmount
	PaymentMethod
	PaymentDescription
)

type PaymentForm struct {
	StudentID   string
	Amount      string
	Method      string
	Description string
}

func (f *PaymentForm) set(field PaymentField, v string) {
	switch field {
	case PaymentStudent:
		f.StudentID = v
	case PaymentAmount:
		f.Amount = v
	case PaymentMethod:
		f.Method = v
	case PaymentDescription:
		f.Description = v
	}
}

type FetchPayments struct{ paymentScoped }

type PaymentsFetched struct {
	paymentScoped
	Payments []models.Payment
}

type PaymentFetchFailed struct {
	paymentScoped
	Err error
}

type PaymentFieldChanged struct {
	paymentScoped
	Field PaymentField
	Value string
}

type SubmitPayment struct{ paymentScoped }

type PaymentRecorded struct {
	paymentScoped
	Payment models.Payment
}

type PaymentRecordFailed struct {
	paymentScoped
	Err error
}

type ClearPaymentBanner struct {
	paymentScoped
	Seq uint64
}

type PaymentTrackingState struct {
	Payments []models.Payment

	Form        PaymentForm
	FormError   string
	IsSaving    bool
	ShowSuccess bool

	IsLoading  bool
	FetchError string

	bannerSeq uint64
}

func (s *PaymentTrackingState) BannerSeq() uint64 { return s.bannerSeq }

func (s *PaymentTrackingState) update(msg DashboardMsg, e *env) []effect.Effect {
	switch m := msg.(type) {
	case FetchPayments:
		s.IsLoading = true
		s.FetchError = ""
		return one(listPayments(e))
	case PaymentsFetched:
		s.IsLoading = false
		s.Payments = append([]models.Payment(nil), m.Payments...)
	case PaymentFetchFailed:
		s.IsLoading = false
		s.FetchError = apperr.Message(m.Err)

	case PaymentFieldChanged:
		s.Form.set(m.Field, m.Value)
		s.FormError = ""
	case SubmitPayment:
		if s.IsSaving {
			return nil
		}
		amount, ok := parseNumber(s.Form.Amount)
		if !ok {
			s.FormError = "Amount must be a number."
			return nil
		}
		form := validators.PaymentForm{StudentID: s.Form.StudentID, Amount: amount, Method: s.Form.Method}
		if err := validators.ValidatePayment(form); err != nil {
			s.FormError = err.Error()
			return nil
		}
		p := models.Payment{
			StudentID:   strings.TrimSpace(s.Form.StudentID),
			Amount:      amount,
			Method:      strings.TrimSpace(s.Form.Method),
			Description: strings.TrimSpace(s.Form.Description),
			DatePaid:    today(e),
		}
		s.FormError = ""
		s.IsSaving = true
		return one(recordPayment(e, p))
	case PaymentRecorded:
		s.IsSaving = false
		s.Payments = append(s.Payments, m.Payment)
		s.Form = PaymentForm{}
		s.bannerSeq++
		s.ShowSuccess = true
		return one(effect.After("clear_payment_banner", e.BannerTTL, ClearPaymentBanner{Seq: s.bannerSeq}))
	case PaymentRecordFailed:
		s.IsSaving = false
		s.FormError = apperr.Message(m.Err)
	case ClearPaymentBanner:
		if m.Seq == s.bannerSeq {
			s.ShowSuccess = false
		}
	}
	return nil
}

func today(e *env) models.Date {
	t := e.Now()
	return models.NewDate(t.Year(), t.Month(), t.Day())
}

func listPayments(e *env) effect.Effect {
	return e.effect("list_payments", func(ctx context.Context) Msg {
		list, err := e.Gateway.ListPayments(ctx)
		if err != nil {
			return PaymentFetchFailed{Err: err}
		}
		return PaymentsFetched{Payments: list}
	})
}

func recordPayment(e *env, p models.Payment) effect.Effect {
	return e.effect("record_payment", func(ctx context.Context) Msg {
		saved, err := e.Gateway.RecordPayment(ctx, p)
		if err != nil {
			return PaymentRecordFailed{Err: err}
		}
		return PaymentRecorded{Payment: saved}
	})
}

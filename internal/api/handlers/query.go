package handlers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wonny/dipscan/internal/analytics"
	"github.com/wonny/dipscan/internal/normalize"
)

// ViewQuery holds the raw view parameters shared by every view endpoint
type ViewQuery struct {
	Companies []string `validate:"dive,required"`
	From      string   `validate:"omitempty,datetime=2006-01-02"`
	To        string   `validate:"omitempty,datetime=2006-01-02"`
	Threshold *float64 `validate:"omitempty,gt=0"`
}

// parseViewQuery reads companies (repeated or comma separated), from, to and
// threshold from the query string
func parseViewQuery(values url.Values) (ViewQuery, error) {
	q := ViewQuery{
		From: strings.TrimSpace(values.Get("from")),
		To:   strings.TrimSpace(values.Get("to")),
	}

	for _, raw := range values["companies"] {
		for _, c := range strings.Split(raw, ",") {
			if c = strings.TrimSpace(c); c != "" {
				q.Companies = append(q.Companies, c)
			}
		}
	}

	if raw := strings.TrimSpace(values.Get("threshold")); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, fmt.Errorf("threshold must be a number")
		}
		q.Threshold = &t
	}

	return q, nil
}

// Filter converts a validated query into an analytics filter
func (q ViewQuery) Filter() (analytics.Filter, error) {
	f := analytics.Filter{Companies: q.Companies}

	if q.From != "" {
		from, err := normalize.ParseDay(q.From)
		if err != nil {
			return f, fmt.Errorf("from: %w", err)
		}
		f.From = &from
	}
	if q.To != "" {
		to, err := normalize.ParseDay(q.To)
		if err != nil {
			return f, fmt.Errorf("to: %w", err)
		}
		f.To = &to
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return f, fmt.Errorf("from must not be after to")
	}
	return f, nil
}

// formatValidationError turns validator errors into one readable message
func formatValidationError(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "datetime":
			msgs = append(msgs, fmt.Sprintf("%s must be a date in YYYY-MM-DD form", field))
		case "gt":
			msgs = append(msgs, fmt.Sprintf("%s must be greater than %s", field, fe.Param()))
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s must not be empty", field))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// Package http provides the JSON API, SVG chart endpoints and dashboard page.
//
// This file implements request decoding. Bodies are decoded into DTOs that
// carry validator tags for their shape; amount positivity and category names
// are left to the ledger so the CLI and API reject the same inputs.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"budget/internal/analytics"
	"budget/internal/chart"
	"budget/internal/core"
	"budget/internal/ledger"
	"budget/internal/services"
)

// maxBodyBytes bounds every JSON body except imports.
const maxBodyBytes = 64 << 10

type incomeRequest struct {
	Amount *core.Money `json:"amount" validate:"required"`
}

type expenseRequest struct {
	Name     string      `json:"name" validate:"required,max=200"`
	Amt      *core.Money `json:"amt" validate:"required"`
	Category string      `json:"category"`
	Note     string      `json:"note" validate:"max=500"`
}

type expenseEditRequest struct {
	Name     *string     `json:"name" validate:"omitempty,max=200"`
	Amt      *core.Money `json:"amt"`
	Category *string     `json:"category"`
	Note     *string     `json:"note" validate:"omitempty,max=500"`
	Color    *string     `json:"color" validate:"omitempty,hexcolor"`
}

func (e expenseEditRequest) edit() ledger.ExpenseEdit {
	out := ledger.ExpenseEdit{
		Name:  sanitizePtr(e.Name),
		Amt:   e.Amt,
		Note:  sanitizePtr(e.Note),
		Color: e.Color,
	}
	if e.Category != nil {
		c := core.Category(sanitizeInput(*e.Category))
		out.Category = &c
	}
	return out
}

type subscriptionRequest struct {
	Name string      `json:"name" validate:"required,max=200"`
	Amt  *core.Money `json:"amt" validate:"required"`
}

type subscriptionEditRequest struct {
	Name  *string     `json:"name" validate:"omitempty,max=200"`
	Amt   *core.Money `json:"amt"`
	Color *string     `json:"color" validate:"omitempty,hexcolor"`
}

func (e subscriptionEditRequest) edit() ledger.SubscriptionEdit {
	return ledger.SubscriptionEdit{Name: sanitizePtr(e.Name), Amt: e.Amt, Color: e.Color}
}

type goalRequest struct {
	Label string      `json:"label" validate:"max=100"`
	Value *core.Money `json:"value" validate:"required"`
	Color string      `json:"color" validate:"omitempty,hexcolor"`
}

type goalEditRequest struct {
	Label *string     `json:"label" validate:"omitempty,max=100"`
	Value *core.Money `json:"value"`
	Color *string     `json:"color" validate:"omitempty,hexcolor"`
}

func (e goalEditRequest) edit() ledger.GoalEdit {
	return ledger.GoalEdit{Label: sanitizePtr(e.Label), Value: e.Value, Color: e.Color}
}

type balanceRequest struct {
	Balance *core.Money `json:"balance" validate:"required"`
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=dark light"`
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeJSON reads a bounded JSON body into dst and validates it. Failures
// come back as *core.ValidationError.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return &core.ValidationError{Field: "body", Err: describeDecodeError(err)}
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return &core.ValidationError{Field: "body", Err: errors.New("must contain a single JSON object")}
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return &core.ValidationError{Field: fe.Field(), Err: fmt.Errorf("failed %q check", fe.Tag())}
		}
		return &core.ValidationError{Field: "body", Err: err}
	}
	return nil
}

func describeDecodeError(err error) error {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, io.EOF):
		return errors.New("must not be empty")
	case errors.As(err, &syntaxErr):
		return fmt.Errorf("malformed JSON at offset %d", syntaxErr.Offset)
	case errors.As(err, &typeErr):
		return fmt.Errorf("wrong type for %q", typeErr.Field)
	case errors.As(err, &maxErr):
		return fmt.Errorf("larger than %d bytes", maxErr.Limit)
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		return errors.New(strings.TrimPrefix(err.Error(), "json: "))
	}
	return err
}

func parseID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Err: fmt.Errorf("%q is not a valid id", raw)}
	}
	return id, nil
}

func parseRange(r *http.Request) (chart.Range, error) {
	rng, err := chart.ParseRange(strings.TrimSpace(r.URL.Query().Get("range")))
	if err != nil {
		return "", &core.ValidationError{Field: "range", Err: err}
	}
	return rng, nil
}

// parseViewport reads optional width/height; the margin is fixed.
func parseViewport(r *http.Request) (chart.Viewport, error) {
	vp := chart.DefaultViewport
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *float64
	}{{"width", &vp.Width}, {"height", &vp.Height}} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 2*vp.Margin || v > 10000 {
			return chart.Viewport{}, &core.ValidationError{Field: p.name, Err: fmt.Errorf("%q is out of range", raw)}
		}
		*p.dst = v
	}
	return vp, nil
}

func parseCoordinate(r *http.Request, name string) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, &core.ValidationError{Field: name, Err: fmt.Errorf("%q is not a number", raw)}
	}
	return v, nil
}

// parseLogQuery reads window and category filters for the expense log.
func parseLogQuery(r *http.Request) (services.LogQuery, error) {
	q := r.URL.Query()
	window, err := analytics.ParseWindow(strings.TrimSpace(q.Get("window")))
	if err != nil {
		return services.LogQuery{}, &core.ValidationError{Field: "window", Err: err}
	}
	category := sanitizeInput(q.Get("category"))
	if category != "" && category != analytics.CategoryAll {
		if _, err := core.ParseCategory(category); err != nil {
			return services.LogQuery{}, &core.ValidationError{Field: "category", Err: err}
		}
	}
	return services.LogQuery{Window: window, Category: category}, nil
}

// sanitizeInput drops control characters other than tab and newlines and
// trims surrounding whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func sanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeInput(*s)
	return &v
}

// Package storage provides the historical estimates stores used to ground rate estimation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ratewise/ratewise/internal/model"
	"github.com/ratewise/ratewise/internal/service"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrInvalidLimit  = errors.New("limit must be at least 1")
	ErrInvalidRecord = errors.New("invalid historical record")
	ErrInvalidTable  = errors.New("invalid table name")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateQuery validates a similarity query before it reaches the database.
func validateQuery(q service.HistoryQuery) error {
	if err := validateString(q.Unit, "unit"); err != nil {
		return err
	}
	if len(q.Tokens) == 0 {
		return fmt.Errorf("%w: tokens", ErrEmptyString)
	}
	if q.Limit < 1 {
		return ErrInvalidLimit
	}
	return nil
}

// validateRecord validates a record about to be saved.
func validateRecord(rec *model.HistoricalRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: record", ErrNilParameter)
	}
	if strings.TrimSpace(rec.ItemName) == "" {
		return fmt.Errorf("%w: missing item name", ErrInvalidRecord)
	}
	if strings.TrimSpace(rec.Unit) == "" {
		return fmt.Errorf("%w: missing unit", ErrInvalidRecord)
	}
	for name, v := range map[string]*float64{"final rate": rec.FinalRate, "ai rate": rec.AIRate} {
		if v == nil {
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
			return fmt.Errorf("%w: %s must be a non-negative number", ErrInvalidRecord, name)
		}
	}
	return nil
}

// validateTable ensures a configured table name is a plain (optionally
// schema-qualified) identifier before it is interpolated into SQL.
func validateTable(table string) error {
	if !identPattern.MatchString(table) {
		return fmt.Errorf("%w: %q", ErrInvalidTable, table)
	}
	return nil
}

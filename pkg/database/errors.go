package database

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"

	apperrors "github.com/rgra/examiner-check/pkg/errors"
)

// Wrap tags a database error with a failure kind. Connection exceptions
// (SQLSTATE class 08) and cancellations are network failures; anything else
// is an io failure.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Network("database "+op, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		if strings.HasPrefix(string(pqErr.Code), "08") {
			return apperrors.Network("database "+op, err)
		}
		return apperrors.IO("database "+op, describe(pqErr))
	}

	// lib/pq reports refused connections as plain net errors
	if strings.Contains(err.Error(), "connection refused") {
		return apperrors.Network("database "+op, err)
	}
	return apperrors.IO("database "+op, err)
}

// describe prefixes well-known constraint errors with a readable summary.
func describe(pqErr *pq.Error) error {
	switch pqErr.Code {
	case "23505":
		return errors.Join(errors.New("duplicate record"), pqErr)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Join(errors.New(col+" must not be empty"), pqErr)
	case "42P01":
		return errors.Join(errors.New("table does not exist"), pqErr)
	default:
		return pqErr
	}
}

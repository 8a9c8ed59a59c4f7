package relational

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
)

// mapError maps driver failures into catalog error codes.
func mapError(op string, table *storage.Table, err error) error {
	if err == nil {
		return nil
	}
	var catErr *domain.Error
	if errors.As(err, &catErr) {
		return err
	}
	where := ""
	if table != nil {
		where = table.Name
	}

	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return domain.NewError(domain.CodeAlreadyExists, op, "duplicate key in "+where, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domain.NewError(domain.CodeNotFound, op, "no row in "+where, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domain.Wrap(domain.CodeBackendFailure, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.TrimSpace(pgErr.Code) == "23505" {
		return domain.NewError(domain.CodeAlreadyExists, op, "duplicate key in "+where, err) // unique_violation
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unique constraint failed") || strings.Contains(msg, "duplicate key") {
		return domain.NewError(domain.CodeAlreadyExists, op, "duplicate key in "+where, err)
	}
	return domain.Wrap(domain.CodeBackendFailure, op, err)
}

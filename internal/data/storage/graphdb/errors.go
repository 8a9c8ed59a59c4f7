package graphdb

import (
	"errors"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
)

const codeConstraintViolation = "Neo.ClientError.Schema.ConstraintValidationFailed"

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
	var nerr *neo4j.Neo4jError
	if errors.As(err, &nerr) && nerr.Code == codeConstraintViolation {
		return domain.NewError(domain.CodeAlreadyExists, op, "duplicate key in "+where, err)
	}
	return domain.Wrap(domain.CodeBackendFailure, op, err)
}

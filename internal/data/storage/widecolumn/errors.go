package widecolumn

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
)

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

	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return domain.NewError(domain.CodeAlreadyExists, op, "duplicate key in "+where, err)
	}
	var missing *types.ResourceNotFoundException
	if errors.As(err, &missing) {
		return domain.NewError(domain.CodeBackendFailure, op, "backing table missing; run migrate", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.Wrap(domain.CodeBackendFailure, op, err)
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return domain.NewError(domain.CodeBackendFailure, op, apiErr.ErrorCode()+": "+apiErr.ErrorMessage(), err)
	}
	return domain.Wrap(domain.CodeBackendFailure, op, err)
}

// Package widecolumn realizes the storage contract on a single DynamoDB table.
//
// Every logical table shares one physical table. A row lives under
// PK = "<table>#<first key column>" and SK = "<second key column>" (or "#"), so
// every read must bind the partition column. Writes are applied immediately:
// there are no multi-statement transactions and Abort cannot undo them.
package widecolumn

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

const (
	attrPK    = "PK"
	attrSK    = "SK"
	noSortKey = "#"
)

// API is the subset of the DynamoDB client the backend uses.
type API interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type Backend struct {
	api       API
	tableName string
	log       *logger.Logger
}

var _ storage.Backend = (*Backend)(nil)

func New(api API, tableName string, log *logger.Logger) (*Backend, error) {
	if api == nil {
		return nil, fmt.Errorf("widecolumn: client required")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, fmt.Errorf("widecolumn: table name required")
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Backend{
		api:       api,
		tableName: tableName,
		log:       log.With("backend", string(storage.KindWideColumn), "table", tableName),
	}, nil
}

func (b *Backend) Kind() storage.Kind { return storage.KindWideColumn }

func (b *Backend) Begin(ctx context.Context) (storage.Conn, error) {
	return &conn{api: b.api, tableName: b.tableName, log: b.log}, nil
}

// Migrate creates the backing table when it does not exist and waits for it to become active.
func (b *Backend) Migrate(ctx context.Context) error {
	_, err := b.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(b.tableName)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return mapError("widecolumn.Migrate", nil, err)
	}

	_, err = b.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(b.tableName),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPK), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrSK), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPK), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrSK), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return mapError("widecolumn.Migrate", nil, err)
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(b.api)
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(b.tableName)}, 2*time.Minute); err != nil {
		return mapError("widecolumn.Migrate", nil, err)
	}
	b.log.Info("wide-column table ready")
	return nil
}

func (b *Backend) Close(ctx context.Context) error { return nil }

package widecolumn

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/yungbote/ground-catalog/internal/data/storage"
	"github.com/yungbote/ground-catalog/internal/domain"
	"github.com/yungbote/ground-catalog/internal/platform/logger"
)

type conn struct {
	api       API
	tableName string
	log       *logger.Logger
	writes    int
	done      bool
}

func (c *conn) Insert(ctx context.Context, table *storage.Table, row storage.Row) error {
	const op = "widecolumn.Insert"
	if err := c.usable(op); err != nil {
		return err
	}
	if err := table.CheckInsert(row); err != nil {
		return err
	}

	values := make(map[string]any, len(table.Columns))
	for _, col := range table.Columns {
		if p := row.StringPtr(col); p != nil {
			values[col] = *p
		}
	}
	item, err := attributevalue.MarshalMap(values)
	if err != nil {
		return domain.Wrap(domain.CodeBackendFailure, op, err)
	}
	pk, sk := itemKey(table, row)
	item[attrPK] = &types.AttributeValueMemberS{Value: pk}
	item[attrSK] = &types.AttributeValueMemberS{Value: sk}

	cond, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name(attrPK))).
		Build()
	if err != nil {
		return domain.Wrap(domain.CodeBackendFailure, op, err)
	}
	_, err = c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(c.tableName),
		Item:                     item,
		ConditionExpression:      cond.Condition(),
		ExpressionAttributeNames: cond.Names(),
	})
	if err != nil {
		return mapError(op, table, err)
	}
	c.writes++
	return nil
}

func (c *conn) Select(ctx context.Context, table *storage.Table, where storage.Row) ([]storage.Row, error) {
	const op = "widecolumn.Select"
	if err := c.usable(op); err != nil {
		return nil, err
	}
	if err := checkPartition(op, table, where); err != nil {
		return nil, err
	}

	if fullKey(table, where) {
		pk, sk := itemKey(table, where)
		out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
			TableName:      aws.String(c.tableName),
			Key:            keyAttrs(pk, sk),
			ConsistentRead: aws.Bool(true),
		})
		if err != nil {
			return nil, mapError(op, table, err)
		}
		if len(out.Item) == 0 {
			return nil, nil
		}
		row, err := decode(table, out.Item)
		if err != nil {
			return nil, domain.Wrap(domain.CodeBackendFailure, op, err)
		}
		if !storage.Matches(row, where) {
			return nil, nil
		}
		return []storage.Row{row}, nil
	}

	return c.queryPartition(ctx, op, table, where)
}

func (c *conn) queryPartition(ctx context.Context, op string, table *storage.Table, where storage.Row) ([]storage.Row, error) {
	pk, _ := itemKey(table, where)
	keyCond := expression.Key(attrPK).Equal(expression.Value(pk))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, domain.Wrap(domain.CodeBackendFailure, op, err)
	}

	var (
		out   []storage.Row
		start map[string]types.AttributeValue
	)
	for {
		page, err := c.api.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(c.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ConsistentRead:            aws.Bool(true),
			ExclusiveStartKey:         start,
		})
		if err != nil {
			return nil, mapError(op, table, err)
		}
		for _, item := range page.Items {
			row, err := decode(table, item)
			if err != nil {
				return nil, domain.Wrap(domain.CodeBackendFailure, op, err)
			}
			if storage.Matches(row, where) {
				out = append(out, row)
			}
		}
		if len(page.LastEvaluatedKey) == 0 {
			break
		}
		start = page.LastEvaluatedKey
	}
	storage.SortRows(table, out)
	return out, nil
}

func (c *conn) Delete(ctx context.Context, table *storage.Table, where storage.Row) error {
	const op = "widecolumn.Delete"
	if err := c.usable(op); err != nil {
		return err
	}
	if err := checkPartition(op, table, where); err != nil {
		return err
	}

	targets := []storage.Row{where}
	if !fullKey(table, where) || len(where) > len(table.Key) {
		rows, err := c.queryPartition(ctx, op, table, where)
		if err != nil {
			return err
		}
		targets = rows
	}
	for _, row := range targets {
		pk, sk := itemKey(table, row)
		if _, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(c.tableName),
			Key:       keyAttrs(pk, sk),
		}); err != nil {
			return mapError(op, table, err)
		}
		c.writes++
	}
	return nil
}

// Lock is a no-op: DynamoDB offers no row lock that spans independent writes.
func (c *conn) Lock(ctx context.Context, table *storage.Table, key storage.Row) error {
	return c.usable("widecolumn.Lock")
}

func (c *conn) Reachable(ctx context.Context, versionID string) ([]string, error) {
	const op = "widecolumn.Reachable"
	if err := c.usable(op); err != nil {
		return nil, err
	}
	return nil, domain.Errorf(domain.CodeUnsupported, op, "transitive closure is not available on the wide-column backend")
}

func (c *conn) Commit(ctx context.Context) error {
	if err := c.usable("widecolumn.Commit"); err != nil {
		return err
	}
	c.done = true
	return nil
}

func (c *conn) Abort(ctx context.Context) error {
	if err := c.usable("widecolumn.Abort"); err != nil {
		return err
	}
	c.done = true
	if c.writes > 0 {
		c.log.Warn("abort after applied writes; partial rows remain", "writes", c.writes)
	}
	return nil
}

func (c *conn) usable(op string) error {
	if c.done {
		return domain.Errorf(domain.CodeBackendFailure, op, "connection already committed or aborted")
	}
	return nil
}

func checkPartition(op string, table *storage.Table, where storage.Row) error {
	if err := table.CheckWhere(where); err != nil {
		return err
	}
	if where.StringPtr(table.PartitionColumn()) == nil {
		return domain.Errorf(domain.CodeUnsupported, op,
			"table %s can only be read by its partition column %q", table.Name, table.PartitionColumn())
	}
	return nil
}

func fullKey(table *storage.Table, where storage.Row) bool {
	for _, k := range table.Key {
		if where.StringPtr(k) == nil {
			return false
		}
	}
	return true
}

func itemKey(table *storage.Table, row storage.Row) (string, string) {
	pk := table.Name + "#" + row.String(table.Key[0])
	sk := noSortKey
	if len(table.Key) > 1 {
		sk = row.String(table.Key[1])
	}
	return pk, sk
}

func keyAttrs(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPK: &types.AttributeValueMemberS{Value: pk},
		attrSK: &types.AttributeValueMemberS{Value: sk},
	}
}

func decode(table *storage.Table, item map[string]types.AttributeValue) (storage.Row, error) {
	var raw map[string]any
	if err := attributevalue.UnmarshalMap(item, &raw); err != nil {
		return nil, err
	}
	return storage.Project(table, raw), nil
}

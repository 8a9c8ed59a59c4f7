// Package widecolumntest provides an in-memory stand-in for the DynamoDB calls the
// wide-column backend makes.
package widecolumntest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// Fake keeps items per physical table, keyed by PK and SK.
// It understands exactly the expressions the backend emits: a single
// PK equality in queries and attribute_not_exists(PK) on puts.
type Fake struct {
	mu     sync.Mutex
	tables map[string]map[string]map[string]types.AttributeValue
	// Fail makes the named operation ("PutItem", "Query", ...) return the error.
	Fail  map[string]error
	Calls map[string]int
}

func NewFake() *Fake {
	return &Fake{
		tables: map[string]map[string]map[string]types.AttributeValue{},
		Fail:   map[string]error{},
		Calls:  map[string]int{},
	}
}

func (f *Fake) enter(op string) error {
	f.mu.Lock()
	f.Calls[op]++
	return f.Fail[op]
}

func (f *Fake) table(name *string) (map[string]map[string]types.AttributeValue, error) {
	t, ok := f.tables[aws.ToString(name)]
	if !ok {
		return nil, &types.ResourceNotFoundException{Message: aws.String("table not found: " + aws.ToString(name))}
	}
	return t, nil
}

func (f *Fake) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	err := f.enter("PutItem")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := key(in.Item)
	if err != nil {
		return nil, err
	}
	if _, exists := t[k]; exists && in.ConditionExpression != nil {
		return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
	}
	t[k] = clone(in.Item)
	return &dynamodb.PutItemOutput{}, nil
}

func (f *Fake) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	err := f.enter("GetItem")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := key(in.Key)
	if err != nil {
		return nil, err
	}
	item, ok := t[k]
	if !ok {
		return &dynamodb.GetItemOutput{}, nil
	}
	return &dynamodb.GetItemOutput{Item: clone(item)}, nil
}

func (f *Fake) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	err := f.enter("Query")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	if len(in.ExpressionAttributeValues) != 1 {
		return nil, fmt.Errorf("fake query supports a single partition value, got %d", len(in.ExpressionAttributeValues))
	}
	var pk string
	for _, v := range in.ExpressionAttributeValues {
		s, ok := v.(*types.AttributeValueMemberS)
		if !ok {
			return nil, fmt.Errorf("fake query expects a string partition value")
		}
		pk = s.Value
	}

	var items []map[string]types.AttributeValue
	for _, item := range t {
		if str(item["PK"]) == pk {
			items = append(items, clone(item))
		}
	}
	sort.Slice(items, func(i, j int) bool { return str(items[i]["SK"]) < str(items[j]["SK"]) })
	return &dynamodb.QueryOutput{Items: items, Count: int32(len(items))}, nil
}

func (f *Fake) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	err := f.enter("DeleteItem")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	t, err := f.table(in.TableName)
	if err != nil {
		return nil, err
	}
	k, err := key(in.Key)
	if err != nil {
		return nil, err
	}
	delete(t, k)
	return &dynamodb.DeleteItemOutput{}, nil
}

func (f *Fake) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	err := f.enter("DescribeTable")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if _, err := f.table(in.TableName); err != nil {
		return nil, err
	}
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

func (f *Fake) CreateTable(ctx context.Context, in *dynamodb.CreateTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error) {
	err := f.enter("CreateTable")
	defer f.mu.Unlock()
	if err != nil {
		return nil, err
	}
	name := aws.ToString(in.TableName)
	if _, ok := f.tables[name]; ok {
		return nil, &types.ResourceInUseException{Message: aws.String("table exists: " + name)}
	}
	f.tables[name] = map[string]map[string]types.AttributeValue{}
	return &dynamodb.CreateTableOutput{TableDescription: &types.TableDescription{
		TableName:   in.TableName,
		TableStatus: types.TableStatusActive,
	}}, nil
}

// Len reports how many items the named table holds.
func (f *Fake) Len(table string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tables[table])
}

func key(item map[string]types.AttributeValue) (string, error) {
	pk, sk := str(item["PK"]), str(item["SK"])
	if pk == "" || sk == "" {
		return "", fmt.Errorf("item is missing PK or SK")
	}
	return pk + "\x00" + sk, nil
}

func str(v types.AttributeValue) string {
	if s, ok := v.(*types.AttributeValueMemberS); ok {
		return s.Value
	}
	return ""
}

func clone(item map[string]types.AttributeValue) map[string]types.AttributeValue {
	out := make(map[string]types.AttributeValue, len(item))
	for k, v := range item {
		out[k] = v
	}
	return out
}

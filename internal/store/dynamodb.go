package store

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/iurnickita/abcretail/internal/model"
)

const (
	attrPartitionKey = "PartitionKey"
	attrRowKey       = "RowKey"
	attrTimestamp    = "Timestamp"

	tableWaitTimeout = 2 * time.Minute
)

// DynamoAPI - используемая часть клиента DynamoDB.
type DynamoAPI interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

type dynamoStore struct {
	client DynamoAPI
	prefix string
}

func NewDynamoStore(client DynamoAPI, tablePrefix string) Store {
	return &dynamoStore{client: client, prefix: tablePrefix}
}

func (store *dynamoStore) tableName(table string) *string {
	return aws.String(store.prefix + table)
}

func (store *dynamoStore) EnsureTable(ctx context.Context, table string) error {
	if err := validateTable(table); err != nil {
		return err
	}

	_, err := store.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: store.tableName(table)})
	if err == nil {
		return nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return err
	}

	_, err = store.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: store.tableName(table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(attrPartitionKey), AttributeType: types.ScalarAttributeTypeS},
			{AttributeName: aws.String(attrRowKey), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(attrPartitionKey), KeyType: types.KeyTypeHash},
			{AttributeName: aws.String(attrRowKey), KeyType: types.KeyTypeRange},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		// таблицу уже создает параллельный вызов
		var inUse *types.ResourceInUseException
		if !errors.As(err, &inUse) {
			return err
		}
	}

	waiter := dynamodb.NewTableExistsWaiter(store.client)
	return waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: store.tableName(table)}, tableWaitTimeout)
}

func (store *dynamoStore) PutEntity(ctx context.Context, table string, entity model.Entity) error {
	if err := validateTable(table); err != nil {
		return err
	}
	if err := validateEntity(entity); err != nil {
		return err
	}

	item, err := attributevalue.MarshalMap(entity.Properties)
	if err != nil {
		return err
	}
	if item == nil {
		item = map[string]types.AttributeValue{}
	}
	item[attrPartitionKey] = &types.AttributeValueMemberS{Value: entity.PartitionKey}
	item[attrRowKey] = &types.AttributeValueMemberS{Value: entity.RowKey}
	item[attrTimestamp] = &types.AttributeValueMemberS{Value: time.Now().UTC().Format(time.RFC3339Nano)}

	_, err = store.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: store.tableName(table),
		Item:      item,
	})
	return mapDynamoError(err)
}

func (store *dynamoStore) GetEntity(ctx context.Context, table string, partitionKey string, rowKey string) (model.Entity, error) {
	if err := validateTable(table); err != nil {
		return model.Entity{}, err
	}

	result, err := store.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: store.tableName(table),
		Key: map[string]types.AttributeValue{
			attrPartitionKey: &types.AttributeValueMemberS{Value: partitionKey},
			attrRowKey:       &types.AttributeValueMemberS{Value: rowKey},
		},
	})
	if err != nil {
		return model.Entity{}, mapDynamoError(err)
	}
	if result.Item == nil {
		return model.Entity{}, ErrNotFound
	}

	var properties map[string]any
	if err := attributevalue.UnmarshalMap(result.Item, &properties); err != nil {
		return model.Entity{}, err
	}

	entity := model.Entity{
		PartitionKey: partitionKey,
		RowKey:       rowKey,
		Properties:   properties,
	}
	if ts, ok := properties[attrTimestamp].(string); ok {
		entity.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	}
	delete(properties, attrPartitionKey)
	delete(properties, attrRowKey)
	delete(properties, attrTimestamp)
	return entity, nil
}

func (store *dynamoStore) Close() error {
	return nil
}

func mapDynamoError(err error) error {
	var notFound *types.ResourceNotFoundException
	if errors.As(err, &notFound) {
		return ErrTableNotFound
	}
	return err
}

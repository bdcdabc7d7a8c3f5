// Package dynamo implements the substrate contract on a single DynamoDB
// table, one item per logical table key. Used when the dashboard backend is
// deployed rather than run on a single device.
package dynamo

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/sakinadamha/buildpk/pkg/substrate"
)

// item is the persisted row shape: partition key "key", document payload and
// the substrate schema version.
type item struct {
	Key           string `dynamodbav:"key"`
	SchemaVersion int    `dynamodbav:"schema_version"`
	Doc           []byte `dynamodbav:"doc"`
}

// Store implements substrate.Store on one DynamoDB table.
type Store struct {
	Client    *dynamodb.Client
	TableName string
}

// New creates a DynamoDB-backed substrate store.
func New(client *dynamodb.Client, tableName string) *Store {
	return &Store{Client: client, TableName: tableName}
}

var _ substrate.Store = (*Store)(nil)

func (s *Store) Load(ctx context.Context, key string, out any) bool {
	keyAV, err := attributevalue.MarshalMap(map[string]string{"key": key})
	if err != nil {
		slog.Warn("failed to marshal document key", "key", key, "error", err)
		return false
	}

	result, err := s.Client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.TableName),
		Key:       keyAV,
	})
	if err != nil {
		slog.Warn("failed to get document from DynamoDB", "key", key, "error", err)
		return false
	}
	if result.Item == nil {
		return false
	}

	var it item
	if err := attributevalue.UnmarshalMap(result.Item, &it); err != nil {
		slog.Warn("failed to unmarshal stored item", "key", key, "error", err)
		return false
	}
	if err := substrate.Decode(it.Doc, out); err != nil {
		slog.Warn("failed to decode stored document", "key", key, "error", err)
		return false
	}
	return true
}

func (s *Store) Save(ctx context.Context, key string, v any) bool {
	doc, err := substrate.Encode(v)
	if err != nil {
		slog.Warn("failed to encode document", "key", key, "error", err)
		return false
	}

	av, err := attributevalue.MarshalMap(item{
		Key:           key,
		SchemaVersion: substrate.SchemaVersion,
		Doc:           doc,
	})
	if err != nil {
		slog.Warn("failed to marshal item", "key", key, "error", err)
		return false
	}

	_, err = s.Client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.TableName),
		Item:      av,
	})
	if err != nil {
		slog.Warn("failed to put document to DynamoDB", "key", key, "error", err)
		return false
	}
	return true
}

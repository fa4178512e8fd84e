package track

import (
	"context"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/pkg/errors"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, opts ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// DynamoStore keeps tracks in a DynamoDB table keyed by "id".
type DynamoStore struct {
	api   DynamoAPI
	table string
}

func NewDynamoStore(api DynamoAPI, table string) *DynamoStore {
	return &DynamoStore{api: api, table: table}
}

func NewDynamoClient(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func (s *DynamoStore) Get(ctx context.Context, id string) (*Track, error) {
	if s == nil || s.api == nil {
		return nil, errStoreNotInitialized
	}

	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       key(id),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get track %s from %s", id, s.table)
	}
	if len(out.Item) == 0 {
		return nil, errors.Wrapf(ErrNotFound, "id: %s", id)
	}

	var t Track
	if err := attributevalue.UnmarshalMap(out.Item, &t); err != nil {
		return nil, errors.Wrapf(err, "failed to decode track: %s", id)
	}
	return &t, nil
}

func (s *DynamoStore) Put(ctx context.Context, t *Track) error {
	if s == nil || s.api == nil {
		return errStoreNotInitialized
	}
	if err := validate(t); err != nil {
		return err
	}

	t.UpdatedAt = time.Now().UTC()
	item, err := attributevalue.MarshalMap(t)
	if err != nil {
		return errors.Wrapf(err, "failed to encode track: %s", t.ID)
	}

	if _, err := s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return errors.Wrapf(err, "failed to put track %s in %s", t.ID, s.table)
	}
	return nil
}

func (s *DynamoStore) SetStatus(ctx context.Context, id, status string) error {
	if s == nil || s.api == nil {
		return errStoreNotInitialized
	}
	if err := validateStatus(id, status); err != nil {
		return err
	}

	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	if _, err := s.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:        aws.String(s.table),
		Key:              key(id),
		UpdateExpression: aws.String("SET #status = :status, updated_at = :updated"),
		ExpressionAttributeNames: map[string]string{
			"#status": "status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":  &types.AttributeValueMemberS{Value: status},
			":updated": &types.AttributeValueMemberN{Value: now},
		},
	}); err != nil {
		return errors.Wrapf(err, "failed to update status for track: %s", id)
	}
	return nil
}

func (s *DynamoStore) Close() error {
	return nil
}

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/premiumgate/premiumgate/internal/model"
)

// DynamoAPI is the subset of the DynamoDB client used by DynamoStore.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// DynamoConfig configures NewDynamoStore.
type DynamoConfig struct {
	Region          string
	Table           string
	Endpoint        string // optional, e.g. DynamoDB Local
	AccessKeyID     string // optional static credentials
	SecretAccessKey string
}

// DynamoStore is the DynamoDB-backed Store. The table is keyed by "email".
type DynamoStore struct {
	client DynamoAPI
	table  string
}

var _ Store = (*DynamoStore)(nil)

// NewDynamoStore builds a DynamoDB client from the default AWS credential chain,
// overridden by static credentials and a custom endpoint when configured.
func NewDynamoStore(ctx context.Context, cfg DynamoConfig) (*DynamoStore, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewDynamoStoreWithClient(client, cfg.Table), nil
}

// NewDynamoStoreWithClient wraps an existing client.
func NewDynamoStoreWithClient(client DynamoAPI, table string) *DynamoStore {
	if table == "" {
		table = DefaultTable
	}
	return &DynamoStore{client: client, table: table}
}

func emailKey(email string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"email": &types.AttributeValueMemberS{Value: model.NormalizeEmail(email)},
	}
}

// GetMembership returns the stored record, or ErrMembershipNotFound.
func (s *DynamoStore) GetMembership(ctx context.Context, email string) (*model.Membership, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.table),
		Key:       emailKey(email),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get membership item: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrMembershipNotFound
	}

	var m model.Membership
	if err := attributevalue.UnmarshalMap(out.Item, &m); err != nil {
		return nil, fmt.Errorf("failed to decode membership item: %w", err)
	}
	return &m, nil
}

// IsPremium returns the stored flag, or false when no item exists.
func (s *DynamoStore) IsPremium(ctx context.Context, email string) (bool, error) {
	m, err := s.GetMembership(ctx, email)
	if err != nil {
		if errors.Is(err, ErrMembershipNotFound) {
			return false, nil
		}
		return false, err
	}
	return m.IsPremium, nil
}

// Exists reports whether an item exists for the email.
func (s *DynamoStore) Exists(ctx context.Context, email string) (bool, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:            aws.String(s.table),
		Key:                  emailKey(email),
		ProjectionExpression: aws.String("#email"),
		ExpressionAttributeNames: map[string]string{
			"#email": "email",
		},
	})
	if err != nil {
		return false, fmt.Errorf("failed to check membership item: %w", err)
	}
	return len(out.Item) > 0, nil
}

// Insert puts the item unconditionally.
func (s *DynamoStore) Insert(ctx context.Context, email string, premium bool, date string) error {
	item, err := attributevalue.MarshalMap(model.Membership{
		Email:       model.NormalizeEmail(email),
		IsPremium:   premium,
		LastUpdated: date,
	})
	if err != nil {
		return fmt.Errorf("failed to encode membership item: %w", err)
	}

	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("failed to put membership item: %w", err)
	}
	return nil
}

// Update sets the timestamp of an existing item, guarded by attribute_exists(email).
// A failed condition maps to ErrMembershipNotFound.
func (s *DynamoStore) Update(ctx context.Context, email string, date string) error {
	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.table),
		Key:                 emailKey(email),
		UpdateExpression:    aws.String("SET #ts = :date"),
		ConditionExpression: aws.String("attribute_exists(#email)"),
		ExpressionAttributeNames: map[string]string{
			"#ts":    "timestamp",
			"#email": "email",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":date": &types.AttributeValueMemberS{Value: date},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return ErrMembershipNotFound
		}
		return fmt.Errorf("failed to update membership item: %w", err)
	}
	return nil
}

// Ping verifies the table is reachable.
func (s *DynamoStore) Ping(ctx context.Context) error {
	if _, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.table),
	}); err != nil {
		return fmt.Errorf("failed to describe table %s: %w", s.table, err)
	}
	return nil
}

// Close is a no-op; the SDK client holds no resources that need releasing.
func (s *DynamoStore) Close() {}

package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/dmitrymomot/lambdakit/core/session"
)

var _ session.Store = (*Store)(nil)

const (
	attrPartitionKey = "pk"
	attrSortKey      = "sk"
)

// Client is the subset of the DynamoDB API the store uses.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Config describes the sessions table. The table key is (pk HASH, sk RANGE);
// enable TTL on expiresAt to have DynamoDB purge expired sessions.
type Config struct {
	TableName       string `env:"DYNAMODB_TABLE" envDefault:"sessions"`
	Region          string `env:"AWS_REGION" envDefault:"us-east-1"`
	Endpoint        string `env:"DYNAMODB_ENDPOINT"`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY"`
	PageSize        int32  `env:"DYNAMODB_PAGE_SIZE" envDefault:"100"`
}

// Store persists sessions in a DynamoDB table.
type Store struct {
	client   Client
	table    string
	pageSize int32
}

// Option configures New.
type Option func(*options)

type options struct {
	client        Client
	httpClient    *http.Client
	configOptions []func(*config.LoadOptions) error
	clientOptions []func(*dynamodb.Options)
}

// WithClient sets a pre-configured client, typically a mock in tests.
func WithClient(client Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithHTTPClient sets the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.httpClient = client
	}
}

// WithConfigOption adds an AWS config load option.
func WithConfigOption(opt func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.configOptions = append(o.configOptions, opt)
	}
}

// WithClientOption adds a DynamoDB client option.
func WithClientOption(opt func(*dynamodb.Options)) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions, opt)
	}
}

// New creates a Store. Without WithClient it loads the default AWS config,
// using static credentials only when both keys are set.
func New(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	if cfg.TableName == "" {
		return nil, ErrMissingTable
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{}
		if cfg.Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
		}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}
		if o.httpClient != nil {
			loadOpts = append(loadOpts, config.WithHTTPClient(o.httpClient))
		}
		loadOpts = append(loadOpts, o.configOptions...)

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg, func(do *dynamodb.Options) {
			if cfg.Endpoint != "" {
				do.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			for _, opt := range o.clientOptions {
				opt(do)
			}
		})
	}

	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = session.DefaultPageSize
	}

	return &Store{client: client, table: cfg.TableName, pageSize: pageSize}, nil
}

func key(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrPartitionKey: &types.AttributeValueMemberS{Value: pk},
		attrSortKey:      &types.AttributeValueMemberS{Value: sk},
	}
}

// Get reads the record with a strongly consistent read.
func (s *Store) Get(ctx context.Context, pk, sk string) (*session.Record, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            key(pk, sk),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, classifyError(err, "get")
	}
	if len(out.Item) == 0 {
		return nil, session.ErrNotFound
	}

	var rec session.Record
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, errors.Join(ErrMarshal, err)
	}
	return &rec, nil
}

// Put writes the record, replacing any existing item.
func (s *Store) Put(ctx context.Context, rec *session.Record) error {
	if rec == nil {
		return session.ErrNilRecord
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return errors.Join(ErrMarshal, err)
	}
	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.table),
		Item:      item,
	})
	return classifyError(err, "put")
}

// Delete removes the record. A missing item yields session.ErrNotFound.
func (s *Store) Delete(ctx context.Context, pk, sk string) error {
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.table),
		Key:                 key(pk, sk),
		ConditionExpression: aws.String("attribute_exists(" + attrPartitionKey + ")"),
	})
	return classifyError(err, "delete")
}

// QueryByPartition pages through a partition. The cursor is the sort key of
// the last item of the previous page.
func (s *Store) QueryByPartition(ctx context.Context, pk, cursor string) ([]*session.Record, string, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(s.table),
		KeyConditionExpression: aws.String("#pk = :pk"),
		ExpressionAttributeNames: map[string]string{
			"#pk": attrPartitionKey,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk": &types.AttributeValueMemberS{Value: pk},
		},
		ConsistentRead: aws.Bool(true),
		Limit:          aws.Int32(s.pageSize),
	}
	if cursor != "" {
		in.ExclusiveStartKey = key(pk, cursor)
	}

	out, err := s.client.Query(ctx, in)
	if err != nil {
		return nil, "", classifyError(err, "query")
	}

	recs := make([]*session.Record, 0, len(out.Items))
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &recs); err != nil {
		return nil, "", errors.Join(ErrMarshal, err)
	}

	next := ""
	if sk, ok := out.LastEvaluatedKey[attrSortKey].(*types.AttributeValueMemberS); ok {
		next = sk.Value
	}
	return recs, next, nil
}

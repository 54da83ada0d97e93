package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/docfold/facet/internal/sortkey"
	"github.com/docfold/facet/schema"
)

// schemaDocument is the stored shape of a schema, with the table keys and
// bookkeeping fields alongside the schema itself.
type schemaDocument struct {
	PK               string         `dynamodbav:"pk"`
	SK               string         `dynamodbav:"sk"`
	SiteID           string         `dynamodbav:"siteId"`
	ClassificationID string         `dynamodbav:"classificationId"`
	Version          string         `dynamodbav:"version"`
	UpdatedAt        string         `dynamodbav:"updatedAt"`
	Schema           *schema.Schema `dynamodbav:"schema"`
}

// SchemaStore reads and writes per-site schemas. Schemas are read-mostly;
// callers are expected to cache the result of GetSchema.
type SchemaStore struct {
	client *dynamodb.Client
	config Config
}

// NewSchemaStore creates a new SchemaStore instance.
func NewSchemaStore(client *dynamodb.Client, config Config) *SchemaStore {
	config.validate()
	return &SchemaStore{
		client: client,
		config: config,
	}
}

// GetSchema returns the schema for a site and classification, or
// ErrNotFound.
func (s *SchemaStore) GetSchema(ctx context.Context, siteID, classificationID string) (*schema.Schema, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.config.SchemaTable),
		Key:       schemaKey(siteID, classificationID),
	})
	if err != nil {
		return nil, err
	}
	if result.Item == nil {
		return nil, ErrNotFound
	}

	var doc schemaDocument
	if err := attributevalue.UnmarshalMap(result.Item, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}
	if doc.Schema == nil {
		return nil, ErrNotFound
	}

	return doc.Schema, nil
}

// PutSchema stores a schema, stamping a fresh version id.
func (s *SchemaStore) PutSchema(ctx context.Context, siteID, classificationID string, sc *schema.Schema) error {
	doc := schemaDocument{
		PK:               sortkey.SchemaPK(siteID),
		SK:               sortkey.SchemaSK(classificationID),
		SiteID:           siteID,
		ClassificationID: classificationID,
		Version:          uuid.NewString(),
		UpdatedAt:        time.Now().UTC().Format(time.RFC3339),
		Schema:           sc,
	}

	item, err := attributevalue.MarshalMap(doc)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.config.SchemaTable),
		Item:      item,
	})
	return err
}

func schemaKey(siteID, classificationID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: sortkey.SchemaPK(siteID)},
		"sk": &types.AttributeValueMemberS{Value: sortkey.SchemaSK(classificationID)},
	}
}

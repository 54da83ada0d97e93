// Package dynamo implements the storage collaborators for attribute rows
// and schemas on DynamoDB. Attribute rows live under a per-document
// partition key with value-bearing sort keys, so a single ascending range
// query returns them grouped by attribute key, which is the ordering
// attr.Merge depends on. Writes replace whole key groups inside one transaction, so
// concurrent mutations of the same key never interleave partially.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/docfold/facet/attr"
	"github.com/docfold/facet/internal/sortkey"
	"github.com/docfold/facet/schema"
)

// maxTransactionItems is the DynamoDB TransactWriteItems limit.
const maxTransactionItems = 100

// Store provides DynamoDB operations over document attribute rows.
type Store struct {
	client *dynamodb.Client
	config Config
}

// New creates a new Store instance.
func New(client *dynamodb.Client, config Config) *Store {
	config.validate()
	return &Store{
		client: client,
		config: config,
	}
}

// DocumentAttributes returns every attribute row of a document, derived
// rows included, grouped by attribute key. The grouping comes from the
// ascending sort-key order, which satisfies attr.Merge's contiguity
// precondition as long as attribute keys contain no "#".
func (s *Store) DocumentAttributes(ctx context.Context, documentID string) ([]attr.Record, error) {
	return s.query(ctx, documentID, sortkey.AttributePrefix)
}

// AttributeGroup returns the rows of a single attribute key in sort-key
// order.
func (s *Store) AttributeGroup(ctx context.Context, documentID, key string) ([]attr.Record, error) {
	return s.query(ctx, documentID, sortkey.AttributeKeyPrefix(key))
}

func (s *Store) query(ctx context.Context, documentID, skPrefix string) ([]attr.Record, error) {
	input := &dynamodb.QueryInput{
		TableName:              aws.String(s.config.AttributeTable),
		KeyConditionExpression: aws.String("pk = :pk AND begins_with(sk, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: sortkey.DocumentPK(documentID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefix},
		},
	}

	var records []attr.Record
	paginator := dynamodb.NewQueryPaginator(s.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			r, err := unmarshalRecord(raw)
			if err != nil {
				return nil, err
			}
			records = append(records, r)
		}
	}

	return records, nil
}

// ReplaceAttributeGroup atomically replaces every row of one attribute
// key with the given rows: stale rows are deleted and new rows written in
// a single transaction. Passing no rows is equivalent to
// DeleteAttributeGroup.
func (s *Store) ReplaceAttributeGroup(ctx context.Context, documentID, key string, records []attr.Record) error {
	existing, err := s.AttributeGroup(ctx, documentID, key)
	if err != nil {
		return fmt.Errorf("query group %q: %w", key, err)
	}

	items, err := s.replaceItems(documentID, key, records, existing, time.Now())
	if err != nil {
		return err
	}

	if len(items) == 0 {
		return nil
	}
	if len(items) > maxTransactionItems {
		return ErrGroupTooLarge
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: items,
	})
	return mapTransactionError(err)
}

// replaceItems builds the transaction swapping one key group: a put per
// distinct sort key and a delete per stale existing row. A transaction may
// touch each item only once, and duplicate list entries map to the same
// sort key, so later records overwrite the earlier put.
func (s *Store) replaceItems(documentID, key string, records, existing []attr.Record, now time.Time) ([]types.TransactWriteItem, error) {
	keep := make(map[string]int, len(records))
	items := make([]types.TransactWriteItem, 0, len(existing)+len(records))

	for _, r := range records {
		if r.DocumentID != documentID || r.Key != key {
			return nil, fmt.Errorf("facet: record %s/%s does not belong to group %s/%s",
				r.DocumentID, r.Key, documentID, key)
		}
		sk := sortkey.AttributeSK(key, r.ValueString())
		put := types.TransactWriteItem{
			Put: &types.Put{
				TableName: aws.String(s.config.AttributeTable),
				Item:      marshalRecord(r, now),
			},
		}
		if i, ok := keep[sk]; ok {
			items[i] = put
			continue
		}
		keep[sk] = len(items)
		items = append(items, put)
	}

	for _, r := range existing {
		sk := sortkey.AttributeSK(key, r.ValueString())
		if _, ok := keep[sk]; ok {
			continue
		}
		items = append(items, types.TransactWriteItem{
			Delete: &types.Delete{
				TableName: aws.String(s.config.AttributeTable),
				Key:       s.rowKey(documentID, sk),
			},
		})
	}

	return items, nil
}

// DeleteAttributeGroup removes every row of one attribute key.
func (s *Store) DeleteAttributeGroup(ctx context.Context, documentID, key string) error {
	return s.ReplaceAttributeGroup(ctx, documentID, key, nil)
}

// DeleteAttributeValue removes a single row of a multi-valued attribute,
// identified by its value. Returns ErrNotFound when the row is absent.
func (s *Store) DeleteAttributeValue(ctx context.Context, documentID, key string, record attr.Record) error {
	sk := sortkey.AttributeSK(key, record.ValueString())

	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(s.config.AttributeTable),
		Key:                 s.rowKey(documentID, sk),
		ConditionExpression: aws.String("attribute_exists(pk)"),
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return ErrNotFound
	}
	return err
}

// ApplyChange persists a validated change, replacing each key group it
// touches. Groups are applied independently; a failure leaves earlier
// groups written, which matches the per-key atomicity the model promises.
func (s *Store) ApplyChange(ctx context.Context, documentID string, change *schema.ValidatedChange) error {
	for _, group := range change.Groups() {
		if err := s.ReplaceAttributeGroup(ctx, documentID, group.Key, group.Records); err != nil {
			return fmt.Errorf("replace group %q: %w", group.Key, err)
		}
	}
	return nil
}

func (s *Store) rowKey(documentID, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberS{Value: sortkey.DocumentPK(documentID)},
		"sk": &types.AttributeValueMemberS{Value: sk},
	}
}

// mapTransactionError maps DynamoDB transaction cancellations to the
// package's retryable conflict error.
func mapTransactionError(err error) error {
	if err == nil {
		return nil
	}

	var txErr *types.TransactionCanceledException
	if errors.As(err, &txErr) {
		for _, reason := range txErr.CancellationReasons {
			if reason.Code == nil {
				continue
			}
			switch *reason.Code {
			case "ConditionalCheckFailed", "TransactionConflict":
				return ErrConflict
			}
		}
	}

	return err
}

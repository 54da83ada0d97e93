// Package stream provides a DynamoDB Streams handler that keeps derived
// composite rows in sync with the source attribute rows they are built
// from.
package stream

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"github.com/docfold/facet/attr"
	"github.com/docfold/facet/internal/sortkey"
	"github.com/docfold/facet/schema"
)

// AttributeStore is the subset of the dynamo store the handler needs.
type AttributeStore interface {
	DocumentAttributes(ctx context.Context, documentID string) ([]attr.Record, error)
	ReplaceAttributeGroup(ctx context.Context, documentID, key string, records []attr.Record) error
	DeleteAttributeGroup(ctx context.Context, documentID, key string) error
}

// SchemaSource resolves the schema governing a document. Returning a nil
// schema means the document has none, so it derives no composite rows.
type SchemaSource interface {
	SchemaForDocument(ctx context.Context, documentID string) (*schema.Schema, error)
}

// Handler reindexes composite rows when source attribute rows change.
type Handler struct {
	store   AttributeStore
	schemas SchemaSource
	logger  *slog.Logger
}

// NewHandler creates a new stream handler.
func NewHandler(store AttributeStore, schemas SchemaSource, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		store:   store,
		schemas: schemas,
		logger:  logger,
	}
}

// HandleAttributeChange processes DynamoDB stream events and re-derives
// composite rows for every document whose source rows changed. Designed
// to be used as an AWS Lambda handler.
func (h *Handler) HandleAttributeChange(ctx context.Context, event events.DynamoDBEvent) error {
	documents := map[string]struct{}{}
	for _, record := range event.Records {
		if id, ok := sourceRowDocument(record); ok {
			documents[id] = struct{}{}
		}
	}

	for id := range documents {
		if err := h.reindex(ctx, id); err != nil {
			h.logger.Error("failed to reindex document",
				"documentId", id,
				"error", err,
			)
			return err // Will retry, eventually DLQ
		}
	}
	return nil
}

// reindex recomputes a document's composite rows from its current source
// rows, replacing changed groups and dropping groups no rule derives
// anymore. Idempotent; safe to retry.
func (h *Handler) reindex(ctx context.Context, documentID string) error {
	sc, err := h.schemas.SchemaForDocument(ctx, documentID)
	if err != nil {
		return fmt.Errorf("resolve schema: %w", err)
	}

	rows, err := h.store.DocumentAttributes(ctx, documentID)
	if err != nil {
		return fmt.Errorf("read attributes: %w", err)
	}

	source := make(map[string][]attr.Record)
	stale := make(map[string]struct{})
	for _, r := range rows {
		if r.Derived {
			stale[r.Key] = struct{}{}
			continue
		}
		source[r.Key] = append(source[r.Key], r)
	}

	var derived []attr.Record
	if sc != nil {
		derived = schema.Derive(sc, documentID, source)
	}

	groups := make(map[string][]attr.Record)
	for _, r := range derived {
		groups[r.Key] = append(groups[r.Key], r)
	}

	for key, records := range groups {
		delete(stale, key)
		if err := h.store.ReplaceAttributeGroup(ctx, documentID, key, records); err != nil {
			return fmt.Errorf("replace composite group %q: %w", key, err)
		}
	}

	for key := range stale {
		if err := h.store.DeleteAttributeGroup(ctx, documentID, key); err != nil {
			return fmt.Errorf("delete stale composite group %q: %w", key, err)
		}
	}

	h.logger.Info("reindexed composite rows",
		"documentId", documentID,
		"compositeGroups", len(groups),
		"removedGroups", len(stale),
	)

	return nil
}

// sourceRowDocument extracts the owning document id from a stream record,
// accepting only source attribute rows. Derived rows are skipped so the
// handler's own writes do not retrigger it, and non-attribute rows are
// ignored. Derived rows are recognized by the composite delimiter in the
// sort key's attribute key, so the filter holds on keys-only stream views
// where no image carries the derived marker.
func sourceRowDocument(record events.DynamoDBEventRecord) (string, bool) {
	sk := getStringAttr(record.Change.Keys, "sk")
	rest, ok := strings.CutPrefix(sk, sortkey.AttributePrefix)
	if !ok {
		return "", false
	}
	key, _, _ := strings.Cut(rest, "#")
	if strings.Contains(key, schema.CompositeKeyDelimiter) {
		return "", false
	}

	image := record.Change.NewImage
	if record.EventName == "REMOVE" {
		image = record.Change.OldImage
	}
	if getBoolAttr(image, "derived") {
		return "", false
	}

	if id := getStringAttr(image, "documentId"); id != "" {
		return id, true
	}

	// Fall back to the partition key when the stream view carries no image.
	pk := getStringAttr(record.Change.Keys, "pk")
	if id, ok := strings.CutPrefix(pk, sortkey.DocumentPrefix); ok && id != "" {
		return id, true
	}
	return "", false
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}

// getBoolAttr extracts a boolean attribute from a DynamoDB stream image.
func getBoolAttr(image map[string]events.DynamoDBAttributeValue, key string) bool {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeBoolean {
		return v.Boolean()
	}
	return false
}

//go:build e2e

// Package e2e contains end-to-end integration tests using real DynamoDB tables.
// Run with: go test -tags=e2e -v ./e2e/...
package e2e

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/docfold/facet/attr"
	"github.com/docfold/facet/dynamo"
	"github.com/docfold/facet/schema"
)

// Test configuration
const (
	awsProfileEnv = "FACET_E2E_PROFILE"

	// Table names - unique per test run to avoid conflicts
	tablePrefix = "facet-e2e-test"
)

var (
	testID         string
	attributeTable string
	schemaTable    string

	ddbClient   *dynamodb.Client
	attrStore   *dynamo.Store
	schemaStore *dynamo.SchemaStore
)

// --- Test Setup & Teardown ---

func TestMain(m *testing.M) {
	// Generate unique test ID
	testID = uuid.New().String()[:8]
	attributeTable = fmt.Sprintf("%s-%s-attributes", tablePrefix, testID)
	schemaTable = fmt.Sprintf("%s-%s-schemas", tablePrefix, testID)

	fmt.Printf("Test ID: %s\n", testID)
	fmt.Printf("Tables:\n")
	fmt.Printf("  - Attributes: %s\n", attributeTable)
	fmt.Printf("  - Schemas: %s\n", schemaTable)

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if profile := os.Getenv(awsProfileEnv); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		fmt.Printf("Failed to load AWS config: %v\n", err)
		os.Exit(1)
	}

	ddbClient = dynamodb.NewFromConfig(cfg)

	if err := createTables(ctx); err != nil {
		fmt.Printf("Failed to create tables: %v\n", err)
		os.Exit(1)
	}

	storeConfig := dynamo.Config{
		AttributeTable: attributeTable,
		SchemaTable:    schemaTable,
	}
	attrStore = dynamo.New(ddbClient, storeConfig)
	schemaStore = dynamo.NewSchemaStore(ddbClient, storeConfig)

	code := m.Run()

	if err := deleteTables(ctx); err != nil {
		fmt.Printf("Failed to delete tables: %v\n", err)
	}

	os.Exit(code)
}

func createTables(ctx context.Context) error {
	fmt.Println("Creating test tables...")

	for _, tableName := range []string{attributeTable, schemaTable} {
		_, err := ddbClient.CreateTable(ctx, &dynamodb.CreateTableInput{
			TableName: aws.String(tableName),
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("pk"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("sk"), KeyType: types.KeyTypeRange},
			},
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("pk"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("sk"), AttributeType: types.ScalarAttributeTypeS},
			},
			BillingMode: types.BillingModePayPerRequest,
		})
		if err != nil {
			return fmt.Errorf("create table %s: %w", tableName, err)
		}
	}

	for _, tableName := range []string{attributeTable, schemaTable} {
		waiter := dynamodb.NewTableExistsWaiter(ddbClient)
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(tableName),
		}, 2*time.Minute); err != nil {
			return fmt.Errorf("wait for table %s: %w", tableName, err)
		}
	}

	fmt.Println("All tables created and active")
	return nil
}

func deleteTables(ctx context.Context) error {
	fmt.Println("Deleting test tables...")

	for _, tableName := range []string{attributeTable, schemaTable} {
		_, err := ddbClient.DeleteTable(ctx, &dynamodb.DeleteTableInput{
			TableName: aws.String(tableName),
		})
		if err != nil {
			fmt.Printf("Warning: failed to delete table %s: %v\n", tableName, err)
		}
	}

	fmt.Println("Tables deleted")
	return nil
}

// --- Attribute Row Tests ---

func TestWriteAndReadBack(t *testing.T) {
	ctx := context.Background()
	docID := uuid.New().String()

	err := attrStore.ReplaceAttributeGroup(ctx, docID, "tags", []attr.Record{
		attr.StringRecord(docID, "tags", "red"),
		attr.StringRecord(docID, "tags", "blue"),
	})
	if err != nil {
		t.Fatalf("ReplaceAttributeGroup failed: %v", err)
	}

	records, err := attrStore.DocumentAttributes(ctx, docID)
	if err != nil {
		t.Fatalf("DocumentAttributes failed: %v", err)
	}

	values := attr.Merge(records)
	if len(values) != 1 {
		t.Fatalf("expected 1 value, got %d", len(values))
	}
	got, ok := values[0].StringValues()
	if !ok || len(got) != 2 {
		t.Errorf("expected 2 string values, got %#v", values[0])
	}
	// Sort-key order, not submission order.
	if got[0] != "blue" || got[1] != "red" {
		t.Errorf("expected sorted values [blue red], got %v", got)
	}
}

func TestReplaceGroup_RemovesStaleRows(t *testing.T) {
	ctx := context.Background()
	docID := uuid.New().String()

	if err := attrStore.ReplaceAttributeGroup(ctx, docID, "status", []attr.Record{
		attr.StringRecord(docID, "status", "active"),
	}); err != nil {
		t.Fatalf("first replace failed: %v", err)
	}

	if err := attrStore.ReplaceAttributeGroup(ctx, docID, "status", []attr.Record{
		attr.StringRecord(docID, "status", "archived"),
	}); err != nil {
		t.Fatalf("second replace failed: %v", err)
	}

	records, err := attrStore.AttributeGroup(ctx, docID, "status")
	if err != nil {
		t.Fatalf("AttributeGroup failed: %v", err)
	}
	if len(records) != 1 || records[0].StringValue != "archived" {
		t.Errorf("expected single archived row, got %#v", records)
	}
}

func TestDeleteAttributeValue(t *testing.T) {
	ctx := context.Background()
	docID := uuid.New().String()

	if err := attrStore.ReplaceAttributeGroup(ctx, docID, "tags", []attr.Record{
		attr.StringRecord(docID, "tags", "a"),
		attr.StringRecord(docID, "tags", "b"),
	}); err != nil {
		t.Fatalf("ReplaceAttributeGroup failed: %v", err)
	}

	if err := attrStore.DeleteAttributeValue(ctx, docID, "tags",
		attr.StringRecord(docID, "tags", "a")); err != nil {
		t.Fatalf("DeleteAttributeValue failed: %v", err)
	}

	records, err := attrStore.AttributeGroup(ctx, docID, "tags")
	if err != nil {
		t.Fatalf("AttributeGroup failed: %v", err)
	}
	if len(records) != 1 || records[0].StringValue != "b" {
		t.Errorf("expected only 'b' to remain, got %#v", records)
	}

	// Deleting an absent row reports not found.
	err = attrStore.DeleteAttributeValue(ctx, docID, "tags",
		attr.StringRecord(docID, "tags", "a"))
	if !errors.Is(err, dynamo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNumberRowsSortByDecimalForm(t *testing.T) {
	ctx := context.Background()
	docID := uuid.New().String()

	if err := attrStore.ReplaceAttributeGroup(ctx, docID, "priority", []attr.Record{
		attr.NumberRecord(docID, "priority", 100),
		attr.NumberRecord(docID, "priority", 2),
		attr.NumberRecord(docID, "priority", 35),
	}); err != nil {
		t.Fatalf("ReplaceAttributeGroup failed: %v", err)
	}

	records, err := attrStore.AttributeGroup(ctx, docID, "priority")
	if err != nil {
		t.Fatalf("AttributeGroup failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(records))
	}
	// Plain decimal sort keys: "100" < "2" < "35" lexicographically.
	if records[0].NumberValue != 100 || records[1].NumberValue != 2 || records[2].NumberValue != 35 {
		t.Errorf("unexpected order: %#v", records)
	}
}

// --- Validated Change Round Trip ---

func TestValidateAndApplyChange(t *testing.T) {
	ctx := context.Background()
	docID := uuid.New().String()

	s := &schema.Schema{
		Name: "person",
		Attributes: []schema.AttributeDefinition{
			{Key: "department", Kind: attr.KindString, Required: true, DefaultValue: "unassigned"},
			{Key: "firstName", Kind: attr.KindString},
			{Key: "lastName", Kind: attr.KindString},
		},
		CompositeKeys: []schema.CompositeKeyRule{
			{AttributeKeys: []string{"lastName", "firstName"}},
		},
	}

	v := schema.NewValidator(attrStore)
	change, err := v.Validate(ctx, s, docID, []attr.Value{
		attr.String(docID, "firstName", "Ada"),
		attr.String(docID, "lastName", "Lovelace"),
	}, schema.ModeFull, schema.AccessCreate)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	if err := attrStore.ApplyChange(ctx, docID, change); err != nil {
		t.Fatalf("ApplyChange failed: %v", err)
	}

	records, err := attrStore.DocumentAttributes(ctx, docID)
	if err != nil {
		t.Fatalf("DocumentAttributes failed: %v", err)
	}

	byKey := map[string]attr.Record{}
	for _, r := range records {
		byKey[r.Key] = r
	}

	if byKey["department"].StringValue != "unassigned" {
		t.Errorf("expected injected default, got %#v", byKey["department"])
	}
	composite, ok := byKey["lastName::firstName"]
	if !ok {
		t.Fatalf("expected composite row, got keys %v", byKey)
	}
	if composite.StringValue != "Lovelace::Ada" || !composite.Derived {
		t.Errorf("unexpected composite row %#v", composite)
	}
}

// --- Schema Store Tests ---

func TestSchemaRoundTrip(t *testing.T) {
	ctx := context.Background()
	siteID := uuid.New().String()

	want := &schema.Schema{
		Name: "invoice",
		Attributes: []schema.AttributeDefinition{
			{Key: "invoiceNumber", Kind: attr.KindString, Required: true},
			{Key: "amount", Kind: attr.KindNumber},
			{Key: "status", Kind: attr.KindString, AllowedValues: []string{"open", "paid"}},
		},
		CompositeKeys: []schema.CompositeKeyRule{
			{AttributeKeys: []string{"invoiceNumber", "status"}},
		},
	}

	if err := schemaStore.PutSchema(ctx, siteID, "invoices", want); err != nil {
		t.Fatalf("PutSchema failed: %v", err)
	}

	got, err := schemaStore.GetSchema(ctx, siteID, "invoices")
	if err != nil {
		t.Fatalf("GetSchema failed: %v", err)
	}

	if got.Name != want.Name {
		t.Errorf("expected name %q, got %q", want.Name, got.Name)
	}
	if len(got.Attributes) != 3 || len(got.CompositeKeys) != 1 {
		t.Errorf("schema shape changed: %#v", got)
	}
	def, ok := got.Definition("invoiceNumber")
	if !ok || !def.Required {
		t.Errorf("expected required invoiceNumber, got %#v", def)
	}
}

func TestGetSchema_NotFound(t *testing.T) {
	ctx := context.Background()

	_, err := schemaStore.GetSchema(ctx, uuid.New().String(), "missing")
	if !errors.Is(err, dynamo.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

package dynamo

import (
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/docfold/facet/attr"
	"github.com/docfold/facet/internal/sortkey"
)

// marshalRecord converts a storage row into a DynamoDB item. The sort key
// embeds the canonical value so rows of one attribute key stay contiguous
// under an ascending range read, and distinct values of a multi-valued
// attribute get distinct keys.
func marshalRecord(r attr.Record, now time.Time) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"pk":         &types.AttributeValueMemberS{Value: sortkey.DocumentPK(r.DocumentID)},
		"sk":         &types.AttributeValueMemberS{Value: sortkey.AttributeSK(r.Key, r.ValueString())},
		"documentId": &types.AttributeValueMemberS{Value: r.DocumentID},
		"key":        &types.AttributeValueMemberS{Value: r.Key},
		"valueType":  &types.AttributeValueMemberS{Value: string(r.Kind)},
		"insertedAt": &types.AttributeValueMemberS{Value: now.UTC().Format(time.RFC3339)},
	}

	switch r.Kind {
	case attr.KindString:
		item["stringValue"] = &types.AttributeValueMemberS{Value: r.StringValue}
	case attr.KindNumber:
		item["numberValue"] = &types.AttributeValueMemberN{
			Value: strconv.FormatFloat(r.NumberValue, 'f', -1, 64),
		}
	case attr.KindBoolean:
		item["booleanValue"] = &types.AttributeValueMemberBOOL{Value: r.BooleanValue}
	}

	if r.Derived {
		item["derived"] = &types.AttributeValueMemberBOOL{Value: true}
	}

	return item
}

// unmarshalRecord converts a DynamoDB item back into a storage row.
func unmarshalRecord(item map[string]types.AttributeValue) (attr.Record, error) {
	r := attr.Record{Kind: attr.KindNoValue}

	if v, ok := item["documentId"].(*types.AttributeValueMemberS); ok {
		r.DocumentID = v.Value
	}
	if v, ok := item["key"].(*types.AttributeValueMemberS); ok {
		r.Key = v.Value
	}
	if v, ok := item["valueType"].(*types.AttributeValueMemberS); ok {
		r.Kind = attr.Kind(v.Value)
	}
	if v, ok := item["derived"].(*types.AttributeValueMemberBOOL); ok {
		r.Derived = v.Value
	}

	switch r.Kind {
	case attr.KindString:
		if v, ok := item["stringValue"].(*types.AttributeValueMemberS); ok {
			r.StringValue = v.Value
		}
	case attr.KindNumber:
		if v, ok := item["numberValue"].(*types.AttributeValueMemberN); ok {
			n, err := strconv.ParseFloat(v.Value, 64)
			if err != nil {
				return attr.Record{}, fmt.Errorf("facet: corrupt number row %s/%s: %w",
					r.DocumentID, r.Key, err)
			}
			r.NumberValue = n
		}
	case attr.KindBoolean:
		if v, ok := item["booleanValue"].(*types.AttributeValueMemberBOOL); ok {
			r.BooleanValue = v.Value
		}
	}

	return r, nil
}

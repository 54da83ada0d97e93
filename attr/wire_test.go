package attr_test

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/docfold/facet/attr"
)

func TestAttribute_Value_PicksPopulatedVariant(t *testing.T) {
	s := "red"
	n := 1.5
	b := true

	tests := []struct {
		name string
		in   attr.Attribute
		want attr.Value
	}{
		{"string", attr.Attribute{Key: "k", StringValue: &s}, attr.String("d", "k", "red")},
		{"number", attr.Attribute{Key: "k", NumberValue: &n}, attr.Number("d", "k", 1.5)},
		{"boolean", attr.Attribute{Key: "k", BooleanValue: &b}, attr.Boolean("d", "k", true)},
		{"strings", attr.Attribute{Key: "k", StringValues: []string{"a", "b"}}, attr.Strings("d", "k", []string{"a", "b"})},
		{"numbers", attr.Attribute{Key: "k", NumberValues: []float64{1, 2}}, attr.Numbers("d", "k", []float64{1, 2})},
		{"no value", attr.Attribute{Key: "k"}, attr.NoValue("d", "k")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Value("d")
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestValue_Attribute_RoundTrip(t *testing.T) {
	values := []attr.Value{
		attr.String("d", "k", "red"),
		attr.Number("d", "k", 1.5),
		attr.Boolean("d", "k", false),
		attr.Strings("d", "k", []string{"a", "b"}),
		attr.Numbers("d", "k", []float64{1, 2}),
		attr.NoValue("d", "k"),
	}

	for _, v := range values {
		got := v.Attribute().Value("d")
		if !reflect.DeepEqual(got, v) {
			t.Errorf("round trip mismatch: got %#v, want %#v", got, v)
		}
	}
}

func TestAttribute_JSON_OmitsAbsentVariants(t *testing.T) {
	raw, err := json.Marshal(attr.NoValue("d", "untagged").Attribute())
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"key":"untagged"}` {
		t.Errorf("expected bare key, got %s", raw)
	}
}

func TestAttribute_JSON_ListForm(t *testing.T) {
	raw, err := json.Marshal(attr.Strings("d", "tags", []string{"a", "b"}).Attribute())
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"key":"tags","stringValues":["a","b"]}` {
		t.Errorf("unexpected wire shape: %s", raw)
	}
}

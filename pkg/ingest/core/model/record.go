package model

import "time"

// FieldType represents the declared type of a schema field.
type FieldType string

const (
	FieldTypeString    FieldType = "STRING"
	FieldTypeEnum      FieldType = "ENUM"
	FieldTypeTimestamp FieldType = "TIMESTAMP"
)

// String returns the string representation of the FieldType.
func (t FieldType) String() string {
	return string(t)
}

// FieldSpec declares a single attribute of the ingestion schema.
type FieldSpec struct {
	// Name is the attribute name as it appears in a raw record.
	Name string `yaml:"name"`
	// Type is the declared type of the attribute.
	Type FieldType `yaml:"type"`
	// Required indicates whether the attribute must be present in every record.
	Required bool `yaml:"required"`
	// EnumValues is the set of permitted values for FieldTypeEnum attributes.
	EnumValues []string `yaml:"enum_values,omitempty"`
}

// Schema is the contract every incoming record is validated against.
// Attribute order in Fields is the canonical attribute order of a normalized Record.
type Schema struct {
	// Fields declares the record attributes in canonical order. The "id" and "status"
	// fields are handled separately and must not appear here.
	Fields []FieldSpec `yaml:"fields"`
	// StatusValues is the set of permitted values for the record status.
	StatusValues []string `yaml:"status_values"`
	// MaxIDLength bounds the length of the record id.
	MaxIDLength int `yaml:"max_id_length"`
}

// DefaultMaxIDLength is the id length bound applied when the schema does not declare one.
const DefaultMaxIDLength = 256

// DefaultSchema returns the schema used when no explicit schema is configured:
// a required "name" string attribute and an Active/Inactive status.
func DefaultSchema() Schema {
	return Schema{
		Fields: []FieldSpec{
			{Name: "name", Type: FieldTypeString, Required: true},
		},
		StatusValues: []string{"Active", "Inactive"},
		MaxIDLength:  DefaultMaxIDLength,
	}
}

// HasStatusValue checks whether the given value is a declared status value.
func (s Schema) HasStatusValue(v string) bool {
	for _, sv := range s.StatusValues {
		if sv == v {
			return true
		}
	}
	return false
}

// RawRecord is a single unparsed input record: a mapping of field name to value,
// as submitted by the caller.
type RawRecord map[string]interface{}

// Attribute is a single normalized record attribute.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Record is the unit of ingestion after validation and normalization.
// The record id is the idempotency and reconciliation key; it is unique within
// a batch and globally across both stores.
type Record struct {
	// ID is the caller-supplied record identifier.
	ID string `json:"id"`
	// Status is one of the schema-declared status values.
	Status string `json:"status"`
	// Attributes holds the normalized attributes in schema order.
	Attributes []Attribute `json:"attributes"`
	// ReceivedAt is the time the record entered the engine.
	ReceivedAt time.Time `json:"receivedAt"`
}

// Attribute returns the value of the named attribute and whether it is present.
func (r Record) Attribute(name string) (string, bool) {
	for _, a := range r.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// AttributeMap returns the record attributes, including status, as a flat map.
// This is the shape handed to the primary store adapter.
func (r Record) AttributeMap() map[string]string {
	m := make(map[string]string, len(r.Attributes)+1)
	for _, a := range r.Attributes {
		m[a.Name] = a.Value
	}
	m["status"] = r.Status
	return m
}

// Document returns the full denormalized projection of the record for the
// secondary (document) store. The same projection is published to the
// reconciliation queue so a secondary retry never needs to re-read the primary.
func (r Record) Document() map[string]interface{} {
	doc := make(map[string]interface{}, len(r.Attributes)+3)
	doc["id"] = r.ID
	doc["status"] = r.Status
	for _, a := range r.Attributes {
		doc[a.Name] = a.Value
	}
	doc["receivedAt"] = r.ReceivedAt.UTC().Format(time.RFC3339Nano)
	return doc
}

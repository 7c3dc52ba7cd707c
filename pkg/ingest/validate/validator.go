// Package validate normalizes and validates raw input records against the
// ingestion schema contract. Validation is pure: no I/O, no store access.
package validate

import (
	"fmt"
	"strings"
	"time"

	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
)

// Rejection describes why a raw record was refused before any store write.
// Reasons are enumerated, not free text; parameterized reasons carry the
// offending field name (e.g. "MissingRequiredField(name)").
type Rejection struct {
	// Reason is the enumerated rejection reason.
	Reason string
	// ID is the record id when one was present on the raw record.
	ID string
}

// Validator validates raw records against a declared schema.
type Validator struct {
	schema model.Schema
}

// NewValidator creates a Validator for the given schema.
// A zero-value schema falls back to model.DefaultSchema.
func NewValidator(schema model.Schema) *Validator {
	if len(schema.StatusValues) == 0 {
		schema = model.DefaultSchema()
	}
	if schema.MaxIDLength <= 0 {
		schema.MaxIDLength = model.DefaultMaxIDLength
	}
	return &Validator{schema: schema}
}

// Schema returns the schema this validator checks against.
func (v *Validator) Schema() model.Schema {
	return v.schema
}

// InvalidAttributeReason formats the rejection reason for an attribute value
// that violates its declared type constraint.
func InvalidAttributeReason(field string) string {
	return fmt.Sprintf("InvalidAttribute(%s)", field)
}

// Validate checks a single raw record and either returns the normalized Record
// or the Rejection that refused it. Attribute order on the returned record
// follows the schema declaration, independent of the raw record's key order.
func (v *Validator) Validate(raw model.RawRecord, receivedAt time.Time) (model.Record, *Rejection) {
	id, ok := stringValue(raw["id"])
	if !ok || id == "" {
		return model.Record{}, &Rejection{Reason: model.ReasonMissingID}
	}
	if strings.ContainsAny(id, " \t\n\r") || len(id) > v.schema.MaxIDLength {
		return model.Record{}, &Rejection{Reason: model.ReasonInvalidID, ID: id}
	}

	status, ok := stringValue(raw["status"])
	if !ok || !v.schema.HasStatusValue(status) {
		return model.Record{}, &Rejection{Reason: model.ReasonInvalidStatus, ID: id}
	}

	attrs := make([]model.Attribute, 0, len(v.schema.Fields))
	for _, f := range v.schema.Fields {
		rawVal, present := raw[f.Name]
		val, isString := stringValue(rawVal)
		if !present || (isString && val == "") {
			if f.Required {
				return model.Record{}, &Rejection{Reason: model.MissingRequiredFieldReason(f.Name), ID: id}
			}
			continue
		}
		if !isString {
			return model.Record{}, &Rejection{Reason: InvalidAttributeReason(f.Name), ID: id}
		}
		switch f.Type {
		case model.FieldTypeEnum:
			if !contains(f.EnumValues, val) {
				return model.Record{}, &Rejection{Reason: InvalidAttributeReason(f.Name), ID: id}
			}
		case model.FieldTypeTimestamp:
			if _, err := time.Parse(time.RFC3339, val); err != nil {
				return model.Record{}, &Rejection{Reason: InvalidAttributeReason(f.Name), ID: id}
			}
		}
		attrs = append(attrs, model.Attribute{Name: f.Name, Value: val})
	}

	return model.Record{
		ID:         id,
		Status:     status,
		Attributes: attrs,
		ReceivedAt: receivedAt,
	}, nil
}

// stringValue extracts a string from a raw record value.
// Only string values are accepted; richer scalar coercion is deliberately
// out of scope for the schema contract.
func stringValue(v interface{}) (string, bool) {
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func contains(values []string, v string) bool {
	for _, c := range values {
		if c == v {
			return true
		}
	}
	return false
}

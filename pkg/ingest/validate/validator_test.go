package validate_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	model "github.com/tigerroll/tidewrite/pkg/ingest/core/model"
	"github.com/tigerroll/tidewrite/pkg/ingest/validate"
)

func testSchema() model.Schema {
	return model.Schema{
		Fields: []model.FieldSpec{
			{Name: "name", Type: model.FieldTypeString, Required: true},
			{Name: "tier", Type: model.FieldTypeEnum, EnumValues: []string{"gold", "silver"}},
			{Name: "seen_at", Type: model.FieldTypeTimestamp},
		},
		StatusValues: []string{"Active", "Inactive"},
		MaxIDLength:  32,
	}
}

func TestValidate_AcceptsWellFormedRecord(t *testing.T) {
	v := validate.NewValidator(testSchema())
	now := time.Now()

	rec, rej := v.Validate(model.RawRecord{
		"id":      "rec-1",
		"status":  "Active",
		"name":    "alpha",
		"tier":    "gold",
		"seen_at": "2026-08-30T10:00:00Z",
	}, now)

	require.Nil(t, rej)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, "Active", rec.Status)
	assert.Equal(t, now, rec.ReceivedAt)

	// Attributes follow schema declaration order, not input key order.
	require.Len(t, rec.Attributes, 3)
	assert.Equal(t, "name", rec.Attributes[0].Name)
	assert.Equal(t, "tier", rec.Attributes[1].Name)
	assert.Equal(t, "seen_at", rec.Attributes[2].Name)
}

func TestValidate_MissingID(t *testing.T) {
	v := validate.NewValidator(testSchema())

	for _, raw := range []model.RawRecord{
		{"status": "Active", "name": "alpha"},
		{"id": "", "status": "Active", "name": "alpha"},
		{"id": nil, "status": "Active", "name": "alpha"},
	} {
		_, rej := v.Validate(raw, time.Now())
		require.NotNil(t, rej)
		assert.Equal(t, model.ReasonMissingID, rej.Reason)
		assert.Empty(t, rej.ID)
	}
}

func TestValidate_InvalidID(t *testing.T) {
	v := validate.NewValidator(testSchema())

	_, rej := v.Validate(model.RawRecord{"id": "has space", "status": "Active", "name": "alpha"}, time.Now())
	require.NotNil(t, rej)
	assert.Equal(t, model.ReasonInvalidID, rej.Reason)
	assert.Equal(t, "has space", rej.ID)

	longID := strings.Repeat("x", 33)
	_, rej = v.Validate(model.RawRecord{"id": longID, "status": "Active", "name": "alpha"}, time.Now())
	require.NotNil(t, rej)
	assert.Equal(t, model.ReasonInvalidID, rej.Reason)
}

func TestValidate_InvalidStatus(t *testing.T) {
	v := validate.NewValidator(testSchema())

	for _, raw := range []model.RawRecord{
		{"id": "rec-1", "name": "alpha"},
		{"id": "rec-1", "status": "Paused", "name": "alpha"},
		{"id": "rec-1", "status": 42, "name": "alpha"},
	} {
		_, rej := v.Validate(raw, time.Now())
		require.NotNil(t, rej)
		assert.Equal(t, model.ReasonInvalidStatus, rej.Reason)
		assert.Equal(t, "rec-1", rej.ID)
	}
}

func TestValidate_MissingRequiredField(t *testing.T) {
	v := validate.NewValidator(testSchema())

	_, rej := v.Validate(model.RawRecord{"id": "rec-1", "status": "Active"}, time.Now())
	require.NotNil(t, rej)
	assert.Equal(t, "MissingRequiredField(name)", rej.Reason)

	// An empty string counts as absent for a required field.
	_, rej = v.Validate(model.RawRecord{"id": "rec-1", "status": "Active", "name": ""}, time.Now())
	require.NotNil(t, rej)
	assert.Equal(t, "MissingRequiredField(name)", rej.Reason)
}

func TestValidate_InvalidAttribute(t *testing.T) {
	v := validate.NewValidator(testSchema())

	// Non-string value.
	_, rej := v.Validate(model.RawRecord{"id": "rec-1", "status": "Active", "name": 7}, time.Now())
	require.NotNil(t, rej)
	assert.Equal(t, "InvalidAttribute(name)", rej.Reason)

	// Enum violation.
	_, rej = v.Validate(model.RawRecord{"id": "rec-1", "status": "Active", "name": "alpha", "tier": "bronze"}, time.Now())
	require.NotNil(t, rej)
	assert.Equal(t, "InvalidAttribute(tier)", rej.Reason)

	// Malformed timestamp.
	_, rej = v.Validate(model.RawRecord{"id": "rec-1", "status": "Active", "name": "alpha", "seen_at": "yesterday"}, time.Now())
	require.NotNil(t, rej)
	assert.Equal(t, "InvalidAttribute(seen_at)", rej.Reason)
}

func TestValidate_OptionalFieldAbsent(t *testing.T) {
	v := validate.NewValidator(testSchema())

	rec, rej := v.Validate(model.RawRecord{"id": "rec-1", "status": "Active", "name": "alpha"}, time.Now())
	require.Nil(t, rej)
	require.Len(t, rec.Attributes, 1)
	assert.Equal(t, "name", rec.Attributes[0].Name)
}

func TestValidate_UndeclaredFieldsIgnored(t *testing.T) {
	v := validate.NewValidator(testSchema())

	rec, rej := v.Validate(model.RawRecord{
		"id": "rec-1", "status": "Active", "name": "alpha", "extra": "dropped",
	}, time.Now())
	require.Nil(t, rej)
	_, ok := rec.Attribute("extra")
	assert.False(t, ok)
}

func TestNewValidator_FallsBackToDefaultSchema(t *testing.T) {
	v := validate.NewValidator(model.Schema{})
	assert.Equal(t, model.DefaultSchema().StatusValues, v.Schema().StatusValues)
	assert.Equal(t, model.DefaultMaxIDLength, v.Schema().MaxIDLength)
}

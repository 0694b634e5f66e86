package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptionalStringStates(t *testing.T) {
	type body struct {
		Note OptionalString `json:"note"`
	}

	var absent body
	require.NoError(t, json.Unmarshal([]byte(`{}`), &absent))
	assert.False(t, absent.Note.Set)

	var null body
	require.NoError(t, json.Unmarshal([]byte(`{"note":null}`), &null))
	assert.True(t, null.Note.Set)
	assert.False(t, null.Note.Valid)

	var value body
	require.NoError(t, json.Unmarshal([]byte(`{"note":"spotting"}`), &value))
	assert.True(t, value.Note.Set)
	assert.True(t, value.Note.Valid)
	assert.Equal(t, "spotting", value.Note.Value)

	var wrong body
	assert.Error(t, json.Unmarshal([]byte(`{"note":5}`), &wrong))
}

func TestOptionalBoolRejectsTruthyStrings(t *testing.T) {
	type body struct {
		IsActive OptionalBool `json:"isActive"`
	}

	var wrong body
	assert.Error(t, json.Unmarshal([]byte(`{"isActive":"true"}`), &wrong))

	var ok body
	require.NoError(t, json.Unmarshal([]byte(`{"isActive":false}`), &ok))
	assert.True(t, ok.IsActive.Set)
	assert.True(t, ok.IsActive.Valid)
	assert.False(t, ok.IsActive.Value)
}

func TestOptionalFloatRejectsNumericStrings(t *testing.T) {
	type body struct {
		AverageCycle OptionalFloat `json:"averageCycle"`
	}

	var wrong body
	assert.Error(t, json.Unmarshal([]byte(`{"averageCycle":"28"}`), &wrong))

	var ok body
	require.NoError(t, json.Unmarshal([]byte(`{"averageCycle":28.5}`), &ok))
	assert.True(t, ok.AverageCycle.Valid)
	assert.Equal(t, 28.5, ok.AverageCycle.Value)
}

package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterPath_UnmarshalString(t *testing.T) {
	var p FilterPath
	err := json.Unmarshal([]byte(`"source"`), &p)

	require.NoError(t, err)
	assert.Equal(t, FilterPath("source"), p)
}

func TestFilterPath_UnmarshalArray(t *testing.T) {
	var p FilterPath
	err := json.Unmarshal([]byte(`["knowledge_type"]`), &p)

	require.NoError(t, err)
	assert.Equal(t, FilterPath("knowledge_type"), p)
}

func TestFilterPath_UnmarshalEmptyArray(t *testing.T) {
	var p FilterPath
	err := json.Unmarshal([]byte(`[]`), &p)

	require.NoError(t, err)
	assert.Equal(t, FilterPath(""), p)
}

func TestFilterPath_UnmarshalInvalid(t *testing.T) {
	var p FilterPath
	err := json.Unmarshal([]byte(`42`), &p)

	assert.Error(t, err)
}

func TestFilterCondition_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cond    FilterCondition
		wantErr error
	}{
		{"equal on source", FilterCondition{Path: "source", Operator: FilterOpEqual, Value: "doc"}, nil},
		{"not equal on knowledge_type", FilterCondition{Path: "knowledge_type", Operator: FilterOpNotEqual, Value: "x"}, nil},
		{"like on source_id", FilterCondition{Path: "source_id", Operator: FilterOpLike, Value: "%doc%"}, nil},
		{"unknown field", FilterCondition{Path: "tenant_id", Operator: FilterOpEqual, Value: "t"}, ErrInvalidFilterField},
		{"unknown operator", FilterCondition{Path: "source", Operator: "GreaterThan", Value: "x"}, ErrInvalidFilterOperator},
		{"empty path", FilterCondition{Path: "", Operator: FilterOpEqual, Value: "x"}, ErrInvalidFilterField},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cond.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestFilterCondition_UnmarshalFull(t *testing.T) {
	payload := `{"path": ["source"], "operator": "Equal", "value": "document1"}`

	var cond FilterCondition
	err := json.Unmarshal([]byte(payload), &cond)

	require.NoError(t, err)
	assert.Equal(t, FilterPath("source"), cond.Path)
	assert.Equal(t, FilterOpEqual, cond.Operator)
	assert.Equal(t, "document1", cond.Value)
	assert.NoError(t, cond.Validate())
}

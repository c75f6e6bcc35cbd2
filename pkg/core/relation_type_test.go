package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRelationType(t *testing.T) {
	tests := []struct {
		input   string
		want    RelationType
		wantErr bool
	}{
		{"table", RelationTable, false},
		{"VIEW", RelationView, false},
		{" external ", RelationExternal, false},
		{"Materialized_View", RelationMaterializedView, false},
		{"dynamic_table", RelationDynamicTable, false},
		{"invalid-type", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseRelationType(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				var ve *ValidationError
				require.True(t, errors.As(err, &ve))
				assert.Equal(t, "relation_type", ve.Field)
				assert.Contains(t, err.Error(), tt.input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRelationType_AlterableInPlace(t *testing.T) {
	assert.True(t, RelationTable.AlterableInPlace())
	assert.True(t, RelationDynamicTable.AlterableInPlace())
	assert.False(t, RelationView.AlterableInPlace())
	assert.False(t, RelationExternal.AlterableInPlace())
	assert.False(t, RelationMaterializedView.AlterableInPlace())
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("partition_by.granularity", "weekly", OneOf("hour", "day"))
	assert.Equal(t, `invalid partition_by.granularity: got "weekly", expected one of "hour", "day"`, err.Error())
	assert.True(t, IsValidationError(err))
	assert.False(t, IsValidationError(ErrRelationNotFound))

	bare := &ValidationError{Field: "path", Value: 3}
	assert.Equal(t, "invalid path: 3", bare.Error())
}

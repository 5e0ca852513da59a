package partner

import (
	"testing"
	"time"

	"github.com/crm/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSegmentRules(t *testing.T) {
	t.Run("coerces values to field types", func(t *testing.T) {
		conds, err := ParseSegmentRules([]SegmentRule{
			{Field: "totalSpending", Operator: ">", Value: 100.5},
			{Field: "visits", Operator: ">=", Value: "3"},
			{Field: "lastVisitDate", Operator: "<", Value: "2024-01-31"},
			{Field: "email", Operator: "==", Value: "Bob@Example.com"},
		})

		require.NoError(t, err)
		require.Len(t, conds, 4)
		assert.True(t, conds[0].Value.(decimal.Decimal).Equal(decimal.NewFromFloat(100.5)))
		assert.Equal(t, 3, conds[1].Value)
		assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), conds[2].Value)
		assert.Equal(t, "bob@example.com", conds[3].Value)
	})

	tests := []struct {
		name string
		rule SegmentRule
		msg  string
	}{
		{"unknown field", SegmentRule{Field: "password", Operator: "==", Value: "x"}, "unsupported field"},
		{"unknown operator", SegmentRule{Field: "visits", Operator: "~", Value: 1.0}, "unsupported operator"},
		{"ordering on text", SegmentRule{Field: "name", Operator: ">", Value: "a"}, "cannot be applied"},
		{"non integer visits", SegmentRule{Field: "visits", Operator: "==", Value: 1.5}, "not an integer"},
		{"bad number", SegmentRule{Field: "totalSpending", Operator: "<", Value: "lots"}, "not a number"},
		{"bad date", SegmentRule{Field: "createdAt", Operator: "<", Value: "yesterday"}, "not a date"},
		{"wrong type", SegmentRule{Field: "name", Operator: "==", Value: 12.0}, "wrong type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSegmentRules([]SegmentRule{tt.rule})

			assert.ErrorIs(t, err, shared.ErrValidation)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

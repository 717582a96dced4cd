package ingredient

import (
	"strings"
	"testing"

	"smartchef/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(v float64) *float64 { return &v }

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    []common.IngredientInput
		want   []common.IngredientInput
		wantOK bool
	}{
		{
			name:   "nil list",
			raw:    nil,
			want:   []common.IngredientInput{},
			wantOK: false,
		},
		{
			name:   "only blank names",
			raw:    []common.IngredientInput{{Name: "   "}, {Name: "", Unit: "g"}},
			want:   []common.IngredientInput{},
			wantOK: false,
		},
		{
			name: "trims and drops blanks in order",
			raw: []common.IngredientInput{
				{Name: "  Chicken breast ", Quantity: qty(150), Unit: " g "},
				{Name: "\t"},
				{Name: "Rice"},
			},
			want: []common.IngredientInput{
				{Name: "Chicken breast", Quantity: qty(150), Unit: "g"},
				{Name: "Rice"},
			},
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		raw     []common.IngredientInput
		wantErr string
	}{
		{"empty", nil, ErrNoIngredients},
		{"blank only", []common.IngredientInput{{Name: " "}}, ErrNoIngredients},
		{"name too long", []common.IngredientInput{{Name: strings.Repeat("a", MaxNameLength+1)}}, "name exceeds"},
		{"unit too long", []common.IngredientInput{{Name: "rice", Unit: strings.Repeat("g", MaxUnitLength+1)}}, "unit exceeds"},
		{"negative quantity", []common.IngredientInput{{Name: "rice", Quantity: qty(-1)}}, "quantity must be"},
		{"quantity too large", []common.IngredientInput{{Name: "rice", Quantity: qty(MaxQuantity + 1)}}, "quantity must be"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Validate(tt.raw)
			require.Error(t, err)
			assert.True(t, common.IsValidationError(err))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("valid", func(t *testing.T) {
		list, err := Validate([]common.IngredientInput{{Name: " Tofu ", Quantity: qty(0)}})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Tofu", list[0].Name)
	})

	t.Run("limits apply after trimming", func(t *testing.T) {
		pad := strings.Repeat(" ", 20)
		list, err := Validate([]common.IngredientInput{{
			Name: pad + strings.Repeat("a", MaxNameLength-10) + pad,
			Unit: "\t" + strings.Repeat("g", MaxUnitLength) + pad,
		}})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Len(t, list[0].Name, MaxNameLength-10)
		assert.Len(t, list[0].Unit, MaxUnitLength)
	})

	t.Run("multibyte names count runes", func(t *testing.T) {
		_, err := Validate([]common.IngredientInput{{Name: strings.Repeat("豆", MaxNameLength)}})
		assert.NoError(t, err)
	})
}

func TestInputSummary(t *testing.T) {
	list := []common.IngredientInput{
		{Name: "Chicken breast", Quantity: qty(150), Unit: "g"},
		{Name: "Eggs", Quantity: qty(2)},
		{Name: "Salt", Unit: "pinch"},
		{Name: "Olive oil", Quantity: qty(0.5), Unit: "tbsp"},
	}

	assert.Equal(t, "150 g Chicken breast, 2 Eggs, Salt, 0.5 tbsp Olive oil", InputSummary(list))
	assert.Equal(t, "", InputSummary(nil))
}

package variation

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/templemart/internal/domain"
)

var testCatalog = domain.Catalog{
	{ID: "vt-size", Name: "Size", Values: []string{"S", "M", "L"}},
	{ID: "vt-color", Name: "Color", Values: []string{"Red", "Blue", "Green"}},
	{ID: "vt-mat", Name: "Material", Values: []string{"Cotton", "Silk"}},
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// newSet arma un set con atributos nombrados y valores elegidos en orden.
func newSet(t *testing.T, attrs ...[]string) *AttributeSet {
	t.Helper()
	s := NewAttributeSet(testCatalog)
	for _, a := range attrs {
		i := s.AddAttribute()
		require.NoError(t, s.SetAttributeName(i, a[0]))
		for _, v := range a[1:] {
			_, err := s.ToggleValue(i, v)
			require.NoError(t, err)
		}
	}
	return s
}

package variation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/templemart/internal/domain"
)

func TestGenerate_SimpleMatrix(t *testing.T) {
	s := newSet(t, []string{"Size", "S", "M"}, []string{"Color", "Red", "Blue"})
	require.NoError(t, s.SetPriceOverrides(0, true))
	require.NoError(t, s.SetValuePrice(0, "M", dec("20")))

	vs := Generate(s, GenerateOptions{ProductCode: "tee", BasePrice: dec("100")})
	require.Len(t, vs, 4)

	want := []struct {
		size, color, total string
	}{
		{"S", "Red", "100"},
		{"S", "Blue", "100"},
		{"M", "Red", "120"},
		{"M", "Blue", "120"},
	}
	ids := map[string]bool{}
	for i, w := range want {
		v := vs[i]
		size, _ := v.Value("Size")
		color, _ := v.Value("Color")
		assert.Equal(t, w.size, size)
		assert.Equal(t, w.color, color)
		assert.True(t, dec(w.total).Equal(v.TotalPrice), "variante %d: %s", i, v.TotalPrice)
		assert.True(t, dec("100").Equal(v.BasePrice))
		assert.Nil(t, v.Stock)
		assert.NotEmpty(t, v.ID)
		ids[v.ID] = true
	}
	assert.Len(t, ids, 4)
	assert.Equal(t, "TEE-1", vs[0].SKU)
	assert.Equal(t, "TEE-4", vs[3].SKU)
}

func TestGenerate_ZeroSelectedValues(t *testing.T) {
	s := newSet(t, []string{"Size"})
	vs := Generate(s, GenerateOptions{BasePrice: dec("10")})
	assert.NotNil(t, vs)
	assert.Empty(t, vs)

	assert.Empty(t, Generate(NewAttributeSet(testCatalog), GenerateOptions{}))
}

func TestGenerate_CartesianCount(t *testing.T) {
	cases := []struct {
		name  string
		attrs [][]string
		want  int
	}{
		{"uno", [][]string{{"Size", "S", "M", "L"}}, 3},
		{"vacío en el medio", [][]string{{"Size", "S", "M"}, {"Color"}, {"Material", "Cotton", "Silk"}}, 4},
		{"tres dimensiones", [][]string{{"Size", "S", "M", "L"}, {"Color", "Red", "Blue"}, {"Material", "Silk"}}, 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newSet(t, tc.attrs...)
			vs := Generate(s, GenerateOptions{})
			assert.Len(t, vs, tc.want)
			for _, v := range vs {
				for _, o := range v.Options {
					assert.NotEqual(t, "Color", o.Attribute)
				}
			}
		})
	}
}

func TestSKU(t *testing.T) {
	assert.Equal(t, "AB-C-3", SKU(" ab-c ", 3))
	assert.Equal(t, "VAR-1", SKU("", 1))
}

func TestPricing_DisabledOverridesKeepStoredPrices(t *testing.T) {
	s := newSet(t, []string{"Size", "S", "M"}, []string{"Color", "Red"})
	require.NoError(t, s.SetPriceOverrides(0, true))
	require.NoError(t, s.SetPriceOverrides(1, true))
	require.NoError(t, s.SetValuePrice(0, "M", dec("20")))
	require.NoError(t, s.SetValuePrice(1, "Red", dec("5.5")))

	vs := Generate(s, GenerateOptions{BasePrice: dec("100")})
	require.Len(t, vs, 2)
	assert.True(t, dec("125.5").Equal(vs[1].TotalPrice))

	require.NoError(t, s.SetPriceOverrides(0, false))
	Reprice(vs, s)
	assert.True(t, dec("5.5").Equal(vs[1].AdditionalPrice))
	assert.True(t, dec("105.5").Equal(vs[1].TotalPrice))
	assert.True(t, dec("100").Equal(vs[1].BasePrice))

	a, _ := s.Attribute(0)
	assert.True(t, dec("20").Equal(a.Entry("M").Price))
}

func TestTotalPrice_UsesEditedPrice(t *testing.T) {
	s := newSet(t, []string{"Size", "M"})
	require.NoError(t, s.SetPriceOverrides(0, true))
	require.NoError(t, s.SetValuePrice(0, "M", dec("20")))
	v := domain.Variant{Options: []domain.Option{{Attribute: "Size", Value: "M"}}, BasePrice: dec("100"), Price: dec("80")}
	assert.True(t, dec("100").Equal(TotalPrice(v, s)))
}

func TestRegenerate_KeepsSurvivingCombinations(t *testing.T) {
	s := newSet(t, []string{"Size", "S", "M"}, []string{"Color", "Red", "Blue"})
	opts := GenerateOptions{ProductCode: "tee", BasePrice: dec("100")}
	prev := Generate(s, opts)
	stock := 7
	prev[0].Stock = &stock
	prev[0].Price = dec("90")
	prev[0].SKU = "TEE-S-RED"

	_, err := s.ToggleValue(0, "M")
	require.NoError(t, err)
	_, err = s.ToggleValue(0, "L")
	require.NoError(t, err)

	vs := Regenerate(s, prev, opts)
	require.Len(t, vs, 4)
	for _, v := range vs {
		size, _ := v.Value("Size")
		assert.NotEqual(t, "M", size)
	}
	assert.Equal(t, prev[0].ID, vs[0].ID)
	assert.Equal(t, "TEE-S-RED", vs[0].SKU)
	assert.True(t, dec("90").Equal(vs[0].TotalPrice))
	require.NotNil(t, vs[0].Stock)
	assert.Equal(t, 7, *vs[0].Stock)
	assert.Equal(t, prev[1].ID, vs[1].ID)

	skus := map[string]bool{}
	for _, v := range vs {
		assert.False(t, skus[v.SKU], "sku repetido %s", v.SKU)
		skus[v.SKU] = true
	}
}

func TestRegenerate_RenameAndRemoval(t *testing.T) {
	s := newSet(t, []string{"Size", "S", "M"}, []string{"Color", "Red"})
	opts := GenerateOptions{ProductCode: "tee"}
	prev := Generate(s, opts)

	require.NoError(t, s.RemoveAttribute(1))
	vs := Regenerate(s, prev, opts)
	require.Len(t, vs, 2)
	for _, v := range vs {
		require.Len(t, v.Options, 1)
		_, ok := v.Value("Color")
		assert.False(t, ok)
	}

	require.NoError(t, s.SetAttributeName(0, "Material"))
	assert.Empty(t, Regenerate(s, vs, opts))
}

package sheet

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/templemart/internal/domain"
)

func sampleVariants() []domain.Variant {
	stock := 4
	return []domain.Variant{
		{
			ID:      "v-1",
			Options: []domain.Option{{Attribute: "Size", Value: "S"}, {Attribute: "Color", Value: "Red"}},
			Price:   decimal.NewFromInt(100), AdditionalPrice: decimal.Zero, TotalPrice: decimal.NewFromInt(100),
			SKU: "TEE-1", Stock: &stock,
		},
		{
			ID:      "v-2",
			Options: []domain.Option{{Attribute: "Size", Value: "M"}, {Attribute: "Color", Value: "Red"}},
			Price:   decimal.NewFromInt(100), AdditionalPrice: decimal.NewFromInt(20), TotalPrice: decimal.NewFromInt(120),
			SKU: "TEE-2",
		},
	}
}

func TestExportMatrix(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportMatrix(&buf, []string{"Size", "Color"}, sampleVariants()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"ID", "Size", "Color", "SKU", "Precio", "Adicional", "Total", "Stock"}, rows[0])
	require.GreaterOrEqual(t, len(rows[2]), 7)
	assert.Equal(t, []string{"v-2", "M", "Red", "TEE-2", "100", "20", "120"}, rows[2][:7])
	assert.Equal(t, "4", rows[1][7])
}

func TestImportEdits_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportMatrix(&buf, []string{"Size", "Color"}, sampleVariants()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue(SheetName, "D2", "TEE-S-RED"))
	require.NoError(t, f.SetCellValue(SheetName, "E3", "110,5"))
	require.NoError(t, f.SetCellValue(SheetName, "H3", 9))
	var out bytes.Buffer
	require.NoError(t, f.Write(&out))
	f.Close()

	edits, err := ImportEdits(&out)
	require.NoError(t, err)
	require.Len(t, edits, 2)

	assert.Equal(t, "v-1", edits[0].ID)
	require.NotNil(t, edits[0].SKU)
	assert.Equal(t, "TEE-S-RED", *edits[0].SKU)
	assert.Equal(t, 4, *edits[0].Stock)

	require.NotNil(t, edits[1].Price)
	assert.Equal(t, "110.5", edits[1].Price.String())
	assert.Equal(t, 9, *edits[1].Stock)
}

func TestImportEdits_Invalid(t *testing.T) {
	_, err := ImportEdits(bytes.NewReader([]byte("no es xlsx")))
	assert.ErrorIs(t, err, domain.ErrValidation)

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"ID", "Stock"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"v-1", "muchos"}))
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))

	_, err = ImportEdits(&buf)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Contains(t, err.Error(), "fila 2")
}

func TestImportEdits_AttributeNamedLikeFixedColumn(t *testing.T) {
	stock := 3
	vs := []domain.Variant{{
		ID:      "v-1",
		Options: []domain.Option{{Attribute: "ID", Value: "chip"}, {Attribute: "Stock", Value: "XL"}, {Attribute: "SKU", Value: "a"}},
		Price:   decimal.NewFromInt(50), TotalPrice: decimal.NewFromInt(50),
		SKU: "P-1", Stock: &stock,
	}}
	var buf bytes.Buffer
	require.NoError(t, ExportMatrix(&buf, []string{"ID", "Stock", "SKU"}, vs))

	edits, err := ImportEdits(&buf)
	require.NoError(t, err)
	require.Len(t, edits, 1)
	assert.Equal(t, "v-1", edits[0].ID)
	require.NotNil(t, edits[0].SKU)
	assert.Equal(t, "P-1", *edits[0].SKU)
	require.NotNil(t, edits[0].Stock)
	assert.Equal(t, 3, *edits[0].Stock)
	require.NotNil(t, edits[0].Price)
	assert.Equal(t, "50", edits[0].Price.String())
}

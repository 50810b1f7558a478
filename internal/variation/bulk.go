package variation

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/phenrril/templemart/internal/domain"
)

type BulkField string

const (
	BulkPrice BulkField = "price"
	BulkStock BulkField = "stock"
)

// ApplyBulk asigna value al campo de las variantes cuyo id está en selectedIDs.
// El resto queda igual y el AttributeSet no se toca. Devuelve cuántas cambió.
func ApplyBulk(variants []domain.Variant, set *AttributeSet, selectedIDs []string, field BulkField, value decimal.Decimal) (int, error) {
	if value.IsNegative() {
		return 0, domain.Invalid(string(field), "no puede ser negativo")
	}
	var stock int
	switch field {
	case BulkPrice:
	case BulkStock:
		if !value.IsInteger() {
			return 0, domain.Invalid("stock", "debe ser entero")
		}
		stock = int(value.IntPart())
	default:
		return 0, domain.Invalid("field", "campo desconocido: "+string(field))
	}
	selected := make(map[string]struct{}, len(selectedIDs))
	for _, id := range selectedIDs {
		selected[id] = struct{}{}
	}
	n := 0
	for i := range variants {
		if _, ok := selected[variants[i].ID]; !ok {
			continue
		}
		switch field {
		case BulkPrice:
			variants[i].Price = value
			variants[i].AdditionalPrice = AdditionalPrice(variants[i], set)
			variants[i].TotalPrice = variants[i].Price.Add(variants[i].AdditionalPrice)
		case BulkStock:
			st := stock
			variants[i].Stock = &st
		}
		n++
	}
	return n, nil
}

// VariantEdit es una edición puntual (p. ej. desde una planilla). Los campos
// nil no se modifican.
type VariantEdit struct {
	ID    string
	SKU   *string
	Price *decimal.Decimal
	Stock *int
}

// ApplyEdits valida todas las ediciones antes de aplicar ninguna.
func ApplyEdits(variants []domain.Variant, set *AttributeSet, edits []VariantEdit) (int, error) {
	index := make(map[string]int, len(variants))
	for i, v := range variants {
		index[v.ID] = i
	}
	for _, e := range edits {
		if _, ok := index[e.ID]; !ok {
			return 0, domain.Invalid("id", "variante desconocida: "+e.ID)
		}
		if e.Price != nil && e.Price.IsNegative() {
			return 0, domain.Invalid("price", "no puede ser negativo")
		}
		if e.Stock != nil && *e.Stock < 0 {
			return 0, domain.Invalid("stock", "no puede ser negativo")
		}
		if e.SKU != nil && strings.TrimSpace(*e.SKU) == "" {
			return 0, domain.Invalid("sku", "sku vacío")
		}
	}
	for _, e := range edits {
		v := &variants[index[e.ID]]
		if e.SKU != nil {
			v.SKU = strings.TrimSpace(*e.SKU)
		}
		if e.Price != nil {
			v.Price = *e.Price
		}
		if e.Stock != nil {
			st := *e.Stock
			v.Stock = &st
		}
		v.AdditionalPrice = AdditionalPrice(*v, set)
		v.TotalPrice = v.Price.Add(v.AdditionalPrice)
	}
	return len(edits), nil
}

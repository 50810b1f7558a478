package variation

import (
	"github.com/shopspring/decimal"

	"github.com/phenrril/templemart/internal/domain"
)

// AdditionalPrice suma el precio por valor de cada atributo con precios habilitados.
func AdditionalPrice(v domain.Variant, set *AttributeSet) decimal.Decimal {
	total := decimal.Zero
	for _, a := range set.attrs {
		if !a.PriceOverrides {
			continue
		}
		val, ok := v.Value(a.Name)
		if !ok {
			continue
		}
		if e := a.Entry(val); e != nil {
			total = total.Add(e.Price)
		}
	}
	return total
}

func TotalPrice(v domain.Variant, set *AttributeSet) decimal.Decimal {
	return v.Price.Add(AdditionalPrice(v, set))
}

// Reprice recalcula los derivados; nunca toca BasePrice ni Price.
func Reprice(variants []domain.Variant, set *AttributeSet) {
	for i := range variants {
		add := AdditionalPrice(variants[i], set)
		variants[i].AdditionalPrice = add
		variants[i].TotalPrice = variants[i].Price.Add(add)
	}
}

package variation

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/phenrril/templemart/internal/domain"
)

type GenerateOptions struct {
	ProductCode string
	BasePrice   decimal.Decimal
}

// Generate devuelve el producto cartesiano de los valores elegidos. Los
// atributos sin valores no aportan dimensión; si ninguno tiene valores el
// resultado es vacío. El primer atributo es el que varía más lento.
func Generate(set *AttributeSet, opts GenerateOptions) []domain.Variant {
	combos := [][]domain.Option{{}}
	dims := 0
	for _, a := range set.attrs {
		if len(a.Values) == 0 {
			continue
		}
		dims++
		next := make([][]domain.Option, 0, len(combos)*len(a.Values))
		for _, acc := range combos {
			for _, e := range a.Values {
				c := make([]domain.Option, len(acc), len(acc)+1)
				copy(c, acc)
				next = append(next, append(c, domain.Option{Attribute: a.Name, Value: e.Value}))
			}
		}
		combos = next
	}
	if dims == 0 {
		return []domain.Variant{}
	}
	variants := make([]domain.Variant, 0, len(combos))
	for i, c := range combos {
		variants = append(variants, domain.Variant{
			ID:        uuid.NewString(),
			Options:   c,
			BasePrice: opts.BasePrice,
			Price:     opts.BasePrice,
			SKU:       SKU(opts.ProductCode, i+1),
		})
	}
	Reprice(variants, set)
	return variants
}

// SKU arma el código determinístico <producto>-<n>.
func SKU(productCode string, seq int) string {
	code := strings.ToUpper(strings.TrimSpace(productCode))
	if code == "" {
		code = "VAR"
	}
	return fmt.Sprintf("%s-%d", code, seq)
}

// Regenerate vuelve a armar el producto cartesiano del set y conserva id, SKU,
// precio y stock de las variantes previas cuya combinación sigue existiendo.
// Las combinaciones nuevas toman un SKU que no choque con los conservados.
func Regenerate(set *AttributeSet, previous []domain.Variant, opts GenerateOptions) []domain.Variant {
	next := Generate(set, opts)
	if len(previous) == 0 || len(next) == 0 {
		return next
	}
	byKey := make(map[string]domain.Variant, len(previous))
	for _, v := range previous {
		byKey[optionsKey(v.Options)] = v
	}
	used := map[string]struct{}{}
	kept := make([]bool, len(next))
	for i := range next {
		old, ok := byKey[optionsKey(next[i].Options)]
		if !ok {
			continue
		}
		next[i].ID = old.ID
		next[i].SKU = old.SKU
		next[i].Price = old.Price
		next[i].BasePrice = old.BasePrice
		next[i].Stock = old.Stock
		used[old.SKU] = struct{}{}
		kept[i] = true
	}
	seq := len(next)
	for i := range next {
		if kept[i] {
			continue
		}
		for {
			if _, taken := used[next[i].SKU]; !taken {
				break
			}
			seq++
			next[i].SKU = SKU(opts.ProductCode, seq)
		}
		used[next[i].SKU] = struct{}{}
	}
	Reprice(next, set)
	return next
}

// optionsKey identifica una combinación por atributo y valor, en orden.
func optionsKey(opts []domain.Option) string {
	var b strings.Builder
	for _, o := range opts {
		b.WriteString(o.Attribute)
		b.WriteByte(0x1f)
		b.WriteString(o.Value)
		b.WriteByte(0x1e)
	}
	return b.String()
}

package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// VariationType es una entrada del catálogo de tipos de variación (Talle, Color, ...).
type VariationType struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type Catalog []VariationType

func (c Catalog) ByName(name string) (VariationType, bool) {
	n := strings.TrimSpace(name)
	for _, vt := range c {
		if strings.EqualFold(vt.Name, n) {
			return vt, true
		}
	}
	return VariationType{}, false
}

func (c Catalog) ByID(id string) (VariationType, bool) {
	if id == "" {
		return VariationType{}, false
	}
	for _, vt := range c {
		if vt.ID == id {
			return vt, true
		}
	}
	return VariationType{}, false
}

// Attribute es una dimensión de variación del producto. Se muta solo a través de
// variation.AttributeSet para mantener Values como subconjunto de Candidates.
type Attribute struct {
	Name              string       `json:"name"`
	TypeID            string       `json:"type_id,omitempty"`
	ExternalID        string       `json:"external_id,omitempty"`
	Candidates        []string     `json:"candidates"`
	Values            []ValueEntry `json:"values"`
	PriceOverrides    bool         `json:"price_overrides"`
	DiscountOverrides bool         `json:"discount_overrides"`
}

// ValueEntry agrupa todo el estado por valor seleccionado; quitar la entrada
// borra precio, descuento e imágenes a la vez.
type ValueEntry struct {
	Value    string          `json:"value"`
	Price    decimal.Decimal `json:"price"`
	Discount decimal.Decimal `json:"discount"`
	Images   []ImageRef      `json:"images,omitempty"`
}

func (a *Attribute) Entry(value string) *ValueEntry {
	for i := range a.Values {
		if a.Values[i].Value == value {
			return &a.Values[i]
		}
	}
	return nil
}

func (a *Attribute) IsCandidate(value string) bool {
	for _, c := range a.Candidates {
		if c == value {
			return true
		}
	}
	return false
}

func (a *Attribute) SelectedValues() []string {
	out := make([]string, 0, len(a.Values))
	for _, e := range a.Values {
		out = append(out, e.Value)
	}
	return out
}

// AttributeSetState es la forma serializable de un AttributeSet (borradores).
// Primary vale -1 cuando no hay eje principal.
type AttributeSetState struct {
	Attributes []Attribute `json:"attributes"`
	Primary    int         `json:"primary"`
}

type Option struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

// Variant es una combinación vendible generada; no se persiste por sí sola.
type Variant struct {
	ID              string          `json:"id"`
	Options         []Option        `json:"options"`
	BasePrice       decimal.Decimal `json:"base_price"`
	Price           decimal.Decimal `json:"price"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
	TotalPrice      decimal.Decimal `json:"total_price"`
	Stock           *int            `json:"stock"`
	SKU             string          `json:"sku"`
}

func (v Variant) Value(attribute string) (string, bool) {
	for _, o := range v.Options {
		if o.Attribute == attribute {
			return o.Value, true
		}
	}
	return "", false
}

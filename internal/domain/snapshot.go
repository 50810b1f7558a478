package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

type CallMode string

const (
	CallModeAdd    CallMode = "ADD"
	CallModeUpdate CallMode = "UPDATE"
)

func (m CallMode) Valid() bool { return m == CallModeAdd || m == CallModeUpdate }

// Snapshot es el grafo de variaciones persistido que devuelve el backend.
// Es de solo lectura durante una sesión de edición.
type Snapshot struct {
	ProductCode string              `json:"product_code"`
	Attributes  []SnapshotAttribute `json:"attributes"`
}

type SnapshotAttribute struct {
	ExternalID string          `json:"external_id"`
	TypeID     string          `json:"type_id"`
	Name       string          `json:"name"`
	IsPrimary  bool            `json:"is_primary"`
	Active     bool            `json:"active"`
	Values     []SnapshotValue `json:"values"`
}

type SnapshotValue struct {
	ExternalID      string          `json:"external_id"`
	Value           string          `json:"value"`
	Active          bool            `json:"active"`
	AdditionalPrice decimal.Decimal `json:"additional_price"`
	Discount        decimal.Decimal `json:"discount"`
	IsDiscounted    bool            `json:"is_discounted"`
	Images          []RemoteImage   `json:"images,omitempty"`
}

type RemoteImage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Match busca el atributo persistido por id de tipo de catálogo y, si alguno
// de los dos no lo tiene, por nombre.
func (s *Snapshot) Match(typeID, name string) *SnapshotAttribute {
	if s == nil {
		return nil
	}
	if typeID != "" {
		for i := range s.Attributes {
			if s.Attributes[i].TypeID == typeID {
				return &s.Attributes[i]
			}
		}
	}
	n := strings.TrimSpace(name)
	if n == "" {
		return nil
	}
	for i := range s.Attributes {
		a := &s.Attributes[i]
		if typeID != "" && a.TypeID != "" {
			continue
		}
		if strings.EqualFold(a.Name, n) {
			return a
		}
	}
	return nil
}

func (a *SnapshotAttribute) Value(value string) *SnapshotValue {
	for i := range a.Values {
		if a.Values[i].Value == value {
			return &a.Values[i]
		}
	}
	return nil
}

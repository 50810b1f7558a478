package variation

import (
	"github.com/shopspring/decimal"

	"github.com/phenrril/templemart/internal/domain"
)

type ReconcileOptions struct {
	ProductCode string
	// DeactivateDropped emite is_active=false para lo persistido que ya no está
	// seleccionado. Apagado, lo deseleccionado simplemente no viaja.
	DeactivateDropped bool
}

type Reconciliation struct {
	Payload  domain.VariantPayload
	Warnings []error
}

// Reconcile compara el set actual contra el snapshot y arma el payload ADD o
// UPDATE. Es puro: dos llamadas sin mutaciones en el medio dan el mismo payload.
func Reconcile(set *AttributeSet, snap *domain.Snapshot, mode domain.CallMode, opts ReconcileOptions) (*Reconciliation, error) {
	if !mode.Valid() {
		return nil, domain.Invalid("call_mode", "modo desconocido: "+string(mode))
	}
	if mode == domain.CallModeAdd {
		snap = nil
	}
	rec := &Reconciliation{Payload: domain.VariantPayload{
		CallMode:    mode,
		ProductCode: opts.ProductCode,
		Variations:  []domain.VariationPayload{},
	}}
	matched := map[*domain.SnapshotAttribute]string{}
	primaryEmitted := false
	for i, a := range set.attrs {
		if len(a.Values) == 0 {
			continue
		}
		if a.TypeID == "" {
			return nil, &domain.ReconciliationMismatchError{Attribute: a.Name, Reason: "falta el id de tipo del catálogo"}
		}
		sa := snap.Match(a.TypeID, a.Name)
		if sa != nil && sa.ExternalID == "" {
			sa = nil
		}
		if sa != nil {
			if other, dup := matched[sa]; dup {
				return nil, &domain.ReconciliationMismatchError{Attribute: a.Name, Reason: "coincide con el mismo atributo que " + other}
			}
			matched[sa] = a.Name
		}
		vp := domain.VariationPayload{VariationNameID: a.TypeID, IsPrimary: i == set.primary, Values: []domain.ValuePayload{}}
		if sa != nil {
			vp.ID = ptr(sa.ExternalID)
			vp.IsActive = ptr(true)
		}
		for _, e := range a.Values {
			val := valuePayload(a, e)
			if sa != nil {
				if sv := sa.Value(e.Value); sv != nil && sv.ExternalID != "" {
					val.ID = ptr(sv.ExternalID)
					val.IsActive = ptr(true)
				}
			}
			vp.Values = append(vp.Values, val)
		}
		if sa != nil && opts.DeactivateDropped {
			for _, sv := range sa.Values {
				if sv.ExternalID == "" || !sv.Active || a.Entry(sv.Value) != nil {
					continue
				}
				vp.Values = append(vp.Values, droppedValue(sv))
			}
		}
		if vp.IsPrimary {
			primaryEmitted = true
		}
		rec.Payload.Variations = append(rec.Payload.Variations, vp)
	}
	if opts.DeactivateDropped && snap != nil {
		for i := range snap.Attributes {
			sa := &snap.Attributes[i]
			if _, ok := matched[sa]; ok || !sa.Active || sa.ExternalID == "" {
				continue
			}
			vp := domain.VariationPayload{ID: ptr(sa.ExternalID), VariationNameID: sa.TypeID, IsActive: ptr(false), Values: []domain.ValuePayload{}}
			for _, sv := range sa.Values {
				if sv.ExternalID != "" && sv.Active {
					vp.Values = append(vp.Values, droppedValue(sv))
				}
			}
			rec.Payload.Variations = append(rec.Payload.Variations, vp)
		}
	}
	if !primaryEmitted {
		reason := "ningún atributo está marcado como principal"
		if pa := set.primaryAttr(); pa != nil {
			reason = "el atributo principal " + pa.Name + " no tiene valores seleccionados"
		}
		rec.Warnings = append(rec.Warnings, &domain.MissingPrimaryWarning{Reason: reason})
	}
	return rec, nil
}

func valuePayload(a *domain.Attribute, e domain.ValueEntry) domain.ValuePayload {
	price, discount := decimal.Zero, decimal.Zero
	if a.PriceOverrides {
		price = e.Price
	}
	if a.DiscountOverrides {
		discount = e.Discount
	}
	return domain.ValuePayload{
		Value:           e.Value,
		AdditionalPrice: price.InexactFloat64(),
		IsDiscounted:    a.DiscountOverrides && discount.IsPositive(),
		Discount:        discount.InexactFloat64(),
	}
}

func droppedValue(sv domain.SnapshotValue) domain.ValuePayload {
	return domain.ValuePayload{
		ID:              ptr(sv.ExternalID),
		Value:           sv.Value,
		AdditionalPrice: sv.AdditionalPrice.InexactFloat64(),
		IsDiscounted:    sv.IsDiscounted,
		Discount:        sv.Discount.InexactFloat64(),
		IsActive:        ptr(false),
	}
}

func ptr[T any](v T) *T { return &v }

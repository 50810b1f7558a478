package variation

import (
	"github.com/phenrril/templemart/internal/domain"
)

// Hydrate arma el AttributeSet de edición a partir del grafo persistido. Solo
// se cargan atributos y valores activos; los valores que no están en el
// catálogo se suman como candidatos propios.
func Hydrate(snap *domain.Snapshot, catalog domain.Catalog) (*AttributeSet, error) {
	s := NewAttributeSet(catalog)
	if snap == nil {
		return s, nil
	}
	seen := map[string]struct{}{}
	for _, sa := range snap.Attributes {
		if !sa.Active {
			continue
		}
		vt, ok := catalog.ByID(sa.TypeID)
		if !ok {
			vt, ok = catalog.ByName(sa.Name)
		}
		a := domain.Attribute{Name: sa.Name, TypeID: sa.TypeID, ExternalID: sa.ExternalID}
		if ok {
			if a.Name == "" {
				a.Name = vt.Name
			}
			if a.TypeID == "" {
				a.TypeID = vt.ID
			}
			a.Candidates = append(a.Candidates, vt.Values...)
		}
		key := nameKey(a.Name)
		if _, dup := seen[key]; dup {
			return nil, &domain.DuplicateAttributeError{Name: a.Name}
		}
		seen[key] = struct{}{}
		for _, sv := range sa.Values {
			if !sv.Active {
				continue
			}
			if !a.IsCandidate(sv.Value) {
				a.Candidates = append(a.Candidates, sv.Value)
			}
			e := domain.ValueEntry{Value: sv.Value, Price: sv.AdditionalPrice, Discount: sv.Discount}
			for _, img := range sv.Images {
				e.Images = append(e.Images, domain.ExistingImage(sv.ExternalID, img.URL))
			}
			if !sv.AdditionalPrice.IsZero() {
				a.PriceOverrides = true
			}
			if sv.IsDiscounted {
				a.DiscountOverrides = true
			}
			a.Values = append(a.Values, e)
		}
		s.attrs = append(s.attrs, &a)
		if sa.IsPrimary && s.primary < 0 {
			s.primary = len(s.attrs) - 1
		}
	}
	return s, nil
}

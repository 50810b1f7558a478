// Package variation arma la matriz de variantes de un producto: atributos y
// valores seleccionados, combinaciones, precios, imágenes del eje principal y
// el payload de reconciliación contra lo ya persistido.
//
// Todo es sincrónico y sin estado compartido; quien use un AttributeSet desde
// varias goroutines tiene que serializar las escrituras.
package variation

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/phenrril/templemart/internal/domain"
)

// AttributeSet mantiene los atributos en orden de inserción y el índice del
// atributo principal (-1 si no hay).
type AttributeSet struct {
	catalog domain.Catalog
	attrs   []*domain.Attribute
	primary int
}

func NewAttributeSet(catalog domain.Catalog) *AttributeSet {
	return &AttributeSet{catalog: catalog, primary: -1}
}

// Restore reconstruye un set desde su estado serializado.
func Restore(catalog domain.Catalog, st domain.AttributeSetState) (*AttributeSet, error) {
	s := NewAttributeSet(catalog)
	seen := map[string]struct{}{}
	for _, a := range st.Attributes {
		key := nameKey(a.Name)
		if key != "" {
			if _, dup := seen[key]; dup {
				return nil, &domain.DuplicateAttributeError{Name: a.Name}
			}
			seen[key] = struct{}{}
		}
		c := cloneAttribute(a)
		for _, e := range c.Values {
			if !c.IsCandidate(e.Value) {
				c.Candidates = append(c.Candidates, e.Value)
			}
		}
		s.attrs = append(s.attrs, &c)
	}
	if st.Primary >= len(s.attrs) {
		return nil, domain.Invalid("primary", "índice fuera de rango")
	}
	if st.Primary >= 0 {
		s.primary = st.Primary
	}
	return s, nil
}

func (s *AttributeSet) State() domain.AttributeSetState {
	return domain.AttributeSetState{Attributes: s.Attributes(), Primary: s.primary}
}

func (s *AttributeSet) Clone() *AttributeSet {
	c := &AttributeSet{catalog: s.catalog, primary: s.primary}
	for _, a := range s.attrs {
		ca := cloneAttribute(*a)
		c.attrs = append(c.attrs, &ca)
	}
	return c
}

func (s *AttributeSet) Catalog() domain.Catalog { return s.catalog }

func (s *AttributeSet) Len() int { return len(s.attrs) }

// Attributes devuelve copias; mutar el resultado no afecta al set.
func (s *AttributeSet) Attributes() []domain.Attribute {
	out := make([]domain.Attribute, 0, len(s.attrs))
	for _, a := range s.attrs {
		out = append(out, cloneAttribute(*a))
	}
	return out
}

func (s *AttributeSet) Attribute(i int) (domain.Attribute, error) {
	a, err := s.at(i)
	if err != nil {
		return domain.Attribute{}, err
	}
	return cloneAttribute(*a), nil
}

// HasSelection indica si algún atributo tiene al menos un valor elegido.
func (s *AttributeSet) HasSelection() bool {
	for _, a := range s.attrs {
		if len(a.Values) > 0 {
			return true
		}
	}
	return false
}

// AddAttribute agrega un atributo vacío al final y devuelve su índice.
func (s *AttributeSet) AddAttribute() int {
	s.attrs = append(s.attrs, &domain.Attribute{})
	return len(s.attrs) - 1
}

// RemoveAttribute saca el atributo y corre el índice del principal si hace falta.
func (s *AttributeSet) RemoveAttribute(i int) error {
	if _, err := s.at(i); err != nil {
		return err
	}
	s.attrs = slices.Delete(s.attrs, i, i+1)
	switch {
	case s.primary == i:
		s.primary = -1
	case s.primary > i:
		s.primary--
	}
	return nil
}

// SetAttributeName toma los valores candidatos del catálogo y descarta todo el
// estado por valor anterior.
func (s *AttributeSet) SetAttributeName(i int, name string) error {
	a, err := s.at(i)
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Invalid("name", "nombre vacío")
	}
	if strings.EqualFold(a.Name, name) {
		return nil
	}
	for j, o := range s.attrs {
		if j != i && nameKey(o.Name) == nameKey(name) {
			return &domain.DuplicateAttributeError{Name: name}
		}
	}
	vt, ok := s.catalog.ByName(name)
	if !ok {
		return domain.Invalid("name", "tipo de variación desconocido: "+name)
	}
	a.Name = vt.Name
	a.TypeID = vt.ID
	a.ExternalID = ""
	a.Candidates = slices.Clone(vt.Values)
	a.Values = nil
	return nil
}

// ToggleValue selecciona o deselecciona value. Devuelve true si quedó seleccionado.
func (s *AttributeSet) ToggleValue(i int, value string) (bool, error) {
	a, err := s.at(i)
	if err != nil {
		return false, err
	}
	if !a.IsCandidate(value) {
		return false, domain.Invalid("value", "valor no disponible: "+value)
	}
	if idx := entryIndex(a, value); idx >= 0 {
		a.Values = slices.Delete(a.Values, idx, idx+1)
		return false, nil
	}
	a.Values = append(a.Values, domain.ValueEntry{Value: value})
	return true, nil
}

// AddCustomValue suma value a los candidatos (si falta) y lo selecciona.
func (s *AttributeSet) AddCustomValue(i int, value string) error {
	a, err := s.at(i)
	if err != nil {
		return err
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return domain.Invalid("value", "valor vacío")
	}
	if a.Name == "" {
		return domain.Invalid("name", "el atributo no tiene nombre")
	}
	if !a.IsCandidate(value) {
		a.Candidates = append(a.Candidates, value)
	}
	if entryIndex(a, value) < 0 {
		a.Values = append(a.Values, domain.ValueEntry{Value: value})
	}
	return nil
}

func (s *AttributeSet) SetValuePrice(i int, value string, amount decimal.Decimal) error {
	e, err := s.selectedEntry(i, value, "price", amount)
	if err != nil {
		return err
	}
	e.Price = amount
	return nil
}

func (s *AttributeSet) SetValueDiscount(i int, value string, amount decimal.Decimal) error {
	e, err := s.selectedEntry(i, value, "discount", amount)
	if err != nil {
		return err
	}
	e.Discount = amount
	return nil
}

// SetPriceOverrides no borra los precios cargados; solo deja de sumarlos.
func (s *AttributeSet) SetPriceOverrides(i int, on bool) error {
	a, err := s.at(i)
	if err != nil {
		return err
	}
	a.PriceOverrides = on
	return nil
}

func (s *AttributeSet) SetDiscountOverrides(i int, on bool) error {
	a, err := s.at(i)
	if err != nil {
		return err
	}
	a.DiscountOverrides = on
	return nil
}

// SetPrimary marca i como eje principal; el anterior deja de serlo.
func (s *AttributeSet) SetPrimary(i int) error {
	if _, err := s.at(i); err != nil {
		return err
	}
	s.primary = i
	return nil
}

func (s *AttributeSet) Primary() (int, bool) {
	return s.primary, s.primary >= 0
}

func (s *AttributeSet) primaryAttr() *domain.Attribute {
	if s.primary < 0 || s.primary >= len(s.attrs) {
		return nil
	}
	return s.attrs[s.primary]
}

func (s *AttributeSet) at(i int) (*domain.Attribute, error) {
	if i < 0 || i >= len(s.attrs) {
		return nil, domain.Invalid("attribute", "índice fuera de rango")
	}
	return s.attrs[i], nil
}

func (s *AttributeSet) selectedEntry(i int, value, field string, amount decimal.Decimal) (*domain.ValueEntry, error) {
	a, err := s.at(i)
	if err != nil {
		return nil, err
	}
	if amount.IsNegative() {
		return nil, domain.Invalid(field, "no puede ser negativo")
	}
	e := a.Entry(value)
	if e == nil {
		return nil, domain.Invalid("value", "valor no seleccionado: "+value)
	}
	return e, nil
}

func entryIndex(a *domain.Attribute, value string) int {
	return slices.IndexFunc(a.Values, func(e domain.ValueEntry) bool { return e.Value == value })
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cloneAttribute(a domain.Attribute) domain.Attribute {
	c := a
	c.Candidates = slices.Clone(a.Candidates)
	c.Values = nil
	for _, e := range a.Values {
		ce := e
		ce.Images = slices.Clone(e.Images)
		c.Values = append(c.Values, ce)
	}
	return c
}

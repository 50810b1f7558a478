package variation

import (
	"slices"
	"strings"

	"github.com/phenrril/templemart/internal/domain"
)

// PrimaryValues son las claves de carga de imágenes: los valores elegidos del
// atributo principal. Sin principal devuelve nil.
func (s *AttributeSet) PrimaryValues() []string {
	pa := s.primaryAttr()
	if pa == nil {
		return nil
	}
	return pa.SelectedValues()
}

func (s *AttributeSet) ImagesFor(value string) []domain.ImageRef {
	pa := s.primaryAttr()
	if pa == nil {
		return nil
	}
	if e := pa.Entry(value); e != nil {
		return slices.Clone(e.Images)
	}
	return nil
}

// AssignImages reemplaza la lista completa de imágenes de value en el eje
// principal. No hay append parcial: el llamador combina existentes y nuevas.
func (s *AttributeSet) AssignImages(value string, images []domain.ImageRef) error {
	pa := s.primaryAttr()
	if pa == nil {
		return domain.Invalid("primary", "no hay atributo principal")
	}
	e := pa.Entry(value)
	if e == nil {
		return domain.Invalid("value", "valor no seleccionado en el atributo principal: "+value)
	}
	if len(images) > domain.MaxImagesPerValue {
		return domain.Invalid("images", "máximo 10 imágenes por valor")
	}
	for _, img := range images {
		switch img.Kind {
		case domain.ImageNew:
			if strings.TrimSpace(img.FileName) == "" || len(img.Data) == 0 {
				return domain.Invalid("images", "imagen nueva sin archivo")
			}
		case domain.ImageExisting:
			if img.RemoteID == "" && img.URL == "" {
				return domain.Invalid("images", "imagen existente sin referencia")
			}
		default:
			return domain.Invalid("images", "tipo de imagen desconocido")
		}
	}
	e.Images = slices.Clone(images)
	return nil
}

// MarkImagesUploaded pasa a EXISTING las imágenes NEW de value ya subidas, así
// un reintento no las vuelve a mandar.
func (s *AttributeSet) MarkImagesUploaded(value, valueID string) {
	pa := s.primaryAttr()
	if pa == nil {
		return
	}
	e := pa.Entry(value)
	if e == nil {
		return
	}
	for i := range e.Images {
		if e.Images[i].Kind == domain.ImageNew {
			e.Images[i] = domain.ImageRef{Kind: domain.ImageExisting, RemoteID: valueID, FileName: e.Images[i].FileName}
		}
	}
}

// BuildImageUploads arma un pedido por valor del eje principal que tenga
// imágenes NEW. El id del valor sale del grafo devuelto por el backend.
func BuildImageUploads(set *AttributeSet, refreshed *domain.Snapshot, mode domain.CallMode) ([]domain.ImageUpload, error) {
	pa := set.primaryAttr()
	if pa == nil {
		return nil, nil
	}
	var pending []domain.ValueEntry
	for _, e := range pa.Values {
		if countNew(e.Images) > 0 {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return nil, nil
	}
	sa := refreshed.Match(pa.TypeID, pa.Name)
	if sa == nil {
		return nil, &domain.ReconciliationMismatchError{Attribute: pa.Name, Reason: "el backend no devolvió el atributo principal"}
	}
	uploads := make([]domain.ImageUpload, 0, len(pending))
	for _, e := range pending {
		sv := sa.Value(e.Value)
		if sv == nil || sv.ExternalID == "" {
			return nil, &domain.ReconciliationMismatchError{Attribute: pa.Name, Reason: "sin id para el valor " + e.Value}
		}
		up := domain.ImageUpload{Mode: domain.UploadModeFor(mode), ValueID: sv.ExternalID, Value: e.Value}
		for _, img := range e.Images {
			if img.Kind == domain.ImageNew {
				up.Files = append(up.Files, img)
			}
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

func countNew(images []domain.ImageRef) int {
	n := 0
	for _, img := range images {
		if img.Kind == domain.ImageNew {
			n++
		}
	}
	return n
}

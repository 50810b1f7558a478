package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"

	"github.com/phenrril/templemart/internal/domain"
	"github.com/phenrril/templemart/internal/variation"
)

// VariationUC maneja las sesiones de edición de variantes: una por producto
// abierto. Las escrituras sobre una sesión se serializan con su mutex.
type VariationUC struct {
	Catalog   domain.CatalogSource
	Products  domain.ProductSource
	Submitter domain.VariantSubmitter
	Images    domain.ImageUploader
	Drafts    domain.DraftStore

	DeactivateDropped bool

	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu          sync.Mutex
	id          string
	productCode string
	mode        domain.CallMode
	basePrice   decimal.Decimal
	set         *variation.AttributeSet
	snapshot    *domain.Snapshot
	variants    []domain.Variant
	generated   bool
	pending     []domain.ImageUpload
	// uploadMode queda seteado si el envío se guardó pero no se pudieron
	// armar las subidas; RetryImages las vuelve a armar.
	uploadMode domain.CallMode
	lastUsed   time.Time
}

type OpenRequest struct {
	ProductCode string
	BasePrice   decimal.Decimal
	Mode        domain.CallMode
}

type SessionView struct {
	ID            string             `json:"id"`
	ProductCode   string             `json:"product_code"`
	Mode          domain.CallMode    `json:"mode"`
	BasePrice     decimal.Decimal    `json:"base_price"`
	Attributes    []domain.Attribute `json:"attributes"`
	Primary       *int               `json:"primary"`
	PrimaryValues []string           `json:"primary_values"`
	Variants      []domain.Variant   `json:"variants"`
	PendingImages int                `json:"pending_images"`
}

type SubmitResult struct {
	Payload  domain.VariantPayload `json:"payload"`
	Warnings []string              `json:"warnings,omitempty"`
	Uploaded int                   `json:"uploaded"`
	Pending  int                   `json:"pending"`
	Session  *SessionView          `json:"session"`
}

func (uc *VariationUC) Open(ctx context.Context, req OpenRequest) (*SessionView, error) {
	code := strings.TrimSpace(req.ProductCode)
	if code == "" {
		return nil, domain.Invalid("product_code", "código vacío")
	}
	if req.Mode == "" {
		req.Mode = domain.CallModeAdd
	}
	if !req.Mode.Valid() {
		return nil, domain.Invalid("mode", "modo desconocido: "+string(req.Mode))
	}
	if req.BasePrice.IsNegative() {
		return nil, domain.Invalid("base_price", "no puede ser negativo")
	}
	catalog, err := uc.Catalog.Catalog(ctx)
	if err != nil {
		return nil, err
	}
	s := &session{id: uuid.NewString(), productCode: code, mode: req.Mode, basePrice: req.BasePrice, lastUsed: time.Now()}
	if req.Mode == domain.CallModeUpdate {
		snap, err := uc.Products.Snapshot(ctx, code)
		if err != nil {
			return nil, err
		}
		s.snapshot = snap
		if s.set, err = variation.Hydrate(snap, catalog); err != nil {
			return nil, err
		}
	} else {
		s.set = variation.NewAttributeSet(catalog)
	}
	if err := uc.resumeDraft(ctx, s, catalog); err != nil {
		return nil, err
	}

	uc.mu.Lock()
	if uc.sessions == nil {
		uc.sessions = map[string]*session{}
	}
	uc.sessions[s.id] = s
	uc.mu.Unlock()

	log.Info().Str("session", s.id).Str("product", code).Str("mode", string(s.mode)).Msg("sesión abierta")
	return s.view(), nil
}

func (uc *VariationUC) resumeDraft(ctx context.Context, s *session, catalog domain.Catalog) error {
	if uc.Drafts == nil {
		return nil
	}
	d, err := uc.Drafts.FindByProductCode(ctx, s.productCode)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if d.Mode != s.mode {
		return nil
	}
	st := d.State.Data()
	set, err := variation.Restore(catalog, st.Set)
	if err != nil {
		log.Warn().Err(err).Str("product", s.productCode).Msg("borrador inválido, se ignora")
		return nil
	}
	s.set = set
	s.variants = st.Variants
	s.generated = len(st.Variants) > 0
	if s.basePrice.IsZero() {
		s.basePrice = d.BasePrice
	}
	s.rebuild()
	return nil
}

func (uc *VariationUC) Get(id string) (*SessionView, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view(), nil
}

func (uc *VariationUC) Close(id string) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	if _, ok := uc.sessions[id]; !ok {
		return notFound(id)
	}
	delete(uc.sessions, id)
	return nil
}

// Mutate aplica fn sobre una copia del set y la publica solo si no hubo error,
// así una validación fallida deja el modelo intacto. Si ya se generaron
// variantes, se rearman contra la nueva selección.
func (uc *VariationUC) Mutate(id string, fn func(*variation.AttributeSet) error) (*SessionView, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.set.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	s.set = next
	s.rebuild()
	return s.view(), nil
}

func (uc *VariationUC) Generate(id string) (*SessionView, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.variants = variation.Generate(s.set, s.generateOptions())
	s.generated = true
	return s.view(), nil
}

func (uc *VariationUC) Bulk(id string, ids []string, field variation.BulkField, value decimal.Decimal) (int, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return variation.ApplyBulk(s.variants, s.set, ids, field, value)
}

func (uc *VariationUC) ApplyEdits(id string, edits []variation.VariantEdit) (int, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return variation.ApplyEdits(s.variants, s.set, edits)
}

// AssignImages conserva las EXISTING indicadas en keep (por URL) y agrega las nuevas.
func (uc *VariationUC) AssignImages(id, value string, keep []string, files []domain.ImageRef) (*SessionView, error) {
	return uc.Mutate(id, func(set *variation.AttributeSet) error {
		var imgs []domain.ImageRef
		for _, img := range set.ImagesFor(value) {
			if img.Kind == domain.ImageExisting && slices.Contains(keep, img.URL) {
				imgs = append(imgs, img)
			}
		}
		return set.AssignImages(value, append(imgs, files...))
	})
}

// Preview devuelve el payload que mandaría Submit, sin efectos.
func (uc *VariationUC) Preview(id string) (*variation.Reconciliation, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return uc.reconcile(s)
}

func (uc *VariationUC) reconcile(s *session) (*variation.Reconciliation, error) {
	if s.mode == domain.CallModeAdd && !s.set.HasSelection() {
		return nil, domain.Invalid("attributes", "no hay atributos con valores seleccionados")
	}
	return variation.Reconcile(s.set, s.snapshot, s.mode, variation.ReconcileOptions{
		ProductCode:       s.productCode,
		DeactivateDropped: uc.DeactivateDropped,
	})
}

// Submit manda el payload y después una subida por valor principal con
// imágenes nuevas. Si falla una subida las variantes ya quedaron guardadas:
// devuelve el resultado parcial junto con el error y RetryImages reintenta
// solo lo pendiente.
func (uc *VariationUC) Submit(ctx context.Context, id string) (*SubmitResult, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) > 0 || s.uploadMode != "" {
		return nil, domain.Invalid("images", "hay imágenes pendientes de un envío anterior")
	}
	rec, err := uc.reconcile(s)
	if err != nil {
		return nil, err
	}
	res := &SubmitResult{Payload: rec.Payload}
	for _, w := range rec.Warnings {
		res.Warnings = append(res.Warnings, w.Error())
		log.Warn().Err(w).Str("session", s.id).Msg("envío sin principal")
	}

	refreshed, err := uc.Submitter.Submit(ctx, &rec.Payload)
	if err != nil {
		return nil, err
	}
	log.Info().Str("session", s.id).Str("product", s.productCode).Int("variations", len(rec.Payload.Variations)).Msg("variaciones enviadas")

	uploads, err := variation.BuildImageUploads(s.set, refreshed, s.mode)
	mode := s.mode
	s.snapshot = refreshed
	s.mode = domain.CallModeUpdate
	if err != nil {
		s.uploadMode = mode
		res.Session = s.view()
		log.Error().Err(err).Str("session", s.id).Msg("no se pudieron armar las subidas")
		return res, err
	}
	s.pending = uploads
	return uc.flush(ctx, s, res)
}

func (uc *VariationUC) RetryImages(ctx context.Context, id string) (*SubmitResult, error) {
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res := &SubmitResult{}
	if s.uploadMode != "" {
		fresh, err := uc.Products.Snapshot(ctx, s.productCode)
		if err != nil {
			return nil, err
		}
		uploads, err := variation.BuildImageUploads(s.set, fresh, s.uploadMode)
		if err != nil {
			res.Session = s.view()
			return res, err
		}
		s.snapshot = fresh
		s.pending = uploads
		s.uploadMode = ""
	}
	return uc.flush(ctx, s, res)
}

// flush sube lo pendiente en orden y corta en el primer error. Lo ya subido
// pasa a EXISTING y no se repite.
func (uc *VariationUC) flush(ctx context.Context, s *session, res *SubmitResult) (*SubmitResult, error) {
	for len(s.pending) > 0 {
		up := s.pending[0]
		if err := uc.Images.UploadImages(ctx, up); err != nil {
			res.Pending = len(s.pending)
			res.Session = s.view()
			log.Error().Err(err).Str("session", s.id).Str("value", up.Value).Msg("subida de imágenes")
			return res, fmt.Errorf("imágenes de %s: %w", up.Value, err)
		}
		s.set.MarkImagesUploaded(up.Value, up.ValueID)
		s.pending = s.pending[1:]
		res.Uploaded++
	}
	s.pending = nil

	snap := s.snapshot
	if res.Uploaded > 0 {
		fresh, err := uc.Products.Snapshot(ctx, s.productCode)
		if err != nil {
			log.Warn().Err(err).Str("product", s.productCode).Msg("no se pudo releer el producto")
		} else {
			snap = fresh
		}
	}
	set, err := variation.Hydrate(snap, s.set.Catalog())
	if err != nil {
		res.Session = s.view()
		return res, err
	}
	s.snapshot = snap
	s.set = set
	s.rebuild()
	if uc.Drafts != nil {
		if err := uc.Drafts.Delete(ctx, s.productCode); err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("product", s.productCode).Msg("no se pudo borrar el borrador")
		}
	}
	res.Session = s.view()
	return res, nil
}

// SaveDraft guarda el estado de la sesión. Las imágenes NEW quedan afuera.
func (uc *VariationUC) SaveDraft(ctx context.Context, id string) (*domain.Draft, error) {
	if uc.Drafts == nil {
		return nil, fmt.Errorf("borradores: %w", domain.ErrDisabled)
	}
	s, err := uc.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	st := s.set.State()
	for i := range st.Attributes {
		for j := range st.Attributes[i].Values {
			e := &st.Attributes[i].Values[j]
			var kept []domain.ImageRef
			for _, img := range e.Images {
				if img.Kind == domain.ImageExisting {
					kept = append(kept, img)
				}
			}
			e.Images = kept
		}
	}
	d := &domain.Draft{
		ID:          uuid.New(),
		ProductCode: s.productCode,
		Mode:        s.mode,
		BasePrice:   s.basePrice,
		State:       datatypes.NewJSONType(domain.DraftState{Set: st, Variants: append([]domain.Variant(nil), s.variants...)}),
	}
	s.mu.Unlock()
	if err := uc.Drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (uc *VariationUC) lookup(id string) (*session, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	s, ok := uc.sessions[id]
	if !ok {
		return nil, notFound(id)
	}
	s.lastUsed = time.Now()
	return s, nil
}

// SweepIdle cierra las sesiones sin uso desde before y devuelve cuántas cerró.
func (uc *VariationUC) SweepIdle(before time.Time) int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	n := 0
	for id, s := range uc.sessions {
		if s.lastUsed.Before(before) {
			delete(uc.sessions, id)
			n++
		}
	}
	if n > 0 {
		log.Info().Int("closed", n).Msg("sesiones inactivas cerradas")
	}
	return n
}

func (s *session) generateOptions() variation.GenerateOptions {
	return variation.GenerateOptions{ProductCode: s.productCode, BasePrice: s.basePrice}
}

// rebuild mantiene las variantes iguales al producto cartesiano de la
// selección actual, conservando lo editado en las combinaciones que siguen.
func (s *session) rebuild() {
	if !s.generated {
		variation.Reprice(s.variants, s.set)
		return
	}
	s.variants = variation.Regenerate(s.set, s.variants, s.generateOptions())
}

func (s *session) view() *SessionView {
	v := &SessionView{
		ID:            s.id,
		ProductCode:   s.productCode,
		Mode:          s.mode,
		BasePrice:     s.basePrice,
		Attributes:    s.set.Attributes(),
		PrimaryValues: s.set.PrimaryValues(),
		Variants:      append([]domain.Variant{}, s.variants...),
		PendingImages: len(s.pending),
	}
	if p, ok := s.set.Primary(); ok {
		v.Primary = &p
	}
	return v
}

func notFound(id string) error {
	return fmt.Errorf("sesión %s: %w", id, domain.ErrNotFound)
}

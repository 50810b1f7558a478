package httpserver

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/phenrril/templemart/internal/adapters/sheet"
	"github.com/phenrril/templemart/internal/domain"
	"github.com/phenrril/templemart/internal/usecase"
	"github.com/phenrril/templemart/internal/variation"
)

type Server struct {
	mux        *http.ServeMux
	variations *usecase.VariationUC
}

var validate = validator.New()

func init() {
	// decimal.Decimal se valida como número (gte, gt).
	validate.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

func New(v *usecase.VariationUC) http.Handler {
	s := &Server{mux: http.NewServeMux(), variations: v}
	s.routes()
	return Chain(s.mux, RequestID, Recovery, Logging)
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.mux.HandleFunc("POST /api/sessions", s.apiOpen)
	s.mux.HandleFunc("GET /api/sessions/{id}", s.apiGet)
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.apiClose)

	// Atributos (por índice dentro de la sesión)
	s.mux.HandleFunc("POST /api/sessions/{id}/attributes", s.apiAddAttribute)
	s.mux.HandleFunc("DELETE /api/sessions/{id}/attributes/{idx}", s.apiRemoveAttribute)
	s.mux.HandleFunc("PUT /api/sessions/{id}/attributes/{idx}/name", s.apiSetName)
	s.mux.HandleFunc("POST /api/sessions/{id}/attributes/{idx}/toggle", s.apiToggle)
	s.mux.HandleFunc("POST /api/sessions/{id}/attributes/{idx}/custom", s.apiCustomValue)
	s.mux.HandleFunc("PUT /api/sessions/{id}/attributes/{idx}/price", s.apiValuePrice)
	s.mux.HandleFunc("PUT /api/sessions/{id}/attributes/{idx}/discount", s.apiValueDiscount)
	s.mux.HandleFunc("PUT /api/sessions/{id}/attributes/{idx}/overrides", s.apiOverrides)
	s.mux.HandleFunc("PUT /api/sessions/{id}/attributes/{idx}/primary", s.apiPrimary)
	s.mux.HandleFunc("PUT /api/sessions/{id}/images", s.apiImages)

	s.mux.HandleFunc("POST /api/sessions/{id}/generate", s.apiGenerate)
	s.mux.HandleFunc("POST /api/sessions/{id}/bulk", s.apiBulk)
	s.mux.HandleFunc("PATCH /api/sessions/{id}/variants", s.apiEdits)
	s.mux.HandleFunc("GET /api/sessions/{id}/export.xlsx", s.apiExport)
	s.mux.HandleFunc("POST /api/sessions/{id}/import", s.apiImport)

	s.mux.HandleFunc("GET /api/sessions/{id}/payload", s.apiPreview)
	s.mux.HandleFunc("POST /api/sessions/{id}/submit", s.apiSubmit)
	s.mux.HandleFunc("POST /api/sessions/{id}/images/retry", s.apiRetryImages)
	s.mux.HandleFunc("POST /api/sessions/{id}/draft", s.apiSaveDraft)
}

type openRequest struct {
	ProductCode string          `json:"product_code" validate:"required,max=120"`
	BasePrice   decimal.Decimal `json:"base_price" validate:"gte=0"`
	Mode        string          `json:"mode" validate:"omitempty,oneof=ADD UPDATE"`
}

type nameRequest struct {
	Name string `json:"name" validate:"required"`
}

type valueRequest struct {
	Value string `json:"value" validate:"required"`
}

type amountRequest struct {
	Value  string          `json:"value" validate:"required"`
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
}

type overridesRequest struct {
	Price    *bool `json:"price"`
	Discount *bool `json:"discount"`
}

type bulkRequest struct {
	IDs   []string        `json:"ids" validate:"required,min=1,dive,required"`
	Field string          `json:"field" validate:"required,oneof=price stock"`
	Value decimal.Decimal `json:"value" validate:"gte=0"`
}

type editRequest struct {
	Edits []variantEdit `json:"edits" validate:"required,min=1,dive"`
}

type variantEdit struct {
	ID    string           `json:"id" validate:"required"`
	SKU   *string          `json:"sku"`
	Price *decimal.Decimal `json:"price"`
	Stock *int             `json:"stock" validate:"omitempty,gte=0"`
}

func (s *Server) apiOpen(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if !decode(w, r, &req) {
		return
	}
	v, err := s.variations.Open(r.Context(), usecase.OpenRequest{
		ProductCode: req.ProductCode,
		BasePrice:   req.BasePrice,
		Mode:        domain.CallMode(req.Mode),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) apiGet(w http.ResponseWriter, r *http.Request) {
	v, err := s.variations.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) apiClose(w http.ResponseWriter, r *http.Request) {
	if err := s.variations.Close(r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) apiAddAttribute(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(set *variation.AttributeSet) error {
		set.AddAttribute()
		return nil
	})
}

func (s *Server) apiRemoveAttribute(w http.ResponseWriter, r *http.Request) {
	idx, ok := index(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, func(set *variation.AttributeSet) error { return set.RemoveAttribute(idx) })
}

func (s *Server) apiSetName(w http.ResponseWriter, r *http.Request) {
	idx, ok := index(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, func(set *variation.AttributeSet) error { return set.SetAttributeName(idx, req.Name) })
}

func (s *Server) apiToggle(w http.ResponseWriter, r *http.Request) {
	idx, ok := index(w, r)
	if !ok {
		return
	}
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, func(set *variation.AttributeSet) error {
		_, err := set.ToggleValue(idx, req.Value)
		return err
	})
}

func (s *Server) apiCustomValue(w http.ResponseWriter, r *http.Request) {
	idx, ok := index(w, r)
	if !ok {
		return
	}
	var req valueRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, func(set *variation.AttributeSet) error { return set.AddCustomValue(idx, req.Value) })
}

func (s *Server) apiValuePrice(w http.ResponseWriter, r *http.Request) {
	idx, ok := index(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, func(set *variation.AttributeSet) error { return set.SetValuePrice(idx, req.Value, req.Amount) })
}

func (s *Server) apiValueDiscount(w http.ResponseWriter, r *http.Request) {
	idx, ok := index(w, r)
	if !ok {
		return
	}
	var req amountRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, func(set *variation.AttributeSet) error { return set.SetValueDiscount(idx, req.Value, req.Amount) })
}

func (s *Server) apiOverrides(w http.ResponseWriter, r *http.Request) {
	idx, ok := index(w, r)
	if !ok {
		return
	}
	var req overridesRequest
	if !decode(w, r, &req) {
		return
	}
	s.mutate(w, r, func(set *variation.AttributeSet) error {
		if req.Price != nil {
			if err := set.SetPriceOverrides(idx, *req.Price); err != nil {
				return err
			}
		}
		if req.Discount != nil {
			return set.SetDiscountOverrides(idx, *req.Discount)
		}
		return nil
	})
}

func (s *Server) apiPrimary(w http.ResponseWriter, r *http.Request) {
	idx, ok := index(w, r)
	if !ok {
		return
	}
	s.mutate(w, r, func(set *variation.AttributeSet) error { return set.SetPrimary(idx) })
}

// apiImages recibe multipart: value, keep (URLs existentes a conservar) e
// images (archivos nuevos). Reemplaza la lista completa del valor.
func (s *Server) apiImages(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(25 << 20); err != nil {
		http.Error(w, "multipart", http.StatusBadRequest)
		return
	}
	value := strings.TrimSpace(r.FormValue("value"))
	if value == "" {
		http.Error(w, "value", http.StatusBadRequest)
		return
	}
	var files []domain.ImageRef
	for _, fh := range r.MultipartForm.File["images"] {
		f, err := fh.Open()
		if err != nil {
			http.Error(w, "file", http.StatusBadRequest)
			return
		}
		data, err := io.ReadAll(io.LimitReader(f, 10<<20))
		f.Close()
		if err != nil || len(data) == 0 {
			http.Error(w, "file", http.StatusBadRequest)
			return
		}
		files = append(files, domain.NewImage(fh.Filename, data))
	}
	v, err := s.variations.AssignImages(r.PathValue("id"), value, r.MultipartForm.Value["keep"], files)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) apiGenerate(w http.ResponseWriter, r *http.Request) {
	v, err := s.variations.Generate(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) apiBulk(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if !decode(w, r, &req) {
		return
	}
	id := r.PathValue("id")
	n, err := s.variations.Bulk(id, req.IDs, variation.BulkField(req.Field), req.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, id, map[string]any{"updated": n})
}

func (s *Server) apiEdits(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if !decode(w, r, &req) {
		return
	}
	edits := make([]variation.VariantEdit, 0, len(req.Edits))
	for _, e := range req.Edits {
		edits = append(edits, variation.VariantEdit{ID: e.ID, SKU: e.SKU, Price: e.Price, Stock: e.Stock})
	}
	id := r.PathValue("id")
	n, err := s.variations.ApplyEdits(id, edits)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, id, map[string]any{"updated": n})
}

func (s *Server) apiExport(w http.ResponseWriter, r *http.Request) {
	v, err := s.variations.Get(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	var names []string
	for _, a := range v.Attributes {
		if len(a.Values) > 0 {
			names = append(names, a.Name)
		}
	}
	var buf bytes.Buffer
	if err := sheet.ExportMatrix(&buf, names, v.Variants); err != nil {
		log.Error().Err(err).Msg("export xlsx")
		http.Error(w, "xlsx", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+v.ProductCode+`-variantes.xlsx"`)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) apiImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(25 << 20); err != nil {
		http.Error(w, "multipart", http.StatusBadRequest)
		return
	}
	fh := r.MultipartForm.File["file"]
	if len(fh) == 0 {
		http.Error(w, "file", http.StatusBadRequest)
		return
	}
	f, err := fh[0].Open()
	if err != nil {
		http.Error(w, "file", http.StatusBadRequest)
		return
	}
	defer f.Close()
	edits, err := sheet.ImportEdits(io.LimitReader(f, 24<<20))
	if err != nil {
		writeError(w, err)
		return
	}
	id := r.PathValue("id")
	n, err := s.variations.ApplyEdits(id, edits)
	if err != nil {
		writeError(w, err)
		return
	}
	s.writeSession(w, id, map[string]any{"updated": n})
}

func (s *Server) apiPreview(w http.ResponseWriter, r *http.Request) {
	rec, err := s.variations.Preview(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	warnings := make([]string, 0, len(rec.Warnings))
	for _, wn := range rec.Warnings {
		warnings = append(warnings, wn.Error())
	}
	writeJSON(w, http.StatusOK, map[string]any{"payload": rec.Payload, "warnings": warnings})
}

func (s *Server) apiSubmit(w http.ResponseWriter, r *http.Request) {
	res, err := s.variations.Submit(r.Context(), r.PathValue("id"))
	writeResult(w, res, err)
}

func (s *Server) apiRetryImages(w http.ResponseWriter, r *http.Request) {
	res, err := s.variations.RetryImages(r.Context(), r.PathValue("id"))
	writeResult(w, res, err)
}

func (s *Server) apiSaveDraft(w http.ResponseWriter, r *http.Request) {
	d, err := s.variations.SaveDraft(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": d.ID, "product_code": d.ProductCode, "updated_at": d.UpdatedAt})
}

func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(*variation.AttributeSet) error) {
	v, err := s.variations.Mutate(r.PathValue("id"), fn)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) writeSession(w http.ResponseWriter, id string, extra map[string]any) {
	v, err := s.variations.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	extra["session"] = v
	writeJSON(w, http.StatusOK, extra)
}

// writeResult contempla el envío parcial: variantes guardadas pero imágenes
// pendientes vuelven con el resultado y el error juntos.
func writeResult(w http.ResponseWriter, res *usecase.SubmitResult, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, res)
		return
	}
	if res == nil {
		writeError(w, err)
		return
	}
	code := statusFor(err)
	log.Warn().Err(err).Int("pending", res.Pending).Msg("envío parcial")
	writeJSON(w, code, map[string]any{"error": err.Error(), "result": res})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst); err != nil {
		http.Error(w, "json", http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "validación", "fields": fields})
			return false
		}
		http.Error(w, "json", http.StatusBadRequest)
		return false
	}
	return true
}

func index(w http.ResponseWriter, r *http.Request) (int, bool) {
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil || idx < 0 {
		http.Error(w, "idx", http.StatusBadRequest)
		return 0, false
	}
	return idx, true
}

func statusFor(err error) int {
	var mm *domain.ReconciliationMismatchError
	var te *domain.TransportError
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDisabled):
		return http.StatusNotImplemented
	case errors.As(err, &mm):
		return http.StatusConflict
	case errors.As(err, &te):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("api")
	}
	writeJSON(w, code, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

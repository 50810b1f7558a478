// Package api es el cliente del backend de vendedores: catálogo de tipos de
// variación, grafo de variaciones de un producto, alta/edición y subida de
// imágenes por valor.
package api

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"

	"github.com/phenrril/templemart/internal/domain"
)

const (
	catalogPath  = "/seller/variation-names"
	productPath  = "/seller/products/{code}/variations"
	submitPath   = "/seller/products/variations"
	imagesPath   = "/seller/products/variations/images"
	defaultLimit = 20 * time.Second
)

type Client struct {
	http *resty.Client
}

// NewClient arma el cliente con bearer token fijo. Sin token las llamadas
// salen sin Authorization.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultLimit
	}
	var rc *resty.Client
	if token != "" {
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
		rc = resty.NewWithClient(oauth2.NewClient(context.Background(), src))
	} else {
		rc = resty.New()
	}
	rc.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "templemart/1.0")
	return &Client{http: rc}
}

type envelope[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

type apiVariationName struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Values []string `json:"values"`
}

type apiVariation struct {
	ID              string     `json:"id"`
	VariationNameID string     `json:"variation_name_id"`
	VariationName   string     `json:"variation_name"`
	IsPrimaryOne    bool       `json:"is_primary_one"`
	IsActive        bool       `json:"is_active"`
	Values          []apiValue `json:"v_value_list"`
}

type apiValue struct {
	ID              string     `json:"id"`
	Value           string     `json:"value"`
	AdditionalPrice float64    `json:"additional_price"`
	IsDiscounted    bool       `json:"is_discounted"`
	Discount        float64    `json:"discount"`
	IsActive        bool       `json:"is_active"`
	Images          []apiImage `json:"images"`
}

type apiImage struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

func (c *Client) Catalog(ctx context.Context) (domain.Catalog, error) {
	var env envelope[[]apiVariationName]
	resp, err := c.http.R().SetContext(ctx).SetResult(&env).SetError(&apiError{}).Get(catalogPath)
	if err := check("catálogo", resp, err); err != nil {
		return nil, err
	}
	out := make(domain.Catalog, 0, len(env.Data))
	for _, n := range env.Data {
		out = append(out, domain.VariationType{ID: n.ID, Name: strings.TrimSpace(n.Name), Values: n.Values})
	}
	return out, nil
}

func (c *Client) Snapshot(ctx context.Context, productCode string) (*domain.Snapshot, error) {
	var env envelope[[]apiVariation]
	resp, err := c.http.R().SetContext(ctx).
		SetPathParam("code", productCode).
		SetResult(&env).SetError(&apiError{}).
		Get(productPath)
	if err == nil && resp.StatusCode() == http.StatusNotFound {
		return nil, fmt.Errorf("producto %s: %w", productCode, domain.ErrNotFound)
	}
	if err := check("variaciones", resp, err); err != nil {
		return nil, err
	}
	return toSnapshot(productCode, env.Data), nil
}

func (c *Client) Submit(ctx context.Context, p *domain.VariantPayload) (*domain.Snapshot, error) {
	var env envelope[[]apiVariation]
	resp, err := c.http.R().SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(p).
		SetResult(&env).SetError(&apiError{}).
		Post(submitPath)
	if err := check("envío de variaciones", resp, err); err != nil {
		return nil, err
	}
	return toSnapshot(p.ProductCode, env.Data), nil
}

// UploadImages manda un multipart por valor: call_mode, v_value_id y hasta
// diez archivos image_file, image_file_1 ... image_file_9.
func (c *Client) UploadImages(ctx context.Context, up domain.ImageUpload) error {
	if len(up.Files) == 0 {
		return nil
	}
	if len(up.Files) > domain.MaxImagesPerValue {
		return domain.Invalid("images", "máximo 10 imágenes por valor")
	}
	req := c.http.R().SetContext(ctx).
		SetMultipartFormData(map[string]string{
			"call_mode":  string(up.Mode),
			"v_value_id": up.ValueID,
		}).
		SetError(&apiError{})
	for i, f := range up.Files {
		req.SetFileReader(domain.ImageFieldName(i), f.FileName, bytes.NewReader(f.Data))
	}
	resp, err := req.Post(imagesPath)
	return check("imágenes", resp, err)
}

func check(op string, resp *resty.Response, err error) error {
	if err != nil {
		return &domain.TransportError{Op: op, Err: err}
	}
	if resp.IsError() || resp.StatusCode() >= 300 {
		body := resp.String()
		if e, ok := resp.Error().(*apiError); ok && e != nil {
			switch {
			case e.Message != "":
				body = e.Message
			case e.Error != "":
				body = e.Error
			}
		}
		return &domain.TransportError{Op: op, Status: resp.StatusCode(), Body: body}
	}
	return nil
}

func toSnapshot(code string, vars []apiVariation) *domain.Snapshot {
	snap := &domain.Snapshot{ProductCode: code, Attributes: make([]domain.SnapshotAttribute, 0, len(vars))}
	for _, v := range vars {
		sa := domain.SnapshotAttribute{
			ExternalID: v.ID,
			TypeID:     v.VariationNameID,
			Name:       strings.TrimSpace(v.VariationName),
			IsPrimary:  v.IsPrimaryOne,
			Active:     v.IsActive,
		}
		for _, val := range v.Values {
			sv := domain.SnapshotValue{
				ExternalID:      val.ID,
				Value:           val.Value,
				Active:          val.IsActive,
				AdditionalPrice: decimal.NewFromFloat(val.AdditionalPrice),
				Discount:        decimal.NewFromFloat(val.Discount),
				IsDiscounted:    val.IsDiscounted,
			}
			for _, img := range val.Images {
				sv.Images = append(sv.Images, domain.RemoteImage{ID: img.ID, URL: img.URL})
			}
			sa.Values = append(sa.Values, sv)
		}
		snap.Attributes = append(snap.Attributes, sa)
	}
	return snap
}

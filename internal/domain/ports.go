package domain

import (
	"context"
	"time"
)

type CatalogSource interface {
	Catalog(ctx context.Context) (Catalog, error)
}

type ProductSource interface {
	Snapshot(ctx context.Context, productCode string) (*Snapshot, error)
}

// VariantSubmitter persiste el payload y devuelve el grafo actualizado con los ids nuevos.
type VariantSubmitter interface {
	Submit(ctx context.Context, p *VariantPayload) (*Snapshot, error)
}

type ImageUploader interface {
	UploadImages(ctx context.Context, up ImageUpload) error
}

type DraftStore interface {
	Save(ctx context.Context, d *Draft) error
	FindByProductCode(ctx context.Context, productCode string) (*Draft, error)
	Delete(ctx context.Context, productCode string) error
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/phenrril/templemart/internal/domain"
)

type DraftRepo struct{ db *gorm.DB }

func NewDraftRepo(db *gorm.DB) *DraftRepo { return &DraftRepo{db: db} }

// Save guarda o reemplaza el borrador del producto; hay uno solo por código.
func (r *DraftRepo) Save(ctx context.Context, d *domain.Draft) error {
	if d == nil || d.ProductCode == "" {
		return domain.Invalid("product_code", "borrador sin producto")
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing domain.Draft
		err := tx.Where("product_code = ?", d.ProductCode).First(&existing).Error
		switch {
		case err == nil:
			d.ID = existing.ID
			d.CreatedAt = existing.CreatedAt
			return tx.Model(&existing).Select("mode", "base_price", "state", "updated_at").Updates(d).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			if d.ID == uuid.Nil {
				d.ID = uuid.New()
			}
			return tx.Create(d).Error
		}
		return err
	})
}

func (r *DraftRepo) FindByProductCode(ctx context.Context, productCode string) (*domain.Draft, error) {
	var d domain.Draft
	if err := r.db.WithContext(ctx).First(&d, "product_code = ?", productCode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

func (r *DraftRepo) Delete(ctx context.Context, productCode string) error {
	return r.db.WithContext(ctx).Where("product_code = ?", productCode).Delete(&domain.Draft{}).Error
}

// DeleteOlderThan borra los borradores sin tocar desde cutoff.
func (r *DraftRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("updated_at < ?", cutoff).Delete(&domain.Draft{})
	return res.RowsAffected, res.Error
}

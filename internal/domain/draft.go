package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Draft guarda una sesión de edición sin enviar. Las imágenes NEW no se
// persisten.
type Draft struct {
	ID          uuid.UUID                      `gorm:"type:uuid;primaryKey"`
	ProductCode string                         `gorm:"size:120;uniqueIndex"`
	Mode        CallMode                       `gorm:"type:varchar(10);not null"`
	BasePrice   decimal.Decimal                `gorm:"type:decimal(12,2);default:0"`
	State       datatypes.JSONType[DraftState] `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time `gorm:"index"`
}

type DraftState struct {
	Set      AttributeSetState `json:"set"`
	Variants []Variant         `json:"variants"`
}

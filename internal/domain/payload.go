package domain

// VariantPayload es el cuerpo que recibe el endpoint de alta/edición de variaciones.
type VariantPayload struct {
	CallMode    CallMode           `json:"call_mode"`
	ProductCode string             `json:"product_code"`
	Variations  []VariationPayload `json:"product_variation_list"`
}

type VariationPayload struct {
	ID              *string        `json:"id"`
	VariationNameID string         `json:"variation_name_id"`
	IsPrimary       bool           `json:"is_primary_one"`
	IsActive        *bool          `json:"is_active,omitempty"`
	Values          []ValuePayload `json:"v_value_list"`
}

type ValuePayload struct {
	ID              *string `json:"id"`
	Value           string  `json:"value"`
	AdditionalPrice float64 `json:"additional_price"`
	IsDiscounted    bool    `json:"is_discounted"`
	Discount        float64 `json:"discount"`
	IsActive        *bool   `json:"is_active,omitempty"`
}

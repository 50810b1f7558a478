package variation

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/templemart/internal/domain"
)

func sizeSnapshot() *domain.Snapshot {
	return &domain.Snapshot{ProductCode: "P1", Attributes: []domain.SnapshotAttribute{{
		ExternalID: "A1", TypeID: "vt-size", Name: "Size", IsPrimary: true, Active: true,
		Values: []domain.SnapshotValue{
			{ExternalID: "V1", Value: "S", Active: true},
			{ExternalID: "V2", Value: "M", Active: true, AdditionalPrice: dec("20")},
		},
	}}}
}

func TestReconcile_EditModeReuse(t *testing.T) {
	s := newSet(t, []string{"Size", "S"})
	require.NoError(t, s.SetPrimary(0))

	rec, err := Reconcile(s, sizeSnapshot(), domain.CallModeUpdate, ReconcileOptions{ProductCode: "P1"})
	require.NoError(t, err)
	assert.Empty(t, rec.Warnings)

	p := rec.Payload
	assert.Equal(t, domain.CallModeUpdate, p.CallMode)
	require.Len(t, p.Variations, 1)
	v := p.Variations[0]
	require.NotNil(t, v.ID)
	assert.Equal(t, "A1", *v.ID)
	assert.Equal(t, "vt-size", v.VariationNameID)
	assert.True(t, v.IsPrimary)
	require.NotNil(t, v.IsActive)
	assert.True(t, *v.IsActive)
	require.Len(t, v.Values, 1)
	assert.Equal(t, "V1", *v.Values[0].ID)
	assert.Equal(t, "S", v.Values[0].Value)
	assert.True(t, *v.Values[0].IsActive)
}

func TestReconcile_NewValuesAndAttributes(t *testing.T) {
	s := newSet(t, []string{"Size", "S", "L"}, []string{"Color", "Red"})
	require.NoError(t, s.SetPrimary(1))

	rec, err := Reconcile(s, sizeSnapshot(), domain.CallModeUpdate, ReconcileOptions{})
	require.NoError(t, err)
	require.Len(t, rec.Payload.Variations, 2)

	size := rec.Payload.Variations[0]
	assert.Equal(t, "V1", *size.Values[0].ID)
	assert.Nil(t, size.Values[1].ID)
	assert.Nil(t, size.Values[1].IsActive)
	assert.False(t, size.IsPrimary)

	color := rec.Payload.Variations[1]
	assert.Nil(t, color.ID)
	assert.Nil(t, color.IsActive)
	assert.True(t, color.IsPrimary)
}

func TestReconcile_AddModeHasNoIDs(t *testing.T) {
	s := newSet(t, []string{"Size", "S"})
	require.NoError(t, s.SetPrimary(0))
	rec, err := Reconcile(s, sizeSnapshot(), domain.CallModeAdd, ReconcileOptions{})
	require.NoError(t, err)
	v := rec.Payload.Variations[0]
	assert.Nil(t, v.ID)
	assert.Nil(t, v.IsActive)
	assert.Nil(t, v.Values[0].ID)

	b, err := json.Marshal(rec.Payload)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"id":null`)
	assert.NotContains(t, string(b), "is_active")
}

func TestReconcile_PricesAndDiscounts(t *testing.T) {
	s := newSet(t, []string{"Size", "S", "M"})
	require.NoError(t, s.SetPrimary(0))
	require.NoError(t, s.SetValuePrice(0, "M", dec("20")))
	require.NoError(t, s.SetValueDiscount(0, "M", dec("10")))

	rec, err := Reconcile(s, nil, domain.CallModeAdd, ReconcileOptions{})
	require.NoError(t, err)
	m := rec.Payload.Variations[0].Values[1]
	assert.Equal(t, 0.0, m.AdditionalPrice)
	assert.Equal(t, 0.0, m.Discount)
	assert.False(t, m.IsDiscounted)

	require.NoError(t, s.SetPriceOverrides(0, true))
	require.NoError(t, s.SetDiscountOverrides(0, true))
	rec, err = Reconcile(s, nil, domain.CallModeAdd, ReconcileOptions{})
	require.NoError(t, err)
	vals := rec.Payload.Variations[0].Values
	assert.Equal(t, 20.0, vals[1].AdditionalPrice)
	assert.Equal(t, 10.0, vals[1].Discount)
	assert.True(t, vals[1].IsDiscounted)
	assert.False(t, vals[0].IsDiscounted)
}

func TestReconcile_Idempotent(t *testing.T) {
	s := newSet(t, []string{"Size", "S", "L"}, []string{"Color", "Red", "Blue"})
	require.NoError(t, s.SetPrimary(0))
	snap := sizeSnapshot()

	r1, err := Reconcile(s, snap, domain.CallModeUpdate, ReconcileOptions{ProductCode: "P1", DeactivateDropped: true})
	require.NoError(t, err)
	r2, err := Reconcile(s, snap, domain.CallModeUpdate, ReconcileOptions{ProductCode: "P1", DeactivateDropped: true})
	require.NoError(t, err)

	b1, _ := json.Marshal(r1.Payload)
	b2, _ := json.Marshal(r2.Payload)
	assert.JSONEq(t, string(b1), string(b2))
	assert.Equal(t, string(b1), string(b2))
}

func TestReconcile_MissingPrimaryWarning(t *testing.T) {
	s := newSet(t, []string{"Size", "S"}, []string{"Color"})
	rec, err := Reconcile(s, nil, domain.CallModeAdd, ReconcileOptions{})
	require.NoError(t, err)
	require.Len(t, rec.Warnings, 1)
	var w *domain.MissingPrimaryWarning
	assert.ErrorAs(t, rec.Warnings[0], &w)

	require.NoError(t, s.SetPrimary(1))
	rec, err = Reconcile(s, nil, domain.CallModeAdd, ReconcileOptions{})
	require.NoError(t, err)
	require.Len(t, rec.Warnings, 1)
	assert.Contains(t, rec.Warnings[0].Error(), "Color")
}

func TestReconcile_Mismatch(t *testing.T) {
	st := domain.AttributeSetState{Primary: -1, Attributes: []domain.Attribute{{
		Name: "Talla", Candidates: []string{"S"}, Values: []domain.ValueEntry{{Value: "S"}},
	}}}
	s, err := Restore(testCatalog, st)
	require.NoError(t, err)

	_, err = Reconcile(s, nil, domain.CallModeAdd, ReconcileOptions{})
	var mm *domain.ReconciliationMismatchError
	require.ErrorAs(t, err, &mm)
	assert.Equal(t, "Talla", mm.Attribute)

	_, err = Reconcile(s, nil, domain.CallMode("PATCH"), ReconcileOptions{})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestReconcile_DeactivateDropped(t *testing.T) {
	snap := sizeSnapshot()
	snap.Attributes = append(snap.Attributes, domain.SnapshotAttribute{
		ExternalID: "A2", TypeID: "vt-color", Name: "Color", Active: true,
		Values: []domain.SnapshotValue{{ExternalID: "V3", Value: "Red", Active: true}},
	})
	s := newSet(t, []string{"Size", "S"})
	require.NoError(t, s.SetPrimary(0))

	rec, err := Reconcile(s, snap, domain.CallModeUpdate, ReconcileOptions{})
	require.NoError(t, err)
	require.Len(t, rec.Payload.Variations, 1)
	assert.Len(t, rec.Payload.Variations[0].Values, 1)

	rec, err = Reconcile(s, snap, domain.CallModeUpdate, ReconcileOptions{DeactivateDropped: true})
	require.NoError(t, err)
	require.Len(t, rec.Payload.Variations, 2)
	size := rec.Payload.Variations[0]
	require.Len(t, size.Values, 2)
	assert.Equal(t, "V2", *size.Values[1].ID)
	assert.False(t, *size.Values[1].IsActive)
	assert.Equal(t, 20.0, size.Values[1].AdditionalPrice)

	color := rec.Payload.Variations[1]
	assert.Equal(t, "A2", *color.ID)
	assert.False(t, *color.IsActive)
	assert.False(t, *color.Values[0].IsActive)
}

func TestReconcile_MatchesByTypeIDAcrossRename(t *testing.T) {
	snap := sizeSnapshot()
	snap.Attributes[0].Name = "Talle"
	s := newSet(t, []string{"Size", "S"})
	require.NoError(t, s.SetPrimary(0))

	rec, err := Reconcile(s, snap, domain.CallModeUpdate, ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, "A1", *rec.Payload.Variations[0].ID)
}

func TestReconcile_EmptySetHasEmptyList(t *testing.T) {
	rec, err := Reconcile(NewAttributeSet(testCatalog), nil, domain.CallModeAdd, ReconcileOptions{})
	require.NoError(t, err)
	b, _ := json.Marshal(rec.Payload)
	assert.Contains(t, string(b), `"product_variation_list":[]`)
}

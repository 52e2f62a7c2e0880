package handler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"

	"backoffice-system/internal/database/dbtest"
	"backoffice-system/internal/errs"
	"backoffice-system/internal/logging"
)

func TestPromoPricesMatchTable(t *testing.T) {
	want := map[string]int64{
		"desengrasante-multiusos":       44160,
		"limpia-vidrios":                41400,
		"shampoo-suave-y-liso":          31050,
		"mascarilla-reparacion-intensa": 41400,
		"locion-revitalizante":          36570,
	}
	require.Len(t, Products, 13)
	for slug, price := range want {
		p, ok := FindBySlug(slug)
		require.True(t, ok, slug)
		assert.Equal(t, price, p.PromoPrice, slug)
	}

	var hogar, capilar int
	for _, p := range Products {
		switch p.Category {
		case CategoryHogar:
			hogar++
		case CategoryCapilar:
			capilar++
		}
	}
	assert.Equal(t, 5, hogar)
	assert.Equal(t, 8, capilar)
}

func TestFindByName(t *testing.T) {
	p, ok := FindByName("  loción SUAVE y liso (177 ML) ")
	require.True(t, ok)
	assert.Equal(t, "locion-suave-y-liso", p.Slug)

	_, ok = FindByName("Jabón Rey")
	assert.False(t, ok)
}

func TestCalculate(t *testing.T) {
	q, err := Calculate([]Item{
		{ProductID: "desengrasante-multiusos", Quantity: 5},
		{ProductID: "shampoo-revitalizante", Quantity: 3},
	})
	require.NoError(t, err)
	// 5*44160 + 3*31050
	assert.Equal(t, int64(313950), q.SubtotalPromo)
	assert.Equal(t, int64(5*55200+3*51750), q.SubtotalRegular)
	assert.Equal(t, int64(59651), q.Tax)
	assert.Equal(t, int64(373601), q.Total)
	assert.Equal(t, q.SubtotalRegular-q.SubtotalPromo, q.Savings)
	assert.True(t, q.IsValid)
	assert.Zero(t, q.Remaining)
	assert.Equal(t, int64(13950), q.Overage)

	q, err = Calculate([]Item{{ProductID: "limpia-pisos", Quantity: 1}})
	require.NoError(t, err)
	assert.False(t, q.IsValid)
	assert.Equal(t, int64(300000-41400), q.Remaining)
	assert.Zero(t, q.Overage)

	_, err = Calculate([]Item{{ProductID: "jabon-rey", Quantity: 1}})
	assert.Equal(t, codes.InvalidArgument, errs.Code(err))
}

func TestValidate(t *testing.T) {
	assert.Error(t, Validate(nil))
	assert.Error(t, Validate([]Item{{ProductID: "limpia-pisos", Quantity: 0}}))
	assert.Error(t, Validate([]Item{{ProductID: "nope", Quantity: 10}}))

	err := Validate([]Item{{ProductID: "limpia-pisos", Quantity: 2}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Missing 217200")

	assert.NoError(t, Validate([]Item{{ProductID: "mascarilla-suave-y-liso", Quantity: 8}}))
}

func TestListProductsMatchesCatalogue(t *testing.T) {
	db := dbtest.New(t)
	shampoo := dbtest.SeedProduct(t, db, "Shampoo Revitalizante (237 ml)", 51750, 12)
	h := NewPromoMixHandler(db, logging.Discard())

	entries, err := h.ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 13)

	var matched int
	for _, e := range entries {
		if e.CatalogueID == nil {
			continue
		}
		matched++
		assert.Equal(t, shampoo.ID, *e.CatalogueID)
		assert.Equal(t, int64(12), *e.Stock)
	}
	assert.Equal(t, 1, matched)
}

func TestQuoteRejectsZeroQuantity(t *testing.T) {
	h := NewPromoMixHandler(dbtest.New(t), logging.Discard())

	_, err := h.Quote(context.Background(), []Item{{ProductID: "limpia-pisos", Quantity: 0}})
	assert.Equal(t, codes.InvalidArgument, errs.Code(err))

	q, err := h.Quote(context.Background(), []Item{{ProductID: "limpia-pisos", Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, int64(41400), q.SubtotalPromo)
}

package handler

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"backoffice-system/internal/database/models"
	"backoffice-system/internal/errs"
	orders "backoffice-system/internal/services/orders/handler"
)

const (
	Year    = 2026
	Minimum = int64(300000)
)

type Category string

const (
	CategoryHogar   Category = "hogar"
	CategoryCapilar Category = "capilar"
)

var discounts = map[Category]decimal.Decimal{
	CategoryHogar:   decimal.RequireFromString("0.20"),
	CategoryCapilar: decimal.RequireFromString("0.40"),
}

type Product struct {
	Slug       string   `json:"id"`
	Name       string   `json:"name"`
	Category   Category `json:"category"`
	Size       string   `json:"size"`
	BasePrice  int64    `json:"base_price"`
	PromoPrice int64    `json:"promo_price"`
}

func promo(slug, name string, category Category, size string, base int64) Product {
	off := decimal.NewFromInt(base).Mul(decimal.NewFromInt(1).Sub(discounts[category]))
	return Product{
		Slug:       slug,
		Name:       name,
		Category:   category,
		Size:       size,
		BasePrice:  base,
		PromoPrice: off.Round(0).IntPart(),
	}
}

// Products lists every eligible product. Names match the catalogue exactly.
var Products = []Product{
	promo("desengrasante-multiusos", "Desengrasante Multiusos", CategoryHogar, "250 ml", 55200),
	promo("detergente-lavavajillas", "Detergente Lavavajillas", CategoryHogar, "250 ml", 55200),
	promo("limpia-vidrios", "Limpia Vidrios", CategoryHogar, "250 ml", 51750),
	promo("limpia-pisos", "Limpia Pisos", CategoryHogar, "250 ml", 51750),
	promo("lustra-muebles", "Lustra Muebles", CategoryHogar, "250 ml", 51750),

	promo("shampoo-suave-y-liso", "Shampoo Suave y Liso (237 ml)", CategoryCapilar, "237 ml", 51750),
	promo("mascarilla-suave-y-liso", "Mascarilla Suave y Liso (177 ml)", CategoryCapilar, "177 ml", 69000),
	promo("locion-suave-y-liso", "Loción Suave y Liso (177 ml)", CategoryCapilar, "177 ml", 60950),
	promo("shampoo-revitalizante", "Shampoo Revitalizante (237 ml)", CategoryCapilar, "237 ml", 51750),
	promo("mascarilla-reparacion-intensa", "Mascarilla Reparación intensa (177 ml)", CategoryCapilar, "177 ml", 69000),
	promo("locion-revitalizante", "Loción Revitalizante (177 ml)", CategoryCapilar, "177 ml", 60950),
	promo("shampoo-reparacion-intensa", "Shampoo Reparación intensa (237 ml)", CategoryCapilar, "237 ml", 51750),
	promo("locion-reparacion-intensa", "Loción Reparación intensa (177 ml)", CategoryCapilar, "177 ml", 60950),
}

func FindBySlug(slug string) (Product, bool) {
	for _, p := range Products {
		if p.Slug == slug {
			return p, true
		}
	}
	return Product{}, false
}

func FindByName(name string) (Product, bool) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, p := range Products {
		if strings.ToLower(p.Name) == normalized {
			return p, true
		}
	}
	return Product{}, false
}

type Item struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type Quote struct {
	SubtotalPromo   int64 `json:"subtotal_promo"`
	SubtotalRegular int64 `json:"subtotal_regular"`
	Tax             int64 `json:"tax"`
	Total           int64 `json:"total"`
	Savings         int64 `json:"savings"`
	IsValid         bool  `json:"is_valid"`
	Remaining       int64 `json:"remaining"`
	Overage         int64 `json:"overage"`
}

// Calculate prices the items at promo and regular prices. Every item must be
// eligible; the minimum is reported, not enforced.
func Calculate(items []Item) (Quote, error) {
	var q Quote
	for _, it := range items {
		p, ok := FindBySlug(it.ProductID)
		if !ok {
			return Quote{}, errs.Invalid("items", fmt.Sprintf("product not eligible for PromoMix: %s", it.ProductID))
		}
		q.SubtotalPromo += p.PromoPrice * it.Quantity
		q.SubtotalRegular += p.BasePrice * it.Quantity
	}
	q.Tax = orders.Tax(q.SubtotalPromo)
	q.Total = q.SubtotalPromo + q.Tax
	q.Savings = q.SubtotalRegular - q.SubtotalPromo
	q.IsValid = q.SubtotalPromo >= Minimum
	if !q.IsValid {
		q.Remaining = Minimum - q.SubtotalPromo
	}
	if q.SubtotalPromo > Minimum {
		q.Overage = q.SubtotalPromo - Minimum
	}
	return q, nil
}

// Validate accepts a PromoMix order only when it meets the minimum.
func Validate(items []Item) error {
	if len(items) == 0 {
		return errs.Invalid("items", "a PromoMix order needs at least one product")
	}
	v := &errs.ValidationError{}
	for i, it := range items {
		p, ok := FindBySlug(it.ProductID)
		if !ok {
			v.Add(fmt.Sprintf("items[%d].product_id", i), fmt.Sprintf("product not eligible for PromoMix: %s", it.ProductID))
			continue
		}
		if it.Quantity < 1 {
			v.Add(fmt.Sprintf("items[%d].quantity", i), fmt.Sprintf("invalid quantity for %s", p.Name))
		}
	}
	if err := v.OrNil(); err != nil {
		return err
	}

	q, err := Calculate(items)
	if err != nil {
		return err
	}
	if !q.IsValid {
		return errs.Invalid("items", fmt.Sprintf("PromoMix requires a minimum of %d. Missing %d", Minimum, q.Remaining))
	}
	return nil
}

type PromoMixHandler struct {
	db     *gorm.DB
	logger *logrus.Logger
}

func NewPromoMixHandler(db *gorm.DB, logger *logrus.Logger) *PromoMixHandler {
	return &PromoMixHandler{db: db, logger: logger}
}

type CatalogueEntry struct {
	Product
	CatalogueID *int64 `json:"catalogue_id,omitempty"`
	Stock       *int64 `json:"stock,omitempty"`
}

// ListProducts joins the promo table with the active catalogue by name so
// callers can place the order against real product ids.
func (s *PromoMixHandler) ListProducts(ctx context.Context) ([]CatalogueEntry, error) {
	names := make([]string, 0, len(Products))
	for _, p := range Products {
		names = append(names, strings.ToLower(p.Name))
	}

	var rows []models.Product
	if err := s.db.WithContext(ctx).
		Where("active = ? AND LOWER(name) IN ?", true, names).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load promo products: %w", err)
	}
	byName := make(map[string]models.Product, len(rows))
	for _, r := range rows {
		byName[strings.ToLower(r.Name)] = r
	}

	entries := make([]CatalogueEntry, 0, len(Products))
	for _, p := range Products {
		entry := CatalogueEntry{Product: p}
		if r, ok := byName[strings.ToLower(p.Name)]; ok {
			id, stock := r.ID, r.Stock
			entry.CatalogueID = &id
			entry.Stock = &stock
		} else {
			s.logger.Debugf("PromoMix product %q has no catalogue match", p.Name)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *PromoMixHandler) Quote(_ context.Context, items []Item) (*Quote, error) {
	for i, it := range items {
		if it.Quantity < 1 {
			return nil, errs.Invalid(fmt.Sprintf("items[%d].quantity", i), "quantity must be at least 1")
		}
	}
	q, err := Calculate(items)
	if err != nil {
		return nil, err
	}
	return &q, nil
}

package handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"backoffice-system/internal/database/models"
)

const orderNumberFormat = "ORD-%d-%04d"

func FormatOrderNumber(year int, seq int64) string {
	return fmt.Sprintf(orderNumberFormat, year, seq)
}

// ParseOrderNumber returns the year and sequence of an ORD-YYYY-NNNN number.
func ParseOrderNumber(number string) (int, int64, bool) {
	parts := strings.Split(number, "-")
	if len(parts) != 3 || parts[0] != "ORD" {
		return 0, 0, false
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	seq, err := strconv.ParseInt(parts[2], 10, 64)
	if err != nil || seq < 1 {
		return 0, 0, false
	}
	return year, seq, true
}

// nextOrderNumber claims the next sequence for year inside tx. The counter row
// is created and incremented by one upsert, so two transactions can never
// read the same value. A missing row is seeded from the highest number already
// stored for that year.
func nextOrderNumber(ctx context.Context, tx *gorm.DB, year int) (string, error) {
	seed, err := highestStoredSequence(ctx, tx, year)
	if err != nil {
		return "", err
	}

	var seq int64
	err = tx.WithContext(ctx).Raw(
		`INSERT INTO order_sequences (year, last_value) VALUES (?, ?)
		 ON CONFLICT (year) DO UPDATE SET last_value = order_sequences.last_value + 1
		 RETURNING last_value`,
		year, seed+1,
	).Scan(&seq).Error
	if err != nil {
		return "", fmt.Errorf("failed to allocate order number: %w", err)
	}
	if seq == 0 {
		return "", fmt.Errorf("failed to allocate order number for %d", year)
	}
	return FormatOrderNumber(year, seq), nil
}

// highestStoredSequence orders by length first so ORD-2026-10000 ranks above
// ORD-2026-9999.
func highestStoredSequence(ctx context.Context, tx *gorm.DB, year int) (int64, error) {
	var numbers []string
	err := tx.WithContext(ctx).Model(&models.Order{}).
		Where("order_number LIKE ?", fmt.Sprintf("ORD-%d-%%", year)).
		Order("LENGTH(order_number) DESC").
		Order("order_number DESC").
		Limit(1).
		Pluck("order_number", &numbers).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read last order number: %w", err)
	}
	if len(numbers) == 0 {
		return 0, nil
	}
	_, seq, ok := ParseOrderNumber(numbers[0])
	if !ok {
		return 0, nil
	}
	return seq, nil
}

package handler

import (
	"time"

	"backoffice-system/internal/database/models"
)

type dateEffect int

const (
	dateKeep dateEffect = iota
	dateSet
	dateSetIfEmpty
	dateClear
)

func (e dateEffect) apply(current *time.Time, now time.Time) *time.Time {
	switch e {
	case dateSet:
		return &now
	case dateSetIfEmpty:
		if current == nil {
			return &now
		}
	case dateClear:
		return nil
	}
	return current
}

type stockEffect int

const (
	stockNone stockEffect = iota
	stockDeduct
	stockRestore
)

type paymentRule struct {
	PaymentDate dateEffect
	Stock       stockEffect
}

type shippingRule struct {
	ShippingDate dateEffect
	DeliveryDate dateEffect
}

type paymentEdge struct{ from, to models.PaymentStatus }

type shippingEdge struct{ from, to models.ShippingStatus }

// Every ordered pair of states has an entry. Same-state pairs carry no effect.
var paymentRules = map[paymentEdge]paymentRule{
	{models.PaymentPending, models.PaymentPending}: {},
	{models.PaymentPending, models.PaymentPartial}: {},
	{models.PaymentPending, models.PaymentPaid}:    {PaymentDate: dateSet, Stock: stockDeduct},
	{models.PaymentPartial, models.PaymentPending}: {PaymentDate: dateClear},
	{models.PaymentPartial, models.PaymentPartial}: {},
	{models.PaymentPartial, models.PaymentPaid}:    {PaymentDate: dateSet, Stock: stockDeduct},
	{models.PaymentPaid, models.PaymentPending}:    {PaymentDate: dateClear, Stock: stockRestore},
	{models.PaymentPaid, models.PaymentPartial}:    {Stock: stockRestore},
	{models.PaymentPaid, models.PaymentPaid}:       {},
}

var shippingRules = map[shippingEdge]shippingRule{
	{models.ShippingPreparing, models.ShippingPreparing}: {},
	{models.ShippingPreparing, models.ShippingShipped}:   {ShippingDate: dateSetIfEmpty},
	{models.ShippingPreparing, models.ShippingDelivered}: {ShippingDate: dateSetIfEmpty, DeliveryDate: dateSet},
	{models.ShippingShipped, models.ShippingPreparing}:   {ShippingDate: dateClear, DeliveryDate: dateClear},
	{models.ShippingShipped, models.ShippingShipped}:     {},
	{models.ShippingShipped, models.ShippingDelivered}:   {ShippingDate: dateSetIfEmpty, DeliveryDate: dateSet},
	{models.ShippingDelivered, models.ShippingPreparing}: {ShippingDate: dateClear, DeliveryDate: dateClear},
	{models.ShippingDelivered, models.ShippingShipped}:   {ShippingDate: dateSetIfEmpty},
	{models.ShippingDelivered, models.ShippingDelivered}: {},
}

func paymentRuleFor(from, to models.PaymentStatus) (paymentRule, bool) {
	r, ok := paymentRules[paymentEdge{from, to}]
	return r, ok
}

func shippingRuleFor(from, to models.ShippingStatus) (shippingRule, bool) {
	r, ok := shippingRules[shippingEdge{from, to}]
	return r, ok
}

// transition is the resolved effect of one status update request.
type transition struct {
	payment      *models.PaymentStatus
	shipping     *models.ShippingStatus
	paymentRule  paymentRule
	shippingRule shippingRule
}

func (t transition) changed() bool {
	return t.payment != nil || t.shipping != nil
}

// planTransition drops targets equal to the current state.
func planTransition(order models.Order, payment *models.PaymentStatus, shipping *models.ShippingStatus) transition {
	var t transition
	if payment != nil && *payment != order.PaymentStatus {
		if r, ok := paymentRuleFor(order.PaymentStatus, *payment); ok {
			p := *payment
			t.payment = &p
			t.paymentRule = r
		}
	}
	if shipping != nil && *shipping != order.ShippingStatus {
		if r, ok := shippingRuleFor(order.ShippingStatus, *shipping); ok {
			s := *shipping
			t.shipping = &s
			t.shippingRule = r
		}
	}
	return t
}

// updates returns the column changes for t, applied on top of order.
func (t transition) updates(order models.Order, now time.Time) map[string]interface{} {
	cols := map[string]interface{}{}
	if t.payment != nil {
		cols["payment_status"] = *t.payment
		cols["payment_date"] = t.paymentRule.PaymentDate.apply(order.PaymentDate, now)
	}
	if t.shipping != nil {
		cols["shipping_status"] = *t.shipping
		cols["shipping_date"] = t.shippingRule.ShippingDate.apply(order.ShippingDate, now)
		cols["delivery_date"] = t.shippingRule.DeliveryDate.apply(order.DeliveryDate, now)
	}
	return cols
}

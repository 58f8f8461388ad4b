package store

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	emailPattern      = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)
	postalCodePattern = regexp.MustCompile(`^\d{5}-\d{3}$`)
	maxRating         = decimal.NewFromInt(5)
)

func checkRequired(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	if max > 0 && len([]rune(value)) > max {
		return invalid(field, "is too long")
	}
	return nil
}

func checkMaxLen(field, value string, max int) error {
	if len([]rune(value)) > max {
		return invalid(field, "is too long")
	}
	return nil
}

func checkEmail(field, value string) error {
	if err := checkRequired(field, value, 50); err != nil {
		return err
	}
	if !emailPattern.MatchString(value) {
		return invalid(field, "must be a valid email address")
	}
	return nil
}

func checkNotFuture(field string, d Date, today Date) error {
	if d.After(today) {
		return invalid(field, "must not be in the future")
	}
	return nil
}

func (c *Customer) Validate() error {
	if err := checkRequired("name", c.Name, 100); err != nil {
		return err
	}
	if err := checkRequired("phone", c.Phone, 15); err != nil {
		return err
	}
	if err := checkEmail("email", c.Email); err != nil {
		return err
	}
	if c.Number < 0 {
		return invalid("number", "must be greater than or equal to 0")
	}
	if !postalCodePattern.MatchString(c.PostalCode) {
		return invalid("postal_code", "must match 00000-000")
	}
	if err := checkMaxLen("complement", c.Complement, 100); err != nil {
		return err
	}
	return checkMaxLen("street", c.Street, 100)
}

func (p *Product) Validate() error {
	if err := checkRequired("name", p.Name, 100); err != nil {
		return err
	}
	if p.UnitCost.IsNegative() {
		return invalid("unit_cost", "must not be negative")
	}
	return nil
}

func (m *RawMaterial) Validate() error {
	if err := checkRequired("name", m.Name, 100); err != nil {
		return err
	}
	if m.UnitCost.IsNegative() {
		return invalid("unit_cost", "must not be negative")
	}
	return nil
}

func (s *Supplier) Validate() error {
	if err := checkRequired("name", s.Name, 100); err != nil {
		return err
	}
	if err := checkRequired("phone", s.Phone, 15); err != nil {
		return err
	}
	if err := checkEmail("email", s.Email); err != nil {
		return err
	}
	return ValidateRating(s.Rating)
}

// ValidateRating checks an optional supplier rating lies in [0, 5].
func ValidateRating(r decimal.NullDecimal) error {
	if !r.Valid {
		return nil
	}
	if r.Decimal.IsNegative() || r.Decimal.GreaterThan(maxRating) {
		return invalid("rating", "must be between 0 and 5")
	}
	return nil
}

func (o *SupplyOffer) Validate() error {
	if !o.Price.IsPositive() {
		return invalid("price", "must be positive")
	}
	return nil
}

func (e *Employee) Validate() error {
	if err := checkRequired("name", e.Name, 100); err != nil {
		return err
	}
	if err := checkRequired("role", e.Role, 50); err != nil {
		return err
	}
	if !e.Salary.IsPositive() {
		return invalid("salary", "must be positive")
	}
	return nil
}

func (b *BOMItem) Validate() error {
	if b.Quantity <= 0 {
		return invalid("quantity", "must be positive")
	}
	return nil
}

// Validate checks the order against today's date as well as its own fields.
func (o *Order) Validate(today Date) error {
	if !ValidOrderStatus(o.Status) {
		return invalid("status", "unknown order status "+o.Status)
	}
	if !ValidPaymentMethod(o.PaymentMethod) {
		return invalid("payment_method", "unknown payment method "+o.PaymentMethod)
	}
	if o.OrderDate.IsZero() {
		return invalid("order_date", "is required")
	}
	if o.PaymentDate.IsZero() {
		return invalid("payment_date", "is required")
	}
	if err := checkNotFuture("order_date", o.OrderDate, today); err != nil {
		return err
	}
	if err := checkNotFuture("payment_date", o.PaymentDate, today); err != nil {
		return err
	}
	if o.PaymentDate.Before(o.OrderDate) {
		return invalid("payment_date", "must not precede the order date")
	}
	if o.DeliveryDate != nil {
		if err := checkNotFuture("delivery_date", *o.DeliveryDate, today); err != nil {
			return err
		}
		if o.DeliveryDate.Before(o.OrderDate) || o.DeliveryDate.Before(o.PaymentDate) {
			return invalid("delivery_date", "must not precede the order or payment date")
		}
	}
	if o.CustomerID <= 0 {
		return invalid("customer_id", "is required")
	}
	return nil
}

func (p *ProductionOrder) Validate(today Date) error {
	if !ValidProductionStatus(p.Status) {
		return invalid("status", "unknown production order status "+p.Status)
	}
	if p.TotalCost.Valid && p.TotalCost.Decimal.IsNegative() {
		return invalid("total_cost", "must not be negative")
	}
	if p.CreatedDate.IsZero() {
		return invalid("created_date", "is required")
	}
	if err := checkNotFuture("created_date", p.CreatedDate, today); err != nil {
		return err
	}
	if p.CompletedDate != nil {
		if err := checkNotFuture("completed_date", *p.CompletedDate, today); err != nil {
			return err
		}
		if p.CompletedDate.Before(p.CreatedDate) {
			return invalid("completed_date", "must not precede the creation date")
		}
	}
	return nil
}

func validateLines(lines []LineInput) error {
	seen := make(map[int64]bool, len(lines))
	for _, l := range lines {
		if l.ProductID <= 0 {
			return invalid("product_id", "is required")
		}
		if l.Quantity <= 0 {
			return invalid("quantity", "must be positive")
		}
		if seen[l.ProductID] {
			return invalid("product_id", "appears more than once")
		}
		seen[l.ProductID] = true
	}
	return nil
}

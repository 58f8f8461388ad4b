package filter

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Search forms read url.Values into typed criteria. A field that is blank or
// fails to parse is left unset, so no predicate is applied for it.

type CustomerCriteria struct {
	ID         *int64
	Name       string
	Phone      string
	Email      string
	Number     *int
	PostalCode string
	Complement string
	Street     string
}

func ParseCustomer(v url.Values) CustomerCriteria {
	return CustomerCriteria{
		ID:         parseID(v.Get("id")),
		Name:       text(v, "name"),
		Phone:      text(v, "phone"),
		Email:      text(v, "email"),
		Number:     parsePositive(v.Get("number")),
		PostalCode: text(v, "postal_code"),
		Complement: text(v, "complement"),
		Street:     text(v, "street"),
	}
}

type OrderCriteria struct {
	ID            *int64
	OrderDate     DateRange
	DeliveryDate  DateRange
	Status        string
	CustomerID    *int64
	PaymentMethod string
	PaymentDate   DateRange
	Total         DecimalRange
}

func ParseOrder(v url.Values) OrderCriteria {
	return OrderCriteria{
		ID:            parseID(v.Get("id")),
		OrderDate:     parseDateRange(v, "order_start_date", "order_end_date"),
		DeliveryDate:  parseDateRange(v, "delivery_start_date", "delivery_end_date"),
		Status:        text(v, "status"),
		CustomerID:    parseID(v.Get("customer_id")),
		PaymentMethod: text(v, "payment_method"),
		PaymentDate:   parseDateRange(v, "payment_start_date", "payment_end_date"),
		Total:         parseDecimalRange(v, "total_min", "total_max"),
	}
}

type SupplierCriteria struct {
	ID       *int64
	Name     string
	Rating   DecimalRange
	Material string
}

func ParseSupplier(v url.Values) SupplierCriteria {
	return SupplierCriteria{
		ID:       parseID(v.Get("id")),
		Name:     text(v, "name"),
		Rating:   parseDecimalRange(v, "rating_min", "rating_max"),
		Material: text(v, "material"),
	}
}

// StockCriteria filters products or raw materials on the inventory page.
type StockCriteria struct {
	ID       *int64
	Name     string
	Stock    IntRange
	UnitCost DecimalRange
}

// ParseStock reads the fields sharing prefix, e.g. "product_name". The form
// is active only when its id key ("product_id") is present in v, even if blank.
func ParseStock(v url.Values, prefix string) (StockCriteria, bool) {
	if _, ok := v[prefix+"_id"]; !ok {
		return StockCriteria{}, false
	}
	return StockCriteria{
		ID:   parseID(v.Get(prefix + "_id")),
		Name: text(v, prefix+"_name"),
		Stock: IntRange{
			Min: parseInt(v.Get(prefix + "_stock_min")),
			Max: parseInt(v.Get(prefix + "_stock_max")),
		},
		UnitCost: parseDecimalRange(v, prefix+"_cost_min", prefix+"_cost_max"),
	}, true
}

type ProductionCriteria struct {
	ID            *int64
	Status        string
	TotalCost     DecimalRange
	CreatedDate   DateRange
	CompletedDate DateRange
	EmployeeName  string
	EmployeeRole  string
	ProductName   string
	LineQuantity  IntRange
}

func ParseProduction(v url.Values) ProductionCriteria {
	return ProductionCriteria{
		ID:            parseID(v.Get("id")),
		Status:        text(v, "status"),
		TotalCost:     parseDecimalRange(v, "total_cost_min", "total_cost_max"),
		CreatedDate:   parseDateRange(v, "created_start_date", "created_end_date"),
		CompletedDate: parseDateRange(v, "completed_start_date", "completed_end_date"),
		EmployeeName:  text(v, "employee_name"),
		EmployeeRole:  text(v, "employee_role"),
		ProductName:   text(v, "product_name"),
		LineQuantity: IntRange{
			Min: parsePositive(v.Get("quantity_min")),
			Max: parsePositive(v.Get("quantity_max")),
		},
	}
}

func text(v url.Values, key string) string {
	return strings.TrimSpace(v.Get(key))
}

// parseID accepts positive integers only; zero means no filter.
func parseID(s string) *int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return nil
	}
	return &n
}

func parseInt(s string) *int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &n
}

func parsePositive(s string) *int {
	n := parseInt(s)
	if n == nil || *n <= 0 {
		return nil
	}
	return n
}

func parseDecimal(s string) *decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil {
		return nil
	}
	return &d
}

func parseDate(s string) *time.Time {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return nil
	}
	return &t
}

func parseDecimalRange(v url.Values, minKey, maxKey string) DecimalRange {
	return DecimalRange{Min: parseDecimal(v.Get(minKey)), Max: parseDecimal(v.Get(maxKey))}
}

func parseDateRange(v url.Values, fromKey, toKey string) DateRange {
	return DateRange{From: parseDate(v.Get(fromKey)), To: parseDate(v.Get(toKey))}
}

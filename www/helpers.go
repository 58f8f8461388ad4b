package www

import (
	"fmt"
	"html/template"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fabrica/store"
)

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"timeAgo": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			d := time.Since(t)
			switch {
			case d < time.Minute:
				return "just now"
			case d < time.Hour:
				m := int(d.Minutes())
				if m == 1 {
					return "1 minute ago"
				}
				return fmt.Sprintf("%d minutes ago", m)
			case d < 24*time.Hour:
				h := int(d.Hours())
				if h == 1 {
					return "1 hour ago"
				}
				return fmt.Sprintf("%d hours ago", h)
			default:
				days := int(d.Hours() / 24)
				if days == 1 {
					return "1 day ago"
				}
				return fmt.Sprintf("%d days ago", days)
			}
		},
		"formatTime": func(t time.Time) string {
			if t.IsZero() {
				return "-"
			}
			return t.Format("2006-01-02 15:04:05")
		},
		"formatDate": func(d store.Date) string {
			if d.IsZero() {
				return "-"
			}
			return d.String()
		},
		"formatDatePtr": func(d *store.Date) string {
			if d == nil || d.IsZero() {
				return "-"
			}
			return d.String()
		},
		"money": func(d decimal.Decimal) string {
			return d.StringFixed(2)
		},
		"moneyNull": func(d decimal.NullDecimal) string {
			if !d.Valid {
				return "-"
			}
			return d.Decimal.StringFixed(2)
		},
		"rating": func(d decimal.NullDecimal) string {
			if !d.Valid {
				return "unrated"
			}
			return d.Decimal.StringFixed(2)
		},
		"statusColor": func(status string) string {
			switch status {
			case store.OrderPending:
				return "badge-pending"
			case store.OrderProcessed:
				return "badge-processed"
			case store.OrderDelivered, store.ProductionCompleted:
				return "badge-done"
			default:
				return ""
			}
		},
		"stockClass": func(stock, threshold int) string {
			switch {
			case stock < 0:
				return "stock-negative"
			case stock < threshold:
				return "stock-low"
			default:
				return ""
			}
		},
		"deltaSign": func(n int) string {
			if n > 0 {
				return fmt.Sprintf("+%d", n)
			}
			return fmt.Sprint(n)
		},
		"kindLabel": func(kind string) string {
			switch kind {
			case store.KindProduct:
				return "Product"
			case store.KindRawMaterial:
				return "Raw material"
			default:
				return kind
			}
		},
		"selected": func(a, b string) template.HTMLAttr {
			if a == b {
				return "selected"
			}
			return ""
		},
		"query": func(v url.Values, key string) string {
			return v.Get(key)
		},
		"upper": strings.ToUpper,
		"lower": strings.ToLower,
		"add": func(a, b int) int {
			return a + b
		},
	}
}

package catalog

import (
	"github.com/xela07ax/securestate/internal/domain"
	"github.com/xela07ax/securestate/internal/notify"
	"github.com/xela07ax/securestate/internal/validation"
)

// Invoice — черновик счета в памяти.
type Invoice struct {
	Items   []domain.InvoiceItem
	GSTRate float64 // в процентах

	notifier notify.Notifier
}

func NewInvoice(n notify.Notifier, gstRate float64) *Invoice {
	if n == nil {
		n = notify.Discard
	}
	return &Invoice{GSTRate: gstRate, notifier: n}
}

// Add добавляет товар; повторное добавление увеличивает количество.
func (inv *Invoice) Add(p domain.Product) {
	for i := range inv.Items {
		if inv.Items[i].Product.ID == p.ID {
			inv.Items[i].Quantity++
			return
		}
	}
	inv.Items = append(inv.Items, domain.InvoiceItem{Product: p, Quantity: 1})
}

// ChangeQuantity сдвигает количество, но не ниже 1.
func (inv *Invoice) ChangeQuantity(productID string, delta int) {
	for i := range inv.Items {
		if inv.Items[i].Product.ID == productID {
			inv.Items[i].Quantity = max(1, inv.Items[i].Quantity+delta)
		}
	}
}

// SetPrice задает цену строки. Недопустимая цена отклоняется с уведомлением.
func (inv *Invoice) SetPrice(productID string, price float64) bool {
	if !validation.Price(price) {
		inv.notifier.Notify(domain.Notification{
			Title:       "Invalid Price",
			Description: "Price must be between ₹0 and ₹999,999.99",
			Severity:    domain.SeverityDestructive,
		})
		return false
	}
	for i := range inv.Items {
		if inv.Items[i].Product.ID == productID {
			p := price
			inv.Items[i].CustomPrice = &p
		}
	}
	return true
}

func (inv *Invoice) Remove(productID string) {
	kept := inv.Items[:0]
	for _, it := range inv.Items {
		if it.Product.ID != productID {
			kept = append(kept, it)
		}
	}
	inv.Items = kept
}

func (inv *Invoice) Totals() (subtotal, gst, total float64) {
	for _, it := range inv.Items {
		subtotal += it.Total()
	}
	gst = subtotal * (inv.GSTRate / 100)
	return subtotal, gst, subtotal + gst
}

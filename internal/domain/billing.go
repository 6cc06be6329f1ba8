package domain

// Product — товарная позиция склада.
type Product struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Price             float64 `json:"price"`
	Stock             float64 `json:"stock"`
	Category          string  `json:"category"`
	SKU               string  `json:"sku"`
	LowStockThreshold float64 `json:"lowStockThreshold"`
}

// IsLowStock сообщает, что остаток дошел до порога пополнения.
func (p Product) IsLowStock() bool {
	return p.Stock <= p.LowStockThreshold
}

// Customer — карточка покупателя. GST необязателен (B2C).
type Customer struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	GST     string `json:"gst,omitempty"`
	IsPrime bool   `json:"isPrime,omitempty"`
}

// InvoiceItem — строка счета. CustomPrice перекрывает цену товара, если задана.
type InvoiceItem struct {
	Product     Product  `json:"product"`
	Quantity    int      `json:"quantity"`
	CustomPrice *float64 `json:"customPrice,omitempty"`
}

// UnitPrice возвращает фактическую цену за единицу.
func (i InvoiceItem) UnitPrice() float64 {
	if i.CustomPrice != nil {
		return *i.CustomPrice
	}
	return i.Product.Price
}

// Total — сумма строки без налогов.
func (i InvoiceItem) Total() float64 {
	return i.UnitPrice() * float64(i.Quantity)
}

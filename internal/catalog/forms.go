// Package catalog — потребители ядра: формы товаров и покупателей, их хранилища и счет.
package catalog

import (
	"github.com/xela07ax/securestate/internal/domain"
	"github.com/xela07ax/securestate/internal/validation"
)

// ProductInput — сырые значения формы товара, как их прислал клиент.
type ProductInput struct {
	Name              string
	Description       string
	Price             string
	Stock             string
	Category          string
	SKU               string
	LowStockThreshold string
}

// CustomerInput — сырые значения формы покупателя. GST необязателен.
type CustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
	GST     string
	IsPrime bool
}

func number(s string) float64 { return validation.SanitizeNumber(s) }

// ValidateProduct проверяет все поля (каждое ошибочное поле дает свое уведомление)
// и возвращает очищенный товар без ID.
func ValidateProduct(o *validation.Orchestrator, in ProductInput) (domain.Product, bool) {
	name := validation.ValidateAndSanitize(o, "name", in.Name, validation.Name, validation.SanitizeText, "")
	sku := validation.ValidateAndSanitize(o, "SKU", in.SKU, validation.SKU, validation.SanitizeText,
		"SKU must be 3-50 alphanumeric characters")
	price := validation.ValidateAndSanitize(o, "price", in.Price, validation.Price, number,
		"Price must be between 0 and 999,999.99")
	stock := validation.ValidateAndSanitize(o, "stock", in.Stock, validation.Quantity, number,
		"Stock must be a positive integer")
	threshold := validation.ValidateAndSanitize(o, "threshold", in.LowStockThreshold, validation.Quantity, number,
		"Threshold must be a positive integer")

	if !name.Valid || !sku.Valid || !price.Valid || !stock.Valid || !threshold.Valid {
		return domain.Product{}, false
	}

	return domain.Product{
		Name:              name.Value,
		Description:       validation.SanitizeText(in.Description),
		Price:             price.Value,
		Stock:             stock.Value,
		Category:          validation.SanitizeText(in.Category),
		SKU:               sku.Value,
		LowStockThreshold: threshold.Value,
	}, true
}

func ValidateCustomer(o *validation.Orchestrator, in CustomerInput) (domain.Customer, bool) {
	name := validation.ValidateAndSanitize(o, "name", in.Name, validation.Name, validation.SanitizeText, "")
	email := validation.ValidateAndSanitize(o, "email", in.Email, validation.Email, validation.SanitizeText,
		"Please enter a valid email address")
	phone := validation.ValidateAndSanitize(o, "phone", in.Phone, validation.IndianPhone, validation.SanitizePhone,
		"Please enter a valid Indian phone number (+91XXXXXXXXXX or 10 digits)")

	gst := validation.Outcome[string]{Valid: true}
	if in.GST != "" {
		gst = validation.ValidateAndSanitize(o, "GST", in.GST, validation.GSTNumber, validation.SanitizeGST,
			"Please enter a valid 15-character GST number")
	}

	if !name.Valid || !email.Valid || !phone.Valid || !gst.Valid {
		return domain.Customer{}, false
	}

	return domain.Customer{
		Name:    name.Value,
		Email:   email.Value,
		Phone:   phone.Value,
		Address: validation.SanitizeText(in.Address),
		GST:     gst.Value,
		IsPrime: in.IsPrime,
	}, true
}

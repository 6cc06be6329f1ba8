package domain

// FieldKind — семантический тип поля формы, по которому выбирается правило валидации.
type FieldKind string

const (
	FieldEmail    FieldKind = "email"
	FieldPhone    FieldKind = "phone"    // Индийский мобильный номер (10 цифр)
	FieldTaxID    FieldKind = "tax-id"   // GSTIN, 15 символов
	FieldPrice    FieldKind = "price"    // 0 … 999999.99
	FieldQuantity FieldKind = "quantity" // Целое 0 … 99999
	FieldSKU      FieldKind = "sku"
	FieldName     FieldKind = "name"
)

// Severity определяет вариант отображения уведомления в UI.
type Severity string

const (
	SeverityDefault     Severity = "default"
	SeverityDestructive Severity = "destructive"
)

// Notification — пользовательское сообщение (toast). Рендеринг не наша забота.
type Notification struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
}

// Package codec реализует обратимую обфускацию значений для хранилища.
//
// Это НЕ шифрование: XOR с циклическим ключом + base64 лишь скрывает данные от
// случайного взгляда. Смена ключа делает ранее сохраненные значения нечитаемыми.
package codec

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/xela07ax/securestate/internal/audit"
)

// DefaultKey совместим с уже сохраненными клиентскими записями (ASCII JSON кодируется одинаково).
const DefaultKey = "lovable-secure-2024"

var ErrEmptyKey = errors.New("codec: key must not be empty")

// Codec — ключ на уровне процесса, только чтение после старта.
type Codec struct {
	key   []byte
	audit *audit.Logger
}

func New(key []byte, a *audit.Logger) (*Codec, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKey
	}
	k := make([]byte, len(key))
	copy(k, key)
	return &Codec{key: k, audit: a}, nil
}

// Encode сериализует v в JSON, смешивает байты с ключом и кодирует в base64 без переносов.
// Никогда не паникует: при сбое сериализации пишет "null" и журналирует событие.
func (c *Codec) Encode(v any) (text string) {
	defer func() {
		if r := recover(); r != nil {
			c.audit.SuspiciousInput("encryption", 0, fmt.Sprintf("encode panic: %T", r))
			text = "null"
		}
	}()

	data, err := json.Marshal(v)
	if err != nil {
		// Обычный JSON получить тоже нельзя: сериализация и есть сбойный этап
		c.audit.SuspiciousInput("encryption", 0, "Failed to encrypt data")
		return "null"
	}
	return base64.StdEncoding.EncodeToString(c.mix(data))
}

// Decode возвращает канонический JSON. Порядок: base64 -> XOR -> проверка JSON;
// при сбое любой стадии text пробуется как необфусцированный JSON (старые/смешанные записи).
// ok == false — ничего пригодного нет.
func (c *Codec) Decode(text string) (json.RawMessage, bool) {
	if raw, err := c.unmix(text); err == nil {
		return raw, true
	}
	c.audit.SuspiciousInput("decryption", utf8.RuneCountInString(text), "Failed to decrypt data")

	if json.Valid([]byte(text)) {
		return json.RawMessage(text), true
	}
	c.audit.SuspiciousInput("decryption", utf8.RuneCountInString(text), "Stored value is neither obfuscated nor plain JSON")
	return nil, false
}

// DecodeInto декодирует text и разбирает результат в out.
func (c *Codec) DecodeInto(text string, out any) bool {
	raw, ok := c.Decode(text)
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (c *Codec) unmix(text string) (json.RawMessage, error) {
	data, err := base64.StdEncoding.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("codec: base64: %w", err)
	}
	plain := c.mix(data)
	if !json.Valid(plain) {
		return nil, errors.New("codec: payload is not valid JSON")
	}
	return plain, nil
}

// mix — XOR с ключом, ключ повторяется циклически. Операция сама себе обратна.
func (c *Codec) mix(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ c.key[i%len(c.key)]
	}
	return out
}

package store

import (
	"bytes"
	"encoding"
	"encoding/json"
	"reflect"
)

// jsonKind — грубый тег типа JSON-значения. Дрейф определяется сравнением тегов,
// структура внутри одного тега не проверяется.
type jsonKind uint8

const (
	kindAny jsonKind = iota
	kindNull
	kindBool
	kindNumber
	kindString
	kindArray
	kindObject
)

var (
	marshalerType     = reflect.TypeOf((*json.Marshaler)(nil)).Elem()
	textMarshalerType = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	jsonNumberType    = reflect.TypeOf(json.Number(""))
)

// shape — ожидаемый тег для типа T и допустимость null.
type shape struct {
	kind     jsonKind
	nullable bool
}

func shapeOf(t reflect.Type) shape {
	switch t.Kind() {
	case reflect.Pointer:
		return shape{kind: kindOf(t.Elem()), nullable: true}
	case reflect.Interface:
		return shape{kind: kindAny, nullable: true}
	case reflect.Slice, reflect.Map:
		// nil-срез и nil-map сериализуются в null
		return shape{kind: kindOf(t), nullable: true}
	}
	return shape{kind: kindOf(t)}
}

func kindOf(t reflect.Type) jsonKind {
	if t == jsonNumberType {
		return kindNumber
	}
	// Собственная сериализация: форму заранее не знаем
	if t.Implements(marshalerType) || reflect.PointerTo(t).Implements(marshalerType) {
		return kindAny
	}
	if t.Implements(textMarshalerType) || reflect.PointerTo(t).Implements(textMarshalerType) {
		return kindString
	}

	switch t.Kind() {
	case reflect.Bool:
		return kindBool
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return kindNumber
	case reflect.String:
		return kindString
	case reflect.Slice:
		if t.Elem().Kind() == reflect.Uint8 {
			return kindString // []byte -> base64
		}
		return kindArray
	case reflect.Array:
		return kindArray
	case reflect.Map, reflect.Struct:
		return kindObject
	case reflect.Pointer:
		return kindOf(t.Elem())
	}
	return kindAny
}

func rawKind(raw []byte) jsonKind {
	raw = bytes.TrimLeft(raw, " \t\r\n")
	if len(raw) == 0 {
		return kindNull
	}
	switch raw[0] {
	case '"':
		return kindString
	case '[':
		return kindArray
	case '{':
		return kindObject
	case 't', 'f':
		return kindBool
	case 'n':
		return kindNull
	}
	return kindNumber
}

func (s shape) accepts(raw []byte) bool {
	got := rawKind(raw)
	if got == kindNull {
		return s.nullable
	}
	return s.kind == kindAny || s.kind == got
}

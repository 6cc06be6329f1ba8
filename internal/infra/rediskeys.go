package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "securestate"
)

// RedisStatePrefix — префикс ключей клиентского состояния: <ns>:state:<key>
func RedisStatePrefix(namespace string) string {
	return namespace + ":state:"
}

// RedisChanStateChanged — канал Pub/Sub, в который публикуется ключ после каждой записи.
func RedisChanStateChanged(namespace string) string {
	return namespace + ":state:changed"
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/xela07ax/securestate/internal/audit"
)

// Количество колонок в таблице security_audit
const auditColumns = 8

type AuditRepo struct {
	db *sql.DB
}

func NewAuditRepo(db *sql.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

// WriteBatch — пакетная вставка для audit.Trail. Сырые значения полей сюда не попадают, только длины.
func (r *AuditRepo) WriteBatch(ctx context.Context, records []audit.Record) error {
	if len(records) == 0 {
		return nil
	}

	var sb strings.Builder
	vals := make([]interface{}, 0, len(records)*auditColumns)

	// Динамически строим запрос для пакетной вставки
	for i, rec := range records {
		if i > 0 {
			sb.WriteString(", ")
		}
		p := i * auditColumns
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			p+1, p+2, p+3, p+4, p+5, p+6, p+7, p+8)

		vals = append(vals,
			rec.ID, string(rec.Kind), rec.Field, rec.ValueLength,
			rec.Reason, rec.Operation, rec.SubjectType, rec.Timestamp,
		)
	}

	query := "INSERT INTO security_audit (id, kind, field, value_length, reason, operation, subject_type, created_at) VALUES " + sb.String()

	if _, err := r.db.ExecContext(ctx, query, vals...); err != nil {
		return fmt.Errorf("postgres: failed to write audit batch: %w", err)
	}
	return nil
}

package repository

import (
	"strings"

	"github.com/jmoiron/sqlx"

	"SlinkyTA/internal/domain/models"
)

const signalColumns = "id, asset, pattern, entry, sl, tp1, tp2, confidence, detected_at"

// buildListQuery renders a newest-first SELECT for q using the given bind style.
func buildListQuery(table, columns string, q models.SignalQuery, bind int) (string, []interface{}) {
	var (
		where []string
		args  []interface{}
	)
	if q.Asset != "" {
		where = append(where, "asset = ?")
		args = append(args, q.Asset)
	}
	if q.Pattern != "" {
		where = append(where, "pattern = ?")
		args = append(args, q.Pattern)
	}
	if !q.Since.IsZero() {
		where = append(where, "detected_at >= ?")
		args = append(args, q.Since.UTC())
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(columns)
	sb.WriteString(" FROM ")
	sb.WriteString(table)
	if len(where) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(where, " AND "))
	}
	sb.WriteString(" ORDER BY detected_at DESC, id DESC")
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}
	return sqlx.Rebind(bind, sb.String()), args
}

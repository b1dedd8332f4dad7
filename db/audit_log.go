package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/causewayhq/causeway"
	"github.com/jackc/pgx/v5"
)

type auditLog struct {
	ID        int       `db:"id"`
	LogTime   time.Time `db:"logged_at"`
	SystemLog bool      `db:"system_log"`
	Message   string    `db:"msg"`
}

const auditLogCreateQuery = `INSERT INTO audit_logs (
	system_log, msg
) VALUES (
	$1, $2
) RETURNING id;`

func (s *DB) CreateAuditLog(ctx context.Context, msg string, system bool) (int, error) {
	var id int
	err := s.conn.QueryRow(ctx, auditLogCreateQuery, system, strings.TrimSpace(msg)).Scan(&id)
	return id, err
}

func (s *DB) AuditLogs(ctx context.Context, limit, offset int) ([]*causeway.AuditLog, error) {
	rows, err := s.conn.Query(ctx, "SELECT * FROM audit_logs ORDER BY logged_at DESC, id DESC "+FormatLimitOffset(limit, offset))
	if errors.Is(err, pgx.ErrNoRows) {
		return []*causeway.AuditLog{}, nil
	} else if err != nil {
		return nil, err
	}

	logs, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[auditLog])
	if err != nil {
		return nil, err
	}

	realLogs := make([]*causeway.AuditLog, len(logs))
	for i, log := range logs {
		realLogs[i] = &causeway.AuditLog{
			ID:        log.ID,
			LogTime:   log.LogTime,
			SystemLog: log.SystemLog,
			Message:   log.Message,
		}
	}
	return realLogs, nil
}

func (s *DB) AuditLogCount(ctx context.Context) (int, error) {
	var cnt int
	err := s.conn.QueryRow(ctx, "SELECT COUNT(id) FROM audit_logs").Scan(&cnt)
	return cnt, err
}

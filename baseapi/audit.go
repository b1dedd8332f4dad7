package baseapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/internal/config"
)

var UpdatesWebhook = config.GenFlag("admin.updates_webhook", "", "Webhook URL mirroring audit log entries")

type logEntry struct {
	Message string
	System  bool
}

func (s *BaseAPI) LogSystemAction(ctx context.Context, msg string) {
	s.logChan <- &logEntry{
		Message: msg,
		System:  true,
	}
}

func (s *BaseAPI) LogUserAction(ctx context.Context, msg string, args ...any) {
	s.logChan <- &logEntry{
		Message: fmt.Sprintf(msg, args...),
		System:  false,
	}
}

func (s *BaseAPI) GetAuditLogs(ctx context.Context, count int, offset int) ([]*causeway.AuditLog, error) {
	logs, err := s.db.AuditLogs(ctx, count, offset)
	if err != nil {
		return nil, fmt.Errorf("Couldn't fetch audit logs: %w", err)
	}
	return logs, nil
}

func (s *BaseAPI) GetLogCount(ctx context.Context) (int, error) {
	cnt, err := s.db.AuditLogCount(ctx)
	if err != nil {
		return -1, fmt.Errorf("Couldn't get audit log count: %w", err)
	}
	return cnt, nil
}

func (s *BaseAPI) ingestAuditLogs(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if !errors.Is(ctx.Err(), context.Canceled) {
				return ctx.Err()
			}
			return nil
		case val := <-s.logChan:
			if _, err := s.db.CreateAuditLog(ctx, val.Message, val.System); err != nil {
				slog.WarnContext(ctx, "Couldn't store audit log entry to database", slog.Any("err", err))
			}

			msg := "Action: " + val.Message
			if val.System {
				msg = "Action (system): " + val.Message
			}

			slog.InfoContext(ctx, msg)
			if UpdatesWebhook.Value() != "" {
				vals := make(url.Values)
				vals.Add("content", msg)
				vals.Add("username", "Causeway Audit Log")
				if _, err := http.PostForm(UpdatesWebhook.Value(), vals); err != nil {
					slog.WarnContext(ctx, "Couldn't mirror audit entry to webhook", slog.Any("err", err))
				}
			}
		}
	}
}

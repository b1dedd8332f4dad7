package baseapi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/integrations/mailchimp"
	"github.com/causewayhq/causeway/internal/secrets"
	"github.com/causewayhq/causeway/payment"
)

// BaseAPI glues the storage layer, payment gateways and integrations behind
// the operations the HTTP handlers call.
type BaseAPI struct {
	db     causeway.DB
	mailer causeway.Mailer

	stripe payment.Gateway
	paypal payment.Gateway

	mailchimp *mailchimp.Client

	logChan chan *logEntry

	dSess *discordgo.Session
}

func New(db causeway.DB, mailer causeway.Mailer, src *secrets.Source) *BaseAPI {
	return &BaseAPI{
		db:     db,
		mailer: mailer,

		stripe: payment.NewStripeGateway(src),
		paypal: payment.NewPayPalGateway(src),

		mailchimp: mailchimp.NewClient(src),

		logChan: make(chan *logEntry, 50),
	}
}

func (s *BaseAPI) Start(ctx context.Context) {
	if err := s.initDiscord(ctx); err != nil {
		slog.WarnContext(ctx, "Could not initialize Discord", slog.Any("err", err))
	}
	go s.ingestAuditLogs(ctx)
}

func (s *BaseAPI) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("couldn't close DB: %w", err)
	}

	if s.dSess != nil {
		if err := s.dSess.Close(); err != nil {
			return fmt.Errorf("couldn't close Discord session: %w", err)
		}
	}

	return nil
}

package causeway

import (
	"context"
	"time"
)

type DB interface {
	// DonationService
	AddDonation(ctx context.Context, donation *Donation) error
	Donations(ctx context.Context) ([]*Donation, error)
	CancelSubscription(ctx context.Context, transactionID string, at time.Time) error

	// PetitionService
	CreatePetition(ctx context.Context, petition *Petition) error
	PetitionBySlug(ctx context.Context, slug string) (*Petition, error)

	AddSignature(ctx context.Context, sig *Signature) error
	SignatureExists(ctx context.Context, petitionID int, email string) (bool, error)
	SignatureCount(ctx context.Context, petitionID int) (int, error)

	// AuditService
	CreateAuditLog(ctx context.Context, msg string, system bool) (int, error)
	AuditLogs(ctx context.Context, limit, offset int) ([]*AuditLog, error)
	AuditLogCount(ctx context.Context) (int, error)

	Close() error
}

package baseapi

import (
	"context"
	"strings"
	"time"

	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/integrations/mailchimp"
)

// fakeDB is an in-memory causeway.DB for service tests.
type fakeDB struct {
	donations  []*causeway.Donation
	petitions  []*causeway.Petition
	signatures []*causeway.Signature
	auditLogs  []*causeway.AuditLog
}

func (f *fakeDB) AddDonation(ctx context.Context, d *causeway.Donation) error {
	d.ID = len(f.donations) + 1
	f.donations = append(f.donations, d)
	return nil
}

func (f *fakeDB) Donations(ctx context.Context) ([]*causeway.Donation, error) {
	return f.donations, nil
}

func (f *fakeDB) CancelSubscription(ctx context.Context, transactionID string, at time.Time) error {
	for _, d := range f.donations {
		if d.TransactionID == transactionID {
			t := at
			d.CancelledAt = &t
		}
	}
	return nil
}

func (f *fakeDB) CreatePetition(ctx context.Context, p *causeway.Petition) error {
	p.ID = len(f.petitions) + 1
	f.petitions = append(f.petitions, p)
	return nil
}

func (f *fakeDB) PetitionBySlug(ctx context.Context, slug string) (*causeway.Petition, error) {
	for _, p := range f.petitions {
		if p.Slug == slug {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakeDB) AddSignature(ctx context.Context, sig *causeway.Signature) error {
	sig.ID = len(f.signatures) + 1
	f.signatures = append(f.signatures, sig)
	return nil
}

func (f *fakeDB) SignatureExists(ctx context.Context, petitionID int, email string) (bool, error) {
	for _, sig := range f.signatures {
		if sig.PetitionID == petitionID && strings.EqualFold(sig.Email, email) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDB) SignatureCount(ctx context.Context, petitionID int) (int, error) {
	var cnt int
	for _, sig := range f.signatures {
		if sig.PetitionID == petitionID {
			cnt++
		}
	}
	return cnt, nil
}

func (f *fakeDB) CreateAuditLog(ctx context.Context, msg string, system bool) (int, error) {
	log := &causeway.AuditLog{ID: len(f.auditLogs) + 1, LogTime: time.Now(), SystemLog: system, Message: msg}
	f.auditLogs = append(f.auditLogs, log)
	return log.ID, nil
}

func (f *fakeDB) AuditLogs(ctx context.Context, limit, offset int) ([]*causeway.AuditLog, error) {
	return f.auditLogs, nil
}

func (f *fakeDB) AuditLogCount(ctx context.Context) (int, error) {
	return len(f.auditLogs), nil
}

func (f *fakeDB) Close() error { return nil }

// fakeGateway returns a canned outcome and remembers the last request.
type fakeGateway struct {
	outcome *causeway.PaymentOutcome
	lastReq *causeway.DonationRequest
	calls   int
}

func (f *fakeGateway) Attempt(ctx context.Context, req *causeway.DonationRequest) *causeway.PaymentOutcome {
	f.calls++
	f.lastReq = req
	return f.outcome
}

func newTestBase(db *fakeDB, stripe, paypal *fakeGateway) *BaseAPI {
	return &BaseAPI{
		db:        db,
		stripe:    stripe,
		paypal:    paypal,
		mailchimp: mailchimp.NewClient(nil),
		logChan:   make(chan *logEntry, 50),
	}
}

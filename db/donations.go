package db

import (
	"context"
	"time"

	"github.com/causewayhq/causeway"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

type donation struct {
	ID        int       `db:"id"`
	DonatedAt time.Time `db:"donated_at"`

	DonorName string          `db:"donor_name"`
	Email     string          `db:"email"`
	Amount    decimal.Decimal `db:"amount"`
	Currency  string          `db:"currency"`

	Source causeway.DonationSource    `db:"source"`
	Type   causeway.DonationFrequency `db:"type"`

	CampaignID string `db:"campaign_id"`

	TransactionID string     `db:"transaction_id"`
	CancelledAt   *time.Time `db:"cancelled_at"`
}

func (s *DB) AddDonation(ctx context.Context, d *causeway.Donation) error {
	var id int
	err := s.conn.QueryRow(ctx,
		"INSERT INTO donations (donated_at, donor_name, email, amount, currency, source, type, campaign_id, transaction_id, cancelled_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id",
		d.DonatedAt, d.DonorName, d.Email, d.Amount, d.Currency, d.Source, d.Type, d.CampaignID, d.TransactionID, d.CancelledAt,
	).Scan(&id)
	if err == nil {
		d.ID = id
	}
	return err
}

func (s *DB) CancelSubscription(ctx context.Context, transactionID string, at time.Time) error {
	_, err := s.conn.Exec(ctx, "UPDATE donations SET cancelled_at = $1 WHERE transaction_id = $2", at, transactionID)
	return err
}

func (s *DB) Donations(ctx context.Context) ([]*causeway.Donation, error) {
	rows, _ := s.conn.Query(ctx, "SELECT * FROM donations ORDER BY donated_at DESC")
	donations, err := pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[donation])
	if err != nil {
		return nil, err
	}

	rez := make([]*causeway.Donation, len(donations))
	for i, d := range donations {
		rez[i] = internalToDonation(d)
	}
	return rez, nil
}

func internalToDonation(d *donation) *causeway.Donation {
	return &causeway.Donation{
		ID:        d.ID,
		DonatedAt: d.DonatedAt,
		DonorName: d.DonorName,
		Email:     d.Email,
		Amount:    d.Amount,
		Currency:  d.Currency,

		Source:     d.Source,
		Type:       d.Type,
		CampaignID: d.CampaignID,

		TransactionID: d.TransactionID,
		CancelledAt:   d.CancelledAt,
	}
}

package db

import (
	"context"
	"errors"
	"time"

	"github.com/causewayhq/causeway"
	"github.com/jackc/pgx/v5"
)

type petition struct {
	ID        int       `db:"id"`
	CreatedAt time.Time `db:"created_at"`
	Title     string    `db:"title"`
	Slug      string    `db:"slug"`
	Goal      int       `db:"goal"`
	Closed    bool      `db:"closed"`
}

func (s *DB) CreatePetition(ctx context.Context, p *causeway.Petition) error {
	var id int
	err := s.conn.QueryRow(ctx,
		"INSERT INTO petitions (title, slug, goal, closed) VALUES ($1, $2, $3, $4) RETURNING id",
		p.Title, p.Slug, p.Goal, p.Closed,
	).Scan(&id)
	if err == nil {
		p.ID = id
	}
	return err
}

func (s *DB) PetitionBySlug(ctx context.Context, slug string) (*causeway.Petition, error) {
	rows, _ := s.conn.Query(ctx, "SELECT * FROM petitions WHERE slug = $1 LIMIT 1", slug)
	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[petition])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return &causeway.Petition{
		ID: p.ID, CreatedAt: p.CreatedAt,
		Title: p.Title, Slug: p.Slug, Goal: p.Goal, Closed: p.Closed,
	}, nil
}

func (s *DB) AddSignature(ctx context.Context, sig *causeway.Signature) error {
	var id int
	err := s.conn.QueryRow(ctx,
		"INSERT INTO petition_signatures (petition_id, first_name, last_name, email, comment, opt_in) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		sig.PetitionID, sig.FirstName, sig.LastName, sig.Email, sig.Comment, sig.OptIn,
	).Scan(&id)
	if err == nil {
		sig.ID = id
	}
	return err
}

func (s *DB) SignatureExists(ctx context.Context, petitionID int, email string) (bool, error) {
	var exists bool
	err := s.conn.QueryRow(ctx,
		"SELECT EXISTS (SELECT 1 FROM petition_signatures WHERE petition_id = $1 AND lower(email) = lower($2))",
		petitionID, email,
	).Scan(&exists)
	return exists, err
}

func (s *DB) SignatureCount(ctx context.Context, petitionID int) (int, error) {
	var cnt int
	err := s.conn.QueryRow(ctx, "SELECT COUNT(id) FROM petition_signatures WHERE petition_id = $1", petitionID).Scan(&cnt)
	return cnt, err
}

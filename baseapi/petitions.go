package baseapi

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/integrations/prometheus"
	"github.com/gosimple/slug"
)

var (
	ErrPetitionClosed = causeway.Statusf(400, "This petition is closed")
	ErrAlreadySigned  = causeway.Statusf(400, "You have already signed this petition")
)

func (s *BaseAPI) PetitionBySlug(ctx context.Context, slug string) (*causeway.Petition, error) {
	pet, err := s.db.PetitionBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("Couldn't get petition: %w", err)
	}
	if pet == nil {
		return nil, causeway.ErrNotFound
	}
	return pet, nil
}

// CreatePetition stores a new petition. The slug is derived from the title
// when absent, and normalized otherwise, so every petition is addressable.
func (s *BaseAPI) CreatePetition(ctx context.Context, pet *causeway.Petition) error {
	if pet.Slug == "" {
		pet.Slug = slug.Make(pet.Title)
	} else {
		pet.Slug = slug.Make(pet.Slug)
	}
	if pet.Slug == "" {
		return causeway.Statusf(400, "Petition title can't be empty")
	}
	if err := s.db.CreatePetition(ctx, pet); err != nil {
		return fmt.Errorf("Couldn't create petition: %w", err)
	}
	s.LogSystemAction(ctx, fmt.Sprintf("Petition %q (%s) created", pet.Title, pet.Slug))
	return nil
}

// SignPetition validates the petition state, rejects duplicate signatures by
// email and records the new one. The audience opt-in is best-effort.
func (s *BaseAPI) SignPetition(ctx context.Context, slug string, sig *causeway.Signature) error {
	pet, err := s.PetitionBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if pet.Closed {
		return ErrPetitionClosed
	}

	exists, err := s.db.SignatureExists(ctx, pet.ID, sig.Email)
	if err != nil {
		return fmt.Errorf("Couldn't check for existing signature: %w", err)
	}
	if exists {
		return ErrAlreadySigned
	}

	sig.PetitionID = pet.ID
	if err := s.db.AddSignature(ctx, sig); err != nil {
		return fmt.Errorf("Couldn't add signature: %w", err)
	}

	prometheus.PetitionSignatures.Inc()
	s.LogUserAction(ctx, "New signature for petition %q by %s", pet.Title, sig.Email)

	if sig.OptIn {
		if err := s.mailchimp.Subscribe(ctx, sig.Email, sig.FirstName, sig.LastName); err != nil {
			slog.WarnContext(ctx, "Couldn't sync signer to Mailchimp", slog.Any("err", err))
		}
	}

	return nil
}

func (s *BaseAPI) SignatureCount(ctx context.Context, slug string) (int, error) {
	pet, err := s.PetitionBySlug(ctx, slug)
	if err != nil {
		return -1, err
	}
	cnt, err := s.db.SignatureCount(ctx, pet.ID)
	if err != nil {
		return -1, fmt.Errorf("Couldn't count signatures: %w", err)
	}
	return cnt, nil
}

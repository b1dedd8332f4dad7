package baseapi

import (
	"context"
	"errors"
	"testing"

	"github.com/causewayhq/causeway"
	"github.com/matryer/is"
)

func testPetition(t *testing.T, db *fakeDB, base *BaseAPI) *causeway.Petition {
	t.Helper()
	pet := &causeway.Petition{
		Slug:  "save-the-wetlands",
		Title: "Save the Wetlands",
	}
	if err := base.CreatePetition(context.Background(), pet); err != nil {
		t.Fatal(err)
	}
	return pet
}

func TestSignPetition(t *testing.T) {
	is := is.New(t)

	db := &fakeDB{}
	base := newTestBase(db, &fakeGateway{}, &fakeGateway{})
	pet := testPetition(t, db, base)

	sig := &causeway.Signature{
		FirstName: "Grace",
		LastName:  "Hopper",
		Email:     "grace@example.com",
	}
	is.NoErr(base.SignPetition(context.Background(), pet.Slug, sig))
	is.Equal(len(db.signatures), 1)
	is.Equal(db.signatures[0].PetitionID, pet.ID)

	cnt, err := base.SignatureCount(context.Background(), pet.Slug)
	is.NoErr(err)
	is.Equal(cnt, 1)
}

func TestSignPetitionDuplicate(t *testing.T) {
	is := is.New(t)

	db := &fakeDB{}
	base := newTestBase(db, &fakeGateway{}, &fakeGateway{})
	pet := testPetition(t, db, base)

	sig := &causeway.Signature{FirstName: "Grace", Email: "grace@example.com"}
	is.NoErr(base.SignPetition(context.Background(), pet.Slug, sig))

	// same address with different casing is still a duplicate
	dup := &causeway.Signature{FirstName: "Grace", Email: "GRACE@example.com"}
	err := base.SignPetition(context.Background(), pet.Slug, dup)
	is.True(errors.Is(err, ErrAlreadySigned))
	is.Equal(len(db.signatures), 1)
}

func TestSignPetitionClosed(t *testing.T) {
	is := is.New(t)

	db := &fakeDB{}
	base := newTestBase(db, &fakeGateway{}, &fakeGateway{})
	pet := testPetition(t, db, base)
	pet.Closed = true

	sig := &causeway.Signature{FirstName: "Grace", Email: "grace@example.com"}
	err := base.SignPetition(context.Background(), pet.Slug, sig)
	is.True(errors.Is(err, ErrPetitionClosed))
	is.Equal(len(db.signatures), 0)
}

func TestCreatePetitionSlug(t *testing.T) {
	is := is.New(t)

	db := &fakeDB{}
	base := newTestBase(db, &fakeGateway{}, &fakeGateway{})

	// derived from the title when absent
	pet := &causeway.Petition{Title: "Save the Wetlands!"}
	is.NoErr(base.CreatePetition(context.Background(), pet))
	is.Equal(pet.Slug, "save-the-wetlands")

	// a provided slug is normalized, not trusted
	pet = &causeway.Petition{Title: "Ban Single-Use Plastics", Slug: "Ban Plastics ĂÎȘ"}
	is.NoErr(base.CreatePetition(context.Background(), pet))
	is.Equal(pet.Slug, "ban-plastics-ais")

	// nothing to derive a slug from
	err := base.CreatePetition(context.Background(), &causeway.Petition{Title: "!!!"})
	is.True(err != nil)
	is.Equal(causeway.ErrorCode(err), 400)
}

func TestSignPetitionNotFound(t *testing.T) {
	is := is.New(t)

	db := &fakeDB{}
	base := newTestBase(db, &fakeGateway{}, &fakeGateway{})

	sig := &causeway.Signature{FirstName: "Grace", Email: "grace@example.com"}
	err := base.SignPetition(context.Background(), "no-such-petition", sig)
	is.True(errors.Is(err, causeway.ErrNotFound))
}

package causeway

import "time"

type Petition struct {
	ID        int       `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Title string `json:"title"`
	Slug  string `json:"slug"`
	Goal  int    `json:"goal"`

	Closed bool `json:"closed"`
}

type Signature struct {
	ID       int       `json:"id"`
	SignedAt time.Time `json:"signed_at"`

	PetitionID int `json:"petition_id"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Comment   string `json:"comment"`

	// OptIn marks that the signer asked to be added to the mailing list.
	OptIn bool `json:"opt_in"`
}

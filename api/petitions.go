package api

import (
	"net/http"

	"github.com/causewayhq/causeway"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/go-chi/chi/v5"
)

func (s *API) signPetition(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	var form signatureForm
	if err := decoder.Decode(&form, r.Form); err != nil {
		s.signatureError(w, r, err)
		return
	}
	if err := form.Validate(); err != nil {
		s.signatureError(w, r, err)
		return
	}

	if err := s.base.SignPetition(r.Context(), chi.URLParam(r, "pSlug"), form.toSignature()); err != nil {
		s.signatureError(w, r, err)
		return
	}

	if isAJAX(r) {
		returnData(w, "Thank you for signing!")
		return
	}
	redirectBack(w, r, "petition_success")
}

func (s *API) signatureError(w http.ResponseWriter, r *http.Request, err error) {
	if !isAJAX(r) {
		redirectBack(w, r, "petition_error")
		return
	}
	if verrs, ok := err.(validation.Errors); ok {
		errorData(w, validationResponse{
			Message: "Please correct the highlighted fields",
			Errors:  verrs,
		}, http.StatusBadRequest)
		return
	}
	statusError(w, err)
}

type petitionForm struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Goal  int    `json:"goal"`
}

func (f petitionForm) Validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&f.Goal, validation.Min(0)),
	)
}

func (s *API) createPetition(w http.ResponseWriter, r *http.Request) {
	r.ParseForm()
	var form petitionForm
	if err := decoder.Decode(&form, r.Form); err != nil {
		errorData(w, err, http.StatusBadRequest)
		return
	}
	if err := form.Validate(); err != nil {
		errorData(w, err, http.StatusBadRequest)
		return
	}

	pet := &causeway.Petition{
		Title: clean(form.Title),
		Slug:  form.Slug,
		Goal:  form.Goal,
	}
	if err := s.base.CreatePetition(r.Context(), pet); err != nil {
		statusError(w, err)
		return
	}
	returnData(w, pet)
}

func (s *API) signatureCount(w http.ResponseWriter, r *http.Request) {
	cnt, err := s.base.SignatureCount(r.Context(), chi.URLParam(r, "pSlug"))
	if err != nil {
		statusError(w, err)
		return
	}
	returnData(w, cnt)
}

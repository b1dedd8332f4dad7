package api

import (
	"net/http"

	"github.com/causewayhq/causeway/baseapi"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/schema"
)

var decoder *schema.Decoder

func init() {
	decoder = schema.NewDecoder()
	decoder.SetAliasTag("json")
	decoder.IgnoreUnknownKeys(true)
}

type API struct {
	base *baseapi.BaseAPI
}

// New declares a new API instance
func New(base *baseapi.BaseAPI) *API {
	return &API{base}
}

func (s *API) Handler() http.Handler {
	r := chi.NewRouter()

	r.Route("/donations", func(r chi.Router) {
		r.Post("/", s.createDonation)
		r.Post("/form", s.createDonationForm)
	})

	r.Route("/petitions", func(r chi.Router) {
		r.Route("/{pSlug}", func(r chi.Router) {
			r.Post("/sign", s.signPetition)
			r.Get("/signatureCount", s.signatureCount)
		})
	})

	r.Post("/webhooks/provider", s.providerEvent)

	r.Route("/admin", func(r chi.Router) {
		r.Post("/petitions", s.createPetition)
		r.Get("/auditLogs", s.getAuditLogs)
		r.Get("/logCount", s.getLogCount)
	})

	return r
}

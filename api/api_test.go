package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/causewayhq/causeway"
	"github.com/causewayhq/causeway/baseapi"
	"github.com/matryer/is"
)

// fakeDB backs the handler tests with in-memory storage.
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

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, db *fakeDB) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(baseapi.New(db, nil, nil)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func postForm(t *testing.T, srv *httptest.Server, path string, vals url.Values, ajax bool) (*http.Response, envelope) {
	t.Helper()
	req, err := http.NewRequest("POST", srv.URL+path, strings.NewReader(vals.Encode()))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if ajax {
		req.Header.Set("X-Requested-With", "XMLHttpRequest")
	}
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env envelope
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			t.Fatal(err)
		}
	}
	return resp, env
}

func TestCreateDonationValidationEnvelope(t *testing.T) {
	is := is.New(t)

	srv := newTestServer(t, &fakeDB{})
	resp, env := postForm(t, srv, "/donations", url.Values{
		"first_name": {"Ada"},
		"last_name":  {"Lovelace"},
		"email":      {"not-an-email"},
		"amount":     {"0.10"},
		"frequency":  {"onetime"},
	}, true)

	is.Equal(resp.StatusCode, 400)
	is.Equal(env.Status, "error")

	var body struct {
		Message string            `json:"message"`
		Errors  map[string]string `json:"errors"`
	}
	is.NoErr(json.Unmarshal(env.Data, &body))
	is.True(body.Errors["email"] != "")
	is.True(body.Errors["amount"] != "")
	is.True(body.Errors["payment_method"] != "")
}

func TestSignPetitionHandler(t *testing.T) {
	is := is.New(t)

	db := &fakeDB{petitions: []*causeway.Petition{{ID: 1, Slug: "save-the-wetlands", Title: "Save the Wetlands"}}}
	srv := newTestServer(t, db)

	vals := url.Values{
		"first_name": {"Grace"},
		"last_name":  {"Hopper"},
		"email":      {"grace@example.com"},
	}
	resp, env := postForm(t, srv, "/petitions/save-the-wetlands/sign", vals, true)
	is.Equal(resp.StatusCode, 200)
	is.Equal(env.Status, "success")
	is.Equal(len(db.signatures), 1)

	// signing twice with the same address is rejected
	resp, env = postForm(t, srv, "/petitions/save-the-wetlands/sign", vals, true)
	is.Equal(resp.StatusCode, 400)
	is.Equal(env.Status, "error")
	is.Equal(len(db.signatures), 1)

	// unknown petition
	resp, _ = postForm(t, srv, "/petitions/no-such/sign", vals, true)
	is.Equal(resp.StatusCode, 404)
}

func TestSignPetitionRedirect(t *testing.T) {
	is := is.New(t)

	db := &fakeDB{petitions: []*causeway.Petition{{ID: 1, Slug: "save-the-wetlands"}}}
	api := New(baseapi.New(db, nil, nil))

	vals := url.Values{
		"first_name": {"Grace"},
		"last_name":  {"Hopper"},
		"email":      {"grace@example.com"},
	}
	req := httptest.NewRequest("POST", "/petitions/save-the-wetlands/sign", strings.NewReader(vals.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "https://example.org/petitions/save-the-wetlands?tab=sign")

	w := httptest.NewRecorder()
	api.Handler().ServeHTTP(w, req)

	is.Equal(w.Code, 302)
	loc, err := url.Parse(w.Header().Get("Location"))
	is.NoErr(err)
	is.Equal(loc.Query().Get("petition_success"), "1")
	is.Equal(loc.Query().Get("tab"), "sign")
}

func TestDonationRedirectFlags(t *testing.T) {
	is := is.New(t)

	is.Equal(donationFlag(causeway.OutcomeSucceeded), "donation_success")
	// a pending authentication challenge is reported as pending, not as a
	// failure that hasn't happened
	is.Equal(donationFlag(causeway.OutcomeRequiresAction), "donation_pending")
	is.Equal(donationFlag(causeway.OutcomeFailed), "donation_error")

	req := httptest.NewRequest("POST", "/donations/form", nil)
	req.Header.Set("Referer", "https://example.org/donate")
	w := httptest.NewRecorder()
	redirectBack(w, req, donationFlag(causeway.OutcomeRequiresAction))

	is.Equal(w.Code, 302)
	loc, err := url.Parse(w.Header().Get("Location"))
	is.NoErr(err)
	is.Equal(loc.Query().Get("donation_pending"), "1")
	is.Equal(loc.Query().Get("donation_error"), "")
}

func TestCreatePetitionEndpoint(t *testing.T) {
	is := is.New(t)

	db := &fakeDB{}
	srv := newTestServer(t, db)

	resp, env := postForm(t, srv, "/admin/petitions", url.Values{
		"title": {"Save the Wetlands!"},
		"goal":  {"500"},
	}, true)
	is.Equal(resp.StatusCode, 200)
	is.Equal(env.Status, "success")

	var pet causeway.Petition
	is.NoErr(json.Unmarshal(env.Data, &pet))
	is.Equal(pet.Slug, "save-the-wetlands")
	is.Equal(pet.Goal, 500)
	is.Equal(len(db.petitions), 1)

	// title is required
	resp, env = postForm(t, srv, "/admin/petitions", url.Values{"goal": {"10"}}, true)
	is.Equal(resp.StatusCode, 400)
	is.Equal(env.Status, "error")
	is.Equal(len(db.petitions), 1)
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestProviderWebhook(t *testing.T) {
	is := is.New(t)

	WebhookSecret.Update("hunter2")
	defer WebhookSecret.Update("")

	db := &fakeDB{donations: []*causeway.Donation{{
		ID: 1, TransactionID: "sub_1", Type: causeway.FrequencyMonthly,
	}}}
	srv := newTestServer(t, db)

	body := []byte(`{"type":"subscription.cancelled","data":{"transaction_id":"sub_1"}}`)

	// missing signature
	resp, err := srv.Client().Post(srv.URL+"/webhooks/provider", "application/json", strings.NewReader(string(body)))
	is.NoErr(err)
	resp.Body.Close()
	is.Equal(resp.StatusCode, 400)

	// bad signature
	req, _ := http.NewRequest("POST", srv.URL+"/webhooks/provider", strings.NewReader(string(body)))
	req.Header.Set("X-Signature-Sha256", signBody("wrong-secret", body))
	resp, err = srv.Client().Do(req)
	is.NoErr(err)
	resp.Body.Close()
	is.Equal(resp.StatusCode, 400)
	is.True(db.donations[0].CancelledAt == nil)

	// valid signature
	req, _ = http.NewRequest("POST", srv.URL+"/webhooks/provider", strings.NewReader(string(body)))
	req.Header.Set("X-Signature-Sha256", signBody("hunter2", body))
	resp, err = srv.Client().Do(req)
	is.NoErr(err)
	resp.Body.Close()
	is.Equal(resp.StatusCode, 200)
	is.True(db.donations[0].CancelledAt != nil)
}

func TestAuditLogEndpoint(t *testing.T) {
	is := is.New(t)

	db := &fakeDB{}
	db.CreateAuditLog(context.Background(), "Test entry", true)
	srv := newTestServer(t, db)

	resp, err := srv.Client().Get(srv.URL + "/admin/auditLogs?count=10&offset=0")
	is.NoErr(err)
	defer resp.Body.Close()
	is.Equal(resp.StatusCode, 200)

	var env envelope
	is.NoErr(json.NewDecoder(resp.Body).Decode(&env))
	is.Equal(env.Status, "success")

	var logs []*causeway.AuditLog
	is.NoErr(json.Unmarshal(env.Data, &logs))
	is.Equal(len(logs), 1)
	is.Equal(logs[0].Message, "Test entry")
}

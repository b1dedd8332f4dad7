// Package mailchimp syncs supporters to a Mailchimp audience. There is no
// maintained official Go SDK, so the two calls we need speak to the REST API
// directly.
package mailchimp

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/causewayhq/causeway/internal/config"
	"github.com/causewayhq/causeway/internal/secrets"
)

var (
	Enabled    = config.GenFlag("integrations.mailchimp.enabled", false, "Enable Mailchimp audience sync")
	APIKeyName = config.GenFlag("integrations.mailchimp.api_key_secret_name", "MAILCHIMP_API_KEY", "Name of the secret holding the Mailchimp API key")
	ListID     = config.GenFlag("integrations.mailchimp.list_id", "", "Mailchimp audience (list) id to sync supporters into")
)

type Client struct {
	secrets *secrets.Source
	client  *http.Client

	// baseURL overrides the datacenter-derived endpoint in tests.
	baseURL string
}

func NewClient(src *secrets.Source) *Client {
	return &Client{
		secrets: src,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Subscribe upserts a list member with subscribed status. Existing members
// are left subscribed; new ones are added without double opt-in, matching the
// petition form's consent checkbox semantics.
func (c *Client) Subscribe(ctx context.Context, email, firstName, lastName string) error {
	if !Enabled.Value() || ListID.Value() == "" {
		return nil
	}

	key, err := c.secrets.Get(ctx, APIKeyName.Value())
	if err != nil {
		return fmt.Errorf("Mailchimp API key is not configured: %w", err)
	}

	base := c.baseURL
	if base == "" {
		// The datacenter is the API key suffix, e.g. "...-us14".
		_, dc, found := strings.Cut(key, "-")
		if !found {
			return fmt.Errorf("Mailchimp API key has no datacenter suffix")
		}
		base = fmt.Sprintf("https://%s.api.mailchimp.com", dc)
	}

	body, err := json.Marshal(struct {
		EmailAddress string            `json:"email_address"`
		StatusIfNew  string            `json:"status_if_new"`
		MergeFields  map[string]string `json:"merge_fields"`
	}{
		EmailAddress: email,
		StatusIfNew:  "subscribed",
		MergeFields:  map[string]string{"FNAME": firstName, "LNAME": lastName},
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/3.0/lists/%s/members/%s", base, ListID.Value(), MemberHash(email))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.SetBasicAuth("anystring", key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("member upsert returned status %d: %s", resp.StatusCode, detail)
	}
	return nil
}

// MemberHash is Mailchimp's member id scheme: md5 of the lowercased address.
func MemberHash(email string) string {
	sum := md5.Sum([]byte(strings.ToLower(email)))
	return hex.EncodeToString(sum[:])
}

package secrets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"strings"
	"time"

	"cloud.google.com/go/compute/metadata"
	"github.com/Yiling-J/theine-go"
	"github.com/causewayhq/causeway/internal/config"
)

var (
	UseSecretManager = config.GenFlag("integrations.gcp.use_secret_manager", false, "Resolve secrets through Google Secret Manager")
	ProjectID        = config.GenFlag("integrations.gcp.project_id", "", "Google Cloud project holding the secrets")
	UseGcloudCLI     = config.GenFlag("integrations.gcp.use_gcloud_cli", false, "Fall back to the gcloud CLI for secret access")
)

// Source resolves named secrets through a three-tier fallback chain: the
// Secret Manager REST API (authenticated via the metadata server), the gcloud
// CLI, and finally a same-named environment variable. Resolved values are
// memoized for the process lifetime; concurrent population of the same key is
// tolerated, last writer wins.
type Source struct {
	client   *http.Client
	endpoint string
	token    func(ctx context.Context) (string, error)

	cache *theine.LoadingCache[string, string]
}

func NewSource() (*Source, error) {
	s := &Source{
		client:   &http.Client{Timeout: 10 * time.Second},
		endpoint: "https://secretmanager.googleapis.com",
		token:    metadataToken,
	}
	cache, err := theine.NewBuilder[string, string](64).BuildWithLoader(func(ctx context.Context, name string) (theine.Loaded[string], error) {
		val, err := s.resolve(ctx, name)
		if err != nil {
			return theine.Loaded[string]{}, err
		}
		return theine.Loaded[string]{Value: val, Cost: 1, TTL: time.Hour}, nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not build secret cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

func (s *Source) Get(ctx context.Context, name string) (string, error) {
	return s.cache.Get(ctx, name)
}

func (s *Source) resolve(ctx context.Context, name string) (string, error) {
	if UseSecretManager.Value() && ProjectID.Value() != "" {
		val, err := s.fromSecretManager(ctx, name)
		if err == nil {
			return val, nil
		}
		slog.WarnContext(ctx, "Secret Manager lookup failed", slog.String("secret", name), slog.Any("err", err))
	}

	if UseGcloudCLI.Value() {
		val, err := s.fromCLI(ctx, name)
		if err == nil {
			return val, nil
		}
		slog.WarnContext(ctx, "gcloud secret lookup failed", slog.String("secret", name), slog.Any("err", err))
	}

	if val, ok := os.LookupEnv(name); ok && val != "" {
		return strings.TrimSpace(val), nil
	}

	return "", fmt.Errorf("secret %q could not be resolved", name)
}

func metadataToken(ctx context.Context) (string, error) {
	raw, err := metadata.GetWithContext(ctx, "instance/service-accounts/default/token")
	if err != nil {
		return "", err
	}
	var tok struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal([]byte(raw), &tok); err != nil {
		return "", err
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("metadata server returned an empty token")
	}
	return tok.AccessToken, nil
}

func (s *Source) fromSecretManager(ctx context.Context, name string) (string, error) {
	token, err := s.token(ctx)
	if err != nil {
		return "", fmt.Errorf("could not get access token: %w", err)
	}

	url := fmt.Sprintf("%s/v1/projects/%s/secrets/%s/versions/latest:access", s.endpoint, ProjectID.Value(), name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("secret access returned status %d", resp.StatusCode)
	}

	var body struct {
		Payload struct {
			Data string `json:"data"`
		} `json:"payload"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	decoded, err := base64.StdEncoding.DecodeString(body.Payload.Data)
	if err != nil {
		return "", fmt.Errorf("could not decode secret payload: %w", err)
	}
	return strings.TrimSpace(string(decoded)), nil
}

func (s *Source) fromCLI(ctx context.Context, name string) (string, error) {
	args := []string{"secrets", "versions", "access", "latest", "--secret", name}
	if ProjectID.Value() != "" {
		args = append(args, "--project", ProjectID.Value())
	}
	out, err := exec.CommandContext(ctx, "gcloud", args...).Output()
	if err != nil {
		return "", fmt.Errorf("gcloud invocation failed: %w", err)
	}
	val := strings.TrimSpace(string(out))
	if val == "" {
		return "", fmt.Errorf("gcloud returned an empty secret")
	}
	return val, nil
}

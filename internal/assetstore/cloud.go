package assetstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/noxistence/noxistence/internal/apperr"
)

const defaultTimeout = 15 * time.Second

// CloudConfig holds the credentials and endpoint for the remote CDN.
type CloudConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	// BaseURL overrides the API host, used by tests.
	BaseURL string
	Timeout time.Duration
}

// Cloud is the HTTP client for the CDN admin API. Upload and destroy
// requests carry the SHA-1 parameter signature; listings use basic auth.
type Cloud struct {
	cfg    CloudConfig
	client *http.Client
	now    func() time.Time
}

// NewCloud creates a client with a bounded per-request timeout.
func NewCloud(cfg CloudConfig) *Cloud {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.noxcdn.example"
	}
	return &Cloud{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		now:    time.Now,
	}
}

func (c *Cloud) endpoint(parts ...string) string {
	u := c.cfg.BaseURL + "/v1_1/" + c.cfg.CloudName
	for _, p := range parts {
		u += "/" + p
	}
	return u
}

// Upload sends data as a signed multipart request. The store assigns the
// remote id; existing objects are never overwritten.
func (c *Cloud) Upload(ctx context.Context, data []byte, folder string) (Asset, error) {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	sig := Sign(map[string]string{
		"folder":    folder,
		"timestamp": ts,
	}, c.cfg.APISecret)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "upload")
	if err != nil {
		return Asset{}, fmt.Errorf("assetstore: build multipart: %w", err)
	}
	if _, err := fw.Write(data); err != nil {
		return Asset{}, fmt.Errorf("assetstore: build multipart: %w", err)
	}
	fields := map[string]string{
		"folder":    folder,
		"timestamp": ts,
		"api_key":   c.cfg.APIKey,
		"signature": sig,
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return Asset{}, fmt.Errorf("assetstore: build multipart: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return Asset{}, fmt.Errorf("assetstore: build multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("image", "upload"), &buf)
	if err != nil {
		return Asset{}, fmt.Errorf("assetstore: upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var asset Asset
	if err := c.do(req, &asset); err != nil {
		return Asset{}, err
	}
	return asset, nil
}

// Delete destroys the object with the given remote id. A "not found"
// result is success: the object is already gone.
func (c *Cloud) Delete(ctx context.Context, remoteID string) error {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	sig := Sign(map[string]string{
		"public_id": remoteID,
		"timestamp": ts,
	}, c.cfg.APISecret)

	form := url.Values{}
	form.Set("public_id", remoteID)
	form.Set("timestamp", ts)
	form.Set("api_key", c.cfg.APIKey)
	form.Set("signature", sig)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("image", "destroy"), bytes.NewBufferString(form.Encode()))
	if err != nil {
		return fmt.Errorf("assetstore: destroy request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	var out struct {
		Result string `json:"result"`
	}
	if err := c.do(req, &out); err != nil {
		return err
	}
	switch out.Result {
	case "ok", "not found":
		return nil
	default:
		return fmt.Errorf("assetstore: destroy %s: unexpected result %q", remoteID, out.Result)
	}
}

// ListByFolder queries the resources endpoint by textual prefix, capped
// at MaxListResults.
func (c *Cloud) ListByFolder(ctx context.Context, prefix string) ([]Asset, error) {
	q := url.Values{}
	if prefix != "" {
		q.Set("prefix", prefix)
	}
	q.Set("max_results", strconv.Itoa(MaxListResults))
	q.Set("type", "upload")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.endpoint("resources", "image", "upload")+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("assetstore: list request: %w", err)
	}
	req.SetBasicAuth(c.cfg.APIKey, c.cfg.APISecret)

	var out struct {
		Resources []Asset `json:"resources"`
	}
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return out.Resources, nil
}

func (c *Cloud) do(req *http.Request, v any) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("assetstore: %w: %v", apperr.ErrStoreUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("assetstore: read response: %w", err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return apperr.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("assetstore: %w: HTTP %d", apperr.ErrStoreUnavailable, resp.StatusCode)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("assetstore: decode response: %w", err)
	}
	return nil
}

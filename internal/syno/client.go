// Package syno is a minimal client for the Synology DSM 7 web API.
//
// DSM 7 quirks this client encodes:
//   - everything goes through entry.cgi, auth uses SYNO.API.Auth version 7
//   - login must request enable_syno_token=yes
//   - the SynoToken rides as a query parameter on every later request
//   - certificate listing lives on SYNO.Core.Certificate.CRT, but only
//     SYNO.Core.Certificate has the import method
//
// The exact request and response shapes are owned by the NAS, not by this
// package; it models just enough for session auth, record lookup and the
// multipart import.
package syno

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/docker/go-connections/tlsconfig"
)

// sessionName identifies this client's DSM session.
const sessionName = "dockhand"

// Sentinel errors for target-record resolution. Both are fatal for a run;
// the agent never resolves ambiguity by guessing.
var (
	ErrCertNotFound  = errors.New("no certificate record matches description")
	ErrCertAmbiguous = errors.New("multiple certificate records match description")
)

// APIError is a DSM-level failure: HTTP succeeded but the envelope carries
// success=false and a vendor error code.
type APIError struct {
	Code int `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dsm api error (code %d)", e.Code)
}

// Certificate is one remote certificate record, addressed by ID, displayed
// by description.
type Certificate struct {
	ID          string `json:"id"`
	Description string `json:"desc"`
	Subject     struct {
		CommonName string `json:"common_name"`
	} `json:"subject"`
}

// Client holds one DSM API session.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client

	sid   string
	token string
}

// NewClient creates a DSM client for https://host:port/webapi.
func NewClient(host string, port int, opts ...ClientOption) (*Client, error) {
	baseURL, err := url.Parse(fmt.Sprintf("https://%s:%d/webapi", host, port))
	if err != nil {
		return nil, fmt.Errorf("parse dsm URL: %w", err)
	}

	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ClientOption configures a Client.
type ClientOption func(*Client) error

// WithTimeout bounds every API call. Zero keeps the default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) error {
		if d > 0 {
			c.httpClient.Timeout = d
		}
		return nil
	}
}

// WithInsecureTLS accepts the self-signed certificates LAN appliances
// usually present.
func WithInsecureTLS() ClientOption {
	return func(c *Client) error {
		cfg, err := tlsconfig.Client(tlsconfig.Options{InsecureSkipVerify: true})
		if err != nil {
			return fmt.Errorf("build tls config: %w", err)
		}
		c.httpClient.Transport = &http.Transport{TLSClientConfig: cfg}
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client, overriding any
// timeout or TLS option set before it.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) error {
		c.httpClient = hc
		return nil
	}
}

// Login opens a session. The sid and SynoToken from the response are
// attached to every subsequent request.
func (c *Client) Login(ctx context.Context, username, password string) error {
	slog.Info("Authenticating to DSM.", "user", username, "host", c.baseURL.Host)

	data, err := c.get(ctx, url.Values{
		"api":               {"SYNO.API.Auth"},
		"version":           {"7"},
		"method":            {"login"},
		"account":           {username},
		"passwd":            {password},
		"session":           {sessionName},
		"format":            {"sid"},
		"enable_syno_token": {"yes"},
	})
	if err != nil {
		return fmt.Errorf("dsm login: %w", err)
	}

	var session struct {
		SID   string `json:"sid"`
		Token string `json:"synotoken"`
	}
	if err := json.Unmarshal(data, &session); err != nil {
		return fmt.Errorf("decode dsm session: %w", err)
	}
	c.sid = session.SID
	c.token = session.Token
	slog.Debug("DSM session opened.", "token", c.token != "")
	return nil
}

// Logout terminates the session. Best-effort: callers treat failure as
// non-fatal. A client that never logged in returns nil.
func (c *Client) Logout(ctx context.Context) error {
	if c.sid == "" {
		return nil
	}
	defer func() {
		c.sid = ""
		c.token = ""
	}()

	if _, err := c.get(ctx, url.Values{
		"api":     {"SYNO.API.Auth"},
		"version": {"7"},
		"method":  {"logout"},
		"session": {sessionName},
	}); err != nil {
		return fmt.Errorf("dsm logout: %w", err)
	}
	slog.Info("DSM session closed.")
	return nil
}

// ListCertificates returns every certificate record on the NAS.
func (c *Client) ListCertificates(ctx context.Context) ([]Certificate, error) {
	data, err := c.get(ctx, url.Values{
		"api":     {"SYNO.Core.Certificate.CRT"},
		"version": {"1"},
		"method":  {"list"},
	})
	if err != nil {
		return nil, fmt.Errorf("list dsm certificates: %w", err)
	}

	var listing struct {
		Certificates []Certificate `json:"certificates"`
	}
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, fmt.Errorf("decode dsm certificate list: %w", err)
	}
	return listing.Certificates, nil
}

// FindCertificate resolves a description to the single matching record.
// Zero matches yields ErrCertNotFound with the available descriptions;
// more than one yields ErrCertAmbiguous.
func (c *Client) FindCertificate(ctx context.Context, description string) (Certificate, error) {
	certs, err := c.ListCertificates(ctx)
	if err != nil {
		return Certificate{}, err
	}

	var matches []Certificate
	available := make([]string, 0, len(certs))
	for _, cert := range certs {
		available = append(available, cert.Description)
		if cert.Description == description {
			matches = append(matches, cert)
		}
	}

	switch len(matches) {
	case 0:
		return Certificate{}, fmt.Errorf("%w %q (available: %s)",
			ErrCertNotFound, description, strings.Join(available, ", "))
	case 1:
		slog.Info("Matched certificate record.", "id", matches[0].ID, "desc", description)
		return matches[0], nil
	default:
		return Certificate{}, fmt.Errorf("%w %q (%d records, remove duplicates on the NAS)",
			ErrCertAmbiguous, description, len(matches))
	}
}

// ImportCertificate replaces the record identified by id with the given
// PEM material. chain may be nil when no intermediate file exists.
func (c *Client) ImportCertificate(ctx context.Context, id string, cert, key, chain []byte) error {
	slog.Info("Uploading certificate.", "id", id, "chain", len(chain) > 0)

	fields := map[string]string{
		"id":         id,
		"desc":       "", // keep the existing description
		"as_default": "false",
	}
	parts := []filePart{
		{field: "key", filename: "privkey.pem", data: key},
		{field: "cert", filename: "cert.pem", data: cert},
	}
	if len(chain) > 0 {
		parts = append(parts, filePart{field: "inter_cert", filename: "chain.pem", data: chain})
	}

	if _, err := c.postMultipart(ctx, url.Values{
		"api":     {"SYNO.Core.Certificate"},
		"version": {"1"},
		"method":  {"import"},
	}, fields, parts); err != nil {
		return fmt.Errorf("import dsm certificate: %w", err)
	}
	slog.Info("Certificate uploaded.")
	return nil
}

type filePart struct {
	field    string
	filename string
	data     []byte
}

// get performs an entry.cgi GET, injecting session parameters, and unwraps
// the DSM response envelope.
func (c *Client) get(ctx context.Context, params url.Values) (json.RawMessage, error) {
	u := c.endpoint(params)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

// postMultipart performs an entry.cgi POST with the API selector in the
// query string and the payload as multipart/form-data.
func (c *Client) postMultipart(ctx context.Context, params url.Values, fields map[string]string, parts []filePart) (json.RawMessage, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for name, value := range fields {
		if err := w.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("write multipart field %s: %w", name, err)
		}
	}
	for _, p := range parts {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, p.field, p.filename))
		h.Set("Content-Type", "application/x-pem-file")
		fw, err := w.CreatePart(h)
		if err != nil {
			return nil, fmt.Errorf("create multipart part %s: %w", p.field, err)
		}
		if _, err := fw.Write(p.data); err != nil {
			return nil, fmt.Errorf("write multipart part %s: %w", p.field, err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(params), &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	return c.do(req)
}

// endpoint builds the entry.cgi URL with sid and SynoToken attached once a
// session exists.
func (c *Client) endpoint(params url.Values) string {
	q := url.Values{}
	for k, vs := range params {
		q[k] = vs
	}
	if c.sid != "" {
		q.Set("_sid", c.sid)
	}
	if c.token != "" {
		q.Set("SynoToken", c.token)
	}
	return c.baseURL.JoinPath("entry.cgi").String() + "?" + q.Encode()
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	slog.Debug("DSM request.", "method", req.Method, "api", req.URL.Query().Get("api"), "apiMethod", req.URL.Query().Get("method"))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   *APIError       `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !envelope.Success {
		if envelope.Error != nil {
			return nil, envelope.Error
		}
		return nil, errors.New("dsm api error (no code)")
	}
	return envelope.Data, nil
}

// Package cloudflare is a small client for the parts of the Workers REST
// API the durables deploy tool needs: module script upload and Durable
// Object namespace listing/creation.
//
// Every call is a single request with no retry. Responses use the API's
// envelope ({success, errors, messages, result}); success=false becomes
// an *APIError.
package cloudflare

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/aanand-mishra/notes-api/internal/config"
)

// BindingDurableObjectNamespace is the binding type for Durable Object
// namespaces in script metadata.
const BindingDurableObjectNamespace = "durable_object_namespace"

// Message is one entry of the envelope's errors or messages arrays.
type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type envelope[T any] struct {
	Success  bool      `json:"success"`
	Errors   []Message `json:"errors"`
	Messages []Message `json:"messages"`
	Result   T         `json:"result"`
}

// APIError is returned when the API answers success=false or a non-2xx
// status.
type APIError struct {
	Op         string
	StatusCode int
	Errors     []Message
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("cloudflare: %s: status %d", e.Op, e.StatusCode)
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, m := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%d %s", m.Code, m.Message))
	}
	return fmt.Sprintf("cloudflare: %s: status %d: %s", e.Op, e.StatusCode, strings.Join(msgs, "; "))
}

// Binding attaches a resource to a script.
type Binding struct {
	Type        string `json:"type"`
	Name        string `json:"name"`
	NamespaceID string `json:"namespace_id,omitempty"`
}

// ScriptMetadata is the "metadata" part of a module script upload.
type ScriptMetadata struct {
	MainModule string    `json:"main_module"`
	Bindings   []Binding `json:"bindings,omitempty"`
}

// Namespace is a Durable Object namespace.
type Namespace struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Script string `json:"script"`
	Class  string `json:"class"`
}

// NamespaceRequest creates a namespace for Class exported by Script.
type NamespaceRequest struct {
	Name   string `json:"name"`
	Script string `json:"script"`
	Class  string `json:"class"`
}

// Client talks to one account. It is safe for concurrent use.
type Client struct {
	baseURL   string
	accountID string
	token     string
	http      *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// NewClient returns a client for accountID authenticated with a bearer
// token. baseURL is usually https://api.cloudflare.com/client/v4.
func NewClient(baseURL, accountID, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		accountID: accountID,
		token:     token,
		http:      &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a Client from the deploy configuration.
func NewFromConfig(cfg *config.Deploy, opts ...Option) *Client {
	return NewClient(cfg.APIBase, cfg.AccountID, cfg.APIToken, opts...)
}

func (c *Client) accountURL(parts ...string) string {
	return c.baseURL + "/accounts/" + c.accountID + "/" + strings.Join(parts, "/")
}

// do sends req and decodes the envelope into out.
func do[T any](c *Client, req *http.Request, op string, out *T) error {
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("cloudflare: %s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("cloudflare: %s: read body: %w", op, err)
	}

	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode/100 != 2 {
			return &APIError{Op: op, StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("cloudflare: %s: decode response: %w", op, err)
	}

	if !env.Success || resp.StatusCode/100 != 2 {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Errors: env.Errors}
	}
	if out != nil {
		*out = env.Result
	}
	return nil
}

// UploadScript creates or replaces the module script name. The module
// source is uploaded under meta.MainModule.
func (c *Client) UploadScript(ctx context.Context, name string, meta ScriptMetadata, source []byte) error {
	op := "upload script " + name

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("cloudflare: %s: encode metadata: %w", op, err)
	}
	if err := writePart(mw, "metadata", "metadata.json", "application/json", metaJSON); err != nil {
		return fmt.Errorf("cloudflare: %s: %w", op, err)
	}
	if err := writePart(mw, "script", meta.MainModule, "application/javascript+module", source); err != nil {
		return fmt.Errorf("cloudflare: %s: %w", op, err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("cloudflare: %s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut,
		c.accountURL("workers", "scripts", name), &buf)
	if err != nil {
		return fmt.Errorf("cloudflare: %s: %w", op, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var result json.RawMessage
	return do(c, req, op, &result)
}

func writePart(mw *multipart.Writer, field, filename, contentType string, data []byte) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)

	w, err := mw.CreatePart(h)
	if err != nil {
		return fmt.Errorf("create %s part: %w", field, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s part: %w", field, err)
	}
	return nil
}

// ListNamespaces returns the account's Durable Object namespaces.
func (c *Client) ListNamespaces(ctx context.Context) ([]Namespace, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.accountURL("workers", "durable_objects", "namespaces"), nil)
	if err != nil {
		return nil, fmt.Errorf("cloudflare: list namespaces: %w", err)
	}

	var namespaces []Namespace
	if err := do(c, req, "list namespaces", &namespaces); err != nil {
		return nil, err
	}
	return namespaces, nil
}

// CreateNamespace registers a new namespace.
func (c *Client) CreateNamespace(ctx context.Context, nr NamespaceRequest) (Namespace, error) {
	op := "create namespace " + nr.Class

	body, err := json.Marshal(nr)
	if err != nil {
		return Namespace{}, fmt.Errorf("cloudflare: %s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.accountURL("workers", "durable_objects", "namespaces"), bytes.NewReader(body))
	if err != nil {
		return Namespace{}, fmt.Errorf("cloudflare: %s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	var ns Namespace
	if err := do(c, req, op, &ns); err != nil {
		return Namespace{}, err
	}
	return ns, nil
}

// Package api is the HTTP client for the ChatAdmisión backend. Every
// endpoint responds with the same envelope; the client decodes it, maps the
// auth status codes to sentinel errors and hands the payload back. It keeps
// a cookie jar so the backend session survives across calls.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/chatadmision/admitchat/internal/config"
	"github.com/chatadmision/admitchat/internal/logger"
)

// Client is a client for the backend REST API
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a new Client with its own cookie jar.
func New(cfg config.APIConfig) *Client {
	jar, _ := cookiejar.New(nil)
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Jar: jar, Timeout: timeout},
	}
}

// do issues one request and returns the decoded envelope. Payload
// interpretation is left to the typed methods.
func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, ErrAuthRequired
	case resp.StatusCode == http.StatusForbidden:
		return nil, ErrForbidden
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &HTTPError{Status: resp.StatusCode}
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return &env, nil
}

// doJSON marshals body (when non-nil) and sends it with a JSON content type.
func (c *Client) doJSON(ctx context.Context, method, endpoint string, body any) (*Envelope, error) {
	var r io.Reader
	contentType := ""
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		r = bytes.NewReader(buf)
		contentType = "application/json"
	}
	return c.do(ctx, method, endpoint, r, contentType)
}

// call runs a request and unmarshals the envelope's data into T. A
// success=false envelope becomes a *BackendError.
func call[T any](ctx context.Context, c *Client, method, endpoint string, body any) (T, error) {
	var out T
	env, err := c.doJSON(ctx, method, endpoint, body)
	if err != nil {
		return out, err
	}
	if !env.Success {
		return out, &BackendError{Message: env.Error}
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &out); err != nil {
			return out, fmt.Errorf("decode %s payload: %w", endpoint, err)
		}
	}
	return out, nil
}

// Health calls the lightweight status endpoint.
func (c *Client) Health(ctx context.Context) error {
	_, err := call[struct {
		Status string `json:"status"`
	}](ctx, c, http.MethodGet, "/health", nil)
	return err
}

type chatRequest struct {
	Question       string `json:"question"`
	ConversationID string `json:"conversation_id,omitempty"`
}

// Chat sends a question. conversationID is empty for the first turn of a new
// session; the backend assigns one and returns it.
func (c *Client) Chat(ctx context.Context, question, conversationID string) (ChatResponse, error) {
	return call[ChatResponse](ctx, c, http.MethodPost, "/chat", chatRequest{
		Question:       question,
		ConversationID: conversationID,
	})
}

// Conversations lists the caller's session summaries.
func (c *Client) Conversations(ctx context.Context) ([]Conversation, error) {
	out, err := call[struct {
		Conversations []Conversation `json:"conversations"`
	}](ctx, c, http.MethodGet, "/conversations", nil)
	return out.Conversations, err
}

// Conversation fetches one session with its full message log.
func (c *Client) Conversation(ctx context.Context, id string) (ConversationWithMessages, error) {
	return call[ConversationWithMessages](ctx, c, http.MethodGet, "/conversations?id="+url.QueryEscape(id), nil)
}

// DeleteConversation removes a session server-side.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	_, err := call[struct {
		Message string `json:"message"`
	}](ctx, c, http.MethodDelete, "/conversations/"+url.PathEscape(id), nil)
	return err
}

// Login authenticates and establishes the session cookie.
func (c *Client) Login(ctx context.Context, username, password string) (User, error) {
	out, err := call[struct {
		User    User   `json:"user"`
		Message string `json:"message"`
	}](ctx, c, http.MethodPost, "/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	return out.User, err
}

// Register creates an account and establishes the session cookie.
func (c *Client) Register(ctx context.Context, username, email, password string) (User, error) {
	out, err := call[struct {
		User    User   `json:"user"`
		Message string `json:"message"`
	}](ctx, c, http.MethodPost, "/auth/register", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	return out.User, err
}

// Logout drops the backend session.
func (c *Client) Logout(ctx context.Context) error {
	_, err := call[struct {
		Message string `json:"message"`
	}](ctx, c, http.MethodPost, "/auth/logout", nil)
	return err
}

// AuthStatus reports whether the current cookie session is authenticated.
func (c *Client) AuthStatus(ctx context.Context) (AuthStatus, error) {
	return call[AuthStatus](ctx, c, http.MethodGet, "/auth/status", nil)
}

// ChangePassword rotates the current user's password.
func (c *Client) ChangePassword(ctx context.Context, current, updated string) error {
	_, err := call[struct {
		Message string `json:"message"`
	}](ctx, c, http.MethodPost, "/auth/change-password", map[string]string{
		"current_password": current,
		"new_password":     updated,
	})
	return err
}

// Users lists every account. Admin only; non-admins get ErrForbidden.
func (c *Client) Users(ctx context.Context) ([]User, error) {
	out, err := call[struct {
		Users []User `json:"users"`
	}](ctx, c, http.MethodGet, "/admin/users", nil)
	return out.Users, err
}

// CreateUser provisions an account. role is "user" or "admin"; empty lets
// the backend default it.
func (c *Client) CreateUser(ctx context.Context, username, email, password, role string) (User, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}
	if role != "" {
		body["role"] = role
	}
	out, err := call[struct {
		User User `json:"user"`
	}](ctx, c, http.MethodPost, "/admin/users", body)
	return out.User, err
}

// userAction posts to one of the per-user admin sub-endpoints.
func (c *Client) userAction(ctx context.Context, id, action string) error {
	_, err := call[struct {
		Message string `json:"message"`
	}](ctx, c, http.MethodPost, "/admin/users/"+url.PathEscape(id)+"/"+action, nil)
	return err
}

// PromoteUser grants the admin role.
func (c *Client) PromoteUser(ctx context.Context, id string) error {
	return c.userAction(ctx, id, "promote")
}

// DemoteUser revokes the admin role.
func (c *Client) DemoteUser(ctx context.Context, id string) error {
	return c.userAction(ctx, id, "demote")
}

// ActivateUser re-enables a deactivated account.
func (c *Client) ActivateUser(ctx context.Context, id string) error {
	return c.userAction(ctx, id, "activate")
}

// DeactivateUser disables an account without deleting it.
func (c *Client) DeactivateUser(ctx context.Context, id string) error {
	return c.userAction(ctx, id, "deactivate")
}

// UploadPDF sends a document to the ingestion endpoint as multipart form
// data. The multipart writer sets the content type, boundary included.
func (c *Client) UploadPDF(ctx context.Context, filename string, file io.Reader, sourceURL string) (UploadResult, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return UploadResult{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return UploadResult{}, err
	}
	if sourceURL != "" {
		if err := w.WriteField("source_url", sourceURL); err != nil {
			return UploadResult{}, err
		}
	}
	if err := w.Close(); err != nil {
		return UploadResult{}, err
	}

	env, err := c.do(ctx, http.MethodPost, "/upload/pdf", &buf, w.FormDataContentType())
	if err != nil {
		return UploadResult{}, err
	}
	if !env.Success {
		return UploadResult{}, &BackendError{Message: env.Error}
	}
	var out UploadResult
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return UploadResult{}, fmt.Errorf("decode upload payload: %w", err)
	}
	logger.L.Info("document uploaded", "document_id", out.DocumentID, "is_new", out.IsNew)
	return out, nil
}

// RAGStats fetches the answering service's usage statistics.
func (c *Client) RAGStats(ctx context.Context) (RAGStats, error) {
	out, err := call[struct {
		Stats       RAGStats `json:"rag_statistics"`
		Description string   `json:"description"`
	}](ctx, c, http.MethodGet, "/rag/stats", nil)
	return out.Stats, err
}

// PDFStatistics fetches the document store inventory, including the list of
// ingested sources.
func (c *Client) PDFStatistics(ctx context.Context) (PDFStats, error) {
	out, err := call[struct {
		Stats   PDFStats `json:"pdf_statistics"`
		Summary PDFStats `json:"summary"`
	}](ctx, c, http.MethodGet, "/database/pdf-count", nil)
	return out.Stats, err
}

// MemoryStats fetches conversation-memory statistics.
func (c *Client) MemoryStats(ctx context.Context) (MemoryStats, error) {
	out, err := call[struct {
		Stats MemoryStats `json:"memory_statistics"`
	}](ctx, c, http.MethodGet, "/memory/stats", nil)
	return out.Stats, err
}

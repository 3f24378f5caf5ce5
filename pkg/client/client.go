// Package client is a Go client for the Pengaduan Masyarakat API. It keeps
// the session token in a SessionStore and attaches it to protected calls.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

var (
	// ErrNotLoggedIn is returned by protected calls when no session is stored
	ErrNotLoggedIn = errors.New("not logged in")
	// ErrSessionExpired is returned when the stored token is past its expiry
	ErrSessionExpired = errors.New("session expired")
)

// APIError is a non-2xx response from the server
type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the server
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

type User struct {
	ID      int64   `json:"id"`
	NIK     string  `json:"nik"`
	Name    string  `json:"nama"`
	Email   string  `json:"email"`
	Phone   *string `json:"telepon"`
	Address *string `json:"alamat"`
	Role    string  `json:"role"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

type Complaint struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Title      string    `json:"judul"`
	Body       string    `json:"isi_laporan"`
	Location   *string   `json:"lokasi"`
	Category   string    `json:"kategori"`
	PhotoURL   *string   `json:"foto"`
	Status     string    `json:"status"`
	Response   *string   `json:"tanggapan"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	OwnerName  string    `json:"user_nama,omitempty"`
	OwnerNIK   string    `json:"user_nik,omitempty"`
	OwnerPhone *string   `json:"user_telepon,omitempty"`
}

type RegisterRequest struct {
	NIK      string  `json:"nik"`
	Name     string  `json:"nama"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Phone    *string `json:"telepon,omitempty"`
	Address  *string `json:"alamat,omitempty"`
}

type ComplaintRequest struct {
	Title    string  `json:"judul"`
	Body     string  `json:"isi_laporan"`
	Location *string `json:"lokasi,omitempty"`
	Category string  `json:"kategori"`
	PhotoURL *string `json:"foto,omitempty"`
}

// ListOptions filters the admin complaint listing
type ListOptions struct {
	Status string
	Limit  int
	Offset int
}

// Client talks to the API. It is safe for concurrent use when its
// SessionStore is.
type Client struct {
	baseURL    string
	httpClient *http.Client
	sessions   SessionStore
	maxRetries uint64
	now        func() time.Time
}

// Option configures a Client
type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithSessionStore(store SessionStore) Option {
	return func(c *Client) { c.sessions = store }
}

// WithRetries sets how often idempotent reads are retried on transient failures
func WithRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// New creates a client for baseURL, e.g. "https://host/api"
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		sessions:   &MemorySessionStore{},
		maxRetries: 2,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the stored session, or nil when logged out
func (c *Client) Session() (*Session, error) {
	return c.sessions.Load()
}

// Register creates a citizen account and returns its id
func (c *Client) Register(ctx context.Context, req RegisterRequest) (int64, error) {
	var resp struct {
		UserID int64 `json:"userId"`
	}
	if err := c.do(ctx, http.MethodPost, "/register", req, &resp, false); err != nil {
		return 0, err
	}
	return resp.UserID, nil
}

// Login authenticates and stores the resulting session
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var resp struct {
		Token     string    `json:"token"`
		ExpiresAt time.Time `json:"expiresAt"`
		User      *User     `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/login", body, &resp, false); err != nil {
		return nil, err
	}

	session := &Session{Token: resp.Token, ExpiresAt: resp.ExpiresAt, User: resp.User}
	if err := c.sessions.Save(session); err != nil {
		return nil, err
	}
	return session, nil
}

// Logout forgets the stored session. Tokens are stateless, so the server is not contacted.
func (c *Client) Logout() error {
	return c.sessions.Clear()
}

// Profile fetches the current user and refreshes the cached copy
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &resp, true); err != nil {
		return nil, err
	}

	if session, err := c.sessions.Load(); err == nil && session != nil {
		session.User = resp.User
		_ = c.sessions.Save(session)
	}
	return resp.User, nil
}

func (c *Client) CreateComplaint(ctx context.Context, req ComplaintRequest) (int64, error) {
	var resp struct {
		ComplaintID int64 `json:"complaintId"`
	}
	if err := c.do(ctx, http.MethodPost, "/complaints", req, &resp, true); err != nil {
		return 0, err
	}
	return resp.ComplaintID, nil
}

func (c *Client) MyComplaints(ctx context.Context) ([]Complaint, error) {
	var resp struct {
		Complaints []Complaint `json:"complaints"`
	}
	if err := c.do(ctx, http.MethodGet, "/my-complaints", nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Complaints, nil
}

// Complaints lists every complaint. Admin only.
func (c *Client) Complaints(ctx context.Context, opts ListOptions) ([]Complaint, error) {
	query := url.Values{}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Offset > 0 {
		query.Set("offset", strconv.Itoa(opts.Offset))
	}

	path := "/complaints"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var resp struct {
		Complaints []Complaint `json:"complaints"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Complaints, nil
}

func (c *Client) Complaint(ctx context.Context, id int64) (*Complaint, error) {
	var resp struct {
		Complaint *Complaint `json:"complaint"`
	}
	if err := c.do(ctx, http.MethodGet, "/complaints/"+strconv.FormatInt(id, 10), nil, &resp, true); err != nil {
		return nil, err
	}
	return resp.Complaint, nil
}

// UpdateStatus sets a complaint's status and optional response. Admin only.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status string, response *string) error {
	body := struct {
		Status   string  `json:"status"`
		Response *string `json:"tanggapan,omitempty"`
	}{status, response}
	return c.do(ctx, http.MethodPut, "/complaints/"+strconv.FormatInt(id, 10), body, nil, true)
}

// UpdateComplaint edits a complaint's content
func (c *Client) UpdateComplaint(ctx context.Context, id int64, req ComplaintRequest) error {
	return c.do(ctx, http.MethodPatch, "/complaints/"+strconv.FormatInt(id, 10), req, nil, true)
}

// do sends one request. GETs are retried on network errors and gateway
// failures; a 401 on a protected call drops the stored session.
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var token string
	if authed {
		session, err := c.sessions.Load()
		if err != nil {
			return err
		}
		if session == nil {
			return ErrNotLoggedIn
		}
		if session.Expired(c.now()) {
			_ = c.sessions.Clear()
			return ErrSessionExpired
		}
		token = session.Token
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	retries := uint64(0)
	if method == http.MethodGet {
		retries = c.maxRetries
	}
	backoff := retry.WithMaxRetries(retries, retry.NewExponential(200*time.Millisecond))

	var resp *http.Response
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		r, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		switch r.StatusCode {
		case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			_, _ = io.Copy(io.Discard, r.Body)
			r.Body.Close()
			return retry.RetryableError(fmt.Errorf("server unavailable: %d", r.StatusCode))
		}
		resp = r
		return nil
	})
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		if authed && resp.StatusCode == http.StatusUnauthorized {
			_ = c.sessions.Clear()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

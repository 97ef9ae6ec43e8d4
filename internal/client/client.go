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

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL   = "http://localhost:8080"
	defaultUserAgent = "roombooking-cli/1.0"
)

// Client talks to the room booking REST API.
type Client struct {
	HTTP      *http.Client
	BaseURL   string
	UserAgent string
	Token     string
}

// NewClient returns a client for baseURL whose transport emits trace spans
// and propagates trace context.
func NewClient(baseURL string) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		HTTP: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		BaseURL:   baseURL,
		UserAgent: defaultUserAgent,
	}
}

// Login exchanges credentials for a session token and keeps it on the client.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResult{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/login", nil, bytes.NewReader(body))
	if err != nil {
		return LoginResult{}, err
	}

	var result LoginResult
	if err := c.doJSON(req, &result); err != nil {
		return LoginResult{}, err
	}
	if result.Token == "" {
		return LoginResult{}, &TransportError{Op: "login", Err: errors.New("response missing token")}
	}
	c.Token = result.Token
	return result, nil
}

// Logout revokes the current session.
func (c *Client) Logout(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/logout", nil, nil)
	if err != nil {
		return err
	}
	if err := c.doJSON(req, nil); err != nil {
		return err
	}
	c.Token = ""
	return nil
}

// ListRooms returns the full catalog.
func (c *Client) ListRooms(ctx context.Context) ([]Room, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/rooms", nil, nil)
	if err != nil {
		return nil, err
	}
	var rooms []Room
	if err := c.doJSON(req, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// SearchRooms returns the rooms free for the query window.
func (c *Client) SearchRooms(ctx context.Context, query SearchQuery) ([]Room, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/rooms", query.values(), nil)
	if err != nil {
		return nil, err
	}
	var rooms []Room
	if err := c.doJSON(req, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// ListReservations returns every reservation on date.
func (c *Client) ListReservations(ctx context.Context, date string) ([]Reservation, error) {
	q := url.Values{}
	q.Set("date", date)
	req, err := c.newRequest(ctx, http.MethodGet, "/api/reservations", q, nil)
	if err != nil {
		return nil, err
	}
	var reservations []Reservation
	if err := c.doJSON(req, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// MyReservations returns the caller's reservations.
func (c *Client) MyReservations(ctx context.Context) ([]Reservation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/my-reservations", nil, nil)
	if err != nil {
		return nil, err
	}
	var reservations []Reservation
	if err := c.doJSON(req, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// CreateReservation submits a booking. A conflicting booking yields an
// *APIError whose Code is CodeConflict.
func (c *Client) CreateReservation(ctx context.Context, booking ReservationRequest) (Reservation, error) {
	body, err := json.Marshal(booking)
	if err != nil {
		return Reservation{}, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/api/reservations", nil, bytes.NewReader(body))
	if err != nil {
		return Reservation{}, err
	}
	var resp struct {
		OK          bool        `json:"ok"`
		Reservation Reservation `json:"reservation"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return Reservation{}, err
	}
	return resp.Reservation, nil
}

// CancelReservation deletes a reservation by id.
func (c *Client) CancelReservation(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/api/reservations/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, nil)
}

// Alternatives asks the server for the recovery menu of roomID.
func (c *Client) Alternatives(ctx context.Context, roomID string, query SearchQuery) (Alternatives, error) {
	q := query.values()
	q.Set("roomId", roomID)
	req, err := c.newRequest(ctx, http.MethodGet, "/api/alternatives", q, nil)
	if err != nil {
		return Alternatives{}, err
	}
	var resp struct {
		OK           bool         `json:"ok"`
		Alternatives Alternatives `json:"alternatives"`
	}
	if err := c.doJSON(req, &resp); err != nil {
		return Alternatives{}, err
	}
	return resp.Alternatives, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Request, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil {
		return nil, err
	}
	path = strings.TrimPrefix(path, "/")
	base.Path = strings.TrimSuffix(base.Path, "/") + "/" + path
	if query != nil {
		base.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, base.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	return req, nil
}

func (c *Client) doJSON(req *http.Request, dest any) error {
	op := req.Method + " " + req.URL.Path
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(op, resp)
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		if err == io.EOF {
			return nil
		}
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func decodeAPIError(op string, resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	apiErr := &APIError{Status: resp.StatusCode}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Code == "" {
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected response %s: %s", resp.Status, strings.TrimSpace(string(body)))}
	}
	return apiErr
}

// SearchQuery is the availability filter shared by room search and alternatives.
type SearchQuery struct {
	Date      string
	Start     string
	End       string
	Attendees int
	Equipment []string
	Floor     *int
}

func (q SearchQuery) values() url.Values {
	v := url.Values{}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	if q.Start != "" {
		v.Set("start", q.Start)
	}
	if q.End != "" {
		v.Set("end", q.End)
	}
	if q.Attendees > 0 {
		v.Set("attendees", strconv.Itoa(q.Attendees))
	}
	if len(q.Equipment) > 0 {
		v.Set("equipment", strings.Join(q.Equipment, ","))
	}
	if q.Floor != nil {
		v.Set("floor", strconv.Itoa(*q.Floor))
	}
	return v
}

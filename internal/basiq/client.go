// Package basiq is a client for the Basiq open-banking API. It covers the
// endpoints the backend needs: server/client tokens, user creation, consent
// links, accounts and transactions.
package basiq

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const DefaultBaseURL = "https://au-api.basiq.io"

// Client talks to the Basiq API with a cached server token.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client

	mu          sync.Mutex
	serverToken string
	tokenExpiry time.Time
}

// NewClient returns a Client, or nil when apiKey is empty so callers can treat
// a missing key as a disabled feature.
func NewClient(apiKey, baseURL string) *Client {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Account is a linked bank account.
type Account struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccountNo   string `json:"accountNo"`
	Balance     string `json:"balance"`
	Currency    string `json:"currency"`
	Institution string `json:"institution"`
	Class       struct {
		Type    string `json:"type"`
		Product string `json:"product"`
	} `json:"class"`
}

// Transaction is a bank transaction as reported by the aggregator.
type Transaction struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	Description string `json:"description"`
	Amount      string `json:"amount"`
	Account     string `json:"account"`
	Direction   string `json:"direction"`
	Class       string `json:"class"`
	PostDate    string `json:"postDate"`
	SubClass    struct {
		Title string `json:"title"`
		Code  string `json:"code"`
	} `json:"subClass"`
	Enrich struct {
		Merchant struct {
			BusinessName string `json:"businessName"`
		} `json:"merchant"`
	} `json:"enrich"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

type listResponse[T any] struct {
	Data  []T `json:"data"`
	Links struct {
		Next string `json:"next"`
	} `json:"links"`
}

// serverAccessToken returns a cached SERVER_ACCESS token, refreshing it when
// within a minute of expiry.
func (c *Client) serverAccessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.serverToken != "" && time.Now().Add(time.Minute).Before(c.tokenExpiry) {
		return c.serverToken, nil
	}
	tok, err := c.requestToken(ctx, url.Values{"scope": {"SERVER_ACCESS"}})
	if err != nil {
		return "", err
	}
	c.serverToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.serverToken, nil
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (*tokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Basic "+c.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("basiq-version", "3.0")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("basiq: token request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("basiq: token request returned %s", resp.Status)
	}
	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return nil, fmt.Errorf("basiq: decode token: %w", err)
	}
	return &tok, nil
}

// CreateUser registers the account with the aggregator and returns its id.
func (c *Client) CreateUser(ctx context.Context, email, mobile string) (string, error) {
	body := map[string]string{"email": email}
	if mobile != "" {
		body["mobile"] = mobile
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/users", body, &created); err != nil {
		return "", err
	}
	return created.ID, nil
}

// AuthLink returns the consent UI link for the given aggregation user. The
// link embeds a short-lived CLIENT_ACCESS token bound to that user.
func (c *Client) AuthLink(ctx context.Context, bankUserID string) (string, error) {
	tok, err := c.requestToken(ctx, url.Values{
		"scope":  {"CLIENT_ACCESS"},
		"userId": {bankUserID},
	})
	if err != nil {
		return "", err
	}
	return "https://consent.basiq.io/home?token=" + tok.AccessToken, nil
}

// Accounts lists the user's linked accounts.
func (c *Client) Accounts(ctx context.Context, bankUserID string) ([]Account, error) {
	var out listResponse[Account]
	if err := c.doJSON(ctx, http.MethodGet, "/users/"+bankUserID+"/accounts", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// Transactions lists the user's transactions, newest first, following
// pagination until the aggregator runs out of pages.
func (c *Client) Transactions(ctx context.Context, bankUserID string) ([]Transaction, error) {
	path := "/users/" + bankUserID + "/transactions?limit=500"
	var all []Transaction
	for path != "" {
		var page listResponse[Transaction]
		if err := c.doJSON(ctx, http.MethodGet, path, nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Data...)
		next, err := c.nextPath(page.Links.Next)
		if err != nil {
			return nil, err
		}
		path = next
	}
	return all, nil
}

// nextPath resolves a pagination link to a path on the API host. The link
// comes from the response body, so a foreign host is rejected rather than
// followed with the bearer token attached.
func (c *Client) nextPath(next string) (string, error) {
	if next == "" {
		return "", nil
	}
	u, err := url.Parse(next)
	if err != nil {
		return "", fmt.Errorf("basiq: bad pagination link %q: %w", next, err)
	}
	if u.Host != "" {
		base, err := url.Parse(c.baseURL)
		if err != nil {
			return "", err
		}
		if u.Host != base.Host {
			return "", fmt.Errorf("basiq: pagination link %q leaves API host %s", next, base.Host)
		}
	}
	return u.RequestURI(), nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	token, err := c.serverAccessToken(ctx)
	if err != nil {
		return err
	}
	var payload *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(raw)
	} else {
		payload = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("basiq-version", "3.0")
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("basiq: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("basiq: %s %s returned %s", method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("basiq: decode %s response: %w", path, err)
	}
	return nil
}

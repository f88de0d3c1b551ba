package basiq

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func newFakeAPI(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var tokenRequests int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&tokenRequests, 1)
		if r.Header.Get("Authorization") != "Basic test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		token := "server-token"
		if r.PostForm.Get("scope") == "CLIENT_ACCESS" {
			token = "client-token-" + r.PostForm.Get("userId")
		}
		json.NewEncoder(w).Encode(map[string]any{"access_token": token, "expires_in": 3600})
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer server-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "bq-123"})
	})
	mux.HandleFunc("GET /users/bq-123/transactions", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "t1", "description": "COFFEE", "amount": "-4.50", "direction": "debit", "postDate": "2025-06-01T00:00:00Z"},
				{"id": "t2", "description": "SALARY", "amount": "5000.00", "direction": "credit", "postDate": "2025-06-02T00:00:00Z"},
			},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &tokenRequests
}

func TestClientUserAndTransactions(t *testing.T) {
	srv, tokenRequests := newFakeAPI(t)
	c := NewClient("test-key", srv.URL)

	id, err := c.CreateUser(context.Background(), "a@x.com", "+61400000000")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if id != "bq-123" {
		t.Errorf("user id = %q", id)
	}

	txs, err := c.Transactions(context.Background(), "bq-123")
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(txs) != 2 || txs[0].ID != "t1" || txs[1].Direction != "credit" {
		t.Errorf("transactions = %+v", txs)
	}

	// The server token is cached across calls.
	if got := atomic.LoadInt32(tokenRequests); got != 1 {
		t.Errorf("token requests = %d, want 1", got)
	}
}

func TestClientAuthLink(t *testing.T) {
	srv, _ := newFakeAPI(t)
	c := NewClient("test-key", srv.URL)

	link, err := c.AuthLink(context.Background(), "bq-123")
	if err != nil {
		t.Fatalf("AuthLink: %v", err)
	}
	if !strings.Contains(link, "client-token-bq-123") {
		t.Errorf("link = %q, want embedded client token", link)
	}
}

func TestNewClientWithoutKey(t *testing.T) {
	if NewClient("", "") != nil {
		t.Error("client created without an API key")
	}
}

func TestTransactionsPagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /token", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "server-token", "expires_in": 3600})
	})

	var srv *httptest.Server
	offHost := false
	mux.HandleFunc("GET /users/bq-123/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("next") == "p2" {
			json.NewEncoder(w).Encode(map[string]any{
				"data": []map[string]any{
					{"id": "t3", "description": "RENT", "amount": "-900.00", "direction": "debit", "postDate": "2025-06-03T00:00:00Z"},
				},
			})
			return
		}
		next := srv.URL + "/users/bq-123/transactions?limit=500&next=p2"
		if offHost {
			next = "https://evil.example/users/bq-123/transactions?next=p2"
		}
		json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "t1", "description": "COFFEE", "amount": "-4.50", "direction": "debit", "postDate": "2025-06-01T00:00:00Z"},
				{"id": "t2", "description": "SALARY", "amount": "5000.00", "direction": "credit", "postDate": "2025-06-02T00:00:00Z"},
			},
			"links": map[string]string{"next": next},
		})
	})
	srv = httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", srv.URL)
	txs, err := c.Transactions(context.Background(), "bq-123")
	if err != nil {
		t.Fatalf("Transactions: %v", err)
	}
	if len(txs) != 3 {
		t.Fatalf("len(txs) = %d, want 3 across two pages", len(txs))
	}
	if txs[2].ID != "t3" {
		t.Errorf("last transaction = %q, want t3", txs[2].ID)
	}

	// A next link on a foreign host must not be followed.
	offHost = true
	if _, err := c.Transactions(context.Background(), "bq-123"); err == nil {
		t.Fatal("followed a pagination link off the API host")
	}
}

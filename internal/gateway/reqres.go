package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cryptodash/internal/model"
)

// ReqRes implements AuthAPI against a reqres.in compatible service. The login
// endpoint returns only a token, so the profile id is configured.
type ReqRes struct {
	BaseURL      string
	APIKey       string
	ProfileID    int
	WatchlistURL string // optional; empty means no remote watchlist
	Client       *http.Client
}

// NewReqRes creates an auth client with optional proxy support.
func NewReqRes(baseURL, apiKey string, profileID int, timeout time.Duration, proxyURL string) *ReqRes {
	if profileID <= 0 {
		profileID = 2
	}
	return &ReqRes{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		APIKey:    apiKey,
		ProfileID: profileID,
		Client:    newHTTPClient(timeout, proxyURL),
	}
}

func (r *ReqRes) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	if r.APIKey != "" {
		req.Header.Set("x-api-key", r.APIKey)
	}
}

// Login exchanges credentials for a session token.
func (r *ReqRes) Login(ctx context.Context, email, password string) (model.LoginResult, error) {
	const op = "login"
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return model.LoginResult{}, fmt.Errorf("marshal credentials: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.BaseURL+"/login", bytes.NewReader(body))
	if err != nil {
		return model.LoginResult{}, err
	}
	r.setHeaders(req)

	var result struct {
		Token string `json:"token"`
	}
	if err := doJSON(r.Client, req, op, &result); err != nil {
		return model.LoginResult{}, err
	}
	if result.Token == "" {
		return model.LoginResult{}, &APIError{Op: op, Message: "empty token"}
	}
	return model.LoginResult{UserID: r.ProfileID, Token: result.Token}, nil
}

// GetProfile loads a user profile.
func (r *ReqRes) GetProfile(ctx context.Context, id int) (model.UserProfile, error) {
	req, err := newGet(ctx, fmt.Sprintf("%s/users/%d", r.BaseURL, id))
	if err != nil {
		return model.UserProfile{}, err
	}
	r.setHeaders(req)

	var result struct {
		Data model.UserProfile `json:"data"`
	}
	if err := doJSON(r.Client, req, "get profile", &result); err != nil {
		return model.UserProfile{}, err
	}
	return result.Data, nil
}

// GetWatchlist loads the user's saved symbols when a watchlist service is
// configured.
func (r *ReqRes) GetWatchlist(ctx context.Context, userID int) ([]WatchlistEntry, error) {
	if r.WatchlistURL == "" {
		return nil, nil
	}
	req, err := newGet(ctx, fmt.Sprintf("%s/users/%d/watchlist", strings.TrimRight(r.WatchlistURL, "/"), userID))
	if err != nil {
		return nil, err
	}
	r.setHeaders(req)

	var entries []WatchlistEntry
	if err := doJSON(r.Client, req, "get watchlist", &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

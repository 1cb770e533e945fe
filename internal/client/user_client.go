package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/parikshasetu/exam-platform/internal/models"
)

// LookupOutcome tells a found user apart from a missing one. The zero value
// is LookupUnknown so an unset outcome is never read as a miss.
type LookupOutcome int

const (
	LookupUnknown LookupOutcome = iota
	LookupNotFound
	LookupFound
)

// UserLookup is the result of an email search. Transport failures are
// returned as errors instead.
type UserLookup struct {
	Outcome LookupOutcome
	ID      string
}

type userID struct {
	ID string `json:"id"`
}

// UserClient talks to the user service.
type UserClient struct {
	peer peer
}

// NewUserClient constructs a user service client.
func NewUserClient(baseURL string, opts Options) *UserClient {
	return &UserClient{peer: newPeer("user-service", baseURL, opts)}
}

// FindByEmail searches a user by email.
func (c *UserClient) FindByEmail(ctx context.Context, email string) (UserLookup, error) {
	res, err := c.peer.do(ctx, http.MethodGet, "/api/users/search/email?email="+url.QueryEscape(email), nil, true)
	if err != nil {
		return UserLookup{}, err
	}
	switch res.status {
	case http.StatusOK:
		var found userID
		if err := decodeData(res.body, &found); err != nil {
			return UserLookup{}, fmt.Errorf("decode user lookup: %w", err)
		}
		if found.ID == "" {
			return UserLookup{}, errors.New("user lookup returned no id")
		}
		return UserLookup{Outcome: LookupFound, ID: found.ID}, nil
	case http.StatusNotFound:
		return UserLookup{Outcome: LookupNotFound}, nil
	default:
		return UserLookup{}, &StatusError{Peer: c.peer.name, Status: res.status}
	}
}

// Register creates an account and returns its id. It is sent once.
func (c *UserClient) Register(ctx context.Context, req models.RegisterRequest) (string, error) {
	res, err := c.peer.do(ctx, http.MethodPost, "/api/auth/register", req, false)
	if err != nil {
		return "", err
	}
	if res.status != http.StatusOK && res.status != http.StatusCreated {
		return "", &StatusError{Peer: c.peer.name, Status: res.status}
	}
	var created userID
	if err := decodeData(res.body, &created); err != nil {
		return "", fmt.Errorf("decode registration: %w", err)
	}
	if created.ID == "" {
		return "", errors.New("registration returned no id")
	}
	return created.ID, nil
}

package gmail

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/oauth2"
	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// ErrTokenExpired indicates a connection was attempted with a missing or
// expired token.
var ErrTokenExpired = errors.New("token is missing or expired")

// messageSender abstracts the users.messages.send call so the send path
// can be tested with a stub instead of a live Gmail service.
type messageSender interface {
	Send(msg *gmail.Message) (*gmail.Message, error)
}

// apiSender submits messages through the real Gmail API as the
// authenticated user.
type apiSender struct {
	svc *gmail.UsersService
}

func (s *apiSender) Send(msg *gmail.Message) (*gmail.Message, error) {
	return s.svc.Messages.Send("me", msg).Do()
}

// Client is a connected handle to the Gmail API for one account.
type Client struct {
	sender  messageSender
	account string
}

// NewClient opens an authenticated Gmail session using tok. The token
// must be unexpired; callers get fresh tokens from the google.Manager.
func NewClient(ctx context.Context, conf *oauth2.Config, tok *oauth2.Token, account string) (*Client, error) {
	if !tok.Valid() {
		return nil, fmt.Errorf("%w: reauthorize before connecting", ErrTokenExpired)
	}

	httpClient := conf.Client(ctx, tok)

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		sender:  &apiSender{svc: svc.Users},
		account: account,
	}, nil
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

// Send encodes msg and submits it for delivery as the authenticated
// user, returning the Gmail message id. API rejections surface to the
// caller unretried.
func (c *Client) Send(msg *Message) (string, error) {
	encoded, err := msg.Encode()
	if err != nil {
		return "", err
	}

	sent, err := c.sender.Send(encoded)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}

// ABOUTME: Mail provider interface and its Gmail implementation
// ABOUTME: Lists matching messages with only the headers the scanner reads
package sync

import (
	"context"
	"fmt"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

// MailProvider is the mailbox the scanner reads.
type MailProvider interface {
	ListMessages(ctx context.Context, query string, limit int) ([]*gmail.Message, error)
}

// scannedHeaders are requested in metadata format; bodies are never fetched.
var scannedHeaders = []string{"From", "To", "Cc", "Subject", "Date"}

// GoogleMail reads the signed-in user's Gmail mailbox.
type GoogleMail struct {
	clients  ClientSource
	endpoint string
}

// NewGoogleMail creates a provider using clients for authentication. An empty
// endpoint means the public API.
func NewGoogleMail(clients ClientSource, endpoint string) *GoogleMail {
	return &GoogleMail{clients: clients, endpoint: endpoint}
}

func (g *GoogleMail) service(ctx context.Context) (*gmail.Service, error) {
	client, err := g.clients.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}

	service, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return service, nil
}

// ListMessages runs a search and fetches each hit's headers.
func (g *GoogleMail) ListMessages(ctx context.Context, query string, limit int) ([]*gmail.Message, error) {
	svc, err := g.service(ctx)
	if err != nil {
		return nil, err
	}

	list, err := svc.Users.Messages.List("me").
		Q(query).
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", mapError(err))
	}

	messages := make([]*gmail.Message, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders(scannedHeaders...).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch message %s: %w", ref.Id, mapError(err))
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

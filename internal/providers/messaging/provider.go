package messaging

import "context"

// Provider delivers outbound messages on the chat channel.
type Provider interface {
	SendText(ctx context.Context, to, body string) error
	SendDocument(ctx context.Context, to, documentURL, filename, caption string) error
}

// NoOpProvider drops messages. Used in tests and when the channel is not
// configured.
type NoOpProvider struct{}

func (p *NoOpProvider) SendText(ctx context.Context, to, body string) error {
	return nil
}

func (p *NoOpProvider) SendDocument(ctx context.Context, to, documentURL, filename, caption string) error {
	return nil
}

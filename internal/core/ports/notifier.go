package ports

import "context"

// Notifier delivers a text message to a customer contact. Implementations own
// their connection lifecycle, callers only see Send.
type Notifier interface {
	NormalizeContact(contact string) (string, error)
	Send(ctx context.Context, contact, text string) error
	Close()
}

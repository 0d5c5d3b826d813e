package nostr

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ArkLabsHQ/paylink/internal/infrastructure/notifier"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip04"
	"github.com/nbd-wtf/go-nostr/nip19"
)

type transport struct {
	relayURL  string
	secretKey string
	publicKey string
}

// NewTransport delivers notifications as NIP-04 direct messages through a
// single relay. A random identity is used if secretKey is empty.
func NewTransport(relayURL, secretKey string) (notifier.Transport, error) {
	if relayURL == "" {
		return nil, fmt.Errorf("missing relay url")
	}

	if secretKey == "" {
		secretKey = nostr.GeneratePrivateKey()
	} else if strings.HasPrefix(secretKey, "nsec") {
		prefix, value, err := nip19.Decode(secretKey)
		if err != nil || prefix != "nsec" {
			return nil, fmt.Errorf("invalid nostr secret key")
		}
		secretKey = value.(string)
	}

	publicKey, err := nostr.GetPublicKey(secretKey)
	if err != nil {
		return nil, fmt.Errorf("invalid nostr secret key: %w", err)
	}

	return &transport{relayURL, secretKey, publicKey}, nil
}

// NormalizeContact accepts an npub or a hex encoded public key and returns
// the hex form.
func (t *transport) NormalizeContact(contact string) (string, error) {
	contact = strings.TrimSpace(contact)
	if strings.HasPrefix(contact, "npub") {
		prefix, value, err := nip19.Decode(contact)
		if err != nil {
			return "", fmt.Errorf("invalid npub: %w", err)
		}
		if prefix != "npub" {
			return "", fmt.Errorf("unexpected prefix %s", prefix)
		}
		return value.(string), nil
	}

	contact = strings.ToLower(contact)
	buf, err := hex.DecodeString(contact)
	if err != nil || len(buf) != 32 {
		return "", fmt.Errorf("contact must be an npub or a 32 bytes hex public key")
	}
	return contact, nil
}

func (t *transport) Dial(ctx context.Context) (notifier.Session, error) {
	relay := nostr.NewRelay(context.Background(), t.relayURL)
	return &session{relay, t.secretKey, t.publicKey}, nil
}

type session struct {
	relay     *nostr.Relay
	secretKey string
	publicKey string
}

// Ready performs the websocket handshake with the relay.
func (s *session) Ready(ctx context.Context) error {
	return s.relay.Connect(ctx)
}

func (s *session) Send(ctx context.Context, contact, text string) error {
	shared, err := nip04.ComputeSharedSecret(contact, s.secretKey)
	if err != nil {
		return fmt.Errorf("failed to compute shared secret: %w", err)
	}
	content, err := nip04.Encrypt(text, shared)
	if err != nil {
		return fmt.Errorf("failed to encrypt message: %w", err)
	}

	event := nostr.Event{
		PubKey:    s.publicKey,
		CreatedAt: nostr.Now(),
		Kind:      nostr.KindEncryptedDirectMessage,
		Tags:      nostr.Tags{nostr.Tag{"p", contact}},
		Content:   content,
	}
	if err := event.Sign(s.secretKey); err != nil {
		return fmt.Errorf("failed to sign event: %w", err)
	}

	return s.relay.Publish(ctx, event)
}

func (s *session) Done() <-chan struct{} {
	return s.relay.Context().Done()
}

func (s *session) Close() {
	// nolint:all
	s.relay.Close()
}

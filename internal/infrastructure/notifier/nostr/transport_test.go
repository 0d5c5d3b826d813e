package nostr_test

import (
	"testing"

	notifiernostr "github.com/ArkLabsHQ/paylink/internal/infrastructure/notifier/nostr"
	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip19"
	"github.com/stretchr/testify/require"
)

func TestNormalizeContact(t *testing.T) {
	transport, err := notifiernostr.NewTransport("wss://relay.example.com", "")
	require.NoError(t, err)

	pubkey, err := nostr.GetPublicKey(nostr.GeneratePrivateKey())
	require.NoError(t, err)
	npub, err := nip19.EncodePublicKey(pubkey)
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		for _, contact := range []string{pubkey, npub, " " + npub + " "} {
			got, err := transport.NormalizeContact(contact)
			require.NoError(t, err)
			require.Equal(t, pubkey, got)
		}
	})

	t.Run("invalid", func(t *testing.T) {
		for _, contact := range []string{"", "alice@example.com", "npub1invalid", pubkey[:10]} {
			_, err := transport.NormalizeContact(contact)
			require.Error(t, err)
		}
	})
}

func TestNewTransport(t *testing.T) {
	_, err := notifiernostr.NewTransport("", "")
	require.Error(t, err)

	secretKey := nostr.GeneratePrivateKey()
	_, err = notifiernostr.NewTransport("wss://relay.example.com", secretKey)
	require.NoError(t, err)

	nsec, err := nip19.EncodePrivateKey(secretKey)
	require.NoError(t, err)
	_, err = notifiernostr.NewTransport("wss://relay.example.com", nsec)
	require.NoError(t, err)

	_, err = notifiernostr.NewTransport("wss://relay.example.com", "nsec1bad")
	require.Error(t, err)
}

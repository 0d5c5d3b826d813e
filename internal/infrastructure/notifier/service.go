package notifier

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/ArkLabsHQ/paylink/internal/core/ports"
	log "github.com/sirupsen/logrus"
)

type ConnState int32

const (
	StateDisconnected ConnState = iota
	StateAwaitingScan
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateAwaitingScan:
		return "awaiting_scan"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Transport opens sessions with the messaging network.
type Transport interface {
	NormalizeContact(contact string) (string, error)
	// Dial starts a session that still has to complete its handshake.
	Dial(ctx context.Context) (Session, error)
}

type Session interface {
	// Ready blocks until the handshake completes.
	Ready(ctx context.Context) error
	Send(ctx context.Context, contact, text string) error
	// Done is closed when the session drops.
	Done() <-chan struct{}
	Close()
}

var ErrClosed = errors.New("notifier closed")

type command struct {
	ctx     context.Context
	contact string
	text    string
	reply   chan error
}

type service struct {
	transport Transport
	commands  chan command
	quit      chan struct{}
	done      chan struct{}
	state     atomic.Int32
	closeOnce sync.Once
}

// NewService starts the goroutine owning the session. All session state
// transitions happen there, callers talk to it through Send.
func NewService(transport Transport) ports.Notifier {
	s := &service{
		transport: transport,
		commands:  make(chan command),
		quit:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *service) NormalizeContact(contact string) (string, error) {
	return s.transport.NormalizeContact(contact)
}

func (s *service) Send(ctx context.Context, contact, text string) error {
	cmd := command{ctx, contact, text, make(chan error, 1)}

	select {
	case s.commands <- cmd:
	case <-s.quit:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-cmd.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *service) State() ConnState {
	return ConnState(s.state.Load())
}

func (s *service) Close() {
	s.closeOnce.Do(func() {
		close(s.quit)
	})
	<-s.done
}

func (s *service) run() {
	defer close(s.done)

	var session Session
	drop := func() {
		if session != nil {
			session.Close()
			session = nil
		}
		s.setState(StateDisconnected)
	}

	for {
		var sessionDone <-chan struct{}
		if session != nil {
			sessionDone = session.Done()
		}

		select {
		case <-s.quit:
			drop()
			return
		case <-sessionDone:
			log.Debug("notifier session dropped")
			drop()
		case cmd := <-s.commands:
			cmd.reply <- s.handle(cmd, &session, drop)
		}
	}
}

func (s *service) handle(cmd command, session *Session, drop func()) error {
	if s.State() == StateDisconnected {
		sess, err := s.transport.Dial(cmd.ctx)
		if err != nil {
			return fmt.Errorf("failed to dial: %w", err)
		}
		*session = sess
		s.setState(StateAwaitingScan)
	}

	if s.State() == StateAwaitingScan {
		if err := (*session).Ready(cmd.ctx); err != nil {
			drop()
			return fmt.Errorf("handshake failed: %w", err)
		}
		s.setState(StateConnected)
	}

	if err := (*session).Send(cmd.ctx, cmd.contact, cmd.text); err != nil {
		drop()
		return fmt.Errorf("failed to send: %w", err)
	}
	return nil
}

func (s *service) setState(state ConnState) {
	prev := ConnState(s.state.Swap(int32(state)))
	if prev != state {
		log.WithField("state", state).Debug("notifier state changed")
	}
}

package runtime

import (
	"chat-relay/contract"
	"chat-relay/errors"
	"context"
	goerrors "errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"
)

var _ contract.Worker = (*Acceptor)(nil)

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

// Acceptor accepts connections and runs one session per connection.
type Acceptor struct {
	log        *slog.Logger
	listener   net.Listener
	dispatcher *Dispatcher
	config     SessionConfig
	wg         sync.WaitGroup
}

func NewAcceptor(log *slog.Logger, listener net.Listener, dispatcher *Dispatcher, config SessionConfig) *Acceptor {
	return &Acceptor{log: log, listener: listener, dispatcher: dispatcher, config: config}
}

func (a *Acceptor) Addr() net.Addr {
	return a.listener.Addr()
}

// Run accepts until ctx is canceled, then closes the listener and waits for
// every session to end. Temporary accept failures are retried with backoff.
// A listener closed while ctx is still live is fatal.
func (a *Acceptor) Run(ctx context.Context) error {
	defer a.wg.Wait()
	sessionCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	stop := context.AfterFunc(ctx, func() { _ = a.listener.Close() })
	defer stop()

	a.log.Info("Relay listening", "addr", a.listener.Addr().String())

	var backoff time.Duration
	for {
		conn, err := a.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if goerrors.Is(err, net.ErrClosed) {
				return fmt.Errorf("%w: %w: %v", errors.ErrFatal, errors.ErrListenerClosed, err)
			}
			backoff = nextBackoff(backoff)
			a.log.Warn("Accept failed, retrying", "error", err, "retry_in", backoff)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			continue
		}

		backoff = 0
		a.wg.Add(1)
		go a.serve(sessionCtx, conn)
	}
}

func (a *Acceptor) serve(ctx context.Context, conn net.Conn) {
	defer a.wg.Done()
	session := NewSession(a.log, conn, a.dispatcher, a.config)
	log := a.log.With("conn_id", session.Peer().ConnID, "remote_addr", conn.RemoteAddr().String())
	log.Debug("Connection accepted")
	session.Run(ctx)
	log.Debug("Connection closed", "identity", session.Peer().Identity)
}

func nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return minAcceptBackoff
	}
	return min(current*2, maxAcceptBackoff)
}

package e2e

import (
	"chat-relay/client"
	"chat-relay/domain"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/suite"
)

type BaseRelaySuite struct {
	suite.Suite
	Config  Config
	timeout time.Duration
	stop    context.CancelFunc
	done    chan error
}

// SetupSuite loads the configuration and starts an in-process relay unless
// RELAY_ADDR points to a running one.
func (s *BaseRelaySuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.timeout, err = time.ParseDuration(s.Config.Timeout)
	s.Require().NoError(err)

	if s.Config.RelayAddr != "" {
		return
	}
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	s.Require().NoError(err)
	s.Config.RelayAddr = listener.Addr().String()

	log := logs.GetLoggerFromLevel(slog.LevelInfo)
	fanout := workers.NewAuditFanout(log, 64, time.Second, sink.NewLogSink(log))
	registry := runtime.NewRegistry()
	acceptor := runtime.NewAcceptor(log, listener, runtime.NewDispatcher(log, registry, fanout, nil),
		runtime.SessionConfig{BufferSize: 64, MaxFrameSize: 4096, WriteTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	s.done = make(chan error, 1)
	supervisor := workers.NewSupervisor(log).Add(acceptor, fanout)
	go func() { s.done <- supervisor.Run(ctx) }()
}

func (s *BaseRelaySuite) TearDownSuite() {
	if s.stop == nil {
		return
	}
	s.stop()
	s.Require().NoError(<-s.done)
}

// Step prints a colorized header for a scenario step.
func (s *BaseRelaySuite) Step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// Scenario hands out identities unique to one test, so that frames about
// clients of other scenarios can be told apart.
type Scenario struct {
	s      *BaseRelaySuite
	suffix string
	known  map[domain.Identity]bool
}

func (s *BaseRelaySuite) NewScenario() *Scenario {
	return &Scenario{s: s, suffix: uuid.NewString()[:8], known: make(map[domain.Identity]bool)}
}

func (sc *Scenario) Identity(name string) domain.Identity {
	identity := domain.Identity(name + "-" + sc.suffix)
	sc.known[identity] = true
	return identity
}

// RelayClient is a client connected to the relay under test.
type RelayClient struct {
	*client.Client
	Identity domain.Identity
	sc       *Scenario
}

// Connect dials the relay without registering.
func (sc *Scenario) Connect(identity domain.Identity) *RelayClient {
	ctx, cancel := context.WithTimeout(context.Background(), sc.s.timeout)
	defer cancel()
	c, err := client.Dial(ctx, sc.s.Config.RelayAddr)
	sc.s.Require().NoError(err, "Failed to connect to relay at "+sc.s.Config.RelayAddr)
	sc.s.T().Cleanup(func() { _ = c.Close() })
	return &RelayClient{Client: c, Identity: identity, sc: sc}
}

// Join connects and registers, checking the roster it receives.
func (sc *Scenario) Join(name string) *RelayClient {
	rc := sc.Connect(sc.Identity(name))
	sc.s.Require().NoError(rc.Register(rc.Identity))
	roster, ok := rc.Next().(domain.RosterSnapshot)
	sc.s.Require().True(ok, "%s expected a roster first", rc.Identity)
	sc.s.Require().Contains(roster.Identities, rc.Identity)
	return rc
}

// Next returns the next frame concerning this scenario, skipping join and
// leave notices about clients of other scenarios.
func (rc *RelayClient) Next() domain.Frame {
	s := rc.sc.s
	for {
		s.Require().NoError(rc.SetDeadline(time.Now().Add(s.timeout)))
		frame, err := rc.Receive()
		s.Require().NoError(err, "%s expected a frame", rc.Identity)
		switch f := frame.(type) {
		case domain.Joined:
			if !rc.sc.known[f.Identity] {
				continue
			}
		case domain.Departed:
			if !rc.sc.known[f.Identity] {
				continue
			}
		}
		return frame
	}
}

func (rc *RelayClient) Expect(want domain.Frame) {
	rc.sc.s.Require().Equal(want, rc.Next(), "frame received by %s", rc.Identity)
}

// ExpectClosed waits for the relay to close the connection.
func (rc *RelayClient) ExpectClosed() {
	s := rc.sc.s
	s.Require().NoError(rc.SetDeadline(time.Now().Add(s.timeout)))
	for {
		frame, err := rc.Receive()
		if err != nil {
			var netErr net.Error
			s.Require().False(errors.As(err, &netErr) && netErr.Timeout(), "%s still open", rc.Identity)
			return
		}
		if _, foreign := frame.(domain.Joined); foreign {
			continue
		}
		if _, foreign := frame.(domain.Departed); foreign {
			continue
		}
		s.Failf("unexpected frame", "%s received %#v before closing", rc.Identity, frame)
	}
}

package workers

import (
	"chat-relay/domain"
	"chat-relay/mocks"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAuditFanout_Fanout_Reaches_Every_Sink(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	first := mocks.NewMockAuditSink(ctrl)
	second := mocks.NewMockAuditSink(ctrl)
	evt := domain.NewAuditEvent(domain.AuditRegistered, "alice", "", "127.0.0.1:1")

	done := make(chan struct{})
	first.EXPECT().Consume(gomock.Any(), evt).Return(nil).Times(1)
	second.EXPECT().Consume(gomock.Any(), evt).DoAndReturn(func(ctx context.Context, _ domain.AuditEvent) error {
		close(done)
		return nil
	}).Times(1)

	fanout := NewAuditFanout(logs.GetLoggerFromLevel(slog.LevelDebug), 4, time.Second, first, second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = fanout.Run(ctx) }()

	// When the relay records an event
	fanout.Record(evt)

	// Then both sinks consume it
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Sinks were not consumed in time")
	}
}

func TestAuditFanout_Slow_Sink_Times_Out(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	slow := mocks.NewMockAuditSink(ctrl)
	next := mocks.NewMockAuditSink(ctrl)

	slow.EXPECT().Consume(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, _ domain.AuditEvent) error {
		<-ctx.Done()
		return ctx.Err()
	}).Times(1)
	next.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	fanout := NewAuditFanout(logs.GetLoggerFromLevel(slog.LevelDebug), 1, 20*time.Millisecond, slow, next)

	start := time.Now()
	fanout.Fanout(context.Background(), domain.NewAuditEvent(domain.AuditDeparted, "bob", domain.ReasonLeave, ""))

	// Then the slow sink did not hold the next one for long
	req.Less(time.Since(start), 500*time.Millisecond)
}

func TestAuditFanout_Record_Never_Blocks(t *testing.T) {
	req := require.New(t)
	fanout := NewAuditFanout(logs.GetLoggerFromLevel(slog.LevelDebug), 1, time.Second)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// Given nobody drains the buffer
		for range 10 {
			fanout.Record(domain.NewAuditEvent(domain.AuditRegistered, "alice", "", ""))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Record blocked on a full buffer")
	}
	req.Len(fanout.events, 1)
}

func TestAuditFanout_Flushes_On_Shutdown(t *testing.T) {
	ctrl := gomock.NewController(t)
	sink := mocks.NewMockAuditSink(ctrl)
	sink.EXPECT().Consume(gomock.Any(), gomock.Any()).Return(nil).Times(2)

	fanout := NewAuditFanout(logs.GetLoggerFromLevel(slog.LevelDebug), 4, time.Second, sink)
	fanout.Record(domain.NewAuditEvent(domain.AuditRegistered, "alice", "", ""))
	fanout.Record(domain.NewAuditEvent(domain.AuditDeparted, "alice", domain.ReasonLeave, ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, fanout.Run(ctx))
}

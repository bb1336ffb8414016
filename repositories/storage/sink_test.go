package storage

import (
	"chat-relay/domain"
	"chat-relay/repositories"
	"context"
	"log/slog"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/require"
)

func TestDiskSink_Consume_Persists_Event(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	repository := repositories.NewAuditRepository(db, slog.Default())
	sink := NewDiskSink(repository)
	evt := domain.NewAuditEvent(domain.AuditRegistered, "alice", "", "127.0.0.1:9000")

	req.NoError(sink.Consume(context.Background(), evt))

	fetched, _, err := repository.List(repositories.AuditQuery{})
	req.NoError(err)
	req.Equal([]domain.AuditEvent{evt}, fetched)
}

func TestDiskSink_Consume_Refuses_Expired_Context(t *testing.T) {
	req := require.New(t)
	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	defer db.Close()
	sink := NewDiskSink(repositories.NewAuditRepository(db, slog.Default()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = sink.Consume(ctx, domain.NewAuditEvent(domain.AuditDeparted, "bob", domain.ReasonDisconnect, ""))

	req.ErrorIs(err, context.Canceled)
}

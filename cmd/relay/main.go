package main

import (
	"chat-relay/contract"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/repositories"
	"chat-relay/repositories/storage"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/sink"
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/database"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Exit codes for the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run wires the relay and blocks until a signal or a fatal worker error.
// Returning instead of exiting lets the deferred database close run.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	config, err := internal.Load()
	if err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	var filter contract.Filter
	if words := config.CensoredWordList(); len(words) > 0 {
		replacement, err := internal.CharacterRune(config.CharReplacement)
		if err != nil {
			return exitConfig, err
		}
		moderator, err := moderation.NewModerator(words, replacement)
		if err != nil {
			return exitConfig, fmt.Errorf("moderation setup failed: %w", err)
		}
		filter = moderator
		log.Info("Moderation enabled", "words", len(words))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Audit sinks, the disk one only when a store is configured
	auditSinks := []contract.AuditSink{sink.NewLogSink(log)}
	if config.BadgerFilepath != "" {
		db, err := badger.Open(buildBadgerOpts(config, log, ctx))
		if err != nil {
			return exitRuntime, fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()
		auditSinks = append(auditSinks, storage.NewDiskSink(repositories.NewAuditRepository(db, log)))

		if config.DebugPort > 0 {
			endpoint := "/inspect"
			log.Info("Audit inspector available",
				"url", fmt.Sprintf("http://localhost:%d%s?prefix=audit:", config.DebugPort, endpoint))
			database.StartDebugServer(db, config.DebugPort, endpoint, AuditMapper)
		}
	}
	fanout := workers.NewAuditFanout(log, config.AuditBufferSize, config.SinkTimeout, auditSinks...)

	// 3. Relay
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewDispatcher(log, registry, fanout, filter)

	listener, err := net.Listen("tcp", config.Address())
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to listen on %s: %w", config.Address(), err)
	}
	acceptor := runtime.NewAcceptor(log, listener, dispatcher, runtime.SessionConfig{
		BufferSize:   config.ConnectionBufferSize,
		MaxFrameSize: config.MaxFrameSize,
		WriteTimeout: config.WriteTimeout,
	})

	// 4. Supervision, blocks until shutdown
	supervisor := workers.NewSupervisor(log).WithRestartInterval(config.RestartInterval)
	supervisor.Add(
		acceptor,
		fanout,
		workers.NewHealthReporter(log, registry, config.StatsInterval).Watch("audit_queue", fanout),
	)
	if err = supervisor.Run(ctx); err != nil {
		return exitRuntime, err
	}

	log.Info("Relay stopped cleanly")
	return exitOK, nil
}

func buildBadgerOpts(config internal.Config, log *slog.Logger, ctx context.Context) badger.Options {
	options := badger.DefaultOptions(config.BadgerFilepath)
	if log.Enabled(ctx, slog.LevelDebug) {
		return options.WithLoggingLevel(badger.DEBUG)
	}
	return options.WithLoggingLevel(badger.WARNING)
}

// AuditMapper renders one audit record in the badger inspector.
func AuditMapper(key string, val []byte) database.InspectRow {
	row := database.DefaultMapper(key, val)

	var s structpb.Struct
	if err := proto.Unmarshal(val, &s); err != nil {
		row.Detail = "Error: unmarshal failed"
		return row
	}
	fields := s.GetFields()
	row.Type = fields["kind"].GetStringValue()
	row.Detail = fmt.Sprintf("%s %s %s at %s",
		fields["identity"].GetStringValue(),
		fields["reason"].GetStringValue(),
		fields["remote_addr"].GetStringValue(),
		fields["at"].GetStringValue(),
	)
	return row
}

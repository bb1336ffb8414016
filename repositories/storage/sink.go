package storage

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/repositories"
	"context"
)

var _ contract.AuditSink = DiskSink{}

// DiskSink persists audit events so they outlive the relay process.
type DiskSink struct {
	repository repositories.IAuditRepository
}

func NewDiskSink(repository repositories.IAuditRepository) DiskSink {
	return DiskSink{repository: repository}
}

func (d DiskSink) Name() string { return "disk" }

func (d DiskSink) Consume(ctx context.Context, evt domain.AuditEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.repository.Store(evt)
}

package repositories

import (
	"bytes"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const auditPrefix = "audit:"

type IAuditRepository interface {
	Store(evt domain.AuditEvent) error
	List(query AuditQuery) ([]domain.AuditEvent, *string, error)
}

// AuditQuery selects audit events newest first.
// Cursor is the value returned by a previous List call, nil to start from the newest.
type AuditQuery struct {
	Identity domain.Identity
	Limit    int
	Cursor   *string
}

type AuditRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewAuditRepository(db *badger.DB, log *slog.Logger) AuditRepository {
	return AuditRepository{db: db, log: log}
}

// Store persists an event under "audit:{timestamp_padded}:{uuid}".
// The 19 digit padding keeps keys in chronological order and the uuid
// separates two events of the same nanosecond.
func (r AuditRepository) Store(evt domain.AuditEvent) error {
	value, err := fromAuditEvent(evt)
	if err != nil {
		return err
	}
	encoded, err := proto.Marshal(value)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(auditKey(evt), encoded)
	})
}

// List walks the keys backwards from the cursor, keeping events of
// query.Identity when set. The returned cursor is nil once the oldest
// event was reached.
func (r AuditRepository) List(query AuditQuery) ([]domain.AuditEvent, *string, error) {
	var events []domain.AuditEvent
	var next *string
	prefix := []byte(auditPrefix)

	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		if query.Cursor == nil {
			seekKey = append([]byte(auditPrefix), "9999999999999999999;"...)
		} else {
			seekKey = append([]byte(auditPrefix), *query.Cursor...)
		}
		it.Seek(seekKey)
		if query.Cursor != nil && it.ValidForPrefix(prefix) && bytes.Equal(it.Item().Key(), seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if query.Limit > 0 && len(events) == query.Limit {
				r.log.Debug(fmt.Sprintf("Maximum of %d audit events reached", query.Limit))
				cursor := string(cursorKey(events[len(events)-1]))
				next = &cursor
				break
			}
			var evt domain.AuditEvent
			err := it.Item().Value(func(value []byte) error {
				var decodeErr error
				evt, decodeErr = decode(value)
				return decodeErr
			})
			if err != nil {
				return err
			}
			if query.Identity != "" && evt.Identity != query.Identity {
				continue
			}
			events = append(events, evt)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return events, next, nil
}

func auditKey(evt domain.AuditEvent) []byte {
	return append([]byte(auditPrefix), cursorKey(evt)...)
}

func cursorKey(evt domain.AuditEvent) []byte {
	return fmt.Appendf(nil, "%019d:%s", evt.At.UnixNano(), evt.ID)
}

func decode(value []byte) (domain.AuditEvent, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(value, &s); err != nil {
		return domain.AuditEvent{}, err
	}
	return toAuditEvent(&s)
}

func fromAuditEvent(evt domain.AuditEvent) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":          evt.ID.String(),
		"kind":        string(evt.Kind),
		"identity":    string(evt.Identity),
		"reason":      evt.Reason,
		"remote_addr": evt.RemoteAddr,
		"at":          evt.At.UTC().Format(time.RFC3339Nano),
	})
}

func toAuditEvent(s *structpb.Struct) (domain.AuditEvent, error) {
	fields := s.GetFields()
	str := func(name string) string { return fields[name].GetStringValue() }

	id, err := uuid.Parse(str("id"))
	if err != nil {
		return domain.AuditEvent{}, fmt.Errorf("%w: id: %v", errors.ErrInvalidPayload, err)
	}
	at, err := time.Parse(time.RFC3339Nano, str("at"))
	if err != nil {
		return domain.AuditEvent{}, fmt.Errorf("%w: at: %v", errors.ErrInvalidPayload, err)
	}
	return domain.AuditEvent{
		ID:         id,
		Kind:       domain.AuditKind(str("kind")),
		Identity:   domain.Identity(str("identity")),
		Reason:     str("reason"),
		RemoteAddr: str("remote_addr"),
		At:         at.UTC(),
	}, nil
}

// Package codec translates between wire frames and the domain frame model.
//
// A frame is a single line of `|` separated fields. The first field is an
// upper-case tag; the last field of a payload-bearing frame may itself
// contain `|`.
package codec

import (
	"bytes"
	"chat-relay/checksum"
	"chat-relay/domain"
	"chat-relay/errors"
	"fmt"
	"strings"

	"github.com/samber/lo"
)

const separator = "|"

// Decode parses a frame sent by a client.
// Any failure wraps errors.ErrMalformedFrame.
func Decode(raw []byte) (domain.Frame, error) {
	if bytes.ContainsAny(raw, "\r\n") {
		return nil, malformed("line break inside frame")
	}
	tag, rest, hasSep := strings.Cut(string(raw), separator)
	switch domain.Tag(tag) {
	case domain.TagName:
		if !hasSep {
			return nil, malformed("NAME without identity")
		}
		return domain.Register{Identity: rest}, nil
	case domain.TagMessage, domain.TagResend:
		if !hasSep {
			return nil, malformed("%s without recipient", tag)
		}
		recipient, text, ok := strings.Cut(rest, separator)
		if !ok {
			return nil, malformed("%s without text", tag)
		}
		if domain.Tag(tag) == domain.TagResend {
			return domain.Resend{Recipient: domain.Identity(recipient), Text: text}, nil
		}
		return domain.Unicast{Recipient: domain.Identity(recipient), Text: text}, nil
	case domain.TagGone:
		return domain.Leave{}, nil
	case "":
		return nil, malformed("missing tag")
	default:
		return nil, malformed("unknown tag %q", tag)
	}
}

// DecodeOutbound parses a frame sent by the server.
//
// Both deliveries share the MESG tag. A MESG frame whose last field is an
// 8 digit checksum of the text before it is a DeliveredChecked; anything
// else is a Delivered from the sender named in the second field.
func DecodeOutbound(raw []byte) (domain.Frame, error) {
	tag, rest, hasSep := strings.Cut(string(raw), separator)
	switch domain.Tag(tag) {
	case domain.TagList:
		if !hasSep || rest == "" {
			return domain.RosterSnapshot{}, nil
		}
		ids := lo.Map(strings.Split(rest, separator), func(s string, _ int) domain.Identity {
			return domain.Identity(s)
		})
		return domain.RosterSnapshot{Identities: ids}, nil
	case domain.TagNew:
		if !hasSep {
			return nil, malformed("NEW without identity")
		}
		return domain.Joined{Identity: domain.Identity(rest)}, nil
	case domain.TagGone:
		if !hasSep {
			return nil, malformed("GONE without identity")
		}
		return domain.Departed{Identity: domain.Identity(rest)}, nil
	case domain.TagError:
		if !hasSep {
			return nil, malformed("ERR without reason")
		}
		return domain.Error{Reason: rest}, nil
	case domain.TagMessage:
		if !hasSep {
			return nil, malformed("MESG without payload")
		}
		return decodeDelivery(rest)
	case "":
		return nil, malformed("missing tag")
	default:
		return nil, malformed("unknown tag %q", tag)
	}
}

func decodeDelivery(rest string) (domain.Frame, error) {
	if i := strings.LastIndex(rest, separator); i >= 0 {
		text := rest[:i]
		if sum, err := checksum.ParseHex(rest[i+1:]); err == nil && checksum.Verify([]byte(text), sum) {
			return domain.DeliveredChecked{Text: text, Checksum: sum}, nil
		}
	}
	sender, text, ok := strings.Cut(rest, separator)
	if !ok {
		return nil, malformed("MESG without text")
	}
	return domain.Delivered{Sender: domain.Identity(sender), Text: text}, nil
}

// Encode renders any frame, inbound or outbound, in its wire form.
func Encode(frame domain.Frame) ([]byte, error) {
	switch f := frame.(type) {
	case domain.Register:
		return join(domain.TagName, f.Identity), nil
	case domain.Unicast:
		return join(domain.TagMessage, string(f.Recipient), f.Text), nil
	case domain.Resend:
		return join(domain.TagResend, string(f.Recipient), f.Text), nil
	case domain.Leave:
		return join(domain.TagGone), nil
	case domain.RosterSnapshot:
		ids := lo.Map(f.Identities, func(id domain.Identity, _ int) string { return string(id) })
		return join(domain.TagList, ids...), nil
	case domain.Joined:
		return join(domain.TagNew, string(f.Identity)), nil
	case domain.Departed:
		return join(domain.TagGone, string(f.Identity)), nil
	case domain.Delivered:
		return join(domain.TagMessage, string(f.Sender), f.Text), nil
	case domain.DeliveredChecked:
		return join(domain.TagMessage, f.Text, checksum.Hex(f.Checksum)), nil
	case domain.Error:
		return join(domain.TagError, f.Reason), nil
	default:
		return nil, fmt.Errorf("%w: %T", errors.ErrUnknownFrame, frame)
	}
}

func join(tag domain.Tag, fields ...string) []byte {
	return []byte(strings.Join(append([]string{string(tag)}, fields...), separator))
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errors.ErrMalformedFrame, fmt.Sprintf(format, args...))
}

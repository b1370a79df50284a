package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Tags of the known control messages
const (
	TagFile = "File"
	TagLink = "Link"
)

var ErrMalformedMessage = errors.New("malformed control message")

// Message is a control message. The set of variants is closed: FileMessage,
// LinkMessage and UnknownMessage, which decoding produces for any other tag.
//
// On the wire a message is a single-key JSON object {"<Tag>": <payload>}, or
// a bare JSON string "<Tag>" for a message without payload.
type Message interface {
	Tag() string
	isMessage()
}

// FileMessage announces the file whose chunks follow on the channel
type FileMessage struct {
	File string `json:"file"`
	Size int64  `json:"size"`
}

// LinkMessage carries the identifier the endpoint generated for an upload
type LinkMessage struct {
	Link string `json:"link"`
}

// UnknownMessage is any message whose tag has no variant. Payload is nil for
// the bare-string form.
type UnknownMessage struct {
	Name    string
	Payload json.RawMessage
}

func (FileMessage) Tag() string      { return TagFile }
func (LinkMessage) Tag() string      { return TagLink }
func (m UnknownMessage) Tag() string { return m.Name }

func (FileMessage) isMessage()    {}
func (LinkMessage) isMessage()    {}
func (UnknownMessage) isMessage() {}

// EncodeMessage serializes a message to its tagged JSON form
func EncodeMessage(msg Message) ([]byte, error) {
	var payload any = msg
	if u, ok := msg.(UnknownMessage); ok {
		if u.Payload == nil {
			return json.Marshal(u.Name)
		}
		payload = u.Payload
	}

	data, err := json.Marshal(map[string]any{msg.Tag(): payload})
	if err != nil {
		return nil, fmt.Errorf("failed to serialize %s message: %w", msg.Tag(), err)
	}
	return data, nil
}

// DecodeMessage parses a tagged JSON control message
func DecodeMessage(data []byte) (Message, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty frame", ErrMalformedMessage)
	}

	if data[0] == '"' {
		var tag string
		if err := json.Unmarshal(data, &tag); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
		}
		switch tag {
		case TagFile, TagLink:
			return nil, fmt.Errorf("%w: %s requires a payload", ErrMalformedMessage, tag)
		}
		return UnknownMessage{Name: tag}, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if len(envelope) != 1 {
		return nil, fmt.Errorf("%w: expected exactly one tag, got %d", ErrMalformedMessage, len(envelope))
	}

	for tag, raw := range envelope {
		switch tag {
		case TagFile:
			var m FileMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedMessage, tag, err)
			}
			return m, nil
		case TagLink:
			var m LinkMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				return nil, fmt.Errorf("%w: %s payload: %v", ErrMalformedMessage, tag, err)
			}
			if m.Link == "" {
				return nil, fmt.Errorf("%w: %s without link id", ErrMalformedMessage, tag)
			}
			return m, nil
		default:
			return UnknownMessage{Name: tag, Payload: raw}, nil
		}
	}
	panic("unreachable")
}

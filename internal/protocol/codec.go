package protocol

import (
	"encoding/json"
	"fmt"
)

// UnknownTypeError reports an inbound message whose type has no
// handler. The gateway logs it and keeps the connection open.
type UnknownTypeError struct {
	Type Type
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown message type %q", e.Type)
}

// MalformedError reports inbound data that is not a valid message object
type MalformedError struct {
	Err error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed message: %v", e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }

type envelope struct {
	Type Type `json:"type"`
}

// Decode parses a client-to-server message. Server-to-client types are
// never decoded here; requests and acknowledgments that share a wire
// type are disambiguated by direction.
func Decode(data []byte) (Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &MalformedError{Err: err}
	}

	var msg Message
	switch env.Type {
	case TypeCreateRoom:
		msg = &CreateRoom{}
	case TypeJoinGame:
		msg = &JoinGame{}
	case TypeInvite:
		msg = &Invite{}
	case TypePlayerMove:
		msg = &PlayerMove{}
	case TypeLeaveGame:
		msg = &LeaveGame{}
	case TypeJoinTournament:
		msg = &JoinTournament{}
	case TypeLeaveTournament:
		msg = &LeaveTournament{}
	default:
		return nil, &UnknownTypeError{Type: env.Type}
	}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, &MalformedError{Err: err}
	}
	return msg, nil
}

// Encode serializes a message with its type discriminant spliced in as
// the first field of the JSON object.
func Encode(m Message) ([]byte, error) {
	payload, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}

	head := fmt.Sprintf(`{"type":%q`, m.MessageType())
	if len(payload) <= 2 {
		// Empty object
		return []byte(head + "}"), nil
	}
	return append([]byte(head+","), payload[1:]...), nil
}

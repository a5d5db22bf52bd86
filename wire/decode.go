package wire

import "encoding/json"

func decodeAs[T Event](tag string, data []byte) (Event, error) {
	var ev T
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, &CodecError{Tag: tag, Err: err}
	}
	return ev, nil
}

// Decode parses an inbound gateway frame into a typed event.
//
// A malformed payload for a known tag returns a *CodecError; the
// session logs it and keeps reading, a single bad frame never tears
// the connection down. A tag outside the known set returns an Unknown
// event and a nil error.
func Decode(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, &CodecError{Err: err}
	}

	switch env.Type {
	case "Error":
		return decodeAs[ErrorEvent](env.Type, data)
	case "Authenticated":
		return decodeAs[Authenticated](env.Type, data)
	case "Pong":
		return decodeAs[Pong](env.Type, data)
	case "Ready":
		return decodeAs[Ready](env.Type, data)
	case "Message":
		return decodeAs[MessageCreate](env.Type, data)
	case "MessageUpdate":
		return decodeAs[MessageUpdate](env.Type, data)
	case "MessageDelete":
		return decodeAs[MessageDelete](env.Type, data)
	case "ChannelCreate":
		return decodeAs[ChannelCreate](env.Type, data)
	case "ChannelUpdate":
		return decodeAs[ChannelUpdate](env.Type, data)
	case "ChannelDelete":
		return decodeAs[ChannelDelete](env.Type, data)
	case "ServerUpdate":
		return decodeAs[ServerUpdate](env.Type, data)
	case "ServerDelete":
		return decodeAs[ServerDelete](env.Type, data)
	case "ServerMemberJoin":
		return decodeAs[ServerMemberJoin](env.Type, data)
	case "ServerMemberLeave":
		return decodeAs[ServerMemberLeave](env.Type, data)
	case "ServerMemberUpdate":
		return decodeAs[ServerMemberUpdate](env.Type, data)
	case "UserUpdate":
		return decodeAs[UserUpdate](env.Type, data)
	case "ChannelStartTyping":
		return decodeAs[ChannelStartTyping](env.Type, data)
	case "ChannelStopTyping":
		return decodeAs[ChannelStopTyping](env.Type, data)
	default:
		raw := make(json.RawMessage, len(data))
		copy(raw, data)
		return Unknown{Type: env.Type, Raw: raw}, nil
	}
}

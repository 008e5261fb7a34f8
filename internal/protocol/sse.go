package protocol

import (
	"encoding/json"
	"strings"
)

// SSEEvent is one decoded Server-Sent-Events event. Data holds the
// JSON-decoded payload when the data field parses as JSON, otherwise
// the raw string.
type SSEEvent struct {
	Event string
	ID    string
	Data  any
}

// ParseSSE decodes a Server-Sent-Events body into its events. Fields
// accumulate into the current event; an empty line closes it. A
// trailing event with no closing blank line is still emitted. The
// optional single space after the field colon is tolerated.
func ParseSSE(text string) []SSEEvent {
	var (
		events  []SSEEvent
		current SSEEvent
		data    []string
		dirty   bool
	)

	flush := func() {
		if !dirty {
			return
		}
		if len(data) > 0 {
			raw := strings.Join(data, "\n")
			var decoded any
			if err := json.Unmarshal([]byte(raw), &decoded); err == nil {
				current.Data = decoded
			} else {
				current.Data = raw
			}
		}
		events = append(events, current)
		current = SSEEvent{}
		data = nil
		dirty = false
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")

		if line == "" {
			flush()
			continue
		}

		switch {
		case strings.HasPrefix(line, "data:"):
			data = append(data, fieldValue(line, "data:"))
			dirty = true
		case strings.HasPrefix(line, "event:"):
			current.Event = fieldValue(line, "event:")
			dirty = true
		case strings.HasPrefix(line, "id:"):
			current.ID = fieldValue(line, "id:")
			dirty = true
		}
	}
	flush()

	return events
}

// FirstData returns the first event payload carrying data, or nil when
// the body contains no data frame at all.
func FirstData(events []SSEEvent) any {
	for _, ev := range events {
		if ev.Data != nil {
			return ev.Data
		}
	}
	return nil
}

// DecodeBody decodes an HTTP response body into a JSON-RPC response.
// Server-Sent-Events decoding is attempted first; when the body holds
// no SSE data frame it is parsed as a single JSON document.
func DecodeBody(body []byte) (*Response, error) {
	for _, ev := range ParseSSE(string(body)) {
		if ev.Data == nil {
			continue
		}
		var raw []byte
		switch d := ev.Data.(type) {
		case string:
			raw = []byte(d)
		default:
			encoded, err := json.Marshal(d)
			if err != nil {
				continue
			}
			raw = encoded
		}
		if resp, err := ParseResponse(raw); err == nil {
			return resp, nil
		}
	}
	return ParseResponse(body)
}

func fieldValue(line, prefix string) string {
	v := line[len(prefix):]
	return strings.TrimPrefix(v, " ")
}

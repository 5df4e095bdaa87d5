package events

import (
	"bufio"
	"io"
	"strings"
)

// readFrames parses a text/event-stream body and invokes emit for every
// complete event. Comment lines (": ping" heartbeats) and fields other than
// "event" and "data" are skipped. Returns the read error that ended the
// stream (io.EOF on clean close).
func readFrames(r io.Reader, emit func(event string, data []byte)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	event := ""
	var data []string

	flush := func() {
		if len(data) == 0 {
			event = ""
			return
		}
		emit(event, []byte(strings.Join(data, "\n")))
		event = ""
		data = nil
	}

	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")

		switch {
		case line == "":
			flush()
		case strings.HasPrefix(line, ":"):
			// comment / heartbeat
		case strings.HasPrefix(line, "event:"):
			event = strings.TrimPrefix(strings.TrimPrefix(line, "event:"), " ")
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// id:, retry: and unknown fields are irrelevant to this client
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return io.EOF
}

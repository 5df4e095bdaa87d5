package events

import "encoding/json"

// Message is one server-sent event delivered to a topic handler. Data is the
// raw payload exactly as sent; JSON payloads are decoded by the consumer.
type Message struct {
	Topic string
	Data  []byte
}

func (m Message) Decode(v any) error {
	return json.Unmarshal(m.Data, v)
}

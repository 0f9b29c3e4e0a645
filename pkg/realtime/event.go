package realtime

import (
	"encoding/json"
	"strings"
	"time"
)

// Event is the wire envelope every broadcaster sends.
type Event struct {
	Topic   string    `json:"topic"`
	Event   string    `json:"event"`
	Payload any       `json:"payload"`
	At      time.Time `json:"at"`
}

func encode(topic, event string, payload any) ([]byte, error) {
	return json.Marshal(Event{Topic: topic, Event: event, Payload: payload, At: time.Now().UTC()})
}

// mqttTopic turns "incident:abc" into "sos/incident/abc".
func mqttTopic(prefix, topic string) string {
	return strings.TrimRight(prefix, "/") + "/" + strings.Replace(topic, ":", "/", 1)
}

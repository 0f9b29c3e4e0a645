package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/time/rate"

	"liyu1981.xyz/sos-response-service/pkg/common"
	"liyu1981.xyz/sos-response-service/pkg/models"
	"liyu1981.xyz/sos-response-service/pkg/sos"
	"liyu1981.xyz/sos-response-service/pkg/sos/mocks"
	_ "liyu1981.xyz/sos-response-service/pkg/testing"
)

type doneToken struct {
	err error
}

func (t *doneToken) Wait() bool                     { return true }
func (t *doneToken) WaitTimeout(time.Duration) bool { return true }
func (t *doneToken) Error() error                   { return t.err }
func (t *doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	payload []byte
}

// fakeMQTT implements the parts of mqtt.Client the package uses.
type fakeMQTT struct {
	mqtt.Client
	mu        sync.Mutex
	published []published
	handlers  map[string]mqtt.MessageHandler
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, published{topic: topic, payload: payload.([]byte)})
	return &doneToken{}
}

func (f *fakeMQTT) Subscribe(topic string, qos byte, callback mqtt.MessageHandler) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.handlers == nil {
		f.handlers = map[string]mqtt.MessageHandler{}
	}
	f.handlers[topic] = callback
	return &doneToken{}
}

func (f *fakeMQTT) Unsubscribe(topics ...string) mqtt.Token {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range topics {
		delete(f.handlers, t)
	}
	return &doneToken{}
}

type fakeMessage struct {
	mqtt.Message
	topic   string
	payload []byte
}

func (m fakeMessage) Topic() string   { return m.topic }
func (m fakeMessage) Payload() []byte { return m.payload }

func TestMQTTTopic(t *testing.T) {
	assert.Equal(t, "sos/incident/abc", mqttTopic("sos", "incident:abc"))
	assert.Equal(t, "sos/role/staff", mqttTopic("sos/", "role:staff"))
	assert.Equal(t, "dev-9", deviceIDFromTopic("devices/dev-9/events"))
	assert.Equal(t, "", deviceIDFromTopic("devices"))
}

func TestMQTTPublisher(t *testing.T) {
	common.SetTestLoggerNop()

	client := &fakeMQTT{}
	p := NewMQTTPublisher(client)
	p.Publish(context.Background(), sos.IncidentTopic("i-1"), sos.EventIncidentStatus, map[string]string{"status": "acknowledged"})

	require.Len(t, client.published, 1)
	assert.Equal(t, "sos/incident/i-1", client.published[0].topic)

	var ev Event
	require.NoError(t, json.Unmarshal(client.published[0].payload, &ev))
	assert.Equal(t, "incident:i-1", ev.Topic)
	assert.Equal(t, sos.EventIncidentStatus, ev.Event)
	assert.Equal(t, map[string]any{"status": "acknowledged"}, ev.Payload)
}

func TestDeviceSubscriber(t *testing.T) {
	common.SetTestLoggerNop()

	client := &fakeMQTT{}
	var mu sync.Mutex
	var got []models.DeviceEvent
	handle := func(_ context.Context, ev models.DeviceEvent) (*sos.DeviceResult, error) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, ev)
		if ev.EventID == "bad" {
			return nil, errors.New("rejected")
		}
		return &sos.DeviceResult{IncidentID: "i-" + ev.EventID}, nil
	}
	limiters := sos.NewRateLimiterStore(rate.Limit(0), 2)
	sub := NewDeviceSubscriber(client, "devices/+/events", handle, limiters)
	require.NoError(t, sub.Start())

	cb := client.handlers["devices/+/events"]
	require.NotNil(t, cb)

	cb(client, fakeMessage{topic: "devices/dev-1/events", payload: []byte(`{"eventId":"e1","userId":"u1","type":"fall_detection","lat":1.5,"lng":2.5}`)})
	cb(client, fakeMessage{topic: "devices/dev-1/events", payload: []byte(`not json`)})
	cb(client, fakeMessage{topic: "devices/dev-1/events", payload: []byte(`{"eventId":"bad","type":"manual_sos"}`)})
	// dev-1 used its two tokens
	cb(client, fakeMessage{topic: "devices/dev-1/events", payload: []byte(`{"eventId":"e3","type":"manual_sos"}`)})
	cb(client, fakeMessage{topic: "devices/x/events", payload: []byte(`{"deviceId":"dev-2","eventId":"e4","type":"location","lat":1,"lng":1}`)})

	require.Len(t, got, 3)
	assert.Equal(t, "dev-1", got[0].DeviceID)
	assert.Equal(t, models.IncidentTypeFallDetection, got[0].Trigger().Type)
	assert.Equal(t, models.TriggerSourceDevice, got[0].Trigger().Source)
	assert.Equal(t, "bad", got[1].EventID)
	assert.Equal(t, "dev-2", got[2].DeviceID)
	assert.Equal(t, models.DeviceEventLocation, got[2].Type)

	sub.Stop()
	assert.Empty(t, client.handlers)
}

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.msgs = append(w.msgs, msgs...)
	return w.err
}

func (w *fakeWriter) Close() error { return nil }

func TestKafkaPublisher(t *testing.T) {
	common.SetTestLoggerNop()

	w := &fakeWriter{}
	p := &KafkaPublisher{writer: w, logger: common.GetLoggerWith(common.LoggerNameRealtime)}
	p.Publish(context.Background(), sos.UserTopic("u-1"), sos.EventGeofenceTrigger, gin.H{"direction": "entry"})

	require.Len(t, w.msgs, 1)
	assert.Equal(t, "user:u-1", string(w.msgs[0].Key))
	assert.Equal(t, []kafka.Header{{Key: "event", Value: []byte(sos.EventGeofenceTrigger)}}, w.msgs[0].Headers)

	var ev Event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, sos.EventGeofenceTrigger, ev.Event)

	w.err = errors.New("broker down")
	assert.NotPanics(t, func() {
		p.Publish(context.Background(), "user:u-1", sos.EventGeofenceTrigger, nil)
	})
	require.NoError(t, p.Close())
}

func TestMulti(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	a := mocks.NewMockBroadcaster(ctrl)
	b := mocks.NewMockBroadcaster(ctrl)
	ctx := context.Background()
	gomock.InOrder(
		a.EXPECT().Publish(ctx, "incident:1", sos.EventIncidentCreated, "x"),
		b.EXPECT().Publish(ctx, "incident:1", sos.EventIncidentCreated, "x"),
	)

	Multi{a, nil, b}.Publish(ctx, "incident:1", sos.EventIncidentCreated, "x")
}

func TestHubServe(t *testing.T) {
	common.SetTestLoggerNop()
	gin.SetMode(gin.TestMode)

	hub := NewHub(time.Minute)
	r := gin.New()
	r.GET("/events", func(c *gin.Context) {
		hub.Serve(c, c.Query("client"), []string{sos.UserTopic("u-1")})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events?client=c1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(ctx, sos.UserTopic("someone-else"), sos.EventIncidentCreated, gin.H{"id": "nope"})
	hub.Publish(ctx, sos.UserTopic("u-1"), sos.EventIncidentCreated, gin.H{"id": "i-1"})

	reader := bufio.NewReader(resp.Body)
	var lines []string
	for len(lines) < 3 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		if line == "" || strings.HasPrefix(line, "retry:") {
			continue
		}
		lines = append(lines, line)
	}
	assert.Regexp(t, `^id: \d+$`, lines[0])
	assert.Equal(t, "event: incident.created", lines[1])
	assert.Equal(t, `data: {"id":"i-1"}`, lines[2])

	cancel()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

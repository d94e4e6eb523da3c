package mqtt

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"

	"github.com/sweeney/thermofan/internal/logic"
)

// fakeToken is a paho.Token that is already complete, or never completes.
type fakeToken struct {
	err     error
	stalled bool
}

func (t fakeToken) Wait() bool                     { return !t.stalled }
func (t fakeToken) WaitTimeout(time.Duration) bool { return !t.stalled }
func (t fakeToken) Error() error                   { return t.err }

func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	if !t.stalled {
		close(ch)
	}
	return ch
}

type sentMsg struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

// fakeClient records publishes. Fan events at failTemp are refused, and
// while stall is set no publish completes.
type fakeClient struct {
	mu           sync.Mutex
	connected    bool
	attempts     int
	failTemp     int
	stall        bool
	sent         []sentMsg
	disconnected bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{}
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
	data := payload.([]byte)
	if c.stall {
		return fakeToken{stalled: true}
	}
	if c.failTemp != 0 && payloadTemp(data) == c.failTemp {
		return fakeToken{err: errors.New("broker refused")}
	}
	c.sent = append(c.sent, sentMsg{topic: topic, qos: qos, retained: retained, payload: data})
	return fakeToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
}

func (c *fakeClient) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *fakeClient) update(f func(c *fakeClient)) {
	c.mu.Lock()
	f(c)
	c.mu.Unlock()
}

func (c *fakeClient) attemptCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.attempts
}

func (c *fakeClient) sentTemps() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	var temps []int
	for _, m := range c.sent {
		if m.topic == Topic {
			temps = append(temps, payloadTemp(m.payload))
		}
	}
	return temps
}

func payloadTemp(data []byte) int {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return -1
	}
	return p.Fan.TemperatureF
}

func newTestPublisher(t *testing.T, c *fakeClient) *RealPublisher {
	t.Helper()
	p := newPublisher(10 * time.Millisecond)
	p.start(c)
	t.Cleanup(func() { p.Close() })
	return p
}

func fanEvent(tempF int) logic.Event {
	return logic.Event{
		Timestamp:  time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:       logic.EventFanOn,
		TempF:      tempF,
		ThresholdF: 75,
		State:      logic.ThermalFanOn,
	}
}

func TestRealPublisherQueuesUntilConnected(t *testing.T) {
	c := newFakeClient()
	p := newTestPublisher(t, c)

	for _, temp := range []int{76, 77, 78} {
		require.NoError(t, p.Publish(fanEvent(temp)))
	}
	require.Equal(t, 3, p.Pending())
	require.Empty(t, c.sentTemps())

	c.setConnected(true)
	p.onConnect()

	require.Eventually(t, func() bool { return p.Pending() == 0 }, time.Second, time.Millisecond)
	require.Equal(t, []int{76, 77, 78}, c.sentTemps())
}

func TestRealPublisherRequeuesFailedInOrder(t *testing.T) {
	c := newFakeClient()
	c.failTemp = 77
	p := newTestPublisher(t, c)

	for _, temp := range []int{76, 77, 78} {
		require.NoError(t, p.Publish(fanEvent(temp)))
	}
	c.setConnected(true)
	p.onConnect()

	require.Eventually(t, func() bool { return p.Pending() == 2 }, time.Second, time.Millisecond)
	require.Equal(t, []int{76}, c.sentTemps())

	// Reconnect retries the rest, failed message first.
	c.update(func(c *fakeClient) { c.failTemp = 0 })
	p.onConnect()
	require.Eventually(t, func() bool { return p.Pending() == 0 }, time.Second, time.Millisecond)
	require.Equal(t, []int{76, 77, 78}, c.sentTemps())
}

func TestRealPublisherRequeuesOnTimeout(t *testing.T) {
	c := newFakeClient()
	c.stall = true
	p := newTestPublisher(t, c)

	require.NoError(t, p.Publish(fanEvent(80)))
	c.setConnected(true)
	p.onConnect()

	require.Eventually(t, func() bool { return c.attemptCount() >= 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return p.Pending() == 1 }, time.Second, time.Millisecond)
	require.Empty(t, c.sentTemps())

	c.update(func(c *fakeClient) { c.stall = false })
	p.onConnect()
	require.Eventually(t, func() bool { return p.Pending() == 0 }, time.Second, time.Millisecond)
	require.Equal(t, []int{80}, c.sentTemps())
}

func TestRealPublisherSystemEventOptions(t *testing.T) {
	c := newFakeClient()
	c.setConnected(true)
	p := newTestPublisher(t, c)

	require.NoError(t, p.PublishSystem(SystemEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
		Retained:  true,
	}))
	require.Eventually(t, func() bool { return p.Pending() == 0 }, time.Second, time.Millisecond)

	c.mu.Lock()
	defer c.mu.Unlock()
	require.Len(t, c.sent, 1)
	require.Equal(t, TopicSystem, c.sent[0].topic)
	require.Equal(t, byte(1), c.sent[0].qos)
	require.True(t, c.sent[0].retained)
}

func TestRealPublisherCloseFlushesAndDisconnects(t *testing.T) {
	c := newFakeClient()
	p := newPublisher(10 * time.Millisecond)
	p.start(c)

	require.NoError(t, p.Publish(fanEvent(81)))
	c.setConnected(true)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	require.Equal(t, []int{81}, c.sentTemps())
	c.mu.Lock()
	defer c.mu.Unlock()
	require.True(t, c.disconnected)
}

package mqtt

import (
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/sweeney/thermofan/internal/logic"
)

// QueueSize is the number of messages held while the broker is unreachable.
const QueueSize = 256

// publishTimeout bounds the wait for one publish acknowledgement.
const publishTimeout = 5 * time.Second

// brokerClient is the part of paho.Client the publisher uses.
type brokerClient interface {
	IsConnectionOpen() bool
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// RealPublisher publishes to an actual MQTT broker.
// Publish and PublishSystem only enqueue; a background goroutine does the
// network I/O, so callers on the control loop never block on the broker.
type RealPublisher struct {
	client  brokerClient
	timeout time.Duration

	mu    sync.Mutex
	queue *ringBuffer

	wake    chan struct{}
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

// NewRealPublisher creates a publisher for the given broker. The connection is
// established (and re-established) in the background.
func NewRealPublisher(broker, clientID string) *RealPublisher {
	p := newPublisher(publishTimeout)

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, will, 1, true).
		SetOnConnectHandler(func(paho.Client) {
			log.Printf("mqtt: connected to %s", broker)
			p.onConnect()
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	client := paho.NewClient(opts)
	p.start(client)
	client.Connect()
	return p
}

func newPublisher(timeout time.Duration) *RealPublisher {
	return &RealPublisher{
		timeout: timeout,
		queue:   newRingBuffer(QueueSize),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

// start sets the client and launches the publishing goroutine.
func (p *RealPublisher) start(c brokerClient) {
	p.client = c
	go p.run()
}

// onConnect flushes whatever queued up while the broker was away.
func (p *RealPublisher) onConnect() {
	p.signal()
}

// Publish queues a fan event for the broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	p.enqueue(bufferedMsg{topic: Topic, payload: payload})
	return nil
}

// PublishSystem queues a system lifecycle event for the broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	p.enqueue(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Pending returns the number of queued messages.
func (p *RealPublisher) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.len()
}

func (p *RealPublisher) enqueue(msg bufferedMsg) {
	p.mu.Lock()
	p.queue.push(msg)
	p.mu.Unlock()
	p.signal()
}

func (p *RealPublisher) signal() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

func (p *RealPublisher) run() {
	defer close(p.stopped)
	for {
		select {
		case <-p.done:
			p.flush()
			return
		case <-p.wake:
			p.flush()
		}
	}
}

// flush sends everything queued. Messages stay queued while disconnected;
// the connect handler wakes the goroutine again.
func (p *RealPublisher) flush() {
	if !p.client.IsConnectionOpen() {
		return
	}

	p.mu.Lock()
	msgs := p.queue.drainAll()
	p.mu.Unlock()

	for i, m := range msgs {
		token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
		if !token.WaitTimeout(p.timeout) {
			p.requeue(msgs[i:], fmt.Errorf("publish timeout"))
			return
		}
		if err := token.Error(); err != nil {
			p.requeue(msgs[i:], err)
			return
		}
	}
}

func (p *RealPublisher) requeue(msgs []bufferedMsg, err error) {
	log.Printf("mqtt: publish failed, %d messages requeued: %v", len(msgs), err)
	p.mu.Lock()
	p.queue.requeue(msgs)
	p.mu.Unlock()
}

// Close flushes what it can and disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.once.Do(func() {
		close(p.done)
		<-p.stopped
		p.client.Disconnect(1000) // 1 second timeout
	})
	return nil
}

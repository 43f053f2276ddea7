package bambu

import (
	"crypto/tls"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/kittycad/machine-api/internal/machineerr"
	"github.com/kittycad/machine-api/internal/seqid"
)

// MQTTPort is the fixed broker port for Bambu-class printers.
const MQTTPort = 8883

// MaxPacketSize is the 1 MiB MQTT packet size for each direction. The
// client options built in options() do not apply it.
const MaxPacketSize = 1024 * 1024

// FixedUsername is the MQTT (and FTPS) username every device accepts
// regardless of which unit it is; only the access code varies.
const FixedUsername = "bblp"

// KeepAlive is the MQTT keep-alive interval.
const KeepAlive = 5 * time.Second

// RequestTimeout bounds how long publish() waits for a correlated
// response before failing.
const RequestTimeout = 60 * time.Second

// pollInterval is how often publish() polls the response map while
// waiting, matching the 1Hz cadence documented in §4.3.
const pollInterval = 1 * time.Second

// Session is one MQTT request/response session against a Bambu-class
// printer's device/<serial>/{request,report} topics.
type Session struct {
	host       string
	accessCode string
	serial     string

	requestTopic string
	reportTopic  string

	mu     sync.Mutex
	client mqtt.Client
	allocator seqid.Allocator

	responses sync.Map // seqid string -> Message
}

// NewSession constructs a Session and connects to the broker. allocator
// lets tests substitute seqid.Fixed for deterministic sequence ids.
func NewSession(host, accessCode, serial string, allocator seqid.Allocator) (*Session, error) {
	s := &Session{
		host:         host,
		accessCode:   accessCode,
		serial:       serial,
		requestTopic: fmt.Sprintf("device/%s/request", serial),
		reportTopic:  fmt.Sprintf("device/%s/report", serial),
		allocator:    allocator,
	}
	if err := s.connect(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) options() *mqtt.ClientOptions {
	clientID := "bambu-api-" + uuid.NewString()[:8]

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tls://%s:%d", s.host, MQTTPort))
	opts.SetClientID(clientID)
	opts.SetUsername(FixedUsername)
	opts.SetPassword(s.accessCode)
	opts.SetKeepAlive(KeepAlive)
	// Devices ship self-signed certificates unique to each unit; this is
	// a LAN-trust model, not a general TLS client (§9).
	opts.SetTLSConfig(&tls.Config{InsecureSkipVerify: true}) //nolint:gosec
	opts.SetAutoReconnect(false)
	opts.SetOnConnectHandler(func(c mqtt.Client) {
		c.Subscribe(s.reportTopic, 0, s.handleReport)
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("[bambu] connection lost: %v; reconnecting", err)
		go s.reconnectLoop()
	})
	return opts
}

func (s *Session) connect() error {
	client := mqtt.NewClient(s.options())
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return machineerr.New(machineerr.Timeout, component, "connect timed out")
	}
	if err := token.Error(); err != nil {
		return machineerr.Wrap(machineerr.Io, component, err)
	}
	s.mu.Lock()
	s.client = client
	s.mu.Unlock()
	return nil
}

// reconnectLoop reconstructs the client after a connection-lost event, the
// Go analogue of the reference behavior of classifying MqttState::Io and
// AwaitPingResp errors as recoverable and rebuilding the client/event
// loop. paho's client does not expose that error taxonomy directly, so
// every connection-lost event is treated as recoverable and retried with
// exponential backoff, uncapped, since a printer mid-job has no "give up"
// state to fall back to.
func (s *Session) reconnectLoop() {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = time.Second
	policy.MaxInterval = 30 * time.Second
	policy.MaxElapsedTime = 0 // retry forever

	backoff.Retry(func() error {
		err := s.connect()
		if err != nil {
			return err
		}
		log.Printf("[bambu] reconnected to %s", s.host)
		return nil
	}, policy)
}

func (s *Session) handleReport(_ mqtt.Client, msg mqtt.Message) {
	message := ParseMessage(msg.Payload())

	if id, ok := message.SequenceID(); ok {
		if message.IsPushStatus() {
			s.responses.Store(seqid.StatusID().String(), message)
		}
		s.responses.Store(id.String(), message)
		return
	}
	if message.Unknown == nil {
		return
	}
	log.Printf("[bambu] received message with no sequence id: %s", string(message.Unknown))
}

// Publish allocates a sequence id, publishes cmd QoS-0 to the request
// topic, and waits up to RequestTimeout polling the response map at 1Hz.
func (s *Session) Publish(cmd Command) (Message, error) {
	id := s.allocator.Next()
	payload, err := cmd.Marshal(id)
	if err != nil {
		return Message{}, err
	}

	s.mu.Lock()
	client := s.client
	s.mu.Unlock()

	token := client.Publish(s.requestTopic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return Message{}, machineerr.New(machineerr.Timeout, component, "publish did not complete")
	}
	if err := token.Error(); err != nil {
		return Message{}, machineerr.Wrap(machineerr.Io, component, err)
	}

	deadline := time.Now().Add(RequestTimeout)
	for time.Now().Before(deadline) {
		if v, ok := s.responses.Load(id.String()); ok {
			return v.(Message), nil
		}
		time.Sleep(pollInterval)
	}
	return Message{}, machineerr.New(machineerr.Timeout, component, fmt.Sprintf("no response to %s.%s", cmd.Group, cmd.Name))
}

// LastStatus returns the most recently observed push_status, if any.
func (s *Session) LastStatus() (PushStatus, bool) {
	v, ok := s.responses.Load(seqid.StatusID().String())
	if !ok {
		return PushStatus{}, false
	}
	msg := v.(Message)
	if msg.Print == nil {
		return PushStatus{}, false
	}
	return msg.Print.PushStatus, true
}

// Close disconnects the underlying MQTT client.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		s.client.Disconnect(250)
	}
}

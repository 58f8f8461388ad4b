package messaging

import (
	"context"
	"fmt"
	"log"
	"net"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"

	"fabrica/config"
)

// Backend names accepted in messaging.backend.
const (
	BackendKafka = "kafka"
	BackendMQTT  = "mqtt"
	BackendAMQP  = "amqp"
)

type MessageHandler func(topic string, payload []byte)

// Client publishes to and subscribes on one of the supported brokers.
type Client struct {
	mu       sync.RWMutex
	cfg      *config.MessagingConfig
	kafka    *kafkaState
	mqtt     mqtt.Client
	amqp     *amqpState
	handlers map[string]MessageHandler
}

type kafkaState struct {
	readers map[string]*kafka.Reader
	writer  *kafka.Writer
}

type amqpState struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewClient(cfg *config.MessagingConfig) *Client {
	return &Client{
		cfg:      cfg,
		handlers: make(map[string]MessageHandler),
	}
}

func (c *Client) Backend() string { return c.cfg.Backend }

func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.cfg.Backend {
	case BackendKafka:
		return c.connectKafka()
	case BackendMQTT:
		return c.connectMQTT()
	case BackendAMQP:
		return c.connectAMQP()
	default:
		return fmt.Errorf("unknown messaging backend: %q", c.cfg.Backend)
	}
}

func (c *Client) connectKafka() error {
	if len(c.cfg.Kafka.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers configured")
	}

	// Verify at least one broker is reachable
	var conn *kafka.Conn
	var connErr error
	for _, broker := range c.cfg.Kafka.Brokers {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		conn, connErr = kafka.DialContext(ctx, "tcp", broker)
		cancel()
		if connErr == nil {
			log.Printf("messaging: kafka connected to %s", broker)
			break
		}
	}
	if connErr != nil {
		return fmt.Errorf("kafka connect: %w", connErr)
	}

	c.ensureTopics(conn, c.cfg.EventsTopic)
	conn.Close()

	c.kafka = &kafkaState{
		readers: make(map[string]*kafka.Reader),
		writer: &kafka.Writer{
			Addr:         kafka.TCP(c.cfg.Kafka.Brokers...),
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireOne,
		},
	}
	return nil
}

// ensureTopics creates Kafka topics if they don't already exist. Errors are
// logged but not fatal since the broker may auto-create topics.
func (c *Client) ensureTopics(conn *kafka.Conn, topics ...string) {
	if len(topics) == 0 {
		return
	}

	controller, err := conn.Controller()
	if err != nil {
		log.Printf("messaging: cannot find controller for topic creation: %v", err)
		return
	}

	controllerAddr := net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port))
	controllerConn, err := kafka.Dial("tcp", controllerAddr)
	if err != nil {
		log.Printf("messaging: cannot connect to controller: %v", err)
		return
	}
	defer controllerConn.Close()

	configs := make([]kafka.TopicConfig, len(topics))
	for i, t := range topics {
		configs[i] = kafka.TopicConfig{Topic: t, NumPartitions: 1, ReplicationFactor: 1}
	}
	if err := controllerConn.CreateTopics(configs...); err != nil {
		log.Printf("messaging: topic auto-create: %v", err)
	} else {
		log.Printf("messaging: ensured topics exist: %v", topics)
	}
}

func (c *Client) connectMQTT() error {
	broker := fmt.Sprintf("tcp://%s:%d", c.cfg.MQTT.Broker, c.cfg.MQTT.Port)
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(c.cfg.MQTT.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(c.resubscribeMQTT)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("mqtt connect: timeout reaching %s", broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect: %w", err)
	}
	log.Printf("messaging: mqtt connected to %s", broker)
	c.mqtt = client
	return nil
}

// resubscribeMQTT restores subscriptions after an automatic reconnect.
func (c *Client) resubscribeMQTT(client mqtt.Client) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for topic, h := range c.handlers {
		client.Subscribe(topic, 1, mqttCallback(h))
	}
}

func mqttCallback(h MessageHandler) mqtt.MessageHandler {
	return func(_ mqtt.Client, msg mqtt.Message) {
		h(msg.Topic(), msg.Payload())
	}
}

func (c *Client) connectAMQP() error {
	conn, err := amqp.Dial(c.cfg.AMQP.URL)
	if err != nil {
		return fmt.Errorf("amqp connect: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("amqp channel: %w", err)
	}
	if err := ch.ExchangeDeclare(c.cfg.AMQP.Exchange, "topic", true, false, false, false, nil); err != nil {
		conn.Close()
		return fmt.Errorf("amqp declare exchange %s: %w", c.cfg.AMQP.Exchange, err)
	}
	log.Printf("messaging: amqp connected, exchange %s", c.cfg.AMQP.Exchange)
	c.amqp = &amqpState{conn: conn, ch: ch}
	return nil
}

func (c *Client) Publish(topic string, payload []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch c.cfg.Backend {
	case BackendKafka:
		if c.kafka == nil || c.kafka.writer == nil {
			return fmt.Errorf("kafka not connected")
		}
		return c.kafka.writer.WriteMessages(ctx, kafka.Message{Topic: topic, Value: payload})
	case BackendMQTT:
		if c.mqtt == nil || !c.mqtt.IsConnected() {
			return fmt.Errorf("mqtt not connected")
		}
		token := c.mqtt.Publish(topic, 1, false, payload)
		if !token.WaitTimeout(10 * time.Second) {
			return fmt.Errorf("mqtt publish to %s: timeout", topic)
		}
		return token.Error()
	case BackendAMQP:
		if c.amqp == nil || c.amqp.ch.IsClosed() {
			return fmt.Errorf("amqp not connected")
		}
		return c.amqp.ch.PublishWithContext(ctx, c.cfg.AMQP.Exchange, topic, false, false, amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			Body:         payload,
			Timestamp:    time.Now(),
		})
	default:
		return fmt.Errorf("unknown messaging backend: %q", c.cfg.Backend)
	}
}

// PublishEnvelope encodes and publishes a protocol envelope to the given topic.
func (c *Client) PublishEnvelope(topic string, env interface{ Encode() ([]byte, error) }) error {
	data, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return c.Publish(topic, data)
}

func (c *Client) Subscribe(topic string, handler MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.handlers[topic] = handler

	switch c.cfg.Backend {
	case BackendKafka:
		if c.kafka == nil {
			return fmt.Errorf("kafka not connected")
		}
		reader := kafka.NewReader(kafka.ReaderConfig{
			Brokers: c.cfg.Kafka.Brokers,
			Topic:   topic,
			GroupID: c.cfg.Kafka.GroupID + "-" + c.cfg.SourceID,
		})
		c.kafka.readers[topic] = reader
		go func() {
			for {
				msg, err := reader.ReadMessage(context.Background())
				if err != nil {
					return
				}
				handler(msg.Topic, msg.Value)
			}
		}()
		return nil
	case BackendMQTT:
		if c.mqtt == nil {
			return fmt.Errorf("mqtt not connected")
		}
		token := c.mqtt.Subscribe(topic, 1, mqttCallback(handler))
		token.Wait()
		return token.Error()
	case BackendAMQP:
		if c.amqp == nil {
			return fmt.Errorf("amqp not connected")
		}
		return c.subscribeAMQP(topic, handler)
	default:
		return fmt.Errorf("unknown messaging backend: %q", c.cfg.Backend)
	}
}

// subscribeAMQP binds a private queue to the exchange for topic.
func (c *Client) subscribeAMQP(topic string, handler MessageHandler) error {
	ch := c.amqp.ch
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		return fmt.Errorf("amqp declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, topic, c.cfg.AMQP.Exchange, false, nil); err != nil {
		return fmt.Errorf("amqp bind %s: %w", topic, err)
	}
	deliveries, err := ch.Consume(q.Name, c.cfg.SourceID, true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("amqp consume %s: %w", topic, err)
	}
	go func() {
		for d := range deliveries {
			handler(d.RoutingKey, d.Body)
		}
	}()
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch c.cfg.Backend {
	case BackendKafka:
		return c.kafka != nil
	case BackendMQTT:
		return c.mqtt != nil && c.mqtt.IsConnected()
	case BackendAMQP:
		return c.amqp != nil && !c.amqp.conn.IsClosed()
	}
	return false
}

// Reconfigure closes the existing connection and reconnects with new config.
// All previously registered subscriptions are restored.
func (c *Client) Reconfigure(cfg *config.MessagingConfig) error {
	c.Close()
	c.mu.Lock()
	c.cfg = cfg
	handlers := make(map[string]MessageHandler, len(c.handlers))
	for k, v := range c.handlers {
		handlers[k] = v
	}
	c.mu.Unlock()

	if err := c.Connect(); err != nil {
		return err
	}
	for topic, handler := range handlers {
		if err := c.Subscribe(topic, handler); err != nil {
			log.Printf("messaging: re-subscribe %s after reconfigure: %v", topic, err)
		}
	}
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.kafka != nil {
		for _, r := range c.kafka.readers {
			r.Close()
		}
		if c.kafka.writer != nil {
			c.kafka.writer.Close()
		}
		c.kafka = nil
	}
	if c.mqtt != nil {
		c.mqtt.Disconnect(1000)
		c.mqtt = nil
	}
	if c.amqp != nil {
		c.amqp.ch.Close()
		c.amqp.conn.Close()
		c.amqp = nil
	}
}

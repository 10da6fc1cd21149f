package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

// Notifier pushes a text message to a recipient. Delivery is fire-and-forget:
// failures are logged, never returned.
type Notifier interface {
	Notify(ctx context.Context, recipient, text string)
}

// Multi fans a notification out to every notifier.
type Multi []Notifier

// Notify implements Notifier.
func (m Multi) Notify(ctx context.Context, recipient, text string) {
	for _, n := range m {
		n.Notify(ctx, recipient, text)
	}
}

// LogNotifier only logs notifications. It is used when no channel is configured.
type LogNotifier struct{}

// Notify implements Notifier.
func (LogNotifier) Notify(_ context.Context, recipient, text string) {
	log.WithFields(log.Fields{"recipient": recipient, "text": text}).Info("notification")
}

// Publisher is the part of an MQTT client used for notifications.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Message is the MQTT notification payload.
type Message struct {
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	SentAt    time.Time `json:"sent_at"`
}

// MQTTNotifier publishes notifications to <prefix>/<recipient>.
type MQTTNotifier struct {
	client  Publisher
	prefix  string
	timeout time.Duration
	log     *log.Entry
}

// NewMQTTNotifier wraps a connected client.
func NewMQTTNotifier(client Publisher, prefix string) *MQTTNotifier {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = "maintenance/notifications"
	}
	return &MQTTNotifier{
		client:  client,
		prefix:  prefix,
		timeout: 5 * time.Second,
		log:     log.WithField("component", "notify.mqtt"),
	}
}

// ConnectMQTT connects to broker and returns the client.
func ConnectMQTT(broker, clientID string) (mqtt.Client, error) {
	if clientID == "" {
		clientID = "maintenance-bot"
	}
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)
	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(15 * time.Second) {
		return nil, fmt.Errorf("mqtt connect to %s timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return client, nil
}

// Topic returns the topic a recipient's notifications are published on.
func (n *MQTTNotifier) Topic(recipient string) string {
	return n.prefix + "/" + recipient
}

// Notify implements Notifier.
func (n *MQTTNotifier) Notify(_ context.Context, recipient, text string) {
	logger := n.log.WithField("recipient", recipient)
	payload, err := json.Marshal(Message{Recipient: recipient, Text: text, SentAt: time.Now().UTC()})
	if err != nil {
		logger.WithError(err).Error("Failed to marshal notification")
		return
	}
	token := n.client.Publish(n.Topic(recipient), 1, false, payload)
	if !token.WaitTimeout(n.timeout) {
		logger.Warn("Notification publish timed out")
		return
	}
	if err := token.Error(); err != nil {
		logger.WithError(err).Error("Failed to publish notification")
		return
	}
	logger.Debug("Published notification")
}

// Sender is the part of the Telegram bot API used for notifications.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends notifications as chat messages. Recipients are chat IDs.
type TelegramNotifier struct {
	bot Sender
	log *log.Entry
}

// NewTelegramNotifier wraps a bot.
func NewTelegramNotifier(bot Sender) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, log: log.WithField("component", "notify.telegram")}
}

// Notify implements Notifier.
func (n *TelegramNotifier) Notify(_ context.Context, recipient, text string) {
	logger := n.log.WithField("recipient", recipient)
	chatID, err := strconv.ParseInt(recipient, 10, 64)
	if err != nil || chatID == 0 {
		logger.Warn("Recipient is not a chat id, skipping")
		return
	}
	if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.WithError(err).Error("Failed to send notification")
	}
}

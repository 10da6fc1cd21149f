package notify

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeToken struct {
	err      error
	complete bool
}

func (t *fakeToken) Wait() bool                     { return t.complete }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return t.complete }
func (t *fakeToken) Done() <-chan struct{}          { ch := make(chan struct{}); close(ch); return ch }
func (t *fakeToken) Error() error                   { return t.err }

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	args := m.Called(topic, qos, retained, payload)
	return args.Get(0).(mqtt.Token)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	return tgbotapi.Message{}, args.Error(0)
}

type recorder struct {
	calls []string
}

func (r *recorder) Notify(_ context.Context, recipient, text string) {
	r.calls = append(r.calls, recipient+":"+text)
}

func TestMQTTNotifier_PublishesJSON(t *testing.T) {
	pub := new(MockPublisher)
	var payload []byte
	pub.On("Publish", "station/alerts/42", byte(1), false, mock.Anything).
		Run(func(args mock.Arguments) { payload = args.Get(3).([]byte) }).
		Return(&fakeToken{complete: true}).Once()

	n := NewMQTTNotifier(pub, "/station/alerts/")
	n.Notify(context.Background(), "42", "Ticket #3 is now RESOLVED")
	pub.AssertExpectations(t)

	var msg Message
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, "42", msg.Recipient)
	assert.Equal(t, "Ticket #3 is now RESOLVED", msg.Text)
	assert.False(t, msg.SentAt.IsZero())
}

func TestMQTTNotifier_SwallowsFailures(t *testing.T) {
	pub := new(MockPublisher)
	pub.On("Publish", "maintenance/notifications/7", byte(1), false, mock.Anything).
		Return(&fakeToken{complete: true, err: errors.New("broker gone")}).Once()
	pub.On("Publish", "maintenance/notifications/8", byte(1), false, mock.Anything).
		Return(&fakeToken{complete: false}).Once()

	n := NewMQTTNotifier(pub, "")
	assert.NotPanics(t, func() {
		n.Notify(context.Background(), "7", "x")
		n.Notify(context.Background(), "8", "x")
	})
	pub.AssertExpectations(t)
}

func TestTelegramNotifier(t *testing.T) {
	bot := new(MockSender)
	bot.On("Send", tgbotapi.NewMessage(42, "hello")).Return(nil).Once()
	bot.On("Send", tgbotapi.NewMessage(43, "boom")).Return(errors.New("blocked")).Once()

	n := NewTelegramNotifier(bot)
	n.Notify(context.Background(), "42", "hello")
	n.Notify(context.Background(), "43", "boom")
	n.Notify(context.Background(), "not-a-chat", "ignored")
	n.Notify(context.Background(), "", "ignored")
	bot.AssertExpectations(t)
}

func TestMulti_FansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Multi{a, LogNotifier{}, b}.Notify(context.Background(), "1", "hi")
	assert.Equal(t, []string{"1:hi"}, a.calls)
	assert.Equal(t, []string{"1:hi"}, b.calls)
}

// Integration test (requires a running MQTT broker)
func TestConnectMQTT_Integration(t *testing.T) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		t.Skip("MQTT_BROKER not set, skipping integration test")
	}
	client, err := ConnectMQTT(broker, "maintenance-test")
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	defer client.Disconnect(250)
	NewMQTTNotifier(client, "maintenance/test").Notify(context.Background(), "1", "ping")
}

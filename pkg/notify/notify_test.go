package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/qrdine/pkg/models"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

type fakePublisher struct {
	exchange, key string
	msg           amqp.Publishing
}

func (f *fakePublisher) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.exchange, f.key, f.msg = exchange, key, msg
	return nil
}

type failing struct{ err error }

func (f failing) Notify(context.Context, Event) error { return f.err }

func sampleOrder() models.Order {
	return models.Order{
		ID:          "o1",
		TableNumber: "12",
		Status:      models.StatusPending,
		Total:       25,
		CreatedAt:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
		Items: []models.CartItem{
			{Item: models.MenuItem{ID: "a", Price: 10}, Quantity: 2},
			{Item: models.MenuItem{ID: "b", Price: 5}, Quantity: 1},
		},
	}
}

func TestEventText(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"order created", OrderCreatedEvent(sampleOrder()), "New order for table 12: 3 item(s), $25.00"},
		{"status", OrderStatusChangedEvent(models.Order{TableNumber: "4", Status: models.StatusReady}, models.StatusPreparing), "Order for table 4 is now ready"},
		{"waiter", WaiterCalledEvent(models.WaiterCall{TableNumber: "9"}), "Table 9 is calling a waiter"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.Text(); got != tt.want {
				t.Errorf("Text() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTelegramNotifier(t *testing.T) {
	sender := &fakeSender{}
	n := &TelegramNotifier{api: sender, chatID: 42}

	if err := n.Notify(context.Background(), WaiterCalledEvent(models.WaiterCall{TableNumber: "3"})); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	if sender.sent[0].ChatID != 42 || !strings.Contains(sender.sent[0].Text, "Table 3") {
		t.Errorf("message = %+v", sender.sent[0])
	}

	sender.err = errors.New("boom")
	if err := n.Notify(context.Background(), WaiterCalledEvent(models.WaiterCall{TableNumber: "3"})); err == nil {
		t.Error("expected send error")
	}
}

func TestAMQPNotifierPublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	n := &AMQPNotifier{ch: pub, exchange: "staff_fanout"}

	if err := n.Notify(context.Background(), OrderCreatedEvent(sampleOrder())); err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if pub.exchange != "staff_fanout" || pub.key != string(EventOrderCreated) {
		t.Errorf("published to %q/%q", pub.exchange, pub.key)
	}
	var got Event
	if err := json.Unmarshal(pub.msg.Body, &got); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if got.OrderID != "o1" || got.ItemCount != 3 {
		t.Errorf("event = %+v", got)
	}
	if pub.msg.ContentType != "application/json" {
		t.Errorf("content type = %q", pub.msg.ContentType)
	}
}

func TestMultiJoinsErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	first := errors.New("first")
	m := Multi{failing{first}, NewLogNotifier(zap.New(core)), failing{errors.New("second")}}

	err := m.Notify(context.Background(), WaiterCalledEvent(models.WaiterCall{TableNumber: "1"}))
	if !errors.Is(err, first) {
		t.Errorf("err = %v, want it to wrap first", err)
	}
	if logs.Len() != 1 {
		t.Errorf("log notifier wrote %d entries, want 1", logs.Len())
	}
}

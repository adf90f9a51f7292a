package helpers

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestQueueArgsDeadLetter(t *testing.T) {
	args := QueueArgs("emails")
	if args["x-dead-letter-exchange"] != "" {
		t.Fatalf("exchange = %v", args["x-dead-letter-exchange"])
	}
	if args["x-dead-letter-routing-key"] != "emails.dead" {
		t.Fatalf("routing key = %v", args["x-dead-letter-routing-key"])
	}
	if err := args.Validate(); err != nil {
		t.Fatalf("args not a valid amqp table: %v", err)
	}
}

func TestNewJSONPublishing(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600))
	msg, err := NewJSONPublishing(map[string]string{"to": "a@example.com"}, now)
	if err != nil {
		t.Fatalf("publishing: %v", err)
	}
	if msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent {
		t.Fatalf("headers = %q mode=%d", msg.ContentType, msg.DeliveryMode)
	}
	if !msg.Timestamp.Equal(now) || msg.Timestamp.Location() != time.UTC {
		t.Fatalf("timestamp = %v", msg.Timestamp)
	}
	var got map[string]string
	if err := json.Unmarshal(msg.Body, &got); err != nil || got["to"] != "a@example.com" {
		t.Fatalf("body = %s err=%v", msg.Body, err)
	}

	if _, err := NewJSONPublishing(make(chan int), now); err == nil {
		t.Fatal("expected encode error")
	}
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/oksasatya/go-task-manager/pkg/mailer"
)

type acker struct {
	acked, requeued, dropped int
}

func (a *acker) Ack(uint64, bool) error { a.acked++; return nil }

func (a *acker) Nack(_ uint64, _ bool, requeue bool) error {
	if requeue {
		a.requeued++
	} else {
		a.dropped++
	}
	return nil
}

func (a *acker) Reject(_ uint64, requeue bool) error { return a.Nack(0, false, requeue) }

type stubSender struct{ err error }

func (s stubSender) Send(context.Context, string, string, string, string) error { return s.err }

func delivery(t *testing.T, a *acker, job any) amqp.Delivery {
	t.Helper()
	b, ok := job.([]byte)
	if !ok {
		var err error
		if b, err = json.Marshal(job); err != nil {
			t.Fatal(err)
		}
	}
	return amqp.Delivery{Acknowledger: a, DeliveryTag: 1, Body: b}
}

func TestHandle(t *testing.T) {
	logger, _ := logtest.NewNullLogger()
	good := mailer.EmailJob{To: "ada@example.com", Subject: "Hi", Text: "hello"}

	cases := []struct {
		name   string
		sender mailer.Sender
		body   any
		want   acker
	}{
		{"delivered", stubSender{}, good, acker{acked: 1}},
		{"transport failure requeues", stubSender{err: errors.New("503")}, good, acker{requeued: 1}},
		{"no recipient is dead-lettered", stubSender{}, mailer.EmailJob{Subject: "Hi", Text: "x"}, acker{dropped: 1}},
		{"unknown template is dead-lettered", stubSender{}, mailer.TemplateJob("a@example.com", "nope", nil), acker{dropped: 1}},
		{"garbage is dead-lettered", stubSender{}, []byte("{not json"), acker{dropped: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &acker{}
			handle(logger, tc.sender, delivery(t, a, tc.body))
			if *a != tc.want {
				t.Fatalf("got %+v, want %+v", *a, tc.want)
			}
		})
	}
}

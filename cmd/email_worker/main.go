package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-task-manager/config"
	"github.com/oksasatya/go-task-manager/pkg/helpers"
	"github.com/oksasatya/go-task-manager/pkg/mailer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env, cfg.LogLevel)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		logger.Fatal("RabbitMQ not configured")
	}
	if cfg.MailgunDomain == "" || cfg.MailgunAPIKey == "" || cfg.MailgunSender == "" {
		logger.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// Prefetch for fair dispatch across workers
	if err := ch.Qos(16, 0, false); err != nil {
		logger.Fatalf("qos: %v", err)
	}
	if err := helpers.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		logger.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.Fatalf("consume: %v", err)
	}

	sender := mailer.NewMailgun(mailer.MailgunOptions{
		Domain:  cfg.MailgunDomain,
		APIKey:  cfg.MailgunAPIKey,
		From:    cfg.MailgunSender,
		APIBase: cfg.MailgunAPIBase,
	})

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for msg := range msgs {
			handle(logger, sender, msg)
		}
	}()

	logger.Infof("email worker listening on queue=%s", cfg.RabbitMQEmailQueue)
	<-stop
	logger.Info("shutting down...")
	_ = ch.Close()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// handle acks delivered mail, requeues transient send failures and
// dead-letters jobs that can never be sent.
func handle(logger *logrus.Logger, sender mailer.Sender, msg amqp.Delivery) {
	var job mailer.EmailJob
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		logger.WithError(err).Warn("bad message")
		_ = msg.Nack(false, false)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := mailer.Deliver(ctx, sender, job)
	switch {
	case err == nil:
		_ = msg.Ack(false)
	case mailer.IsPermanent(err):
		logger.WithError(err).WithField("template", job.Template).Error("dead-lettering email job")
		_ = msg.Nack(false, false)
	default:
		logger.WithError(err).WithField("to", job.To).Warn("send failed, requeueing")
		_ = msg.Nack(false, true)
	}
}

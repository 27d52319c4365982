package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/config"
	"github.com/AbdelazizAhmedMohamedAhmed/tact-freight-platform-sub000/internal/shared/mq"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("[Mailer] .env file not found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Mailer] load config: %v", err)
	}
	url := cfg.RabbitMQ.URL()
	if url == "" {
		log.Fatalf("[Mailer] RABBITMQ_HOST is required")
	}
	if cfg.SMTP.Host == "" {
		log.Fatalf("[Mailer] SMTP_HOST is required")
	}

	rabbit, err := mq.NewRabbitClient(url)
	if err != nil {
		log.Fatalf("[Mailer] %v", err)
	}
	defer rabbit.Close()

	if err := rabbit.CreateQueue(cfg.RabbitMQ.EmailQueue); err != nil {
		log.Fatalf("[Mailer] declare queue %s: %v", cfg.RabbitMQ.EmailQueue, err)
	}
	deliveries, err := rabbit.Consume(cfg.RabbitMQ.EmailQueue)
	if err != nil {
		log.Fatalf("[Mailer] consume %s: %v", cfg.RabbitMQ.EmailQueue, err)
	}

	sender, err := NewSMTPSender(cfg.SMTP)
	if err != nil {
		log.Fatalf("[Mailer] %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("[Mailer] consuming %s, delivering via %s:%d", cfg.RabbitMQ.EmailQueue, cfg.SMTP.Host, cfg.SMTP.Port)
	worker := &Worker{sender: sender}
	worker.Run(ctx, deliveries)
	log.Printf("[Mailer] stopped")
}

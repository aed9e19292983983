package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/chairtimehq/chairtime/libs/config"
	"github.com/chairtimehq/chairtime/libs/db"
	"github.com/chairtimehq/chairtime/libs/httpx"
	"github.com/chairtimehq/chairtime/libs/kafkax"
	otelx "github.com/chairtimehq/chairtime/libs/otel"
	"github.com/chairtimehq/chairtime/libs/runtime"
	"github.com/chairtimehq/chairtime/services/notification-service/internal/consumer"
	"github.com/chairtimehq/chairtime/services/notification-service/internal/email"
	"github.com/chairtimehq/chairtime/services/notification-service/internal/inbox"
	"github.com/chairtimehq/chairtime/services/notification-service/internal/sms"
	"github.com/chairtimehq/chairtime/services/notification-service/internal/storage"
)

type appointmentPayload struct {
	AppointmentID string `json:"appointment_id"`
	TenantID      string `json:"tenant_id"`
	ProviderID    string `json:"provider_id"`
	ClientEmail   string `json:"client_email"`
	ClientPhone   string `json:"client_phone"`
	StartTime     string `json:"start_time"`
	Status        string `json:"status"`
}

// messageFor renders the subject and body for one lifecycle event. Unknown
// event types return ok=false and are skipped.
func messageFor(eventType, startTime string) (subject, body string, ok bool) {
	switch eventType {
	case "booking.appointment.booked.v1":
		return "Appointment scheduled", fmt.Sprintf("Your appointment on %s is scheduled. We will confirm it shortly.", startTime), true
	case "booking.appointment.confirmed.v1":
		return "Appointment confirmed", fmt.Sprintf("Your appointment on %s is confirmed. See you then!", startTime), true
	case "booking.appointment.cancelled.v1":
		return "Appointment cancelled", fmt.Sprintf("Your appointment on %s has been cancelled.", startTime), true
	case "booking.appointment.completed.v1":
		return "Thanks for your visit", "Thank you for your visit. We hope to see you again soon.", true
	default:
		return "", "", false
	}
}

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "notification-service")
	port, err := config.Port("PORT", "8085")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}

	pool, err := db.Open(ctx, dbURL, db.Options{
		MaxConns: int32(config.Int("DB_MAX_CONNS", 5)),
	})
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	inboxRepo := inbox.NewRepository(pool)
	notificationsRepo := storage.NewRepository(pool)

	smtpHost := config.String("SMTP_HOST", "mailpit")
	smtpPort := config.String("SMTP_PORT", "1025")
	smtpFrom := config.String("SMTP_FROM", "no-reply@chairtime.local")
	emailSender := email.NewSMTPSender(smtpHost, smtpPort, smtpFrom)

	smsProvider := strings.ToLower(config.String("SMS_PROVIDER", "noop"))
	var smsSender sms.Sender
	switch smsProvider {
	case "webhook":
		smsSender = sms.NewWebhookSender(
			config.String("SMS_WEBHOOK_URL", ""),
			config.String("SMS_WEBHOOK_TOKEN", ""),
		)
	default:
		smsSender = sms.NewNoopSender()
	}

	kafkaBrokers := config.String("KAFKA_BROKERS", "")
	groupID := config.String("KAFKA_GROUP_ID", "notification-service")

	handle := func(ctx context.Context, msg kafka.Message) error {
		var payload appointmentPayload
		if err := json.Unmarshal(msg.Value, &payload); err != nil {
			logger.Error("invalid appointment payload", "err", err, "topic", msg.Topic)
			return nil
		}
		if payload.AppointmentID == "" || payload.TenantID == "" {
			logger.Error("missing appointment fields", "topic", msg.Topic)
			return nil
		}

		subject, body, ok := messageFor(msg.Topic, payload.StartTime)
		if !ok {
			logger.Error("unsupported event type", "topic", msg.Topic)
			return nil
		}

		channel := "email"
		recipient := strings.TrimSpace(payload.ClientEmail)
		if recipient == "" {
			channel = "sms"
			recipient = strings.TrimSpace(payload.ClientPhone)
		}
		if recipient == "" {
			logger.Error("no recipient on event", "appointment_id", payload.AppointmentID)
			return nil
		}

		status := "sent"
		switch channel {
		case "email":
			if err := emailSender.Send(recipient, subject, body); err != nil {
				status = "failed"
				logger.Error("email send failed", "err", err, "recipient", recipient)
			}
		case "sms":
			if err := smsSender.Send(ctx, recipient, body); err != nil {
				status = "failed"
				logger.Error("sms send failed", "err", err, "recipient", recipient)
			}
		}

		if err := notificationsRepo.Insert(ctx, storage.Notification{
			AppointmentID: payload.AppointmentID,
			TenantID:      payload.TenantID,
			Channel:       channel,
			Recipient:     recipient,
			Payload:       map[string]any{"subject": subject, "start_time": payload.StartTime, "status": payload.Status},
			Status:        status,
		}); err != nil {
			logger.Error("failed to persist notification", "err", err)
			return err
		}

		logger.Info("notification processed",
			"appointment_id", payload.AppointmentID,
			"channel", channel,
			"status", status,
			"event_type", msg.Topic,
		)
		return nil
	}

	topics := []string{
		config.String("KAFKA_TOPIC_BOOKED", "booking.appointment.booked.v1"),
		config.String("KAFKA_TOPIC_CONFIRMED", "booking.appointment.confirmed.v1"),
		config.String("KAFKA_TOPIC_CANCELLED", "booking.appointment.cancelled.v1"),
		config.String("KAFKA_TOPIC_COMPLETED", "booking.appointment.completed.v1"),
	}
	for _, topic := range topics {
		if strings.TrimSpace(topic) == "" {
			continue
		}
		eventConsumer := consumer.New(logger, inboxRepo, consumer.Config{
			Brokers: kafkaBrokers,
			GroupID: groupID,
			Topic:   topic,
		}, handle)
		go eventConsumer.Run(ctx)
	}

	mux := runtime.NewBaseMux(
		runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)},
		runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(kafkaBrokers)},
	)
	handler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
	)
	handler = otelhttp.NewHandler(handler, "notification")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

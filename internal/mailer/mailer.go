package mailer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/mariabakes/breads-rest-api/internal/observability"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Enqueuer is what services see: a non-blocking, best-effort handoff.
type Enqueuer interface {
	Enqueue(msg Message)
}

// Sender performs one outbound delivery.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

type SendgridSender struct {
	client      *sendgrid.Client
	fromName    string
	fromAddress string
}

func NewSendgridSender(apiKey, fromName, fromAddress string) *SendgridSender {
	return &SendgridSender{
		client:      sendgrid.NewSendClient(apiKey),
		fromName:    fromName,
		fromAddress: fromAddress,
	}
}

func (s *SendgridSender) Send(ctx context.Context, msg Message) error {
	from := mail.NewEmail(s.fromName, s.fromAddress)
	to := mail.NewEmail("", msg.To)
	email := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, msg.Body)
	resp, err := s.client.SendWithContext(ctx, email)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}

// Worker drains a buffered queue on a single goroutine so registration never
// waits on the mail provider. A full queue drops the message with a log line;
// losing a welcome email is preferable to blocking signups.
type Worker struct {
	sender Sender
	queue  chan Message
	logger *slog.Logger
}

func NewWorker(sender Sender, queueSize int, logger *slog.Logger) *Worker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Worker{
		sender: sender,
		queue:  make(chan Message, queueSize),
		logger: logger,
	}
}

func (w *Worker) Enqueue(msg Message) {
	select {
	case w.queue <- msg:
	default:
		observability.RecordMailDelivery("dropped")
		w.logger.Warn("mail queue full, dropping message", "to", msg.To, "subject", msg.Subject)
	}
}

// Run blocks until ctx is cancelled, then drains whatever is already queued.
func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case msg := <-w.queue:
			w.deliver(ctx, msg)
		case <-ctx.Done():
			for {
				select {
				case msg := <-w.queue:
					w.deliver(context.Background(), msg)
				default:
					return ctx.Err()
				}
			}
		}
	}
}

func (w *Worker) deliver(ctx context.Context, msg Message) {
	if err := w.sender.Send(ctx, msg); err != nil {
		observability.RecordMailDelivery("error")
		w.logger.Error("mail delivery failed", "to", msg.To, "error", err)
		return
	}
	observability.RecordMailDelivery("sent")
	w.logger.Info("mail delivered", "to", msg.To, "subject", msg.Subject)
}

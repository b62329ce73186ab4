package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/fulfillment-sync/internal/domain/repository"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

// ReviewNotifier envía al cliente el correo de reseña cuando su orden se
// marca como enviada. Comparte la configuración SMTP del mailer de reportes.
// El encolado asíncrono lo aporta el adaptador de jobs.
type ReviewNotifier struct {
	cfg       Config
	orderRepo repository.OrderRepository
	log       *logger.Logger
}

// NewReviewNotifier construye el notificador de reseñas.
func NewReviewNotifier(cfg Config, orderRepo repository.OrderRepository, log *logger.Logger) *ReviewNotifier {
	if cfg.From == "" {
		cfg.From = "noreply@fulfillment-sync.local"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &ReviewNotifier{cfg: cfg, orderRepo: orderRepo, log: log}
}

// SendReviewEmail envía el correo de reseña de la orden. Una orden sin
// email de cliente o sin SMTP configurado solo deja traza.
func (n *ReviewNotifier) SendReviewEmail(ctx context.Context, orderID string) error {
	order, err := n.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("cargar orden %s para email de reseña: %w", orderID, err)
	}
	if order.Email == "" {
		n.log.Debug().Str("orden", order.Number).Msg("orden sin email de cliente, se omite reseña")
		return nil
	}
	if n.cfg.Host == "" {
		n.log.Warn().Str("orden", order.Number).Msg("email de reseña descartado: SMTP no configurado")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", n.cfg.From)
	msg.SetHeader("To", order.Email)
	msg.SetHeader("Subject", fmt.Sprintf("Tu orden %s fue enviada, cuéntanos cómo te fue", order.Number))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Tu orden %s ya está en camino. Cuando la recibas, nos encantaría conocer tu opinión.",
		order.Number,
	))

	dialer := gomail.NewDialer(n.cfg.Host, n.cfg.Port, n.cfg.Username, n.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("enviar email de reseña de %s: %w", order.Number, err)
	}
	return nil
}

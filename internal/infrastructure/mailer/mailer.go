// Package mailer envía por correo los reportes de fallas de reconciliación.
package mailer

import (
	"fmt"
	"io"

	"gopkg.in/gomail.v2"

	"github.com/jhoicas/fulfillment-sync/internal/application/reconcile"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

// Config opciones SMTP del mailer de reportes.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       string
}

var _ reconcile.ReportMailer = (*SMTPMailer)(nil)

// SMTPMailer envía reportes con adjunto CSV vía SMTP. Sin host configurado
// queda en modo no-op con traza, para entornos de desarrollo.
type SMTPMailer struct {
	cfg Config
	log *logger.Logger
}

// NewSMTPMailer construye el mailer aplicando los remitente y destinatario
// por defecto cuando no vienen configurados.
func NewSMTPMailer(cfg Config, log *logger.Logger) *SMTPMailer {
	if cfg.From == "" {
		cfg.From = "noreply@fulfillment-sync.local"
	}
	if cfg.To == "" {
		cfg.To = "ops@fulfillment-sync.local"
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPMailer{cfg: cfg, log: log}
}

// SendReport envía el reporte con el contenido adjunto bajo filename.
func (m *SMTPMailer) SendReport(subject, filename string, content []byte) error {
	if m.cfg.Host == "" {
		m.log.Warn().
			Str("asunto", subject).
			Str("adjunto", filename).
			Msg("reporte descartado: SMTP no configurado")
		return nil
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.To)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", "Se adjunta el detalle de las órdenes que fallaron durante la sincronización.")
	msg.Attach(filename, gomail.SetCopyFunc(func(w io.Writer) error {
		_, err := w.Write(content)
		return err
	}))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("enviar reporte %q: %w", subject, err)
	}
	return nil
}

// Package alert emite notificaciones operativas hacia Slack vía webhook.
// El envío es best-effort: un canal caído nunca detiene la reconciliación.
package alert

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/jhoicas/fulfillment-sync/internal/application/reconcile"
	"github.com/jhoicas/fulfillment-sync/pkg/logger"
)

// Config opciones del webhook de Slack.
type Config struct {
	WebhookURL string
	Channel    string
	Username   string
	Timeout    time.Duration
}

var _ reconcile.Alerter = (*SlackAlerter)(nil)

// SlackAlerter publica alertas en un canal de Slack.
type SlackAlerter struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

// NewSlackAlerter construye el notificador. Con webhook vacío queda en modo
// no-op: Notify devuelve false y solo deja traza.
func NewSlackAlerter(cfg Config, log *logger.Logger) *SlackAlerter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.Username == "" {
		cfg.Username = "fulfillment-sync"
	}
	return &SlackAlerter{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log,
	}
}

type slackPayload struct {
	Channel  string `json:"channel,omitempty"`
	Username string `json:"username,omitempty"`
	Text     string `json:"text"`
}

// Notify publica el mensaje y reporta si la entrega fue aceptada. Nunca
// entra en pánico ni propaga errores: el resultado booleano es el contrato.
func (a *SlackAlerter) Notify(msg string) bool {
	if a.cfg.WebhookURL == "" {
		a.log.Debug().Str("mensaje", msg).Msg("alerta descartada: webhook de Slack no configurado")
		return false
	}

	body, err := json.Marshal(slackPayload{
		Channel:  a.cfg.Channel,
		Username: a.cfg.Username,
		Text:     msg,
	})
	if err != nil {
		a.log.Error().Err(err).Msg("serializar payload de alerta")
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		a.log.Error().Err(err).Msg("construir request de alerta")
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		a.log.Error().Err(err).Msg("enviar alerta a Slack")
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		a.log.Error().Int("status", resp.StatusCode).Msg("Slack rechazó la alerta")
		return false
	}
	return true
}

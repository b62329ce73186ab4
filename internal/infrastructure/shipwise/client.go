// Package shipwise implementa la integración con el proveedor de fulfillment
// Shipwise: cliente HTTP, parsing de feeds XML, construcción de documentos
// salientes y clasificación de respuestas. Es la única pieza que conoce el
// dialecto XML del proveedor.
package shipwise

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config parámetros de conexión al API del proveedor.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration // por defecto 30 s
}

// Response respuesta cruda de una llamada al proveedor.
type Response struct {
	Status int
	Body   []byte
}

// Client cliente HTTP del API XML del proveedor.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient construye el cliente. El proveedor puede tardar varios segundos en
// responder los feeds grandes, de ahí el timeout generoso por defecto.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Get ejecuta un GET sobre un endpoint de feed con query params.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (*Response, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("shipwise: crear request: %w", err)
	}
	return c.do(req)
}

// Post envía un documento XML a un endpoint de operación.
func (c *Client) Post(ctx context.Context, path string, document []byte) (*Response, error) {
	endpoint := c.baseURL + "/" + strings.TrimLeft(path, "/")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("shipwise: crear request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*Response, error) {
	req.Header.Set("X-API-Key", c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return nil, fmt.Errorf("shipwise: timeout o cancelación: %w", req.Context().Err())
		}
		return nil, fmt.Errorf("shipwise: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20)) // feeds grandes, max 8 MB
	if err != nil {
		return nil, fmt.Errorf("shipwise: leer respuesta: %w", err)
	}
	return &Response{Status: resp.StatusCode, Body: body}, nil
}

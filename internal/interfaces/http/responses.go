package http

// ErrorResponse cuerpo de error estándar de la API.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SyncRunResponse vista JSON de una corrida de sincronización.
type SyncRunResponse struct {
	ID         string `json:"id"`
	Kind       string `json:"kind"`
	Status     string `json:"status"`
	Progress   int    `json:"progress"`
	Processed  int    `json:"processed"`
	Failed     int    `json:"failed"`
	Log        string `json:"log,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

// TriggerResponse respuesta al disparo asíncrono de una corrida.
type TriggerResponse struct {
	RunID  string `json:"run_id"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
}

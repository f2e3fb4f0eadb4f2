package dto

// ChatbotRequest pregunta en texto libre.
type ChatbotRequest struct {
	Message string `json:"message"`
}

// ChatbotResponse respuesta del asistente.
type ChatbotResponse struct {
	Intent string `json:"intent"`
	Reply  string `json:"reply"`
	Data   any    `json:"data,omitempty"`
}

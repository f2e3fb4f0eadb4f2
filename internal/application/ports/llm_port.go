package ports

import (
	"context"
)

// LLMService puerto de salida hacia un modelo de lenguaje.
// El chatbot lo usa solo cuando ninguna intención por palabras clave coincide.
type LLMService interface {
	// Answer responde question usando storeContext (resumen de catálogo y ventas) como contexto.
	// El ctx debe llevar timeout: es una llamada de red externa.
	Answer(ctx context.Context, question, storeContext string) (string, error)
}

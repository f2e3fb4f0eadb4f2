package ports

import (
	"context"
	"time"
)

// Cache puerto para cachear respuestas de solo lectura (estadísticas).
// Un fallo de caché nunca debe romper la consulta: el caller cae a la fuente.
type Cache interface {
	// Get decodifica en dest el valor de key. found=false si no existe o expiró.
	Get(ctx context.Context, key string, dest any) (found bool, err error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

package repository

import "context"

// SequenceRepository entrega el siguiente consecutivo de un prefijo dentro de un ámbito
// ("movement" o "batch"). Debe ejecutarse en la misma transacción que la inserción que lo usa.
type SequenceRepository interface {
	Next(ctx context.Context, scope, prefix string) (int64, error)
}

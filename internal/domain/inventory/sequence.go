package inventory

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/Inventario-ledger/internal/domain"
)

const sequenceWidth = 6

// Ámbitos de consecutivo: cada uno lleva su propio contador por prefijo.
const (
	ScopeMovement = "movement"
	ScopeBatch    = "batch"
)

// CounterName identifica la fila del contador, p. ej. "movement:VEN".
func CounterName(scope, prefix string) string {
	return scope + ":" + prefix
}

// FormatNumber produce PREFIJO-000123.
func FormatNumber(prefix string, seq int64) string {
	return fmt.Sprintf("%s-%0*d", prefix, sequenceWidth, seq)
}

// ParseNumber separa prefijo y consecutivo.
func ParseNumber(number string) (string, int64, error) {
	prefix, digits, ok := strings.Cut(number, "-")
	if !ok || prefix == "" || digits == "" {
		return "", 0, domain.Invalid("number", fmt.Sprintf("formato de consecutivo inválido: %q", number))
	}
	seq, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || seq < 0 {
		return "", 0, domain.Invalid("number", fmt.Sprintf("formato de consecutivo inválido: %q", number))
	}
	return prefix, seq, nil
}

// NextAfter calcula el siguiente número a partir del último existente ("" = primero).
func NextAfter(prefix, last string) (string, error) {
	if last == "" {
		return FormatNumber(prefix, 1), nil
	}
	p, seq, err := ParseNumber(last)
	if err != nil {
		return "", err
	}
	if p != prefix {
		return "", domain.Invalid("number", fmt.Sprintf("prefijo %q no corresponde a %q", p, prefix))
	}
	return FormatNumber(prefix, seq+1), nil
}

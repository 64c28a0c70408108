package viewcount

import (
	"strconv"
	"strings"
)

func formatInt(v int) string { return strconv.Itoa(v) }

// formatFloat evita notação científica para valores comuns de header.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// absInt lê s como um parâmetro "inteiro absoluto": espaços nas pontas
// são ignorados, o sinal é descartado e o que não for número vira 0.
func absInt(s string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	if n < 0 {
		return -n
	}
	return n
}

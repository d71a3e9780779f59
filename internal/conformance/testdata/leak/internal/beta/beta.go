package beta

import (
	"example.com/fix/internal/host"
)

func Peek(m *host.Model) {
	_ = m
}

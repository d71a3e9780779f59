package main

import (
	"example.com/fix/internal/alpha"
)

type supervisor interface {
	Register(p any) error
}

func register(sup supervisor) {
	sup.Register(alpha.New())
}

func main() {}

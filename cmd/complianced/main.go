package main

import (
	"log/slog"
	"os"

	"github.com/raphi011/complianced"
)

func main() {
	s := complianced.New()

	if err := s.Run(); err != nil {
		slog.Error(err.Error())
		os.Exit(-1)
	}
}

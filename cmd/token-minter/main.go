package main

import (
	"github.com/sirupsen/logrus"

	"github.com/code-payments/token-minter/pkg/app"
)

func main() {
	if err := app.Run(&tokenMinterApp{}); err != nil {
		logrus.WithError(err).Fatal("error running token minter")
	}
}

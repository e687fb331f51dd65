package main

import (
	"os"

	"github.com/qoswatch/qoswatch/cmd/qoswatch/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"log"

	corecmd "github.com/m3rciful/printbot/core/cmd"
	"github.com/m3rciful/printbot/internal/app"
)

func main() {
	if err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config.yaml",
		Bootstrap:         app.Bootstrap,
	}); err != nil {
		log.Fatal(err)
	}
}

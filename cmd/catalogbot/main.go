package main

import (
	"log"

	"github.com/joho/godotenv"

	corecmd "github.com/m3rciful/promobot/core/cmd"
	"github.com/m3rciful/promobot/internal/bots/catalogbot"
	"github.com/m3rciful/promobot/internal/config"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf(".env not loaded: %v", err)
	}

	err := corecmd.Run(corecmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "configs/catalogbot.yaml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return config.Load(path)
		},
		Bootstrap: func(cfg corecmd.ConfigCarrier) (corecmd.TelegramApp, error) {
			return catalogbot.New(cfg.(*config.Config))
		},
	})
	if err != nil {
		log.Fatalf("catalogbot: %v", err)
	}
}

package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"account-linker/internal/config"
	"account-linker/internal/service"
)

// Emite un token de webhook para configurar la plataforma de login.
// Uso: webhook_token <subject> [client_id]
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("usage: webhook_token <subject> [client_id]")
	}
	subject := os.Args[1]
	clientID := ""
	if len(os.Args) > 2 {
		clientID = os.Args[2]
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	tokens := service.NewWebhookTokenService(cfg.WebhookSecret, cfg.WebhookIssuer, 365*24*time.Hour)
	token, err := tokens.Issue(subject, clientID)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(token)
}

// config.go

package main

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	MongoURI    string
	Port        string
	BaseURL     string // public base URL of this API, used in emailed links
	FrontendURL string // browser origin we redirect back to
	JWTSecret   string

	SMTPHost  string
	SMTPPort  string
	EmailUser string
	EmailPass string

	EsewaProductCode string
	EsewaSecretKey   string
}

var cfg Config

func getEnv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func loadConfig() Config {
	godotenv.Load()
	return Config{
		MongoURI:    getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		Port:        getEnv("PORT", "5000"),
		BaseURL:     getEnv("BASE_URL", "http://localhost:5000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		JWTSecret:   getEnv("JWT_SECRET", "SECRET"),

		SMTPHost:  getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:  getEnv("SMTP_PORT", "587"),
		EmailUser: getEnv("EMAIL_USER", ""),
		EmailPass: getEnv("EMAIL_PASS", ""),

		EsewaProductCode: getEnv("ESEWA_PRODUCT_CODE", "EPAYTEST"),
		EsewaSecretKey:   getEnv("ESEWA_SECRET_KEY", "8gBm/:&EnhH.1/q"),
	}
}

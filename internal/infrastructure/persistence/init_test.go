package persistence

import (
	"log"
	"os"

	"github.com/joho/godotenv"
)

func init() {
	// Load .env for integration tests; unit tests run against sqlmock and
	// don't need it.
	paths := []string{
		"../../../.env", // From internal/infrastructure/persistence/
		"../../.env",
		"../.env",
		".env",
	}

	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			if err := godotenv.Load(p); err == nil {
				log.Printf("📁 Loaded .env from %s for tests", p)
				return
			}
		}
	}
}

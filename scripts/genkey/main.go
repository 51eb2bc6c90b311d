// genkey generates an API key and its Argon2id hash for a tenant record.
//
// Usage (run from the repo root):
//
//	go run scripts/genkey/main.go <tenant-id>
//
// Prints the plaintext key once (hand it to the tenant; it is not
// recoverable from the hash) and a ready-to-paste entry for the
// tenants.json registry file.
package main

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/miwake-ai/miwake/internal/auth"
)

func main() {
	if len(os.Args) != 2 || os.Args[1] == "" {
		fmt.Fprintln(os.Stderr, "usage: go run scripts/genkey/main.go <tenant-id>")
		os.Exit(1)
	}
	tenantID := os.Args[1]

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		fmt.Fprintf(os.Stderr, "error: generate key: %v\n", err)
		os.Exit(1)
	}
	apiKey := "mk_" + base64.RawURLEncoding.EncodeToString(raw)

	hash, err := auth.HashAPIKey(apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: hash key: %v\n", err)
		os.Exit(1)
	}

	record := map[string]any{
		"tenant_id":    tenantID,
		"name":         tenantID,
		"api_key_hash": hash,
		"key_id":       "key-" + uuid.New().String()[:8],
		"active":       true,
	}
	entry, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: marshal record: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key (store this now, it is shown only once):\n\n  %s\n\n", apiKey)
	fmt.Printf("tenants.json entry:\n\n%s\n", entry)
}

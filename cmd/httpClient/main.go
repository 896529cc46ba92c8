// Command httpClient exercises a running backend: it checks /api/auth/test,
// registers an account and logs in with it.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	BaseURL  string
	Email    string
	Password string
	Role     string
	Skill    string
}

func loadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env loaded: %v", err)
	}
	cfg := Config{
		BaseURL:  getenv("SMOKE_BASE_URL", "http://localhost:8080"),
		Email:    getenv("SMOKE_EMAIL", fmt.Sprintf("smoke-%d@example.com", time.Now().UnixNano())),
		Password: getenv("SMOKE_PASSWORD", "smoke-password"),
		Role:     getenv("SMOKE_ROLE", "WORKER"),
		Skill:    getenv("SMOKE_SKILL", "plumbing"),
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func main() {
	cfg := loadConfig()
	client := &http.Client{Timeout: 10 * time.Second}

	status, body, err := call(client, http.MethodGet, cfg.BaseURL+"/api/auth/test", nil)
	if err != nil {
		log.Fatalf("Test endpoint failed: %v", err)
	}
	log.Printf("GET /api/auth/test -> %d %s", status, body)

	register := map[string]string{
		"name":     "Smoke Test",
		"email":    cfg.Email,
		"password": cfg.Password,
		"role":     cfg.Role,
		"skill":    cfg.Skill,
	}
	status, body, err = call(client, http.MethodPost, cfg.BaseURL+"/api/auth/register", register)
	if err != nil {
		log.Fatalf("Registration failed: %v", err)
	}
	log.Printf("POST /api/auth/register -> %d %s", status, body)

	login := map[string]string{"email": cfg.Email, "password": cfg.Password}
	status, body, err = call(client, http.MethodPost, cfg.BaseURL+"/api/auth/login", login)
	if err != nil {
		log.Fatalf("Login failed: %v", err)
	}
	log.Printf("POST /api/auth/login -> %d %s", status, body)

	if status != http.StatusOK {
		os.Exit(1)
	}
}

func call(client *http.Client, method, url string, payload any) (int, string, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return 0, "", err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return 0, "", err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", err
	}
	return resp.StatusCode, string(data), nil
}

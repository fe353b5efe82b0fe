// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev domain (dom-engineering) already exists.
// Prints two bearer tokens (admin and member) when JWT_SECRET is set.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"devicetrail/internal/config"
	"devicetrail/internal/db"
	"devicetrail/internal/security"
)

const devDomainID = "dom-engineering"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()

	var exists bool
	if err := conn.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM domains WHERE id = $1)`, devDomainID).Scan(&exists); err != nil {
		log.Fatalf("check seed: %v", err)
	}
	if exists {
		log.Println("seed data already present, skipping inserts")
		printTokens(cfg)
		return
	}

	domains := [][2]string{
		{devDomainID, "Engineering"},
		{"dom-finance", "Finance"},
	}
	for _, d := range domains {
		if _, err := conn.ExecContext(ctx, `INSERT INTO domains (id, name) VALUES ($1, $2)`, d[0], d[1]); err != nil {
			log.Fatalf("insert domain %s: %v", d[0], err)
		}
	}

	users := [][3]string{
		{"user-ada", "Ada Lovelace", devDomainID},
		{"user-grace", "Grace Hopper", devDomainID},
		{"user-alan", "Alan Turing", "dom-finance"},
	}
	for _, u := range users {
		if _, err := conn.ExecContext(ctx, `INSERT INTO users (id, name, domain_id) VALUES ($1, $2, $3)`, u[0], u[1], u[2]); err != nil {
			log.Fatalf("insert user %s: %v", u[0], err)
		}
	}

	now := time.Now().UTC()
	deviceRowID := uuid.NewString()
	if _, err := conn.ExecContext(ctx,
		`INSERT INTO devices (id, device_id, mac_addr, created_at, updated_at) VALUES ($1, $2, $3, $4, $4)`,
		deviceRowID, "dev-workstation-01", "aa:bb:cc:dd:ee:01", now); err != nil {
		log.Fatalf("insert device: %v", err)
	}

	base := now.Add(-48 * time.Hour).Unix()
	for i, userID := range []string{"user-ada", "user-ada", "user-grace"} {
		seenAt := base + int64(i*3600)
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO device_user_access (device_id, user_id, seen_at) VALUES ($1, $2, $3)`,
			deviceRowID, userID, seenAt); err != nil {
			log.Fatalf("insert user access: %v", err)
		}
		if _, err := conn.ExecContext(ctx,
			`INSERT INTO device_ip_log (device_id, ip, seen_at) VALUES ($1, $2, $3)`,
			deviceRowID, fmt.Sprintf("10.0.0.%d", i+1), seenAt); err != nil {
			log.Fatalf("insert ip log: %v", err)
		}
	}
	if _, err := conn.ExecContext(ctx,
		`INSERT INTO device_domain_access (device_id, domain_id, seen_at) VALUES ($1, $2, $3)`,
		deviceRowID, devDomainID, base); err != nil {
		log.Fatalf("insert domain access: %v", err)
	}

	log.Println("seed data inserted")
	printTokens(cfg)
}

func printTokens(cfg *config.Config) {
	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET not set; skipping token generation")
		return
	}
	tokens := security.NewTokenReader([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.JWTAudience)
	admin, err := tokens.Issue("user-ada", devDomainID, "admin", 24*time.Hour)
	if err != nil {
		log.Fatalf("issue admin token: %v", err)
	}
	member, err := tokens.Issue("user-grace", devDomainID, "member", 24*time.Hour)
	if err != nil {
		log.Fatalf("issue member token: %v", err)
	}
	fmt.Println("admin token: ", admin)
	fmt.Println("member token:", member)
}

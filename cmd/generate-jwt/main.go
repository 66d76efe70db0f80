package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"bridge-backend/internal/config"
	"bridge-backend/internal/middleware"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to config file, supplies the JWT secret and issuer")
		address    = flag.String("address", "evmos1t2htvpfl862vnwdqnuekd9p4ulh3h6hd4k0fm4", "bech32 session address")
		chainID    = flag.String("chain", "evmos_9001-2", "Session chain id")
		ttl        = flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	tokenString, err := middleware.IssueSessionToken(cfg.Auth, *address, *chainID, *ttl)
	if err != nil {
		fmt.Printf("Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("============================================================")
	fmt.Println("JWT Token Generated for Testing")
	fmt.Println("============================================================")
	fmt.Println()
	fmt.Println("Token:")
	fmt.Println(tokenString)
	fmt.Println()
	fmt.Println("Claims:")
	fmt.Printf("  User Address: %s\n", *address)
	fmt.Printf("  Chain ID: %s\n", *chainID)
	fmt.Printf("  Expires: %s\n", time.Now().Add(*ttl).Format(time.RFC3339))
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println()
	fmt.Printf("curl -H 'Authorization: Bearer %s' http://localhost:8080/api/v1/chains/%s/sendable-currencies\n", tokenString, *chainID)
	fmt.Println()
}

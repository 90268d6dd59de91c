package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/arnavshah/festival-planner-go/internal/config"
	"github.com/arnavshah/festival-planner-go/pkg/auth"
)

func main() {
	env := config.LoadEnv()

	if len(os.Args) < 2 {
		fmt.Println("Usage: keygen <userID>")
		os.Exit(1)
	}

	userID := os.Args[1]
	if strings.Contains(userID, ".") {
		fmt.Println("Error: userID must not contain '.'")
		os.Exit(1)
	}
	if env.APIMasterSecret == "" {
		fmt.Println("Error: API_MASTER_SECRET not found in .env")
		os.Exit(1)
	}

	a := auth.NewAuthenticator(env.JWTSecret, env.APIMasterSecret)
	fmt.Printf("Generated Key for %s:\n%s\n", userID, a.GenerateHMACKey(userID))
}

// Command seedadmin creates the bootstrap super-admin account. Safe to run
// repeatedly: an existing account with the given email is left untouched.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"github.com/citypulse/citypulse/internal/database"
	"github.com/citypulse/citypulse/internal/model"
	"github.com/citypulse/citypulse/internal/store"
)

func main() {
	dbPath := flag.String("db", envOr("CITYPULSE_DB_PATH", "citypulse.db"), "database path")
	email := flag.String("email", "", "admin email")
	password := flag.String("password", "", "admin password")
	name := flag.String("name", "Platform Admin", "admin full name")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("usage: seedadmin -email admin@example.com -password secret")
	}
	if len(*password) < 6 {
		log.Fatal("password must be at least 6 characters")
	}

	db, err := database.Open(*dbPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	users := store.NewUserStore(db)

	existing, err := users.GetByEmail(*email)
	if err != nil {
		log.Fatalf("lookup user: %v", err)
	}
	if existing != nil {
		fmt.Printf("user %s already exists (%s)\n", existing.Email, existing.Role)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user, err := users.Create(*email, string(hash), *name, model.RoleSuperAdmin)
	if err != nil {
		log.Fatalf("create admin: %v", err)
	}
	fmt.Printf("created super admin %s (%s)\n", user.Email, user.ID)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

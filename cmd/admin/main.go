// Command admin promotes, demotes and lists administrators.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"peopleconnects/internal/config"
	"peopleconnects/internal/database"
	"peopleconnects/internal/models"
	"peopleconnects/internal/repository"
	"peopleconnects/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin promote <username>   - Promote user to admin")
	fmt.Println("  admin demote <username>    - Demote user from admin")
	fmt.Println("  admin list-admins          - List all admins")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	users := repository.NewUserRepository(db)
	admin := service.NewAdminService(users, repository.NewPostRepository(db))
	ctx := context.Background()

	switch cmd := os.Args[1]; cmd {
	case "promote", "demote":
		if len(os.Args) < 3 {
			usage()
		}
		username := os.Args[2]
		if err := admin.SetAdmin(ctx, username, cmd == "promote"); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				fmt.Printf("User %s not found\n", username)
				os.Exit(1)
			}
			log.Fatalf("Failed to %s %s: %v", cmd, username, err)
		}
		fmt.Printf("%sd %s\n", cmd, username)

	case "list-admins":
		listAdmins(ctx, admin)

	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		os.Exit(1)
	}
}

func listAdmins(ctx context.Context, admin *service.AdminService) {
	const pageSize = 100
	found := 0
	for offset := 0; ; offset += pageSize {
		page, err := admin.ListUsers(ctx, pageSize, offset)
		if err != nil {
			log.Fatalf("Failed to list users: %v", err)
		}
		for _, u := range page {
			if u.IsAdmin {
				found++
				fmt.Printf("  %-30s %s\n", u.Username, u.Email)
			}
		}
		if len(page) < pageSize {
			break
		}
	}
	if found == 0 {
		fmt.Println("No admins found")
	}
}

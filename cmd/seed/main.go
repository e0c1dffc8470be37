// Command seed fills the database with demo users, posts and interactions.
package main

import (
	"context"
	"flag"
	"log"

	"peopleconnects/internal/config"
	"peopleconnects/internal/database"
	"peopleconnects/internal/seed"
)

func main() {
	extraUsers := flag.Int("users", 0, "Number of generated users on top of the fixture")
	extraPosts := flag.Int("posts", 0, "Number of generated posts on top of the fixture")
	clean := flag.Bool("clean", true, "Clean database before seeding")
	randSeed := flag.Int64("seed", 0, "Random seed (0 for time-based)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.IsProduction() {
		log.Fatal("Refusing to seed a production database")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	res, err := seed.NewSeeder(db, seed.Options{
		ExtraUsers: *extraUsers,
		ExtraPosts: *extraPosts,
		Clean:      *clean,
		RandSeed:   *randSeed,
	}).Run(context.Background())
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	log.Printf("Seeded %d users, %d posts, %d follows, %d likes, %d comments",
		res.Users, res.Posts, res.Follows, res.Likes, res.Comments)
	log.Println("All seeded users have the password: password123")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"p9e.in/garage/config"
	"p9e.in/garage/pkg/mailer"
	"p9e.in/garage/pkg/objectstore"
	"p9e.in/garage/routes"
)

var (
	Version   = "dev"
	BuildTime = ""
)

func main() {

	versionFlag := flag.Bool("version", false, "Print version info and exit")
	flag.Parse()

	if *versionFlag {
		fmt.Printf("Version:   %s\n", Version)
		fmt.Printf("BuildTime: %s\n", BuildTime)
		os.Exit(0)
	}
	config.Connect()
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Run migrations
	if err := config.Migrations(config.DB); err != nil {
		log.Fatalf("could not run migrations: %v", err)
	}

	// Seed the demo tenant (skips if data already exists)
	if os.Getenv("SEED_DEMO") == "true" {
		if err := config.SeedDemoCompany(); err != nil {
			log.Printf("Warning: seeding encountered issues: %v", err)
		}
	}

	store, err := objectstore.NewGCSStore(context.Background())
	if err != nil {
		log.Fatalf("could not initialize object storage: %v", err)
	}

	handler := routes.RegisterRoutes(store, mailer.NewMailer())
	handlerWithCORS := enableCORS(handler)
	log.Println("Server starting at port", port)
	log.Fatal(http.ListenAndServe(":"+port, handlerWithCORS))
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Required CORS headers
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		// Handle preflight (OPTIONS)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

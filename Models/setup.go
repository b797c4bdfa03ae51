package Models

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"github.com/joho/godotenv"
	"google.golang.org/api/option"
)

// Store is the document store the rest of the application writes through,
// wired once at startup.
var Store EntryStore

// Connect loads environment configuration, initializes the Firebase app and
// opens the Firestore client backing the entry store.
func Connect(ctx context.Context) (*FirestoreStore, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	var opts []option.ClientOption
	if credFile := os.Getenv("FIREBASE_CREDENTIALS_FILE"); credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}

	var cfg *firebase.Config
	if projectID := os.Getenv("FIRESTORE_PROJECT_ID"); projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting Firestore client: %w", err)
	}

	store := NewFirestoreStore(client, os.Getenv("FIRESTORE_COLLECTION"))
	Store = store
	log.Println("Firestore connected")
	return store, nil
}

// utils/firebase.go
package utils

import (
	"context"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

var FCMClient *messaging.Client

// FirebaseInit initializes the Firebase App and Messaging client used for
// operator push alerts. Skipped when no credentials file is configured.
func FirebaseInit() {
	keyPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_KEY")
	if keyPath == "" {
		log.Println("firebase: no service account key configured, push alerts disabled")
		return
	}

	ctx := context.Background()
	opt := option.WithCredentialsFile(keyPath)

	app, err := firebase.NewApp(ctx, nil, opt)
	if err != nil {
		log.Fatalf("firebase: error initializing app: %v", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		log.Fatalf("firebase: error getting Messaging client: %v", err)
	}

	FCMClient = client
}

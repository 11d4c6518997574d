package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/firestore"
	fbapp "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"hajzi/pkg/config"
	"hajzi/pkg/logger"
)

// Clients bundles the Firebase services the API uses.
type Clients struct {
	Auth      *auth.Client
	Firestore *firestore.Client
}

// CredentialsOption prefers inline service-account JSON and falls back to a
// file path. It returns nil when neither is configured, leaving the SDKs on
// application default credentials.
func CredentialsOption(cfg *config.Config) (option.ClientOption, error) {
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		return option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON)), nil
	}

	if cfg.ServiceAccountPath != "" {
		if _, err := os.Stat(cfg.ServiceAccountPath); err != nil {
			return nil, fmt.Errorf("service account file %s: %w", cfg.ServiceAccountPath, err)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		return option.WithCredentialsFile(cfg.ServiceAccountPath), nil
	}

	logger.Warn("No service account configured, using application default credentials")
	return nil, nil
}

func NewClients(ctx context.Context, cfg *config.Config) (*Clients, error) {
	var opts []option.ClientOption
	opt, err := CredentialsOption(cfg)
	if err != nil {
		return nil, err
	}
	if opt != nil {
		opts = append(opts, opt)
	}

	app, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase: %w", err)
	}

	authClient, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase Auth: %w", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &Clients{
		Auth:      authClient,
		Firestore: firestoreClient,
	}, nil
}

func (c *Clients) Close() error {
	return c.Firestore.Close()
}

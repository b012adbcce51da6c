package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"github.com/angelmondragon/southside-backend/pkg/config"
	"github.com/angelmondragon/southside-backend/pkg/logger"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// Client owns the Firestore connection used by the record store.
type Client struct {
	fs *firestore.Client
}

// New connects to the configured Firestore database.
func New(ctx context.Context, cfg config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.ProjectID) == "" {
		return nil, errors.New("gcp project id is required")
	}

	var opts []option.ClientOption
	if creds := strings.TrimSpace(cfg.CredentialsJSON); creds != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(creds)))
	}

	databaseID := strings.TrimSpace(cfg.FirestoreDatabaseID)
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	fs, err := firestore.NewClientWithDatabase(ctx, cfg.ProjectID, databaseID, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{
			"project_id":  cfg.ProjectID,
			"database_id": databaseID,
		}), "firestore client initialized")
	}
	return &Client{fs: fs}, nil
}

// Firestore returns the underlying SDK client.
func (c *Client) Firestore() *firestore.Client {
	if c == nil {
		return nil
	}
	return c.fs
}

// Ping lists a single collection to prove the credentials and database work.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.fs == nil {
		return errors.New("firestore client not initialized")
	}
	_, err := c.fs.Collections(ctx).Next()
	if err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("ping firestore: %w", err)
	}
	return nil
}

// Close releases the connection.
func (c *Client) Close() error {
	if c == nil || c.fs == nil {
		return nil
	}
	return c.fs.Close()
}

package gcp

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

// SecretFetcher defines the interface for fetching secrets
type SecretFetcher interface {
	FetchSecret(ctx context.Context, secretPath string) (string, error)
	Close() error
}

// SecretManagerClient reads Linear API keys stored in GCP Secret Manager.
type SecretManagerClient struct {
	client    *secretmanager.Client
	projectID string
}

// NewSecretManagerClient creates a Secret Manager client. The project id is
// only needed for bare secret names and is read from the usual GCP env vars.
func NewSecretManagerClient(ctx context.Context, opts ...option.ClientOption) (*SecretManagerClient, error) {
	client, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create secret manager client: %w", err)
	}

	return &SecretManagerClient{
		client:    client,
		projectID: projectIDFromEnv(),
	}, nil
}

func projectIDFromEnv() string {
	for _, key := range []string{"GOOGLE_CLOUD_PROJECT", "GCP_PROJECT", "GCLOUD_PROJECT"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return ""
}

// FetchSecret retrieves a secret payload. secretPath is one of
//   - projects/PROJECT_ID/secrets/SECRET_NAME/versions/VERSION
//   - projects/PROJECT_ID/secrets/SECRET_NAME (latest version)
//   - SECRET_NAME (latest version, project from environment)
func (c *SecretManagerClient) FetchSecret(ctx context.Context, secretPath string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	name, err := normalizeSecretPath(secretPath, c.projectID)
	if err != nil {
		return "", err
	}

	result, err := c.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return "", fmt.Errorf("failed to access secret version %s: %w", name, err)
	}

	return string(result.GetPayload().GetData()), nil
}

func normalizeSecretPath(secretPath, projectID string) (string, error) {
	secretPath = strings.TrimSpace(secretPath)
	if secretPath == "" {
		return "", fmt.Errorf("secret path is empty")
	}

	if strings.HasPrefix(secretPath, "projects/") {
		if strings.Contains(secretPath, "/versions/") {
			return secretPath, nil
		}
		if strings.Contains(secretPath, "/secrets/") {
			return secretPath + "/versions/latest", nil
		}
		return "", fmt.Errorf("malformed secret path %q", secretPath)
	}

	if projectID == "" {
		return "", fmt.Errorf("secret %q needs a project: set GOOGLE_CLOUD_PROJECT or use a full path", secretPath)
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, path.Base(secretPath)), nil
}

// Close closes the Secret Manager client
func (c *SecretManagerClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// FetchToken reads an API token from the fetcher and trims surrounding
// whitespace, which secrets created with `echo` usually carry.
func FetchToken(ctx context.Context, fetcher SecretFetcher, secretPath string) (string, error) {
	raw, err := fetcher.FetchSecret(ctx, secretPath)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", fmt.Errorf("secret %s is empty", secretPath)
	}
	return token, nil
}

package bootstrap

import (
	"context"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// ResolveSecret reads one secret value from Secret Manager. Accepts either a
// secret resource name (latest version is read) or a full version name.
func ResolveSecret(ctx context.Context, name string) (string, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return "", err
	}
	defer client.Close()

	if !strings.Contains(name, "/versions/") {
		name += "/versions/latest"
	}

	res, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: name,
	})
	if err != nil {
		return "", err
	}
	return string(res.Payload.Data), nil
}

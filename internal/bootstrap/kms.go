package bootstrap

import (
	"context"

	gcpkms "cloud.google.com/go/kms/apiv1"
)

func InitKMS(ctx context.Context) (*gcpkms.KeyManagementClient, error) {
	return gcpkms.NewKeyManagementClient(ctx)
}

package bootstrap

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	gcpkms "cloud.google.com/go/kms/apiv1"

	plaidclient "github.com/pocketfolio/finance-backend/internal/client/plaid"
	"github.com/pocketfolio/finance-backend/internal/config"
	"github.com/pocketfolio/finance-backend/internal/crypto"
	"github.com/pocketfolio/finance-backend/pkg/logger"
)

const plaidCallTimeout = 30 * time.Second

type Bootstrap struct {
	Log          *slog.Logger
	Firestore    *firestore.Client
	KMS          *gcpkms.KeyManagementClient
	Cipher       crypto.Cipher
	PlaidAdapter *plaidclient.Adapter
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)

	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}

	bs.Cipher = crypto.NewPassthrough()
	if cfg.KMSKeyName != "" {
		bs.KMS, err = InitKMS(applicationCtx)
		if err != nil {
			return bs, err
		}
		bs.Cipher = crypto.NewKMS(bs.KMS, cfg.KMSKeyName)
	}

	plaidSecret := cfg.PlaidSecret
	if cfg.PlaidSecretName != "" {
		plaidSecret, err = ResolveSecret(applicationCtx, cfg.PlaidSecretName)
		if err != nil {
			return bs, err
		}
	}
	bs.PlaidAdapter = plaidclient.NewAdapter(cfg.PlaidClientID, plaidSecret, cfg.PlaidEnvironment, plaidCallTimeout)

	return bs, nil
}

func (b *Bootstrap) Close() {
	if b.Firestore != nil {
		b.Firestore.Close()
	}
	if b.KMS != nil {
		b.KMS.Close()
	}
}

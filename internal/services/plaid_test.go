package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pocketfolio/finance-backend/internal/dto"
	"github.com/pocketfolio/finance-backend/internal/errs"
	"github.com/pocketfolio/finance-backend/internal/models"
	"github.com/pocketfolio/finance-backend/pkg/helpers"
)

// --- fakes ---

type fakeLinkClient struct {
	linkToken   dto.LinkToken
	itemID      string
	accessToken string
	createErr   error
	exchangeErr error

	exchangeCalls int
}

func (f *fakeLinkClient) CreateLinkToken(ctx context.Context, uid string) (dto.LinkToken, error) {
	return f.linkToken, f.createErr
}

func (f *fakeLinkClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, string, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return "", "", f.exchangeErr
	}
	return f.itemID, f.accessToken, nil
}

type fakeInstStore struct {
	appended []models.LinkedInstitution
	err      error
}

func (f *fakeInstStore) AppendInstitution(ctx context.Context, uid string, inst models.LinkedInstitution) error {
	if f.err != nil {
		return f.err
	}
	f.appended = append(f.appended, inst)
	return nil
}

// --- tests ---

func TestCreateLinkTokenPassThrough(t *testing.T) {
	want := dto.LinkToken{LinkToken: "link-abc", RequestID: "req-1"}
	client := &fakeLinkClient{linkToken: want}
	svc := NewPlaidService(client, &fakeInstStore{})

	got, err := svc.CreateLinkToken(helpers.TestCtx(), "uid-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("link token = %+v, want %+v", got, want)
	}
}

func TestExchangePublicTokenAppendsInstitution(t *testing.T) {
	client := &fakeLinkClient{itemID: "item-1", accessToken: "at-123"}
	users := &fakeInstStore{}
	svc := NewPlaidService(client, users)
	now := time.Unix(1000, 0)
	svc.clockNow = func() time.Time { return now }

	err := svc.ExchangePublicToken(helpers.TestCtx(), "uid-1", "public-xyz", "ins_3", "Chase")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(users.appended) != 1 {
		t.Fatalf("expected one appended institution, got %d", len(users.appended))
	}
	inst := users.appended[0]
	if inst.ItemID != "item-1" || inst.AccessToken != "at-123" || inst.InstitutionID != "ins_3" || inst.InstitutionName != "Chase" {
		t.Fatalf("unexpected institution: %+v", inst)
	}
	if !inst.LinkedAt.Equal(now) {
		t.Fatalf("linkedAt = %v, want %v", inst.LinkedAt, now)
	}
}

func TestExchangePublicTokenTwiceAppendsTwoEntries(t *testing.T) {
	client := &fakeLinkClient{itemID: "item-1", accessToken: "at-123"}
	users := &fakeInstStore{}
	svc := NewPlaidService(client, users)

	if err := svc.ExchangePublicToken(helpers.TestCtx(), "uid-1", "public-1", "ins_3", "Chase"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.ExchangePublicToken(helpers.TestCtx(), "uid-1", "public-2", "ins_3", "Chase"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if client.exchangeCalls != 2 || len(users.appended) != 2 {
		t.Fatalf("expected two exchanges and two appends, got %d/%d", client.exchangeCalls, len(users.appended))
	}
}

func TestExchangePublicTokenRequiresToken(t *testing.T) {
	svc := NewPlaidService(&fakeLinkClient{}, &fakeInstStore{})

	err := svc.ExchangePublicToken(helpers.TestCtx(), "uid-1", "", "ins_3", "Chase")
	var verr *errs.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestExchangePublicTokenPropagatesExchangeError(t *testing.T) {
	client := &fakeLinkClient{exchangeErr: errs.NewExternalServiceError("plaid", "expired public token", false)}
	users := &fakeInstStore{}
	svc := NewPlaidService(client, users)

	err := svc.ExchangePublicToken(helpers.TestCtx(), "uid-1", "public-xyz", "ins_3", "Chase")
	if err == nil {
		t.Fatal("expected error")
	}
	if len(users.appended) != 0 {
		t.Fatal("institution must not be appended on exchange failure")
	}
}

func TestExchangePublicTokenPropagatesStoreError(t *testing.T) {
	client := &fakeLinkClient{itemID: "item-1", accessToken: "at-123"}
	users := &fakeInstStore{err: errs.NewDatabaseError("user.appendInstitution", "boom")}
	svc := NewPlaidService(client, users)

	err := svc.ExchangePublicToken(helpers.TestCtx(), "uid-1", "public-xyz", "ins_3", "Chase")
	if err == nil {
		t.Fatal("expected error")
	}
}

package models

import (
	"time"
)

type User struct {
	UID          string              `firestore:"uid" json:"uid"`
	Email        string              `firestore:"email" json:"email"`
	PasswordHash string              `firestore:"passwordHash" json:"-"`
	Institutions []LinkedInstitution `firestore:"institutions" json:"institutions"`
	CreatedAt    time.Time           `firestore:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time           `firestore:"updatedAt" json:"updatedAt"`
}

// LinkedInstitution is one user-bank linkage produced by a public token
// exchange. AccessToken is a server-side secret: encrypted before the record
// is written and never serialized to clients.
type LinkedInstitution struct {
	AccessToken     string    `firestore:"accessToken" json:"-"`
	ItemID          string    `firestore:"itemId" json:"itemId"`
	InstitutionID   string    `firestore:"institutionId" json:"institutionId"`
	InstitutionName string    `firestore:"institutionName" json:"institutionName"`
	LinkedAt        time.Time `firestore:"linkedAt" json:"linkedAt"`
}

package domain

import "time"

// Token is a signed bearer credential handed to a client after login.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Identity is what a verified token asserts about its bearer.
type Identity struct {
	Subject   string
	TokenID   string
	ExpiresAt time.Time
}

// Package models holds the sign-in types: a challenge an account signs with
// its key (EIP-191 personal_sign) and the caller token it is exchanged for.
package models

import (
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type Challenge struct {
	Address   common.Address `json:"address"`
	Nonce     string         `json:"nonce"`
	Message   string         `json:"message"`
	IssuedAt  time.Time      `json:"issued_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

func (c *Challenge) IsExpired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// ChallengeMessage is the text the account signs.
func ChallengeMessage(domain string, address common.Address, nonce string, issuedAt time.Time) string {
	return fmt.Sprintf("%s wants you to sign in with your Ethereum account:\n%s\n\nNonce: %s\nIssued At: %s",
		domain, address.Hex(), nonce, issuedAt.UTC().Format(time.RFC3339))
}

type TokenResult struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	Caller      common.Address `json:"caller"`
}

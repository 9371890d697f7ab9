package models

import (
	"testing"
	"time"
)

func TestTokenExpired(t *testing.T) {
	now := time.Now()
	token := DownloadToken{ExpiresAt: now.Add(time.Hour)}
	if token.Expired(now) {
		t.Error("token should not be expired before its deadline")
	}
	if !token.Expired(now.Add(2 * time.Hour)) {
		t.Error("token should be expired after its deadline")
	}
}

func TestTokenExhausted(t *testing.T) {
	token := DownloadToken{UsedCount: 9, MaxUses: 10}
	if token.Exhausted() {
		t.Error("token with one use left should not be exhausted")
	}
	token.UsedCount = 10
	if !token.Exhausted() {
		t.Error("token at its cap should be exhausted")
	}
}

func TestTokenPolicies(t *testing.T) {
	email := OrderEmailTokenPolicy()
	if email.TTL != 30*24*time.Hour {
		t.Errorf("order email TTL = %v, want 30 days", email.TTL)
	}
	if email.MaxUses != 10 {
		t.Errorf("order email max uses = %d, want 10", email.MaxUses)
	}

	checkout := CheckoutTokenPolicy()
	if checkout.TTL != 24*time.Hour {
		t.Errorf("checkout TTL = %v, want 24h", checkout.TTL)
	}
}

package ratelimit_test

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/bloodconnect/internal/app/system/ratelimit"
)

func TestLimiterAllowsBurstThenBlocks(t *testing.T) {
	l := ratelimit.New(3, time.Hour)

	for i := 0; i < 3; i++ {
		if !l.Allow("k") {
			t.Fatalf("attempt %d: expected allow", i+1)
		}
	}
	if l.Allow("k") {
		t.Error("4th attempt should be blocked")
	}
	if !l.Allow("other") {
		t.Error("separate key should have its own bucket")
	}

	l.Reset("k")
	if !l.Allow("k") {
		t.Error("after Reset the key should be allowed")
	}
}

func TestLimiterSweep(t *testing.T) {
	l := ratelimit.New(1, time.Minute)
	l.Allow("a")
	l.Allow("b")

	if n := l.Sweep(time.Now()); n != 0 {
		t.Errorf("fresh buckets swept: got %d", n)
	}
	if n := l.Sweep(time.Now().Add(time.Hour)); n != 2 {
		t.Errorf("Sweep: got %d, want 2", n)
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := ratelimit.ClientIP(r); got != "10.0.0.1" {
		t.Errorf("RemoteAddr: got %q", got)
	}

	r.Header.Set("X-Real-IP", "10.0.0.2")
	if got := ratelimit.ClientIP(r); got != "10.0.0.2" {
		t.Errorf("X-Real-IP: got %q", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.3")
	if got := ratelimit.ClientIP(r); got != "203.0.113.7" {
		t.Errorf("X-Forwarded-For: got %q", got)
	}
}

func TestLoginLimiterPerEmail(t *testing.T) {
	ll := ratelimit.NewLoginLimiter(4) // 2 per email

	newReq := func(ip string) *httptest.ResponseRecorder {
		return httptest.NewRecorder()
	}
	_ = newReq

	for i, ip := range []string{"1.1.1.1:1", "2.2.2.2:1"} {
		r := httptest.NewRequest("POST", "/api/auth/login", nil)
		r.RemoteAddr = ip
		if ok, _ := ll.Check(r, "Donor@Example.com"); !ok {
			t.Fatalf("attempt %d blocked early", i+1)
		}
	}

	r := httptest.NewRequest("POST", "/api/auth/login", nil)
	r.RemoteAddr = "3.3.3.3:1"
	ok, reason := ll.Check(r, "donor@example.com ")
	if ok || reason == "" {
		t.Errorf("third attempt for the same email: got ok=%v reason=%q", ok, reason)
	}

	ll.ResetEmail("DONOR@example.com")
	if ok, _ := ll.Check(r, "donor@example.com"); !ok {
		t.Error("after ResetEmail the account should be allowed")
	}
}

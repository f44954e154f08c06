package token

import (
	"errors"
	"testing"
	"time"
)

var testSecret = []byte("unit-test-secret-0123456789abcdef")

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(testSecret, "test-issuer")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	return c
}

func TestNewCodecRejectsShortSecret(t *testing.T) {
	if _, err := NewCodec([]byte("too-short"), ""); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("got %v, want ErrMisconfigured", err)
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	c := newTestCodec(t)

	in := Claims{
		User: &UserView{
			FirstName:        "Alice",
			LastName:         "Doe",
			Email:            "alice@example.com",
			TwoFactorEnabled: true,
		},
		XSRFToken: "correlator-value",
	}

	raw, err := c.Issue(in, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	out, err := c.Verify(raw)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out.User == nil || *out.User != *in.User {
		t.Fatalf("user round trip: %+v", out.User)
	}
	if out.XSRFToken != in.XSRFToken {
		t.Fatalf("correlator round trip: %q", out.XSRFToken)
	}
	if out.Issuer != "test-issuer" {
		t.Fatalf("issuer %q", out.Issuer)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	c := newTestCodec(t)
	other, err := NewCodec([]byte("another-32-byte-secret-0123456789"), "test-issuer")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}

	raw, err := c.Issue(Claims{XSRFToken: "x"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := other.Verify(raw); err == nil {
		t.Fatal("token verified under a different secret")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	c := newTestCodec(t)

	raw, err := c.Issue(Claims{XSRFToken: "x"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	tampered := raw[:len(raw)-3] + "abc"
	if _, err := c.Verify(tampered); err == nil {
		t.Fatal("tampered token verified")
	}
	if _, err := c.Verify("not.a.jwt"); err == nil {
		t.Fatal("garbage verified")
	}
	if _, err := c.Verify(""); err == nil {
		t.Fatal("empty string verified")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	c := newTestCodec(t)

	raw, err := c.Issue(Claims{XSRFToken: "x"}, time.Millisecond)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, err := c.Verify(raw); err == nil {
		t.Fatal("expired token verified")
	}
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	issued, err := NewCodec(testSecret, "other-issuer")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	raw, err := issued.Issue(Claims{XSRFToken: "x"}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c := newTestCodec(t)
	if _, err := c.Verify(raw); err == nil {
		t.Fatal("token from another issuer verified")
	}
}

func TestIssueRejectsNonPositiveTTL(t *testing.T) {
	c := newTestCodec(t)
	if _, err := c.Issue(Claims{}, 0); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("got %v, want ErrMisconfigured", err)
	}
}

func TestMatchCorrelator(t *testing.T) {
	a := &Claims{XSRFToken: "same"}
	b := &Claims{XSRFToken: "same"}
	if !MatchCorrelator(a, b) {
		t.Fatal("matching correlators rejected")
	}

	cases := []struct {
		name             string
		session, antiCSR *Claims
	}{
		{"different values", &Claims{XSRFToken: "one"}, &Claims{XSRFToken: "two"}},
		{"empty session correlator", &Claims{}, &Claims{XSRFToken: "x"}},
		{"empty anti-forgery correlator", &Claims{XSRFToken: "x"}, &Claims{}},
		{"both empty", &Claims{}, &Claims{}},
		{"nil session", nil, &Claims{XSRFToken: "x"}},
		{"nil anti-forgery", &Claims{XSRFToken: "x"}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if MatchCorrelator(tc.session, tc.antiCSR) {
				t.Fatal("correlators matched")
			}
		})
	}
}

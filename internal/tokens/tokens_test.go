package tokens

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-32-bytes-should-be-long-enough"

func TestCreateToken_ValidAndClaims(t *testing.T) {
	tokenStr, err := CreateToken(testSecret, "user-123", 2*time.Minute)
	if err != nil {
		t.Fatalf("CreateToken error: %v", err)
	}

	userID, issuedAt, err := ParseToken(testSecret, tokenStr)
	if err != nil {
		t.Fatalf("ParseToken error: %v", err)
	}
	if userID != "user-123" {
		t.Fatalf("unexpected userId: got=%v want=user-123", userID)
	}
	if issuedAt.IsZero() {
		t.Fatalf("expected non-zero issuedAt")
	}
}

func TestParseToken_Expired(t *testing.T) {
	tokenStr, err := CreateToken(testSecret, "u2", -time.Minute)
	if err != nil {
		t.Fatalf("CreateToken error: %v", err)
	}
	if _, _, err := ParseToken(testSecret, tokenStr); err == nil {
		t.Fatalf("expected parse to fail for expired token")
	}
}

func TestParseToken_WrongSecretFails(t *testing.T) {
	tokenStr, err := CreateToken(testSecret, "u3", 2*time.Minute)
	if err != nil {
		t.Fatalf("CreateToken error: %v", err)
	}
	if _, _, err := ParseToken("different-secret-xxxxxxxxxxxxxxxx", tokenStr); err == nil {
		t.Fatalf("expected parse to fail with wrong secret")
	}
}

func TestParseToken_Malformed(t *testing.T) {
	if _, _, err := ParseToken(testSecret, "not.a.jwt"); err == nil {
		t.Fatalf("expected parse to fail for malformed token")
	}
}

// Rejected when alg=none (unsigned token)
func TestParseToken_AlgNoneRejected(t *testing.T) {
	headerEnc := new(jwt.Token).EncodeSegment([]byte(`{"alg":"none"}`))
	payloadEnc := new(jwt.Token).EncodeSegment([]byte(`{"userId":"u-none","exp":9999999999}`))
	tok := headerEnc + "." + payloadEnc + "."
	if _, _, err := ParseToken(testSecret, tok); err == nil {
		t.Fatalf("expected parse to reject alg=none token")
	}
}

// Tampering with payload must fail signature verification
func TestParseToken_TamperedPayload(t *testing.T) {
	tokenStr, err := CreateToken(testSecret, "user-t", 5*time.Minute)
	if err != nil {
		t.Fatalf("CreateToken error: %v", err)
	}
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token parts")
	}
	payloadBytes, _ := jwt.NewParser().DecodeSegment(parts[1])
	payloadStr := strings.Replace(string(payloadBytes), "user-t", "attacker", 1)
	parts[1] = new(jwt.Token).EncodeSegment([]byte(payloadStr))
	if _, _, err := ParseToken(testSecret, strings.Join(parts, ".")); err == nil {
		t.Fatalf("expected signature verification to fail for tampered token")
	}
}

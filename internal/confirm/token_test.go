package confirm

import (
	"errors"
	"testing"
	"time"

	"github.com/erazemk/premik/internal/model"
)

const testSecret = "test-secret-key"

var testConflict = &model.Conflict{
	Kind:           model.ConflictRevertWithTransferred,
	DesiredStatus:  model.RecordUpcoming,
	ResolvedStatus: model.RecordUpcoming,
}

func TestIssueAndVerify(t *testing.T) {
	token, err := IssueToken(testSecret, 7, testConflict, "abc", time.Now())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}

	if err := Verify(testSecret, token, 7, testConflict, "abc"); err != nil {
		t.Fatalf("Verify: %v", err)
	}

	claims, err := ParseToken(testSecret, token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.RecordID != 7 || claims.Subject != "7" {
		t.Errorf("expected record 7, got %d (subject %q)", claims.RecordID, claims.Subject)
	}
}

func TestVerifyMismatch(t *testing.T) {
	token, _ := IssueToken(testSecret, 7, testConflict, "abc", time.Now())

	other := &model.Conflict{DesiredStatus: model.RecordCancelled, ResolvedStatus: model.RecordCancelled}

	tests := []struct {
		name        string
		recordID    int64
		conflict    *model.Conflict
		fingerprint string
	}{
		{"other record", 8, testConflict, "abc"},
		{"other status", 7, other, "abc"},
		{"changed snapshot", 7, testConflict, "def"},
		{"no conflict", 7, nil, "abc"},
	}

	for _, tt := range tests {
		err := Verify(testSecret, token, tt.recordID, tt.conflict, tt.fingerprint)
		if !errors.Is(err, ErrMismatch) {
			t.Errorf("%s: expected ErrMismatch, got %v", tt.name, err)
		}
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, _ := IssueToken("secret1", 7, testConflict, "abc", time.Now())

	if err := Verify("secret2", token, 7, testConflict, "abc"); err == nil {
		t.Error("expected error for wrong secret")
	}
}

func TestVerifyExpired(t *testing.T) {
	token, _ := IssueToken(testSecret, 7, testConflict, "abc", time.Now().Add(-time.Hour))

	if err := Verify(testSecret, token, 7, testConflict, "abc"); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestParseTokenInvalid(t *testing.T) {
	if _, err := ParseToken(testSecret, "not-a-token"); err == nil {
		t.Error("expected error for invalid token")
	}
}

func TestIssueTokenWithoutConflict(t *testing.T) {
	if _, err := IssueToken(testSecret, 7, nil, "abc", time.Now()); err == nil {
		t.Error("expected error issuing token without conflict")
	}
}

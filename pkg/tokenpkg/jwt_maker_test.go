package tokenpkg

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fraol163/Banking-Managment-System-sub001/pkg/randompkg"
)

func TestNewJWTMakerKeySize(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		size    int
		wantErr bool
	}{
		{size: minSecretKeySize - 1, wantErr: true},
		{size: minSecretKeySize},
		{size: 2 * minSecretKeySize},
	}

	for _, tc := range testCases {
		maker, err := NewJWTMaker(strings.Repeat("k", tc.size))
		if (err != nil) != tc.wantErr {
			t.Errorf("NewJWTMaker(%d chars) returned error: %v, want error %v", tc.size, err, tc.wantErr)
		}

		if tc.wantErr && maker != nil {
			t.Errorf("NewJWTMaker(%d chars) = %+v, want nil", tc.size, maker)
		}
	}
}

func TestJWTMakerRejectsUnsignedToken(t *testing.T) {
	t.Parallel()

	payload, err := NewPayload(randompkg.IntBetween(1, 1000), randompkg.Username(), time.Minute)
	if err != nil {
		t.Fatalf("NewPayload() returned error: %v", err)
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, payload).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("SignedString() returned error: %v", err)
	}

	maker, err := NewJWTMaker(randompkg.String(32))
	if err != nil {
		t.Fatalf("NewJWTMaker() returned error: %v", err)
	}

	if _, err := maker.VerifyToken(token); err != ErrInvalidToken {
		t.Errorf("VerifyToken(unsigned) returned error %v, want %v", err, ErrInvalidToken)
	}
}

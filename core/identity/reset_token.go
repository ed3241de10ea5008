package identity

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cebe/gestao/core/credential"
)

var (
	resetSalt = []byte("gestao.core.identity.reset_token")
	tsEncoder = base32.StdEncoding.WithPadding(base32.NoPadding)
)

// encodeUID hides the admin's CPF in reset links.
func encodeUID(adm credential.Admin) string {
	return base64.RawURLEncoding.EncodeToString([]byte(adm.Canonical()))
}

func decodeUID(uid string) (string, error) {
	b, err := base64.RawURLEncoding.DecodeString(uid)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// makeResetToken returns "<base32 day>-<signature>". The signature covers the current
// secret hash, so a token stops working once the password changes.
func (svc *Service) makeResetToken(adm credential.Admin) (string, error) {
	return svc.tokenWithTimestamp(adm, daysSince2001(svc.now()))
}

func (svc *Service) verifyResetToken(adm credential.Admin, token string) error {
	parts := strings.SplitN(token, "-", 2)
	if token == "" || len(parts) < 2 {
		return ErrInvalidResetToken
	}
	data, err := tsEncoder.DecodeString(parts[0])
	if err != nil {
		return ErrInvalidResetToken
	}
	ts, err := strconv.Atoi(string(data))
	if err != nil {
		return ErrInvalidResetToken
	}

	want, err := svc.tokenWithTimestamp(adm, ts)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare([]byte(want), []byte(token)) == 0 {
		return ErrInvalidResetToken
	}

	maxDays := int(svc.conf.Auth.PasswordResetTimeout / (24 * time.Hour))
	if daysSince2001(svc.now())-ts > maxDays {
		return ErrResetTokenExpired
	}
	return nil
}

func (svc *Service) tokenWithTimestamp(adm credential.Admin, ts int) (string, error) {
	sig, err := svc.sign(resetHashValue(adm, ts))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s", tsEncoder.EncodeToString([]byte(strconv.Itoa(ts))), sig), nil
}

func (svc *Service) sign(val []byte) (string, error) {
	key := sha256.Sum256(append(append([]byte(nil), resetSalt...), svc.conf.SecretKey...))
	h := hmac.New(sha256.New, key[:])
	if _, err := h.Write(val); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil)), nil
}

func resetHashValue(adm credential.Admin, ts int) []byte {
	var val bytes.Buffer
	val.WriteString(adm.Canonical())
	val.Write(adm.SecretHash)
	val.WriteString(strconv.Itoa(ts))
	return val.Bytes()
}

func daysSince2001(t time.Time) int {
	ref := time.Date(2001, time.January, 1, 0, 0, 0, 0, time.UTC)
	return int(math.Ceil(t.Sub(ref).Hours() / 24))
}

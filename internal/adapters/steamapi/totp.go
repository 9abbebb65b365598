package steamapi

import (
	"crypto/hmac"
	"crypto/md5"
	"crypto/sha1"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// Guard codes use Steam's reduced alphabet, not RFC 4226 digits.
const guardCodeAlphabet = "23456789BCDFGHJKMNPQRTVWXY"

const (
	guardCodeLength = 5
	guardCodeStep   = 30 * time.Second
)

// GuardCode derives the 5-character Steam Guard code for the given
// moment from a base64 shared secret.
func GuardCode(sharedSecret string, now time.Time) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(sharedSecret)
	if err != nil {
		return "", fmt.Errorf("decode shared secret: %w", err)
	}

	var counter [8]byte
	binary.BigEndian.PutUint64(counter[:], uint64(now.Unix()/int64(guardCodeStep.Seconds())))

	mac := hmac.New(sha1.New, secret)
	mac.Write(counter[:])
	sum := mac.Sum(nil)

	start := sum[19] & 0x0F
	slice := binary.BigEndian.Uint32(sum[start:start+4]) & 0x7FFFFFFF

	code := make([]byte, guardCodeLength)
	for i := range code {
		code[i] = guardCodeAlphabet[slice%uint32(len(guardCodeAlphabet))]
		slice /= uint32(len(guardCodeAlphabet))
	}

	return string(code), nil
}

// ConfirmationKey derives the base64 key authenticating one mobile
// confirmation request. tag names the operation: "conf" for listing,
// "allow" for accepting.
func ConfirmationKey(identitySecret, tag string, now time.Time) (string, error) {
	secret, err := base64.StdEncoding.DecodeString(identitySecret)
	if err != nil {
		return "", fmt.Errorf("decode identity secret: %w", err)
	}

	payload := make([]byte, 8, 8+len(tag))
	binary.BigEndian.PutUint64(payload, uint64(now.Unix()))
	payload = append(payload, tag...)

	mac := hmac.New(sha1.New, secret)
	mac.Write(payload)

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

// DeriveDeviceID builds a stable android device identifier from the
// shared secret, for accounts whose secret file carries none.
func DeriveDeviceID(sharedSecret string) string {
	sum := md5.Sum([]byte(sharedSecret))
	return fmt.Sprintf("android:%x-%x-%x-%x-%x", sum[:2], sum[2:4], sum[4:6], sum[6:8], sum[8:10])
}

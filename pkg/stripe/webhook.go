package stripe

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidSignature is returned when a webhook payload fails signature
// verification. Callers must not act on the payload in that case.
var ErrInvalidSignature = errors.New("webhook signature verification failed")

// DefaultTolerance bounds how old a signed timestamp may be before the
// payload is rejected as a possible replay.
const DefaultTolerance = 5 * time.Minute

// ConstructEvent verifies the signature header against the shared webhook
// secret and, on success, unmarshals the raw payload into an Event. The
// signature is computed over the exact request bytes, so callers must pass
// the unparsed body.
func ConstructEvent(payload []byte, sigHeader, secret string) (Event, error) {
	var event Event
	if err := verifySignature(payload, sigHeader, secret, DefaultTolerance, time.Now()); err != nil {
		return event, err
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return event, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return event, nil
}

// SignPayload produces a signature header for a payload, in the same
// "t=<unix>,v1=<hex hmac>" format the gateway sends. Used by tests and local
// delivery tooling.
func SignPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	return "t=" + ts + ",v1=" + computeSignature(payload, secret, ts)
}

// computeSignature is the HMAC-SHA256 of "<timestamp>.<payload>" in hex.
func computeSignature(payload []byte, secret, timestamp string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func verifySignature(payload []byte, sigHeader, secret string, tolerance time.Duration, now time.Time) error {
	var timestamp string
	var candidates []string
	for _, part := range strings.Split(sigHeader, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			candidates = append(candidates, kv[1])
		}
	}
	if timestamp == "" || len(candidates) == 0 {
		return fmt.Errorf("%w: malformed signature header", ErrInvalidSignature)
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
	}
	if tolerance > 0 && now.Sub(time.Unix(ts, 0)) > tolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	expected := computeSignature(payload, secret, timestamp)
	for _, candidate := range candidates {
		if hmac.Equal([]byte(expected), []byte(candidate)) {
			return nil
		}
	}
	return fmt.Errorf("%w: no matching signature", ErrInvalidSignature)
}

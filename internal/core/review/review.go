// Package review contains the confirmation-token rules that gate submission.
// This is part of the Functional Core - randomness and clocks are passed in.
package review

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"time"
)

const (
	// DefaultTTL is how long a confirmation token stays valid.
	DefaultTTL = 10 * time.Minute

	// SecretBytes is the amount of randomness behind each token.
	SecretBytes = 18

	secretPrefix = "rvw_"
)

// GuardResult represents the outcome of a guard evaluation.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts the guard result to an error if not allowed.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return fmt.Errorf("%s", r.Reason)
}

// FormatTime renders token timestamps with sub-second precision so expiry
// comparisons see the exact issue time.
func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// ParseTime reads a timestamp written by FormatTime.
func ParseTime(value string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, value)
}

// FormatSecret turns random bytes into the externally visible token.
func FormatSecret(random []byte) string {
	return secretPrefix + base64.RawURLEncoding.EncodeToString(random)
}

// HashToken returns the one-way digest under which a token is stored.
func HashToken(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// TokenContext provides context for validating a confirmation token.
type TokenContext struct {
	Found                 bool
	BoundAssignmentID     int64
	RequestedAssignmentID int64
	ExpiresAt             time.Time
	Now                   time.Time
}

// CanUseToken evaluates whether a stored token authorizes a submission.
// Rules:
// - The token hash must be on record
// - It must be bound to the assignment being submitted
// - The current time must be at or before its expiry
func CanUseToken(ctx TokenContext) GuardResult {
	if !ctx.Found {
		return GuardResult{Allowed: false, Reason: "confirm token not recognized"}
	}
	if ctx.BoundAssignmentID != ctx.RequestedAssignmentID {
		return GuardResult{Allowed: false, Reason: fmt.Sprintf("confirm token is bound to assignment %d", ctx.BoundAssignmentID)}
	}
	if ctx.Now.After(ctx.ExpiresAt) {
		return GuardResult{Allowed: false, Reason: "confirm token expired"}
	}
	return GuardResult{Allowed: true}
}

// SubmitGateContext provides context for the confirmation gate.
type SubmitGateContext struct {
	Confirmed    bool
	ConfirmToken string
}

// CanAttemptSubmit evaluates the human confirmation preconditions that are
// checked before any token lookup.
func CanAttemptSubmit(ctx SubmitGateContext) GuardResult {
	if !ctx.Confirmed {
		return GuardResult{Allowed: false, Reason: "Refusing to submit without explicit --confirm."}
	}
	if ctx.ConfirmToken == "" {
		return GuardResult{Allowed: false, Reason: "Missing or invalid --confirm-token. Run review first."}
	}
	return GuardResult{Allowed: true}
}

// IdempotencyKey returns the caller's key, or one derived from the
// assignment and the absolute file path.
func IdempotencyKey(explicit string, assignmentID int64, absFile string) string {
	if explicit != "" {
		return explicit
	}
	return fmt.Sprintf("submit:%d:%s", assignmentID, filepath.Clean(absFile))
}

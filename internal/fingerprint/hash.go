package fingerprint

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Digest - итоговый отпечаток устройства: lowercase hex SHA256 либо
// fallback-идентификатор, если вычисление не удалось.
type Digest string

const (
	// Delimiter joins signal fields before hashing. It must not appear
	// inside any field; Hash strips it defensively.
	Delimiter = "|"

	// FallbackPrefix marks a locally generated random digest produced
	// when collection or hashing failed. Downstream comparison treats
	// such digests as low confidence; they are expected to fail
	// verification rather than crash the login flow.
	FallbackPrefix = "fallback-"

	// DefaultComputeTimeout bounds the whole collect+hash step on the
	// client. The computation is local, so seconds are already generous.
	DefaultComputeTimeout = 3 * time.Second
)

// Hash reduces a signal set to a digest: fields are joined in canonical
// order with Delimiter and hashed with SHA-256 to lowercase hex.
// A zero-value set is an error - the caller should switch to the
// fallback digest instead of binding an account to an empty environment.
func Hash(signals SignalSet) (Digest, error) {
	if signals.Empty() {
		return "", fmt.Errorf("empty signal set")
	}

	fields := signals.Fields()
	for i, f := range fields {
		// Разделитель внутри поля сломал бы стабильность конкатенации
		fields[i] = strings.ReplaceAll(f, Delimiter, "_")
	}

	sum := sha256.Sum256([]byte(strings.Join(fields, Delimiter)))
	return Digest(hex.EncodeToString(sum[:])), nil
}

// FallbackDigest generates a random low-confidence digest with the
// FallbackPrefix. Used when Hash or signal collection fails so the login
// round trip still carries *some* digest.
func FallbackDigest() Digest {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// Последний рубеж: хоть какой-то уникальный идентификатор
		return Digest(fmt.Sprintf("%s%d", FallbackPrefix, time.Now().UnixNano()))
	}
	return Digest(FallbackPrefix + hex.EncodeToString(buf))
}

// IsFallback reports whether the digest came from the fallback path.
func (d Digest) IsFallback() bool {
	return strings.HasPrefix(string(d), FallbackPrefix)
}

// Empty reports whether the digest is absent.
func (d Digest) Empty() bool {
	return d == ""
}

func (d Digest) String() string {
	return string(d)
}

// Compute runs the full collect+hash pipeline against src, bounded by
// ctx. It never returns an error: any failure, including the deadline,
// degrades to a fallback digest. The deadline matters because a source
// is allowed to block (the raster render in particular).
func Compute(ctx context.Context, src SignalSource) Digest {
	type result struct {
		digest Digest
		err    error
	}

	done := make(chan result, 1)
	go func() {
		d, err := Hash(Collect(src))
		done <- result{digest: d, err: err}
	}()

	select {
	case <-ctx.Done():
		return FallbackDigest()
	case res := <-done:
		if res.err != nil {
			return FallbackDigest()
		}
		return res.digest
	}
}

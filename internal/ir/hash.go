package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for fingerprints. The version suffix allows the canonical
// form to change without comparing old and new fingerprints as equal.
const (
	DomainStep     = "liturgia/step/v1"
	DomainDocument = "liturgia/document/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StepFingerprint hashes the canonical form of a single step.
func StepFingerprint(step IRObject) (string, error) {
	canonical, err := MarshalCanonical(step)
	if err != nil {
		return "", fmt.Errorf("step fingerprint: %w", err)
	}
	return hashWithDomain(DomainStep, canonical), nil
}

// DocumentFingerprint hashes an ordered list of canonical steps.
// Position matters: the same steps in a different order hash differently.
func DocumentFingerprint(steps []IRObject) (string, error) {
	arr := make(IRArray, len(steps))
	for i, s := range steps {
		arr[i] = s
	}
	canonical, err := MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("document fingerprint: %w", err)
	}
	return hashWithDomain(DomainDocument, canonical), nil
}

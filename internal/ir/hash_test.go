package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepFingerprintDeterminism(t *testing.T) {
	step := IRObject{"id": IRString("s1"), "title": IRString("Abertura"), "order": IRInt(0)}

	a, err := StepFingerprint(step)
	require.NoError(t, err)
	b, err := StepFingerprint(IRObject{"order": IRInt(0), "title": IRString("Abertura"), "id": IRString("s1")})
	require.NoError(t, err)

	assert.Equal(t, a, b, "key insertion order must not matter")
	assert.Len(t, a, 64, "SHA-256 hex is 64 characters")
}

func TestDocumentFingerprintIsOrderSensitive(t *testing.T) {
	s1 := IRObject{"id": IRString("s1")}
	s2 := IRObject{"id": IRString("s2")}

	ab, err := DocumentFingerprint([]IRObject{s1, s2})
	require.NoError(t, err)
	ba, err := DocumentFingerprint([]IRObject{s2, s1})
	require.NoError(t, err)

	assert.NotEqual(t, ab, ba)
}

func TestDomainSeparation(t *testing.T) {
	step := IRObject{"id": IRString("s1")}

	stepHash, err := StepFingerprint(step)
	require.NoError(t, err)
	docHash, err := DocumentFingerprint([]IRObject{step})
	require.NoError(t, err)

	assert.NotEqual(t, stepHash, docHash)
	assert.NotEqual(t, hashWithDomain(DomainStep, []byte("x")), hashWithDomain(DomainDocument, []byte("x")))
}

func TestDocumentFingerprintEmpty(t *testing.T) {
	a, err := DocumentFingerprint(nil)
	require.NoError(t, err)
	b, err := DocumentFingerprint([]IRObject{})
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestStepFingerprintEmptySongsDiffersFromMissing(t *testing.T) {
	withSongs, err := StepFingerprint(IRObject{"id": IRString("s1"), "songs": IRArray{}})
	require.NoError(t, err)
	without, err := StepFingerprint(IRObject{"id": IRString("s1")})
	require.NoError(t, err)
	assert.NotEqual(t, withSongs, without)
}

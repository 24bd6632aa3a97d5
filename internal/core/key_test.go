package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stringPairKey is a minimal two-token Key used only to exercise the
// package-level Value/SplitKeyValue helpers independent of any concrete
// record type.
type stringPairKey struct {
	A, B string
}

func (stringPairKey) TypeName() string { return "stringPairKey" }

func (k stringPairKey) KeyTokens() []string { return []string{k.A, k.B} }

func (k *stringPairKey) ParseTokens(tokens []string) error {
	if len(tokens) != 2 {
		return NewError(KindValidation, "expected 2 tokens")
	}
	k.A, k.B = tokens[0], tokens[1]
	return nil
}

func TestKeyValueJoinsTokensWithSemicolon(t *testing.T) {
	k := stringPairKey{A: "abc", B: "def"}
	assert.Equal(t, "abc;def", Value(k))
}

func TestSplitKeyValueRoundTrips(t *testing.T) {
	k := stringPairKey{A: "abc", B: "def"}
	tokens := SplitKeyValue(Value(k))

	var parsed stringPairKey
	require.NoError(t, parsed.ParseTokens(tokens))
	assert.Equal(t, k, parsed)
}

func TestSplitKeyValueEmptyString(t *testing.T) {
	assert.Nil(t, SplitKeyValue(""))
}

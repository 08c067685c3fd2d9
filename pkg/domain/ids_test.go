package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultUsernames = PetnameGenerator(DefaultUsernameWords, DefaultUsernameSeparator)

func words(u Username, sep string) []string {
	return strings.Split(u.String(), sep)
}

func TestPetnameGenerator_ThreeWordsJoinedByUnderscore(t *testing.T) {
	parts := words(defaultUsernames(), DefaultUsernameSeparator)
	require.Len(t, parts, DefaultUsernameWords)
	for _, w := range parts {
		assert.NotEmpty(t, w)
	}
}

func TestPetnameGenerator_DiffersBetweenRuns(t *testing.T) {
	// Five draws from a three-word petname space colliding every time is
	// astronomically unlikely; a constant generator would fail here.
	first := defaultUsernames()
	distinct := false
	for range 5 {
		if defaultUsernames() != first {
			distinct = true
			break
		}
	}
	assert.True(t, distinct, "usernames must be random per run")
}

func TestPetnameGenerator_ClampsWordCount(t *testing.T) {
	gen := PetnameGenerator(0, "-")
	assert.Len(t, words(gen(), "-"), 1)
}

func TestPetnameGenerator_CustomSeparator(t *testing.T) {
	gen := PetnameGenerator(5, "-")
	assert.Len(t, words(gen(), "-"), 5)
}

func TestRunID(t *testing.T) {
	a, b := NewRunID(), NewRunID()
	assert.False(t, a.IsNil())
	assert.NotEqual(t, a, b)
	assert.Len(t, a.String(), 36)
	assert.True(t, RunID{}.IsNil())
}

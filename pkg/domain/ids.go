// Package domain provides the small value types a run passes between steps.
package domain

import (
	petname "github.com/dustinkirkland/golang-petname"
	"github.com/google/uuid"
)

// RunID identifies one invocation. It is sent as X-Request-ID on every call
// and attached to every log line so a run can be traced on both sides.
type RunID uuid.UUID

// NewRunID returns a random run identifier.
func NewRunID() RunID { return RunID(uuid.New()) }

func (id RunID) String() string { return uuid.UUID(id).String() }
func (id RunID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// Username is the subject enrolled (and optionally deleted) by a run.
type Username string

func (u Username) String() string { return string(u) }

// Username generation defaults: three dictionary words joined by underscores.
const (
	DefaultUsernameWords     = 3
	DefaultUsernameSeparator = "_"
)

// UsernameGenerator produces a fresh username on every call.
type UsernameGenerator func() Username

// PetnameGenerator returns a generator of human-readable random names made of
// words dictionary words joined by sep. Values below one are treated as one.
func PetnameGenerator(words int, sep string) UsernameGenerator {
	if words < 1 {
		words = 1
	}
	return func() Username {
		return Username(petname.Generate(words, sep))
	}
}

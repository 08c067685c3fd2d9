package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

// DomainErrorsSuite tests the error primitives every step reports through.
// The command maps codes to log fields, so code preservation across wraps matters.
type DomainErrorsSuite struct {
	suite.Suite
}

func TestDomainErrorsSuite(t *testing.T) {
	suite.Run(t, new(DomainErrorsSuite))
}

func (s *DomainErrorsSuite) TestErrorInterface() {
	s.Run("returns message when present", func() {
		err := &Error{Code: CodeConfiguration, Message: "missing REGION"}
		s.Equal("missing REGION", err.Error())
	})

	s.Run("returns code when message is empty", func() {
		err := &Error{Code: CodePayloadShape}
		s.Equal("payload_shape", err.Error())
	})
}

func (s *DomainErrorsSuite) TestUnwrap() {
	s.Run("returns wrapped error", func() {
		inner := errors.New("connection refused")
		err := &Error{Code: CodeTransport, Message: "create token", Err: inner}
		s.Equal(inner, err.Unwrap())
	})

	s.Run("returns nil when no wrapped error", func() {
		err := &Error{Code: CodeClientError}
		s.Nil(err.Unwrap())
	})
}

func (s *DomainErrorsSuite) TestIsMatching() {
	s.Run("matches by code only", func() {
		err1 := &Error{Code: CodeTransport, Message: "create token"}
		err2 := &Error{Code: CodeTransport, Message: "delete user"}
		s.True(err1.Is(err2))
	})

	s.Run("does not match different codes", func() {
		s.False((&Error{Code: CodeClientError}).Is(&Error{Code: CodeServerError}))
	})

	s.Run("does not match non-domain errors", func() {
		s.False((&Error{Code: CodeTransport}).Is(errors.New("transport")))
	})

	s.Run("works with errors.Is through fmt wrapping", func() {
		inner := New(CodeImageRead, "open photo.jpg")
		wrapped := fmt.Errorf("enrol image: %w", inner)
		s.True(errors.Is(wrapped, &Error{Code: CodeImageRead}))
	})
}

func (s *DomainErrorsSuite) TestWrap() {
	s.Run("preserves original domain code when wrapping domain error", func() {
		original := New(CodeServerError, "server error")
		wrapped := Wrap(original, CodeInternal, "enrol image")

		var domainErr *Error
		s.Require().True(errors.As(wrapped, &domainErr))
		s.Equal(CodeServerError, domainErr.Code)
		s.Equal("enrol image", domainErr.Message)
	})

	s.Run("uses provided code when wrapping non-domain error", func() {
		wrapped := Wrap(errors.New("dial tcp: refused"), CodeTransport, "create token")
		s.True(HasCode(wrapped, CodeTransport))
	})

	s.Run("wrapped error is accessible via errors.Is", func() {
		original := errors.New("root cause")
		s.True(errors.Is(Wrap(original, CodeInternal, "x"), original))
	})
}

func (s *DomainErrorsSuite) TestHasCode() {
	s.Run("returns false for non-domain error", func() {
		s.False(HasCode(errors.New("plain"), CodeInternal))
	})

	s.Run("returns false for nil error", func() {
		s.False(HasCode(nil, CodeTransport))
	})
}

func (s *DomainErrorsSuite) TestCodeOf() {
	s.Run("returns the first domain code in the chain", func() {
		err := fmt.Errorf("run: %w", New(CodePayloadShape, "token missing"))
		s.Equal(CodePayloadShape, CodeOf(err))
	})

	s.Run("falls back to internal", func() {
		s.Equal(CodeInternal, CodeOf(errors.New("boom")))
	})
}

package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyFetchErrorDNSMissIsNotRetryable(t *testing.T) {
	err := &net.DNSError{Err: "no such host", Name: "acme.example", IsNotFound: true}

	classified := ClassifyFetchError(err)

	require.NotNil(t, classified)
	assert.Equal(t, ErrKindFetchNetwork, classified.Kind)
	assert.False(t, classified.Retryable())
	assert.True(t, IsPermanentFetchError(err))
}

func TestClassifyFetchErrorTemporaryDNSIsRetryable(t *testing.T) {
	err := &net.DNSError{Err: "server misbehaving", Name: "acme.example", IsTemporary: true}

	classified := ClassifyFetchError(err)

	assert.Equal(t, ErrKindFetchNetwork, classified.Kind)
	assert.True(t, classified.Retryable())
	assert.False(t, IsPermanentFetchError(err))
}

func TestClassifyFetchErrorWrappedDNSError(t *testing.T) {
	err := fmt.Errorf("navigate: %w", &net.DNSError{Err: "no such host", Name: "acme.example", IsNotFound: true})

	assert.False(t, ClassifyFetchError(err).Retryable())
}

func TestClassifyFetchErrorKinds(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		kind      string
		retryable bool
	}{
		{"deadline", context.DeadlineExceeded, ErrKindFetchTimeout, true},
		{"reset message", errors.New("read tcp: connection reset by peer"), ErrKindFetchNetwork, true},
		{"refused message", errors.New("dial tcp: connection refused"), ErrKindFetchNetwork, true},
		{"browser crash", errors.New("browser crashed"), ErrKindRender, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			classified := ClassifyFetchError(tc.err)
			assert.Equal(t, tc.kind, classified.Kind)
			assert.Equal(t, tc.retryable, classified.Retryable())
		})
	}
}

func TestClassifyFetchErrorPreservesCrawlError(t *testing.T) {
	original := NewFetchTimeoutError("navigation deadline")

	assert.Same(t, original, ClassifyFetchError(original))
	assert.Same(t, original, ClassifyFetchError(fmt.Errorf("render: %w", original)))
}

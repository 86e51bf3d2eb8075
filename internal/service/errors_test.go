package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/genai"
)

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"wrapped transient", transient(errors.New("boom")), true},
		{"rate limited", fmt.Errorf("call: %w", ErrRateLimited), true},
		{"deadline", context.DeadlineExceeded, true},
		{"connection refused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, true},
		{"quota", ErrQuotaExhausted, false},
		{"malformed", ErrMalformedDraft, false},
		{"plain", errors.New("bad request"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}

func TestClassifyGenAIError(t *testing.T) {
	assert.True(t, IsTransient(classifyGenAIError(genai.APIError{Code: 429, Message: "slow down"})))
	assert.True(t, IsTransient(classifyGenAIError(genai.APIError{Code: 503, Message: "unavailable"})))
	assert.False(t, IsTransient(classifyGenAIError(genai.APIError{Code: 400, Message: "bad prompt"})))
	assert.True(t, IsTransient(classifyGenAIError(context.DeadlineExceeded)))

	err := classifyGenAIError(genai.APIError{Code: 401, Message: "no key"})
	var apiErr genai.APIError
	assert.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 401, apiErr.Code)
}

func TestGenerationError(t *testing.T) {
	err := &GenerationError{Stage: StageDraft, Err: ErrMalformedDraft}
	assert.ErrorIs(t, err, ErrMalformedDraft)
	assert.Equal(t, "recipe generation failed during draft: malformed recipe draft", err.Error())
}

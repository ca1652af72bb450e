package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestFallback(t *testing.T) {
	overloaded := genai.APIError{Code: 503, Status: "UNAVAILABLE"}

	tests := []struct {
		name      string
		responses map[string]error
		fallback  string
		wantText  string
		wantCalls []string
		wantKind  Kind
	}{
		{
			name:      "primary ok",
			responses: map[string]error{"primary": nil},
			fallback:  "backup",
			wantText:  "from primary",
			wantCalls: []string{"primary"},
		},
		{
			name:      "overload switches model once",
			responses: map[string]error{"primary": overloaded, "backup": nil},
			fallback:  "backup",
			wantText:  "from backup",
			wantCalls: []string{"primary", "backup"},
		},
		{
			name:      "fallback also overloaded",
			responses: map[string]error{"primary": overloaded, "backup": overloaded},
			fallback:  "backup",
			wantCalls: []string{"primary", "backup"},
			wantKind:  KindOverloaded,
		},
		{
			name:      "network failure is not retried",
			responses: map[string]error{"primary": context.DeadlineExceeded},
			fallback:  "backup",
			wantCalls: []string{"primary"},
			wantKind:  KindUnavailable,
		},
		{
			name:      "no fallback configured",
			responses: map[string]error{"primary": overloaded},
			wantCalls: []string{"primary"},
			wantKind:  KindOverloaded,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls []string
			client := ClientFunc(func(_ context.Context, req Request) (string, error) {
				calls = append(calls, req.Model)
				if err := tt.responses[req.Model]; err != nil {
					return "", err
				}
				return "from " + req.Model, nil
			})

			text, err := Fallback{Client: client, FallbackModel: tt.fallback}.Generate(context.Background(), Request{Prompt: "p", Model: "primary"})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantKind, KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, text)
		})
	}
}

func TestFallback_NoClient(t *testing.T) {
	_, err := Fallback{}.Generate(context.Background(), Request{Prompt: "p"})

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.True(t, errors.Is(err, ErrNoClient))
}

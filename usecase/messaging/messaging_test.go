package messaging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/interceptor/domain"
	"github.com/fastygo/interceptor/repository/memory"
)

func TestPostMessage(t *testing.T) {
	uc := New(memory.NewStore(), 0, nil, nil)
	ctx := context.Background()

	msg, err := uc.PostMessage(ctx, []byte(` { "text" : "hello" } `))
	require.NoError(t, err)
	assert.Equal(t, "1", msg.ID)
	assert.Equal(t, `{"text":"hello"}`, string(msg.Payload))

	next, err := uc.PostMessage(ctx, []byte(`"second"`))
	require.NoError(t, err)
	assert.Equal(t, "2", next.ID)

	usage, err := uc.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, Usage{Used: len(`{"text":"hello"}`) + len(`"second"`), Limit: domain.MessageQuota, Count: 2}, usage)
}

func TestPostMessageRejectsBadPayloads(t *testing.T) {
	uc := New(memory.NewStore(), 0, nil, nil)
	tests := []struct {
		name    string
		payload string
		err     error
	}{
		{"empty", "", domain.ErrEmptyMessage},
		{"blank", "  \n", domain.ErrEmptyMessage},
		{"null", "null", domain.ErrEmptyMessage},
		{"malformed", `{"text":`, domain.ErrInvalidJSON},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.PostMessage(context.Background(), []byte(tt.payload))
			assert.ErrorIs(t, err, tt.err)
			assert.Equal(t, domain.ErrCodeMalformedInput, domain.CodeOf(err))
		})
	}
}

func TestQuotaIsEnforced(t *testing.T) {
	uc := New(memory.NewStore(), 0, nil, nil)
	ctx := context.Background()

	// `"` + 2998 x's + `"` is exactly 3000 characters
	full := `"` + strings.Repeat("x", domain.MessageQuota-2) + `"`
	_, err := uc.PostMessage(ctx, []byte(full))
	require.NoError(t, err)

	_, err = uc.PostMessage(ctx, []byte(`1`))
	require.ErrorIs(t, err, domain.ErrQuotaExceeded)
	assert.Equal(t, domain.ErrCodeQuotaExceeded, domain.CodeOf(err))

	messages, err := uc.ListMessages(ctx)
	require.NoError(t, err)
	assert.Len(t, messages, 1, "a rejected message must not be stored")

	usage, err := uc.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.MessageQuota, usage.Used)
}

func TestQuotaCountsCharactersAsStored(t *testing.T) {
	uc := New(memory.NewStore(), 20, nil, nil)
	ctx := context.Background()

	// stored escaped as "\u003cb\u003e": 15 characters
	msg, err := uc.PostMessage(ctx, []byte(`"<b>"`))
	require.NoError(t, err)
	assert.Equal(t, `"\u003cb\u003e"`, string(msg.Payload))

	usage, err := uc.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 15, usage.Used)

	// multi-byte runes count once
	_, err = uc.PostMessage(ctx, []byte(`"héllo"`))
	assert.ErrorIs(t, err, domain.ErrQuotaExceeded)

	_, err = uc.PostMessage(ctx, []byte(`"é"`))
	require.NoError(t, err)
	usage, err = uc.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, 18, usage.Used)
}

package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/cityvibes-assistant/internal/llm"
	"github.com/wolfman30/cityvibes-assistant/pkg/logging"
)

type echoLLM struct {
	calls    int
	failOn   int
	requests []llm.Request
}

func (e *echoLLM) Complete(_ context.Context, req llm.Request) (llm.Response, error) {
	e.calls++
	e.requests = append(e.requests, req)
	if e.failOn == e.calls {
		return llm.Response{}, errors.New("completion service unavailable")
	}
	last := req.Messages[len(req.Messages)-1]
	return llm.Response{Text: "reply to " + last.Content}, nil
}

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	return NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}), 0)
}

func storesUnderTest(t *testing.T) map[string]SessionStore {
	return map[string]SessionStore{
		"memory": NewMemoryStore(),
		"redis":  newRedisStore(t),
	}
}

func TestEngine_WindowLength(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			client := &echoLLM{}
			engine := NewEngine(client, store, EngineConfig{Persona: "You are the Cityvibes assistant."}, logging.Discard())
			ctx := context.Background()

			for k := 1; k <= 8; k++ {
				msg := fmt.Sprintf("message %d", k)
				reply, err := engine.Converse(ctx, "919800000001", msg)
				require.NoError(t, err)
				assert.Equal(t, "reply to "+msg, reply)

				turns, err := engine.Turns(ctx, "919800000001")
				require.NoError(t, err)
				assert.Len(t, turns, min(2*k, 10))
				assert.Equal(t, llm.RoleAssistant, turns[len(turns)-1].Role)
				assert.Equal(t, reply, turns[len(turns)-1].Text)
			}
		})
	}
}

func TestEngine_SendsPersonaAndWindow(t *testing.T) {
	client := &echoLLM{}
	engine := NewEngine(client, NewMemoryStore(), EngineConfig{Persona: "persona", Temperature: 0.2}, logging.Discard())
	ctx := context.Background()

	for k := 1; k <= 6; k++ {
		_, err := engine.Converse(ctx, "p1", fmt.Sprintf("m%d", k))
		require.NoError(t, err)
	}

	last := client.requests[len(client.requests)-1]
	assert.Equal(t, []string{"persona"}, last.System)
	assert.Equal(t, int32(500), last.MaxTokens)
	assert.Equal(t, float32(0.2), last.Temperature)
	// 10 retained entries from the previous exchange plus the new user turn.
	require.Len(t, last.Messages, 11)
	assert.Equal(t, "m1", last.Messages[0].Content)
	assert.Equal(t, "m6", last.Messages[10].Content)
}

func TestEngine_SessionsAreIndependent(t *testing.T) {
	engine := NewEngine(&echoLLM{}, NewMemoryStore(), EngineConfig{Persona: "p"}, logging.Discard())
	ctx := context.Background()

	_, err := engine.Converse(ctx, "a", "hello from a")
	require.NoError(t, err)
	_, err = engine.Converse(ctx, "b", "hello from b")
	require.NoError(t, err)

	turns, err := engine.Turns(ctx, "a")
	require.NoError(t, err)
	require.Len(t, turns, 2)
	assert.Equal(t, "hello from a", turns[0].Text)
}

func TestEngine_FailureLeavesUserTurn(t *testing.T) {
	for name, store := range storesUnderTest(t) {
		t.Run(name, func(t *testing.T) {
			client := &echoLLM{failOn: 2}
			engine := NewEngine(client, store, EngineConfig{Persona: "p"}, logging.Discard())
			ctx := context.Background()

			_, err := engine.Converse(ctx, "p1", "first")
			require.NoError(t, err)
			_, err = engine.Converse(ctx, "p1", "second")
			require.Error(t, err)

			turns, err := engine.Turns(ctx, "p1")
			require.NoError(t, err)
			require.Len(t, turns, 3)
			assert.Equal(t, Turn{Role: llm.RoleUser, Text: "second"}, turns[2])
		})
	}
}

func TestEngine_RequiresSessionID(t *testing.T) {
	engine := NewEngine(&echoLLM{}, nil, EngineConfig{}, logging.Discard())
	_, err := engine.Converse(context.Background(), " ", "hi")
	require.Error(t, err)
}

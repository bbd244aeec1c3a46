package actor

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext_Unbound(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
	assert.Nil(t, UserID(context.Background()))
}

func TestWithActor_RoundTrip(t *testing.T) {
	alice := Actor{UserID: 3, Username: "alice", IsStaff: true}
	ctx := WithActor(context.Background(), alice)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Equal(t, alice, got)

	id := UserID(ctx)
	require.NotNil(t, id)
	assert.Equal(t, int64(3), *id)
}

func TestWithActor_OverrideIsScoped(t *testing.T) {
	parent := WithActor(context.Background(), Actor{UserID: 1, Username: "admin"})
	child := WithActor(parent, Actor{UserID: 2, Username: "carol"})

	p, _ := FromContext(parent)
	c, _ := FromContext(child)
	assert.Equal(t, "admin", p.Username)
	assert.Equal(t, "carol", c.Username)
}

func TestSystem(t *testing.T) {
	ctx := WithActor(context.Background(), System)

	a, ok := FromContext(ctx)
	require.True(t, ok, "System is an explicit binding, not an absent one")
	assert.True(t, a.IsSystem())
	assert.Nil(t, UserID(ctx))
}

// Each goroutine derives its own context; no goroutine may observe another's actor.
func TestWithActor_ConcurrentIsolation(t *testing.T) {
	var wg sync.WaitGroup
	errs := make(chan string, 100)

	for i := int64(1); i <= 100; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			ctx := WithActor(context.Background(), Actor{UserID: id})
			for range 50 {
				if got := UserID(ctx); got == nil || *got != id {
					errs <- "cross-attribution detected"
					return
				}
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Fatal(e)
	}
}

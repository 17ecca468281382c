package supervisor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to LifecycleState }{
		{LifecycleStopped, LifecycleStarting},
		{LifecycleStarting, LifecycleWaiting},
		{LifecycleStarting, LifecycleError},
		{LifecycleStarting, LifecycleStopped},
		{LifecycleWaiting, LifecycleConnected},
		{LifecycleWaiting, LifecycleError},
		{LifecycleWaiting, LifecycleStopped},
		{LifecycleConnected, LifecycleError},
		{LifecycleConnected, LifecycleStopped},
		{LifecycleError, LifecycleStarting},
		{LifecycleError, LifecycleStopped},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s->%s should be allowed", tc.from, tc.to)
	}

	forbidden := []struct{ from, to LifecycleState }{
		{LifecycleStopped, LifecycleWaiting},
		{LifecycleStopped, LifecycleConnected},
		{LifecycleStopped, LifecycleError},
		{LifecycleStarting, LifecycleConnected}, // must pass through Waiting
		{LifecycleWaiting, LifecycleStarting},
		{LifecycleConnected, LifecycleWaiting},
		{LifecycleConnected, LifecycleStarting},
		{LifecycleError, LifecycleWaiting},
		{LifecycleError, LifecycleConnected},
	}
	for _, tc := range forbidden {
		assert.False(t, CanTransition(tc.from, tc.to), "%s->%s should be forbidden", tc.from, tc.to)
	}
}

func TestLifecycleStateRunning(t *testing.T) {
	assert.False(t, LifecycleStopped.Running())
	assert.True(t, LifecycleStarting.Running())
	assert.True(t, LifecycleWaiting.Running())
	assert.True(t, LifecycleConnected.Running())
	assert.False(t, LifecycleError.Running())
}

/*
Copyright 2024 Costline Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package redlock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRedis(t *testing.T) (*miniredis.Miniredis, redis.UniversalClient) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestLocker_Acquire(t *testing.T) {
	_, client := testRedis(t)
	locker := NewLocker(client, "matcher", "token-1")

	held, err := locker.Acquire(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestLocker_Acquire_Contended(t *testing.T) {
	_, client := testRedis(t)
	first := NewLocker(client, "matcher", "token-1")
	second := NewLocker(client, "matcher", "token-2")

	held, err := first.Acquire(context.Background(), 5*time.Second)
	require.NoError(t, err)
	require.True(t, held)

	held, err = second.Acquire(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestLocker_Release(t *testing.T) {
	_, client := testRedis(t)
	locker := NewLocker(client, "matcher", "token-1")

	held, err := locker.Acquire(context.Background(), 5*time.Second)
	require.NoError(t, err)
	require.True(t, held)
	require.NoError(t, locker.Release(context.Background()))

	// The lock is free again.
	held, err = locker.Acquire(context.Background(), 5*time.Second)
	require.NoError(t, err)
	assert.True(t, held)
}

func TestLocker_Release_NotHolder(t *testing.T) {
	_, client := testRedis(t)
	holder := NewLocker(client, "matcher", "token-1")
	impostor := NewLocker(client, "matcher", "token-2")

	held, err := holder.Acquire(context.Background(), 5*time.Second)
	require.NoError(t, err)
	require.True(t, held)

	assert.EqualError(t, impostor.Release(context.Background()),
		"lock matcher expired or is held by another writer")
}

func TestLocker_ExpiredLockCanBeTaken(t *testing.T) {
	mr, client := testRedis(t)
	first := NewLocker(client, "matcher", "token-1")
	second := NewLocker(client, "matcher", "token-2")

	held, err := first.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	require.True(t, held)

	mr.FastForward(2 * time.Second)

	held, err = second.Acquire(context.Background(), time.Second)
	require.NoError(t, err)
	assert.True(t, held)

	// The expired holder cannot free the successor's lock.
	assert.Error(t, first.Release(context.Background()))
}

//go:build integration

package availability_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"tabrela/internal/availability"
	id "tabrela/pkg/domain"
	"tabrela/pkg/testutil/containers"
)

type RedisPoolSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	pool  *availability.RedisPool
}

func TestRedisPoolSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisPoolSuite))
}

func (s *RedisPoolSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.redis = mgr.GetRedis(s.T())
	s.pool = availability.NewRedisPool(s.redis.Client.Client, availability.WithKeyPrefix(s.redis.Client.KeyPrefix()))
}

func (s *RedisPoolSuite) SetupTest() {
	s.Require().NoError(s.redis.Reset(context.Background()))
}

func (s *RedisPoolSuite) TestReplaceAndLookup() {
	ctx := context.Background()
	eventID := id.NewEventID()
	alice, bob := id.NewUserID(), id.NewUserID()

	s.Require().NoError(s.pool.Replace(ctx, eventID, []id.UserID{alice, bob}))

	ok, err := s.pool.IsAvailable(ctx, eventID, alice)
	s.Require().NoError(err)
	s.True(ok)
	ok, err = s.pool.IsAvailable(ctx, id.NewEventID(), alice)
	s.Require().NoError(err)
	s.False(ok, "pools are per event")

	users, err := s.pool.Available(ctx, eventID)
	s.Require().NoError(err)
	s.ElementsMatch([]id.UserID{alice, bob}, users)

	s.Require().NoError(s.pool.Replace(ctx, eventID, []id.UserID{bob}))
	ok, err = s.pool.IsAvailable(ctx, eventID, alice)
	s.Require().NoError(err)
	s.False(ok, "replace drops users missing from the new list")

	s.Require().NoError(s.pool.Replace(ctx, eventID, nil))
	users, err = s.pool.Available(ctx, eventID)
	s.Require().NoError(err)
	s.Empty(users)
}

func (s *RedisPoolSuite) TestMalformedMembersAreSkipped() {
	ctx := context.Background()
	eventID := id.NewEventID()
	carol := id.NewUserID()
	s.Require().NoError(s.redis.SeedPool(ctx, eventID.String(), carol.String(), "not-a-uuid"))

	users, err := s.pool.Available(ctx, eventID)
	s.Require().NoError(err)
	s.Equal([]id.UserID{carol}, users)
}

func (s *RedisPoolSuite) TestCachedPoolsStayUnderPrefix() {
	ctx := context.Background()
	first, second := id.NewEventID(), id.NewEventID()
	s.Require().NoError(s.pool.Replace(ctx, first, []id.UserID{id.NewUserID()}))
	s.Require().NoError(s.pool.Replace(ctx, second, []id.UserID{id.NewUserID()}))
	s.Require().NoError(s.redis.Client.Set(ctx, "unrelated", "1", 0).Err())

	keys, err := s.redis.Client.PoolKeys(ctx)
	s.Require().NoError(err)
	prefix := s.redis.Client.KeyPrefix()
	s.ElementsMatch([]string{prefix + first.String(), prefix + second.String()}, keys)
}

package api

import (
	"context"

	"github.com/ieltsline/admincore/cache"
	"github.com/ieltsline/admincore/gateway"
)

// UserPlans binds the /user-plans endpoints.
type UserPlans struct {
	gw    *gateway.Client
	cache *cache.Cache
}

// Promote assigns a plan to a user by hand. The user listing reflects plan
// membership, so the mutation invalidates it.
func (s *UserPlans) Promote(ctx context.Context, req PromoteRequest) error {
	_, err := s.cache.Mutate(ctx, cache.Mutation{
		Name:        "promoteUser",
		Invalidates: []string{"users", "user"},
		Run: func(ctx context.Context) (any, error) {
			return nil, s.gw.Post(ctx, "/user-plans/promote", req, nil)
		},
	})
	return err
}

// Analytics fetches the user-plan analytics report for f, cached per filter
// set.
func (s *UserPlans) Analytics(ctx context.Context, f AnalyticsFilters) (UserPlanAnalytics, error) {
	key := cache.NewKey("user-plans-analytics", f)
	return cache.QueryAs(ctx, s.cache, key, func(ctx context.Context) (UserPlanAnalytics, error) {
		var out dataEnvelope[UserPlanAnalytics]
		if err := s.gw.Get(ctx, "/user-plans/analytics", f.values(), &out); err != nil {
			return UserPlanAnalytics{}, err
		}
		return out.Data, nil
	})
}

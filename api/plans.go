package api

import (
	"context"
	"net/url"

	"github.com/ieltsline/admincore/cache"
	"github.com/ieltsline/admincore/gateway"
)

// Plans binds the /plans endpoints.
type Plans struct {
	gw    *gateway.Client
	cache *cache.Cache
}

// List fetches the paginated plan listing for f, cached per filter set.
func (s *Plans) List(ctx context.Context, f PlanFilters) (PlanList, error) {
	key := cache.NewKey("plans", f)
	return cache.QueryAs(ctx, s.cache, key, func(ctx context.Context) (PlanList, error) {
		var out PlanList
		if err := s.gw.Get(ctx, "/plans", f.values(), &out); err != nil {
			return PlanList{}, err
		}
		return out, nil
	})
}

// Get fetches one plan by id. The detail endpoint returns the record
// directly, with no envelope.
func (s *Plans) Get(ctx context.Context, id string) (Plan, error) {
	key := cache.NewKey("plan", id)
	return cache.QueryAs(ctx, s.cache, key, func(ctx context.Context) (Plan, error) {
		var out Plan
		if err := s.gw.Get(ctx, "/plans/"+url.PathEscape(id), nil, &out); err != nil {
			return Plan{}, err
		}
		return out, nil
	})
}

// Active fetches the currently purchasable plans.
func (s *Plans) Active(ctx context.Context) ([]Plan, error) {
	key := cache.NewKey("active-plans", nil)
	return cache.QueryAs(ctx, s.cache, key, func(ctx context.Context) ([]Plan, error) {
		var out dataEnvelope[[]Plan]
		if err := s.gw.Get(ctx, "/plans/active", nil, &out); err != nil {
			return nil, err
		}
		return out.Data, nil
	})
}

// Create adds a plan and invalidates the cached plan listings.
func (s *Plans) Create(ctx context.Context, p Plan) (Plan, error) {
	created, err := s.cache.Mutate(ctx, cache.Mutation{
		Name:        "createPlan",
		Invalidates: []string{"plans", "active-plans"},
		Run: func(ctx context.Context) (any, error) {
			var out Plan
			if err := s.gw.Post(ctx, "/plans", p, &out); err != nil {
				return Plan{}, err
			}
			return out, nil
		},
	})
	if err != nil {
		return Plan{}, err
	}
	return created.(Plan), nil
}

// Update patches a plan and invalidates the cached plan listings and the
// plan's own detail entry.
func (s *Plans) Update(ctx context.Context, id string, p Plan) (Plan, error) {
	updated, err := s.cache.Mutate(ctx, cache.Mutation{
		Name:        "updatePlan",
		Invalidates: []string{"plans", "plan", "active-plans"},
		Run: func(ctx context.Context) (any, error) {
			var out Plan
			if err := s.gw.Patch(ctx, "/plans/"+url.PathEscape(id), p, &out); err != nil {
				return Plan{}, err
			}
			return out, nil
		},
	})
	if err != nil {
		return Plan{}, err
	}
	return updated.(Plan), nil
}

// Delete removes a plan and invalidates the cached plan listings.
func (s *Plans) Delete(ctx context.Context, id string) error {
	_, err := s.cache.Mutate(ctx, cache.Mutation{
		Name:        "deletePlan",
		Invalidates: []string{"plans", "plan", "active-plans"},
		Run: func(ctx context.Context) (any, error) {
			return nil, s.gw.Delete(ctx, "/plans/"+url.PathEscape(id))
		},
	})
	return err
}

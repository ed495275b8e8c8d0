package api

import (
	"context"
	"net/url"

	"github.com/ieltsline/admincore"
	"github.com/ieltsline/admincore/cache"
	"github.com/ieltsline/admincore/gateway"
)

// Users binds the /users endpoints.
type Users struct {
	gw    *gateway.Client
	cache *cache.Cache
}

// List fetches the paginated user listing for f, cached per filter set.
func (s *Users) List(ctx context.Context, f UserFilters) (UserList, error) {
	key := cache.NewKey("users", f)
	return cache.QueryAs(ctx, s.cache, key, func(ctx context.Context) (UserList, error) {
		var out UserList
		if err := s.gw.Get(ctx, "/users", f.values(), &out); err != nil {
			return UserList{}, err
		}
		return out, nil
	})
}

// Get fetches one user by id. The detail endpoint nests the record under
// "data".
func (s *Users) Get(ctx context.Context, id string) (admincore.User, error) {
	key := cache.NewKey("user", id)
	return cache.QueryAs(ctx, s.cache, key, func(ctx context.Context) (admincore.User, error) {
		var out dataEnvelope[admincore.User]
		if err := s.gw.Get(ctx, "/users/"+url.PathEscape(id), nil, &out); err != nil {
			return admincore.User{}, err
		}
		return out.Data, nil
	})
}

// Delete removes a user and invalidates the cached user listings.
func (s *Users) Delete(ctx context.Context, id string) error {
	_, err := s.cache.Mutate(ctx, cache.Mutation{
		Name:        "deleteUser",
		Invalidates: []string{"users", "user"},
		Run: func(ctx context.Context) (any, error) {
			return nil, s.gw.Delete(ctx, "/users/"+url.PathEscape(id))
		},
	})
	return err
}

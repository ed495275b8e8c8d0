package api

import (
	"github.com/ieltsline/admincore/cache"
	"github.com/ieltsline/admincore/gateway"
)

// Client groups the feature services over one gateway and one cache.
type Client struct {
	Auth      *Auth
	Users     *Users
	Plans     *Plans
	Topics    *Topics
	UserPlans *UserPlans
}

// New wires every feature service to the shared gateway client and query
// cache. The cache may be shared with other consumers; invalidation issued
// here is visible to all of them.
func New(gw *gateway.Client, store *cache.Cache) *Client {
	return &Client{
		Auth:      &Auth{gw: gw},
		Users:     &Users{gw: gw, cache: store},
		Plans:     &Plans{gw: gw, cache: store},
		Topics:    &Topics{gw: gw, cache: store},
		UserPlans: &UserPlans{gw: gw, cache: store},
	}
}

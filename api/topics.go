package api

import (
	"context"
	"net/url"

	"github.com/ieltsline/admincore/cache"
	"github.com/ieltsline/admincore/gateway"
)

// Topics binds the /ielts-writing endpoints.
type Topics struct {
	gw    *gateway.Client
	cache *cache.Cache
}

// List fetches the topic listing for f, cached per filter set.
func (s *Topics) List(ctx context.Context, f TopicFilters) (TopicList, error) {
	key := cache.NewKey("topics", f)
	return cache.QueryAs(ctx, s.cache, key, func(ctx context.Context) (TopicList, error) {
		var out TopicList
		if err := s.gw.Get(ctx, "/ielts-writing", f.values(), &out); err != nil {
			return TopicList{}, err
		}
		return out, nil
	})
}

// Get fetches one topic by id.
func (s *Topics) Get(ctx context.Context, id string) (Topic, error) {
	key := cache.NewKey("topic", id)
	return cache.QueryAs(ctx, s.cache, key, func(ctx context.Context) (Topic, error) {
		var out Topic
		if err := s.gw.Get(ctx, "/ielts-writing/"+url.PathEscape(id), nil, &out); err != nil {
			return Topic{}, err
		}
		return out, nil
	})
}

// Create adds a writing topic and invalidates the cached topic listings.
func (s *Topics) Create(ctx context.Context, topic Topic) (Topic, error) {
	created, err := s.cache.Mutate(ctx, cache.Mutation{
		Name:        "createTopic",
		Invalidates: []string{"topics"},
		Run: func(ctx context.Context) (any, error) {
			var out Topic
			if err := s.gw.Post(ctx, "/ielts-writing", topic, &out); err != nil {
				return Topic{}, err
			}
			return out, nil
		},
	})
	if err != nil {
		return Topic{}, err
	}
	return created.(Topic), nil
}

// Update patches a topic and invalidates the cached topic listings and the
// topic's own detail entry.
func (s *Topics) Update(ctx context.Context, id string, topic Topic) (Topic, error) {
	updated, err := s.cache.Mutate(ctx, cache.Mutation{
		Name:        "updateTopic",
		Invalidates: []string{"topics", "topic"},
		Run: func(ctx context.Context) (any, error) {
			var out Topic
			if err := s.gw.Patch(ctx, "/ielts-writing/"+url.PathEscape(id), topic, &out); err != nil {
				return Topic{}, err
			}
			return out, nil
		},
	})
	if err != nil {
		return Topic{}, err
	}
	return updated.(Topic), nil
}

// Delete removes a topic and invalidates the cached topic listings.
func (s *Topics) Delete(ctx context.Context, id string) error {
	_, err := s.cache.Mutate(ctx, cache.Mutation{
		Name:        "deleteTopic",
		Invalidates: []string{"topics", "topic"},
		Run: func(ctx context.Context) (any, error) {
			return nil, s.gw.Delete(ctx, "/ielts-writing/"+url.PathEscape(id))
		},
	})
	return err
}

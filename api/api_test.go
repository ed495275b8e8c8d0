package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/ieltsline/admincore/cache"
	"github.com/ieltsline/admincore/credstore"
	"github.com/ieltsline/admincore/gateway"
)

func newAPITest(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gw, err := gateway.NewClient(gateway.Config{BaseURL: srv.URL}, credstore.NewMemoryStore())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return New(gw, cache.New())
}

func TestUsersListDecodesStringPagination(t *testing.T) {
	client := newAPITest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("search"); got != "ali" {
			t.Fatalf("unexpected search param %q", got)
		}
		w.Write([]byte(`{
			"data": [{"_id": "u-1", "phone": "+998", "role": "USER", "status": "ACTIVE", "phoneVerified": true,
				"createdAt": "2025-01-02T03:04:05Z", "updatedAt": "2025-01-02T03:04:05Z"}],
			"pagination": {"page": "2", "limit": "10", "total": 11, "totalPages": 2, "hasNext": false, "hasPrev": true}
		}`))
	}))

	list, err := client.Users.List(context.Background(), UserFilters{Page: 2, Limit: 10, Search: "ali"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].ID != "u-1" {
		t.Fatalf("unexpected data: %+v", list.Data)
	}
	if list.Pagination.Page != 2 || list.Pagination.Limit != 10 || !list.Pagination.HasPrev {
		t.Fatalf("unexpected pagination: %+v", list.Pagination)
	}
}

func TestUsersListCachedPerFilterSet(t *testing.T) {
	var hits atomic.Int32
	client := newAPITest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"data": [], "pagination": {"page": 1, "limit": 10}}`))
	}))

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := client.Users.List(ctx, UserFilters{Page: 1}); err != nil {
			t.Fatalf("list: %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one upstream hit, got %d", hits.Load())
	}

	if _, err := client.Users.List(ctx, UserFilters{Page: 2}); err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected distinct filters to refetch, got %d hits", hits.Load())
	}
}

func TestDeleteUserInvalidatesListing(t *testing.T) {
	var listHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		listHits.Add(1)
		w.Write([]byte(`{"data": [], "pagination": {"page": 1, "limit": 10}}`))
	})
	mux.HandleFunc("/users/u-9", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Fatalf("unexpected method %s", r.Method)
		}
		w.Write([]byte(`{}`))
	})
	client := newAPITest(t, mux)

	ctx := context.Background()
	if _, err := client.Users.List(ctx, UserFilters{Page: 1}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := client.Users.Delete(ctx, "u-9"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := client.Users.List(ctx, UserFilters{Page: 1}); err != nil {
		t.Fatalf("list after delete: %v", err)
	}
	if listHits.Load() != 2 {
		t.Fatalf("expected listing refetched after delete, got %d hits", listHits.Load())
	}
}

func TestUserIDEscapedInPath(t *testing.T) {
	client := newAPITest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.EscapedPath(); got != "/users/u%2F1%3Fx" {
			t.Fatalf("unexpected escaped path %q", got)
		}
		if r.URL.RawQuery != "" {
			t.Fatalf("id must not leak into the query string, got %q", r.URL.RawQuery)
		}
		w.Write([]byte(`{"data": {"_id": "u/1?x", "phone": "+998", "role": "ADMIN", "status": "ACTIVE", "phoneVerified": true,
			"createdAt": "2025-01-02T03:04:05Z", "updatedAt": "2025-01-02T03:04:05Z"}}`))
	}))

	u, err := client.Users.Get(context.Background(), "u/1?x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if u.ID != "u/1?x" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestPlanMutationsInvalidatePlanReads(t *testing.T) {
	var listHits, activeHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/plans", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			listHits.Add(1)
			w.Write([]byte(`{"data": [], "pagination": {"page": 1, "limit": 10}}`))
		case http.MethodPost:
			var p Plan
			if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
				t.Fatalf("decode plan: %v", err)
			}
			p.ID = "p-1"
			json.NewEncoder(w).Encode(p)
		}
	})
	mux.HandleFunc("/plans/active", func(w http.ResponseWriter, r *http.Request) {
		activeHits.Add(1)
		w.Write([]byte(`{"data": [{"title": "Pro"}]}`))
	})
	client := newAPITest(t, mux)

	ctx := context.Background()
	if _, err := client.Plans.List(ctx, PlanFilters{Page: 1}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, err := client.Plans.Active(ctx); err != nil {
		t.Fatalf("active: %v", err)
	}

	created, err := client.Plans.Create(ctx, Plan{Title: "Pro", BillingCycle: BillingMonthly})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID != "p-1" {
		t.Fatalf("unexpected created plan: %+v", created)
	}

	if _, err := client.Plans.List(ctx, PlanFilters{Page: 1}); err != nil {
		t.Fatalf("list after create: %v", err)
	}
	if _, err := client.Plans.Active(ctx); err != nil {
		t.Fatalf("active after create: %v", err)
	}
	if listHits.Load() != 2 || activeHits.Load() != 2 {
		t.Fatalf("expected both plan reads refetched, got list=%d active=%d", listHits.Load(), activeHits.Load())
	}
}

func TestTopicsListHasNoPaginationEnvelope(t *testing.T) {
	client := newAPITest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ielts-writing" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("type"); got != "TASK_TWO" {
			t.Fatalf("unexpected type param %q", got)
		}
		w.Write([]byte(`{"data": [{"_id": "t-1", "title": "Graph", "question": "Describe the chart", "type": "TASK_ONE"}]}`))
	}))

	list, err := client.Topics.List(context.Background(), TopicFilters{Type: "TASK_TWO"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].Type != TaskOne {
		t.Fatalf("unexpected topics: %+v", list.Data)
	}
}

func TestVerifyPhoneUnwrapsEnvelope(t *testing.T) {
	client := newAPITest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/verify-phone" || r.Method != http.MethodPost {
			t.Fatalf("unexpected call %s %s", r.Method, r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["phone"] != "+998901112233" || req["code"] != "123456" {
			t.Fatalf("unexpected request: %v", req)
		}
		w.Write([]byte(`{"message": "verified", "data": {
			"user": {"_id": "u-1", "phone": "+998901112233", "role": "ADMIN", "status": "ACTIVE", "phoneVerified": true,
				"createdAt": "2025-01-02T03:04:05Z", "updatedAt": "2025-01-02T03:04:05Z"},
			"accessToken": "tok123"
		}}`))
	}))

	res, err := client.Auth.VerifyPhone(context.Background(), "+998901112233", "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if res.Token != "tok123" || res.User.ID != "u-1" || res.User.Role != "ADMIN" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestAnalyticsUnwrapsEnvelope(t *testing.T) {
	client := newAPITest(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("planType"); got != "PREMIUM" {
			t.Fatalf("unexpected planType %q", got)
		}
		w.Write([]byte(`{"data": {
			"totalUsers": 42,
			"activeSubscriptions": 7,
			"totalRevenue": 1050.5,
			"activeUsers": {"daily": 3, "weekly": 9, "monthly": 20},
			"writingSubmissions": {"total": 5, "scoreDistribution": [{"scoreRange": "6-7", "count": 2}, {"scoreRange": 8, "count": 1}]}
		}}`))
	}))

	report, err := client.UserPlans.Analytics(context.Background(), AnalyticsFilters{PlanType: "PREMIUM"})
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if report.TotalUsers != 42 || report.ActiveUsers.Weekly != 9 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.WritingSubmissions.ScoreDistribution) != 2 {
		t.Fatalf("unexpected score distribution: %+v", report.WritingSubmissions.ScoreDistribution)
	}
}

func TestPromoteInvalidatesUserListing(t *testing.T) {
	var listHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		listHits.Add(1)
		w.Write([]byte(`{"data": [], "pagination": {"page": 1, "limit": 10}}`))
	})
	mux.HandleFunc("/user-plans/promote", func(w http.ResponseWriter, r *http.Request) {
		var req PromoteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.UserID != "u-1" || req.PlanID != "p-1" {
			t.Fatalf("unexpected request: %+v", req)
		}
		w.Write([]byte(`{}`))
	})
	client := newAPITest(t, mux)

	ctx := context.Background()
	if _, err := client.Users.List(ctx, UserFilters{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if err := client.UserPlans.Promote(ctx, PromoteRequest{UserID: "u-1", PlanID: "p-1", Reason: "manual upgrade"}); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if _, err := client.Users.List(ctx, UserFilters{}); err != nil {
		t.Fatalf("list after promote: %v", err)
	}
	if listHits.Load() != 2 {
		t.Fatalf("expected listing refetched after promote, got %d hits", listHits.Load())
	}
}

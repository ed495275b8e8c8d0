package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/ieltsline/admincore"
)

// FlexInt decodes a JSON number that some endpoints serialize as a quoted
// string (pagination page and limit arrive as "2" rather than 2).
type FlexInt int

func (n *FlexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("flexible int: %w", err)
	}
	*n = FlexInt(v)
	return nil
}

// Pagination is the list envelope metadata shared by users and plans.
type Pagination struct {
	Page       FlexInt `json:"page"`
	Limit      FlexInt `json:"limit"`
	Total      int     `json:"total"`
	TotalPages int     `json:"totalPages"`
	HasNext    bool    `json:"hasNext"`
	HasPrev    bool    `json:"hasPrev"`
}

// SortOrder is "asc" or "desc".
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// UserFilters selects and orders the user list.
type UserFilters struct {
	Page      int       `json:"page,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Search    string    `json:"search,omitempty"`
	Role      string    `json:"role,omitempty"`
	Status    string    `json:"status,omitempty"`
	SortBy    string    `json:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
}

func (f UserFilters) values() url.Values {
	v := url.Values{}
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)
	setStr(v, "search", f.Search)
	setStr(v, "role", f.Role)
	setStr(v, "status", f.Status)
	setStr(v, "sortBy", f.SortBy)
	setStr(v, "sortOrder", string(f.SortOrder))
	return v
}

// UserList is the paginated user listing.
type UserList struct {
	Data       []admincore.User `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

// BillingCycle enumerates plan billing periods.
type BillingCycle string

const (
	BillingMonthly  BillingCycle = "MONTHLY"
	BillingYearly   BillingCycle = "YEARLY"
	BillingLifetime BillingCycle = "LIFETIME"
)

// Plan is a subscription plan record.
type Plan struct {
	ID              string         `json:"_id,omitempty"`
	Icon            string         `json:"icon"`
	Title           string         `json:"title"`
	Description     string         `json:"description"`
	Features        []string       `json:"features"`
	Price           float64        `json:"price"`
	Currency        string         `json:"currency"`
	DurationInDays  int            `json:"durationInDays"`
	TrialCount      int            `json:"trialCount"`
	IsActive        bool           `json:"isActive"`
	BillingCycle    BillingCycle   `json:"billingCycle"`
	Type            string         `json:"type"`
	Status          string         `json:"status"`
	Tags            []string       `json:"tags"`
	MaxUsers        int            `json:"maxUsers"`
	MaxSubmissions  int            `json:"maxSubmissions"`
	IsPopular       bool           `json:"isPopular"`
	SortOrder       int            `json:"sortOrder"`
	StripePriceID   string         `json:"stripePriceId,omitempty"`
	StripeProductID string         `json:"stripeProductId,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	CreatedAt       *time.Time     `json:"createdAt,omitempty"`
	UpdatedAt       *time.Time     `json:"updatedAt,omitempty"`
}

// PlanFilters selects and orders the plan list.
type PlanFilters struct {
	Page         int       `json:"page,omitempty"`
	Limit        int       `json:"limit,omitempty"`
	Search       string    `json:"search,omitempty"`
	Type         string    `json:"type,omitempty"`
	Status       string    `json:"status,omitempty"`
	BillingCycle string    `json:"billingCycle,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	MinPrice     float64   `json:"minPrice,omitempty"`
	MaxPrice     float64   `json:"maxPrice,omitempty"`
	IsActive     *bool     `json:"isActive,omitempty"`
	IsPopular    *bool     `json:"isPopular,omitempty"`
	SortBy       string    `json:"sortBy,omitempty"`
	SortOrder    SortOrder `json:"sortOrder,omitempty"`
	Tags         []string  `json:"tags,omitempty"`
}

func (f PlanFilters) values() url.Values {
	v := url.Values{}
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)
	setStr(v, "search", f.Search)
	setStr(v, "type", f.Type)
	setStr(v, "status", f.Status)
	setStr(v, "billingCycle", f.BillingCycle)
	setStr(v, "currency", f.Currency)
	if f.MinPrice > 0 {
		v.Set("minPrice", strconv.FormatFloat(f.MinPrice, 'f', -1, 64))
	}
	if f.MaxPrice > 0 {
		v.Set("maxPrice", strconv.FormatFloat(f.MaxPrice, 'f', -1, 64))
	}
	if f.IsActive != nil {
		v.Set("isActive", strconv.FormatBool(*f.IsActive))
	}
	if f.IsPopular != nil {
		v.Set("isPopular", strconv.FormatBool(*f.IsPopular))
	}
	setStr(v, "sortBy", f.SortBy)
	setStr(v, "sortOrder", string(f.SortOrder))
	if len(f.Tags) > 0 {
		v.Set("tags", strings.Join(f.Tags, ","))
	}
	return v
}

// PlanList is the paginated plan listing.
type PlanList struct {
	Data       []Plan     `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// TaskType enumerates IELTS writing task kinds.
type TaskType string

const (
	TaskOne TaskType = "TASK_ONE"
	TaskTwo TaskType = "TASK_TWO"
)

// Topic is a writing task record served by /ielts-writing.
type Topic struct {
	ID        string    `json:"_id,omitempty"`
	Title     string    `json:"title"`
	Question  string    `json:"question"`
	Type      TaskType  `json:"type"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// TopicFilters selects and orders the topic list.
type TopicFilters struct {
	Page      int       `json:"page,omitempty"`
	Limit     int       `json:"limit,omitempty"`
	Search    string    `json:"search,omitempty"`
	Type      string    `json:"type,omitempty"`
	SortBy    string    `json:"sortBy,omitempty"`
	SortOrder SortOrder `json:"sortOrder,omitempty"`
}

func (f TopicFilters) values() url.Values {
	v := url.Values{}
	setInt(v, "page", f.Page)
	setInt(v, "limit", f.Limit)
	setStr(v, "search", f.Search)
	setStr(v, "type", f.Type)
	setStr(v, "sortBy", f.SortBy)
	setStr(v, "sortOrder", string(f.SortOrder))
	return v
}

// TopicList is the topic listing; the endpoint carries no pagination envelope.
type TopicList struct {
	Data []Topic `json:"data"`
}

// PromoteRequest assigns a plan to a user out of band of payment.
type PromoteRequest struct {
	UserID string `json:"userId"`
	PlanID string `json:"planId"`
	Reason string `json:"reason"`
}

// AnalyticsFilters bounds the user-plan analytics report.
type AnalyticsFilters struct {
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	PlanType  string `json:"planType,omitempty"`
}

func (f AnalyticsFilters) values() url.Values {
	v := url.Values{}
	setStr(v, "startDate", f.StartDate)
	setStr(v, "endDate", f.EndDate)
	setStr(v, "planType", f.PlanType)
	return v
}

// MonthlyGrowth is one month of subscription growth.
type MonthlyGrowth struct {
	Month   string  `json:"month"`
	Count   int     `json:"count"`
	Revenue float64 `json:"revenue"`
}

// ActiveUsers breaks active users down by window.
type ActiveUsers struct {
	Daily   int `json:"daily"`
	Weekly  int `json:"weekly"`
	Monthly int `json:"monthly"`
}

// Transactions summarizes revenue by window.
type Transactions struct {
	Total          int     `json:"total"`
	DailyRevenue   float64 `json:"dailyRevenue"`
	WeeklyRevenue  float64 `json:"weeklyRevenue"`
	MonthlyRevenue float64 `json:"monthlyRevenue"`
}

// TimelinePoint is one day of writing submissions.
type TimelinePoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// CountByStatus pairs a status label with its count.
type CountByStatus struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// CountByTopic pairs a topic label with its count.
type CountByTopic struct {
	Topic string `json:"topic"`
	Count int    `json:"count"`
}

// CountByType pairs a subscription type with its count.
type CountByType struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

// ScoreBucket pairs a score range with its count. The range arrives as a
// string or a bare number depending on the band.
type ScoreBucket struct {
	ScoreRange json.RawMessage `json:"scoreRange"`
	Count      int             `json:"count"`
}

// WritingSubmissions aggregates submission activity.
type WritingSubmissions struct {
	Total             int             `json:"total"`
	Daily             int             `json:"daily"`
	Weekly            int             `json:"weekly"`
	Monthly           int             `json:"monthly"`
	Timeline          []TimelinePoint `json:"timeline"`
	StatusBreakdown   []CountByStatus `json:"statusBreakdown"`
	TopicBreakdown    []CountByTopic  `json:"topicBreakdown"`
	ScoreDistribution []ScoreBucket   `json:"scoreDistribution"`
}

// UserPlanAnalytics is the full analytics report from /user-plans/analytics.
type UserPlanAnalytics struct {
	TotalUsers            int                `json:"totalUsers"`
	ActiveSubscriptions   int                `json:"activeSubscriptions"`
	ExpiredSubscriptions  int                `json:"expiredSubscriptions"`
	TotalRevenue          float64            `json:"totalRevenue"`
	AverageRevenuePerUser float64            `json:"averageRevenuePerUser"`
	SubscriptionTypes     []CountByType      `json:"subscriptionTypes"`
	PaymentStatuses       []CountByStatus    `json:"paymentStatuses"`
	MonthlyGrowth         []MonthlyGrowth    `json:"monthlyGrowth"`
	ActiveUsers           ActiveUsers        `json:"activeUsers"`
	Transactions          Transactions       `json:"transactions"`
	WritingSubmissions    WritingSubmissions `json:"writingSubmissions"`
}

// dataEnvelope wraps endpoints that nest their payload under "data".
type dataEnvelope[T any] struct {
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func setStr(v url.Values, name, value string) {
	if value != "" {
		v.Set(name, value)
	}
}

func setInt(v url.Values, name string, value int) {
	if value > 0 {
		v.Set(name, strconv.Itoa(value))
	}
}

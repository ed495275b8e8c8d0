// Command admincli is a terminal console for the platform admin API. It wires
// the credential store, session manager, gateway, and query cache the same
// way an embedding UI would, and renders plain text.
//
// Configuration comes from ADMINCORE_* environment variables, optionally
// loaded from a .env file:
//
//	ADMINCORE_BASE_URL        API root (required)
//	ADMINCORE_STORE           credential backend: file (default), memory, redis
//	ADMINCORE_STORE_DIR       override the file store directory
//	ADMINCORE_REDIS_ADDR      redis backend address
//	ADMINCORE_REDIS_USERNAME  redis username
//	ADMINCORE_REDIS_PASSWORD  redis password
//	ADMINCORE_REDIS_PREFIX    redis key prefix
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ieltsline/admincore"
	"github.com/ieltsline/admincore/api"
	"github.com/ieltsline/admincore/cache"
	"github.com/ieltsline/admincore/credstore"
	"github.com/ieltsline/admincore/gateway"
	"github.com/ieltsline/admincore/token"
)

const usage = `usage: admincli <command> [flags]

commands:
  login <phone>            request a verification code
  verify <phone> <code>    complete login with the received code
  whoami                   show the current session
  logout                   end the current session
  users                    list users (-page -limit -search -role -status)
  plans                    list plans (-page -limit -search -status)
  topics                   list writing topics (-type -search)
  analytics                user-plan analytics (-start -end -plan-type)
  promote                  assign a plan (-user -plan -reason)
`

type console struct {
	manager *admincore.Manager
	store   credstore.Store
	api     *api.Client
}

func main() {
	// Missing .env is fine; the environment may already be populated.
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	c, err := newConsole()
	if err != nil {
		fmt.Fprintf(os.Stderr, "admincli: %v\n", err)
		os.Exit(1)
	}
	defer c.manager.Close()

	ctx := context.Background()
	c.manager.Restore(ctx)

	if err := c.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "admincli: %v\n", err)
		os.Exit(1)
	}
}

func newConsole() (*console, error) {
	baseURL := os.Getenv("ADMINCORE_BASE_URL")
	if baseURL == "" {
		return nil, fmt.Errorf("ADMINCORE_BASE_URL is not set")
	}

	store, err := credstore.New(credstore.Options{
		Backend:       os.Getenv("ADMINCORE_STORE"),
		Dir:           os.Getenv("ADMINCORE_STORE_DIR"),
		Secure:        strings.HasPrefix(baseURL, "https://"),
		RedisAddr:     os.Getenv("ADMINCORE_REDIS_ADDR"),
		RedisUsername: os.Getenv("ADMINCORE_REDIS_USERNAME"),
		RedisPassword: os.Getenv("ADMINCORE_REDIS_PASSWORD"),
		RedisPrefix:   os.Getenv("ADMINCORE_REDIS_PREFIX"),
	})
	if err != nil {
		return nil, fmt.Errorf("credential store: %w", err)
	}

	manager, err := admincore.New().
		WithCredentials(store).
		WithNoticeSink(admincore.NewJSONWriterSink(os.Stderr)).
		Build()
	if err != nil {
		return nil, err
	}

	gw, err := gateway.NewClient(gateway.Config{BaseURL: baseURL}, store,
		gateway.WithOnUnauthorized(manager.UnauthorizedHandler()))
	if err != nil {
		return nil, err
	}

	return &console{
		manager: manager,
		store:   store,
		api:     api.New(gw, cache.New()),
	}, nil
}

func (c *console) run(ctx context.Context, command string, args []string) error {
	switch command {
	case "login":
		return c.login(ctx, args)
	case "verify":
		return c.verify(ctx, args)
	case "whoami":
		return c.whoami()
	case "logout":
		c.manager.Logout(ctx)
		fmt.Println("logged out")
		return nil
	case "users":
		return c.users(ctx, args)
	case "plans":
		return c.plans(ctx, args)
	case "topics":
		return c.topics(ctx, args)
	case "analytics":
		return c.analytics(ctx, args)
	case "promote":
		return c.promote(ctx, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
		return nil
	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

func (c *console) login(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: admincli login <phone>")
	}
	msg, err := c.api.Auth.SendVerificationCode(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Println(msg)
	fmt.Println("run: admincli verify", args[0], "<code>")
	return nil
}

func (c *console) verify(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: admincli verify <phone> <code>")
	}
	res, err := c.api.Auth.VerifyPhone(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	if err := c.manager.Login(ctx, res.User, res.Token); err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", res.User.Phone, res.User.Role)
	return nil
}

func (c *console) whoami() error {
	user, ok := c.manager.CurrentUser()
	if !ok {
		fmt.Println("not logged in")
		return nil
	}
	fmt.Printf("user:  %s\n", user.Phone)
	fmt.Printf("id:    %s\n", user.ID)
	fmt.Printf("role:  %s\n", user.Role)
	fmt.Printf("state: %s\n", c.manager.State())
	if tok, ok := c.store.Read(gateway.TokenEntryName); ok {
		fmt.Printf("token: expires %s\n", tokenExpiry(tok))
	}
	return nil
}

func (c *console) users(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	var f api.UserFilters
	fs.IntVar(&f.Page, "page", 1, "page number")
	fs.IntVar(&f.Limit, "limit", 20, "page size")
	fs.StringVar(&f.Search, "search", "", "search term")
	fs.StringVar(&f.Role, "role", "", "role filter")
	fs.StringVar(&f.Status, "status", "", "status filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := c.api.Users.List(ctx, f)
	if err != nil {
		return err
	}
	for _, u := range list.Data {
		fmt.Printf("%-26s %-16s %-12s %s\n", u.ID, u.Phone, u.Role, u.Status)
	}
	fmt.Printf("page %d/%d, %d total\n", list.Pagination.Page, list.Pagination.TotalPages, list.Pagination.Total)
	return nil
}

func (c *console) plans(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("plans", flag.ContinueOnError)
	var f api.PlanFilters
	fs.IntVar(&f.Page, "page", 1, "page number")
	fs.IntVar(&f.Limit, "limit", 20, "page size")
	fs.StringVar(&f.Search, "search", "", "search term")
	fs.StringVar(&f.Status, "status", "", "status filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := c.api.Plans.List(ctx, f)
	if err != nil {
		return err
	}
	for _, p := range list.Data {
		fmt.Printf("%-26s %-24s %8.2f %-4s %-9s %s\n", p.ID, p.Title, p.Price, p.Currency, p.BillingCycle, p.Status)
	}
	fmt.Printf("page %d/%d, %d total\n", list.Pagination.Page, list.Pagination.TotalPages, list.Pagination.Total)
	return nil
}

func (c *console) topics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("topics", flag.ContinueOnError)
	var f api.TopicFilters
	fs.StringVar(&f.Type, "type", "", "TASK_ONE or TASK_TWO")
	fs.StringVar(&f.Search, "search", "", "search term")
	if err := fs.Parse(args); err != nil {
		return err
	}

	list, err := c.api.Topics.List(ctx, f)
	if err != nil {
		return err
	}
	for _, topic := range list.Data {
		fmt.Printf("%-26s %-10s %s\n", topic.ID, topic.Type, topic.Title)
	}
	return nil
}

func (c *console) analytics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("analytics", flag.ContinueOnError)
	var f api.AnalyticsFilters
	fs.StringVar(&f.StartDate, "start", "", "start date (YYYY-MM-DD)")
	fs.StringVar(&f.EndDate, "end", "", "end date (YYYY-MM-DD)")
	fs.StringVar(&f.PlanType, "plan-type", "", "plan type filter")
	if err := fs.Parse(args); err != nil {
		return err
	}

	report, err := c.api.UserPlans.Analytics(ctx, f)
	if err != nil {
		return err
	}
	fmt.Printf("users:                %d\n", report.TotalUsers)
	fmt.Printf("active subscriptions: %d\n", report.ActiveSubscriptions)
	fmt.Printf("expired:              %d\n", report.ExpiredSubscriptions)
	fmt.Printf("revenue:              %.2f (%.2f per user)\n", report.TotalRevenue, report.AverageRevenuePerUser)
	fmt.Printf("active daily/weekly/monthly: %d/%d/%d\n",
		report.ActiveUsers.Daily, report.ActiveUsers.Weekly, report.ActiveUsers.Monthly)
	for _, g := range report.MonthlyGrowth {
		fmt.Printf("  %s  %4d signups  %10.2f revenue\n", g.Month, g.Count, g.Revenue)
	}
	return nil
}

func (c *console) promote(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	var req api.PromoteRequest
	fs.StringVar(&req.UserID, "user", "", "user id")
	fs.StringVar(&req.PlanID, "plan", "", "plan id")
	fs.StringVar(&req.Reason, "reason", "", "reason for the manual assignment")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if req.UserID == "" || req.PlanID == "" {
		return fmt.Errorf("usage: admincli promote -user <id> -plan <id> [-reason <text>]")
	}

	if err := c.api.UserPlans.Promote(ctx, req); err != nil {
		return err
	}
	fmt.Println("user plan updated")
	return nil
}

// tokenExpiry is used by whoami when a raw token is still stored; errors are
// rendered as "unknown" rather than failing the command.
func tokenExpiry(tok string) string {
	at, err := token.ExpiresAt(tok)
	if err != nil {
		return "unknown"
	}
	return at.Format(time.RFC3339)
}

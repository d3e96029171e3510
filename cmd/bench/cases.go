// README: Acceptance test cases; covers environment, ride lifecycle, approvals, availability, and contention checks.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Runner struct {
	cfg   Config
	httpc *http.Client
	db    *pgxpool.Pool
	redis *redis.Client
}

type Result struct {
	Name    string
	Status  string
	Latency time.Duration
	Note    string
}

type TestCase struct {
	Name  string
	Focus string
	Run   func(ctx context.Context, r *Runner) Result
}

func NewRunner(cfg Config) *Runner {
	return &Runner{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *Runner) RunAll(ctx context.Context) []Result {
	if r.cfg.DSN != "" {
		if db, err := pgxpool.New(ctx, r.cfg.DSN); err == nil {
			r.db = db
		}
	}
	if r.cfg.RedisAddr != "" {
		r.redis = redis.NewClient(&redis.Options{Addr: r.cfg.RedisAddr})
	}

	tests := r.cases()
	results := make([]Result, 0, len(tests))

	for _, tc := range tests {
		res := tc.Run(ctx, r)
		results = append(results, res)
		fmt.Printf("%-7s %s", res.Status, tc.Name)
		if res.Latency > 0 {
			fmt.Printf(" (%s)", res.Latency)
		}
		if res.Note != "" {
			fmt.Printf(" - %s", res.Note)
		}
		fmt.Println()
	}

	if r.db != nil {
		r.db.Close()
	}
	if r.redis != nil {
		_ = r.redis.Close()
	}

	return results
}

func (r *Runner) cases() []TestCase {
	base := r.cfg.BaseURL
	slotDate := time.Now().AddDate(0, 0, 1).Format("2006-01-02")
	rideBody := map[string]any{
		"ride_type":      "one_way",
		"pickup":         map[string]any{"address": "HQ", "lat": 25.033, "lng": 121.565},
		"destination":    map[string]any{"address": "Airport", "lat": 25.0797, "lng": 121.2342},
		"scheduled_date": slotDate,
		"scheduled_time": "09:30",
		"vehicle_type":   "sedan",
		"distance_km":    12.0,
	}

	return []TestCase{
		{
			Name:  "Env: Postgres connect",
			Focus: "database reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.db.Ping(ctx); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Env: Redis connect",
			Focus: "notification queue reachable",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.redis == nil {
					return Result{Status: "FAIL", Note: "redis not configured"}
				}
				ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
				defer cancel()
				if err := r.redis.Ping(ctx).Err(); err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: apply (optional)",
			Focus: "migration SQL applies cleanly",
			Run: func(ctx context.Context, r *Runner) Result {
				if !r.cfg.ApplyMigration {
					return Result{Status: "SKIP", Note: "apply-migration=false"}
				}
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				sql, err := os.ReadFile(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, s := range splitSQL(string(sql)) {
					if _, err := r.db.Exec(ctx, s); err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "Migration: tables exist",
			Focus: "schema matches migrations/0001_init.sql",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.db == nil {
					return Result{Status: "FAIL", Note: "db not configured"}
				}
				tables, err := extractTables(r.cfg.MigrationPath)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				for _, t := range tables {
					var exists bool
					err := r.db.QueryRow(ctx,
						"SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name=$1)",
						t,
					).Scan(&exists)
					if err != nil {
						return Result{Status: "FAIL", Note: err.Error()}
					}
					if !exists {
						return Result{Status: "FAIL", Note: "missing table: " + t}
					}
				}
				return Result{Status: "PASS"}
			},
		},
		{
			Name:  "API: server reachable",
			Focus: "health endpoint responds",
			Run: func(ctx context.Context, r *Runner) Result {
				start := time.Now()
				resp, err := r.httpc.Get(base + "/health")
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				return Result{Status: "PASS", Latency: time.Since(start), Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			},
		},
		{
			Name:  "Auth: missing token -> 401",
			Focus: "auth middleware guards /api",
			Run: func(ctx context.Context, r *Runner) Result {
				req, _ := http.NewRequestWithContext(ctx, http.MethodGet, base+"/api/users/me", nil)
				resp, err := r.httpc.Do(req)
				if err != nil {
					return Result{Status: "FAIL", Note: err.Error()}
				}
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusUnauthorized {
					return Result{Status: "PASS"}
				}
				return Result{Status: "FAIL", Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			},
		},

		// Ride lifecycle
		r.httpCase("Ride: requester creates (valid)", base+"/api/rides", rideBody, []int{200, 201}, []int{401}),
		r.httpCase("Ride: create missing fields -> 400", base+"/api/rides", map[string]any{}, []int{400}, []int{401}),
		r.httpCase("Ride: long distance routes to manager", base+"/api/rides", merge(rideBody, map[string]any{"distance_km": 18.0}), []int{200, 201}, []int{401}),
		r.httpCaseMethod("Ride: requester history", http.MethodGet, base+"/api/rides", nil, []int{200}, []int{401}),

		// Approvals need seeded manager/admin accounts; exercised in unit tests.
		r.manualCase("Approval: manager approve forwards to admin", "requires a seeded manager account and a ride in awaiting_manager"),
		r.manualCase("Approval: long-distance admin approve needs note", "requires a seeded admin account"),
		r.manualCase("Approval: reject reason 10..500 chars", "requires a seeded approver account"),

		// Availability
		r.httpCaseMethod("Availability: drivers for slot", http.MethodGet,
			base+"/api/availability/drivers?date="+slotDate+"&time=09:30", nil, []int{200}, []int{401}),
		r.httpCaseMethod("Availability: vehicles for slot", http.MethodGet,
			base+"/api/availability/vehicles?date="+slotDate+"&time=09:30", nil, []int{200}, []int{401}),
		r.httpCaseMethod("Availability: bad date -> 400", http.MethodGet,
			base+"/api/availability/drivers?date=tomorrow&time=09:30", nil, []int{400}, []int{401}),

		// Fleet
		r.httpCase("Fleet: register vehicle (valid number)", base+"/api/fleet/vehicles",
			map[string]any{"number": "ABC-1234", "type": "sedan"}, []int{200, 201, 409}, []int{401}),
		r.httpCase("Fleet: register vehicle (bad number -> 400)", base+"/api/fleet/vehicles",
			map[string]any{"number": "1234-ABC", "type": "sedan"}, []int{400}, []int{401}),

		r.manualCase("Consistency: status_version increments per transition", "inspect rides table after a lifecycle run"),
		r.manualCase("Consistency: every transition has a state event", "inspect ride_state_events against rides"),

		// Contention
		{
			Name:  "Concurrency: double assign same slot",
			Focus: "one assignment wins, the other gets 409",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.Token == "" {
					return Result{Status: "SKIP", Note: "no token; requires admin credentials"}
				}
				return concurrentAssign(ctx, r, base)
			},
		},

		// Load
		{
			Name:  "Load: ride create throughput",
			Focus: "sustained ride submissions",
			Run: func(ctx context.Context, r *Runner) Result {
				if r.cfg.Token == "" {
					return Result{Status: "SKIP", Note: "no token"}
				}
				return perfLoad(ctx, r, base+"/api/rides", rideBody)
			},
		},
	}
}

func merge(base, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func (r *Runner) httpCase(name, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return r.httpCaseMethod(name, http.MethodPost, url, body, okStatuses, pendingStatuses)
}

func (r *Runner) httpCaseMethod(name, method, url string, body any, okStatuses, pendingStatuses []int) TestCase {
	return TestCase{
		Name:  name,
		Focus: "HTTP API",
		Run: func(ctx context.Context, r *Runner) Result {
			var reader io.Reader
			if body != nil {
				b, _ := json.Marshal(body)
				reader = strings.NewReader(string(b))
			}
			req, _ := http.NewRequestWithContext(ctx, method, url, reader)
			req.Header.Set("Content-Type", "application/json")
			r.authorize(req)
			start := time.Now()
			resp, err := r.httpc.Do(req)
			if err != nil {
				return Result{Status: "FAIL", Note: err.Error()}
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			latency := time.Since(start)

			if contains(okStatuses, resp.StatusCode) {
				return Result{Status: "PASS", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			if contains(pendingStatuses, resp.StatusCode) {
				return Result{Status: "PENDING", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
			}
			return Result{Status: "FAIL", Latency: latency, Note: fmt.Sprintf("status=%d", resp.StatusCode)}
		},
	}
}

func (r *Runner) manualCase(name, note string) TestCase {
	return TestCase{
		Name:  name,
		Focus: "Manual",
		Run: func(ctx context.Context, r *Runner) Result {
			return Result{Status: "SKIP", Note: note}
		},
	}
}

func (r *Runner) authorize(req *http.Request) {
	if r.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.Token)
	}
}

// concurrentAssign fires the same assignment at an approved ride from many
// goroutines; the optimistic-lock guard in the store must admit at most one.
func concurrentAssign(ctx context.Context, r *Runner, base string) Result {
	rideID := os.Getenv("FLEET_BENCH_RIDE_ID")
	if rideID == "" {
		return Result{Status: "SKIP", Note: "set FLEET_BENCH_RIDE_ID to an approved ride"}
	}
	payload := map[string]any{
		"driver_id":  envOrDefault("FLEET_BENCH_DRIVER_ID", "d1"),
		"vehicle_id": envOrDefault("FLEET_BENCH_VEHICLE_ID", "v1"),
	}
	b, _ := json.Marshal(payload)
	url := base + "/api/rides/" + rideID + "/assign"

	wg := sync.WaitGroup{}
	succ := 0
	mu := sync.Mutex{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
			req.Header.Set("Content-Type", "application/json")
			r.authorize(req)
			resp, err := r.httpc.Do(req)
			if err != nil {
				return
			}
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			mu.Lock()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				succ++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if succ <= 1 {
		return Result{Status: "PASS", Note: fmt.Sprintf("success=%d", succ)}
	}
	return Result{Status: "FAIL", Note: fmt.Sprintf("success=%d", succ)}
}

func perfLoad(ctx context.Context, r *Runner, url string, payload any) Result {
	b, _ := json.Marshal(payload)
	end := time.Now().Add(r.cfg.Duration)
	var count int64
	var errCount int64
	var mu sync.Mutex
	wg := sync.WaitGroup{}

	for i := 0; i < r.cfg.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for time.Now().Before(end) {
				req, _ := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(string(b)))
				req.Header.Set("Content-Type", "application/json")
				r.authorize(req)
				resp, err := r.httpc.Do(req)
				if err != nil {
					mu.Lock()
					errCount++
					mu.Unlock()
					continue
				}
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
				mu.Lock()
				count++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if count == 0 {
		return Result{Status: "FAIL", Note: "no requests completed"}
	}
	rps := float64(count) / r.cfg.Duration.Seconds()
	return Result{Status: "PASS", Note: fmt.Sprintf("rps=%.1f errors=%d", rps, errCount)}
}

func contains(list []int, v int) bool {
	for _, i := range list {
		if i == v {
			return true
		}
	}
	return false
}

func extractTables(path string) ([]string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	re := regexp.MustCompile(`(?i)create\s+table\s+if\s+not\s+exists\s+([a-zA-Z0-9_]+)`)
	matches := re.FindAllStringSubmatch(string(b), -1)
	tables := make([]string, 0, len(matches))
	for _, m := range matches {
		tables = append(tables, m[1])
	}
	return tables, nil
}

func splitSQL(sql string) []string {
	lines := strings.Split(sql, "\n")
	filtered := make([]string, 0, len(lines))
	for _, line := range lines {
		l := strings.TrimSpace(line)
		if strings.HasPrefix(l, "--") || l == "" {
			continue
		}
		filtered = append(filtered, line)
	}
	cleaned := strings.Join(filtered, "\n")
	parts := strings.Split(cleaned, ";")
	stmts := make([]string, 0, len(parts))
	for _, p := range parts {
		s := strings.TrimSpace(p)
		if s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

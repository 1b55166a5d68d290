// Command gosession-loadtest measures session verification, gate decision and login
// throughput of a goSession.Engine under concurrency.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/cookie"
	"github.com/MrEthical07/goSession/role"
	"github.com/MrEthical07/goSession/token"
)

var gatedPaths = []string{"/admin", "/admin/users", "/user", "/user/profile", "/manager/reports", "/login", "/about"}

func main() {
	var (
		sessions    = flag.Int("sessions", 10000, "number of sessions to mint")
		concurrency = flag.Int("concurrency", 256, "number of concurrent workers")
		ops         = flag.Int("ops", 200000, "operations per phase")
		redisAddr   = flag.String("redis-addr", "", "redis address for the login phase; if empty, REDIS_ADDR env or miniredis is used")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, and ops must be > 0")
		os.Exit(2)
	}

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := goSession.DefaultConfig()
	cfg.Codec.Secret = []byte(uuid.NewString() + uuid.NewString())
	cfg.Metrics.Enabled = true
	cfg.Metrics.EnableLatencyHistograms = true
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.MaxLoginAttempts = 1 << 30
	cfg.RateLimit.RedisPrefix = "gs-loadtest-" + uuid.NewString()[:8]

	engine, err := goSession.New().
		WithConfig(cfg).
		WithRedis(client).
		WithIdentityProvider(goSession.IdentityProviderFunc(acceptAll)).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine build failed: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	ctx := context.Background()
	cookies := make([]*http.Cookie, *sessions)
	fmt.Printf("minting %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := range cookies {
		jar := cookie.NewMemoryJar()
		if _, err := engine.Create(ctx, jar, identityFor(i)); err != nil {
			fmt.Fprintf(os.Stderr, "create failed: %v\n", err)
			os.Exit(1)
		}
		c, err := jar.Cookie(engine.CookieName())
		if err != nil {
			fmt.Fprintf(os.Stderr, "cookie missing: %v\n", err)
			os.Exit(1)
		}
		cookies[i] = c
	}
	fmt.Printf("minted in %s\n", time.Since(startSeed).Round(time.Millisecond))

	verifyStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) bool {
		_, ok := engine.Current(ctx, cookie.NewMemoryJar(cookies[r.Intn(len(cookies))]))
		return ok
	})
	authorizeStats := runPhase(*ops, *concurrency, func(r *rand.Rand, _ int) bool {
		jar := cookie.NewMemoryJar(cookies[r.Intn(len(cookies))])
		engine.Authorize(ctx, jar, gatedPaths[r.Intn(len(gatedPaths))])
		return true
	})
	loginOps := *ops / 10
	if loginOps == 0 {
		loginOps = 1
	}
	loginStats := runPhase(loginOps, *concurrency, func(r *rand.Rand, i int) bool {
		creds := goSession.Credentials{Email: fmt.Sprintf("user-%d@example.com", i%*sessions), Password: "pw"}
		_, err := engine.Login(goSession.WithClientIP(ctx, "127.0.0.1"), cookie.NewMemoryJar(), creds)
		return err == nil
	})

	fmt.Println("---- results ----")
	printStats("verify", verifyStats)
	printStats("authorize", authorizeStats)
	printStats("login", loginStats)

	snap := engine.MetricsSnapshot()
	fmt.Printf("counters: valid=%d redirect_login=%d redirect_home=%d redirect_role=%d denied=%d\n",
		snap.Counters[goSession.MetricVerifyValid],
		snap.Counters[goSession.MetricAccessRedirectLogin],
		snap.Counters[goSession.MetricAccessRedirectHome],
		snap.Counters[goSession.MetricAccessRedirectRole],
		snap.Counters[goSession.MetricAccessDenied],
	)
}

func acceptAll(_ context.Context, creds goSession.Credentials) (token.Identity, error) {
	return token.Identity{
		UserID:     uuid.NewString(),
		Email:      creds.Email,
		Name:       "load",
		Role:       role.User,
		IdentityID: uuid.NewString(),
	}, nil
}

func identityFor(i int) token.Identity {
	return token.Identity{
		UserID:     uuid.NewString(),
		Email:      fmt.Sprintf("user-%d@example.com", i),
		Name:       fmt.Sprintf("User %d", i),
		Role:       role.All[i%len(role.All)],
		IdentityID: uuid.NewString(),
	}
}

func runPhase(ops, concurrency int, op func(r *rand.Rand, i int) bool) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*7919))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				ok := op(r, i)
				d := time.Since(t0)
				if !ok {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

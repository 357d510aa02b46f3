package auth_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kichiro01/ToPick-api/internal/auth"
	"github.com/kichiro01/ToPick-api/internal/logging"
	"github.com/kichiro01/ToPick-api/internal/model"
	"github.com/kichiro01/ToPick-api/internal/testutil"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type countingRecorder struct {
	mu       sync.Mutex
	issued   int
	redeemed int
	rejected map[string]int
}

func (r *countingRecorder) CodeIssued() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
}

func (r *countingRecorder) CodeRedeemed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.redeemed++
}

func (r *countingRecorder) CodeRejected(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rejected == nil {
		r.rejected = map[string]int{}
	}
	r.rejected[reason]++
}

type fixture struct {
	db       *testutil.DB
	svc      *auth.Service
	clock    *clock
	recorder *countingRecorder
}

func newFixture(t *testing.T, opts ...auth.Option) *fixture {
	t.Helper()
	db := testutil.NewDB()
	c := &clock{t: time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)}
	rec := &countingRecorder{}
	opts = append([]auth.Option{
		auth.WithClock(c.Now),
		auth.WithCodeGenerator(func() string { return "Ab3dE9" }),
		auth.WithRecorder(rec),
	}, opts...)
	return &fixture{
		db:       db,
		svc:      auth.NewService(db.Auth(), logging.Discard(), opts...),
		clock:    c,
		recorder: rec,
	}
}

func requireError(t *testing.T, err error, kind model.ErrorKind, msg string) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, model.KindOf(err), err.Error())
	assert.Equal(t, msg, err.Error())
}

func TestIssue_CreatesPendingCode(t *testing.T) {
	f := newFixture(t)
	user := f.db.AddUser()

	issued, err := f.svc.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	assert.Equal(t, int64(1), issued.ID)
	assert.Equal(t, "Ab3dE9", issued.Code)
	assert.Equal(t, user.ID, issued.UserID)
	assert.False(t, issued.IsAuthenticated)
	assert.Equal(t, issued.CreatedAt, issued.UpdatedAt)
	assert.Equal(t, f.clock.Now(), issued.CreatedAt)
	assert.Equal(t, 1, f.recorder.issued)
}

func TestIssue_UnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Issue(context.Background(), 42)
	requireError(t, err, model.KindNotFound, "User with id 42 not found")
	assert.Empty(t, f.db.AuthCodes())
}

func TestIssue_ConflictWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.db.AddUser()

	_, err := f.svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	_, err = f.svc.Issue(ctx, user.ID)
	requireError(t, err, model.KindConflict, "Valid auth code for User with id 1 already exists")
	assert.Len(t, f.db.AuthCodes(), 1)
}

func TestIssue_ExpiredPendingStillBlocks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.db.AddUser()

	_, err := f.svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	f.clock.Advance(60 * 24 * time.Hour)
	_, err = f.svc.Issue(ctx, user.ID)
	assert.Equal(t, model.KindConflict, model.KindOf(err))
}

func TestIssue_AllowedAgainAfterRedeem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.db.AddUser()

	first, err := f.svc.Issue(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, first.ID, first.Code)
	require.NoError(t, err)

	second, err := f.svc.Issue(ctx, user.ID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestIssue_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	user := f.db.AddUser()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Issue(context.Background(), user.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		if err == nil {
			ok++
		} else if model.KindOf(err) == model.KindConflict {
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, conflicts)
	assert.Len(t, f.db.AuthCodes(), 1)
}

func TestRedeem_Success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.db.AddUser()
	issued, err := f.svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	userID, err := f.svc.Redeem(ctx, issued.ID, "Ab3dE9")
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)

	row, ok := f.db.AuthCode(issued.ID)
	require.True(t, ok)
	assert.True(t, row.IsAuthenticated)
	assert.Equal(t, f.clock.Now(), row.UpdatedAt)
	assert.Equal(t, issued.CreatedAt, row.CreatedAt)
	assert.Equal(t, 1, f.recorder.redeemed)
}

func TestRedeem_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Redeem(context.Background(), 5, "Ab3dE9")
	requireError(t, err, model.KindNotFound, "Auth with id 5 not found")
	assert.Equal(t, 1, f.recorder.rejected[auth.RejectNotFound])
}

func TestRedeem_WrongCodeLeavesRowUntouched(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.db.AddUser()
	issued, err := f.svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	for _, code := range []string{"ab3de9", "Ab3dE8", "", "Ab3dE9x"} {
		_, err = f.svc.Redeem(ctx, issued.ID, code)
		requireError(t, err, model.KindUnauthorized, "Wrong auth_code for Auth with id 1")
	}

	row, _ := f.db.AuthCode(issued.ID)
	assert.Equal(t, issued, row)

	_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
	require.NoError(t, err)
}

func TestRedeem_ExpiryBoundary(t *testing.T) {
	ctx := context.Background()

	t.Run("29 days succeeds", func(t *testing.T) {
		f := newFixture(t)
		user := f.db.AddUser()
		issued, err := f.svc.Issue(ctx, user.ID)
		require.NoError(t, err)

		f.clock.Advance(29 * 24 * time.Hour)
		_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
		require.NoError(t, err)
	})

	t.Run("just before 30 days succeeds", func(t *testing.T) {
		f := newFixture(t)
		user := f.db.AddUser()
		issued, err := f.svc.Issue(ctx, user.ID)
		require.NoError(t, err)

		f.clock.Advance(30*24*time.Hour - time.Microsecond)
		_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
		require.NoError(t, err)
	})

	t.Run("30 days fails", func(t *testing.T) {
		f := newFixture(t)
		user := f.db.AddUser()
		issued, err := f.svc.Issue(ctx, user.ID)
		require.NoError(t, err)

		f.clock.Advance(30 * 24 * time.Hour)
		_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
		requireError(t, err, model.KindUnauthorized, "Auth with id 1 has expired")

		row, _ := f.db.AuthCode(issued.ID)
		assert.False(t, row.IsAuthenticated)
		assert.Equal(t, 1, f.recorder.rejected[auth.RejectExpired])
	})
}

func TestRedeem_CustomTTL(t *testing.T) {
	f := newFixture(t, auth.WithTTL(time.Hour))
	ctx := context.Background()
	user := f.db.AddUser()
	issued, err := f.svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
	assert.Equal(t, model.KindUnauthorized, model.KindOf(err))
}

func TestRedeem_AlreadyUsed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.db.AddUser()
	issued, err := f.svc.Issue(ctx, user.ID)
	require.NoError(t, err)

	_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
	require.NoError(t, err)
	row, _ := f.db.AuthCode(issued.ID)

	f.clock.Advance(time.Minute)
	_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
	requireError(t, err, model.KindUnauthorized, "Auth with id 1 has already been used")

	again, _ := f.db.AuthCode(issued.ID)
	assert.Equal(t, row.UpdatedAt, again.UpdatedAt)
}

func TestRedeem_CheckOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.db.AddUser()
	issued, err := f.svc.Issue(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
	require.NoError(t, err)

	// used and expired: wrong code is reported first, then expiry
	f.clock.Advance(31 * 24 * time.Hour)
	_, err = f.svc.Redeem(ctx, issued.ID, "zzzzzz")
	assert.Equal(t, "Wrong auth_code for Auth with id 1", err.Error())

	_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
	assert.Equal(t, "Auth with id 1 has expired", err.Error())
}

func TestRedeem_ConcurrentSingleWinner(t *testing.T) {
	f := newFixture(t)
	user := f.db.AddUser()
	issued, err := f.svc.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Redeem(context.Background(), issued.ID, issued.Code)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.Equal(t, "Auth with id 1 has already been used", err.Error())
	}
	assert.Equal(t, 1, ok)
}

func TestRedeem_RateLimitedPerIP(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	limiter := auth.NewRateLimiter(rdb, auth.Limits{RedeemMaxFailures: 3, RedeemFailureTTL: time.Minute})
	f := newFixture(t, auth.WithRedeemLimiter(limiter))
	user := f.db.AddUser()
	issued, err := f.svc.Issue(context.Background(), user.ID)
	require.NoError(t, err)

	ctx := auth.WithClientIP(context.Background(), "203.0.113.7")
	for i := 0; i < 3; i++ {
		_, err := f.svc.Redeem(ctx, issued.ID, "wrong1")
		assert.Equal(t, model.KindUnauthorized, model.KindOf(err))
	}

	_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
	assert.Equal(t, model.KindTooManyRequests, model.KindOf(err))
	assert.Equal(t, 1, f.recorder.rejected[auth.RejectRateLimited])

	other := auth.WithClientIP(context.Background(), "198.51.100.1")
	_, err = f.svc.Redeem(other, issued.ID, issued.Code)
	require.NoError(t, err)

	s.FastForward(time.Minute)
	_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
	assert.Equal(t, model.KindUnauthorized, model.KindOf(err))
}

func TestService_WritesAuditTrail(t *testing.T) {
	s := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: s.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	audit := auth.NewAuditLogger(rdb, 100)
	f := newFixture(t, auth.WithAuditor(audit))
	user := f.db.AddUser()

	ctx := auth.WithClientIP(context.Background(), "203.0.113.7")
	issued, err := f.svc.Issue(ctx, user.ID)
	require.NoError(t, err)
	_, err = f.svc.Redeem(ctx, issued.ID, "nope00")
	require.Error(t, err)
	_, err = f.svc.Redeem(ctx, issued.ID, issued.Code)
	require.NoError(t, err)

	events, err := audit.Recent(context.Background(), user.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, auth.EventCodeIssued, events[0].EventType)
	assert.Equal(t, auth.EventCodeRejected, events[1].EventType)
	assert.Equal(t, auth.RejectWrongCode, events[1].Meta["reason"])
	assert.Equal(t, auth.EventCodeRedeemed, events[2].EventType)
	for _, e := range events {
		assert.Equal(t, "203.0.113.7", e.IP)
		assert.Equal(t, issued.ID, e.AuthID)
		assert.NotEmpty(t, e.ID)
	}
}

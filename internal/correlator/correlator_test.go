package correlator

import (
	"context"
	"testing"
	"time"

	"github.com/openagora/agora/internal/envelope"
	"github.com/openagora/agora/internal/errors"
)

func response(threadID string, content map[string]any) envelope.Envelope {
	return envelope.New("worker", "User", envelope.TypeResponse, content).WithThread(threadID)
}

func TestThreadIDMatchCompletesRequest(t *testing.T) {
	c := New(nil)
	defer c.Close()

	p := c.Track("q", "worker", time.Second)
	if !c.RegisterResponse(response(p.ThreadID, map[string]any{"answer": "yes"})) {
		t.Fatal("response was not matched")
	}

	resp, err := c.Await(context.Background(), p)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if resp.Content["answer"] != "yes" {
		t.Errorf("answer = %v, want yes", resp.Content["answer"])
	}
	if c.PendingCount() != 0 {
		t.Errorf("pending = %d, want 0", c.PendingCount())
	}
}

func TestThreadIDMatchPrefersExactOverOldest(t *testing.T) {
	c := New(nil)
	defer c.Close()

	older := c.Track("q", "worker", time.Second)
	newer := c.Track("q", "worker", time.Second)

	// Response tagged for the newer request must not complete the older one.
	c.RegisterResponse(response(newer.ThreadID, map[string]any{"for": "newer"}))

	resp, err := c.Await(context.Background(), newer)
	if err != nil {
		t.Fatalf("Await newer: %v", err)
	}
	if resp.Content["for"] != "newer" {
		t.Errorf("newer got %v", resp.Content)
	}
	if _, err := c.Lookup(older.ID); err != nil {
		t.Errorf("older request should still be pending: %v", err)
	}
}

func TestUntaggedResponseFallsBackToOldestPending(t *testing.T) {
	c := New(nil)
	defer c.Close()

	older := c.Track("q", "worker", time.Second)
	time.Sleep(time.Millisecond)
	newer := c.Track("q", "worker", time.Second)

	c.RegisterResponse(response("", map[string]any{"n": 1}))

	if _, err := c.Lookup(older.ID); !errors.Is(err, errors.ErrRequestNotFound) {
		t.Errorf("oldest should have been completed, lookup err = %v", err)
	}
	if _, err := c.Lookup(newer.ID); err != nil {
		t.Errorf("newer should still be pending: %v", err)
	}
}

func TestUnknownThreadIDFallsBackToOldest(t *testing.T) {
	c := New(nil)
	defer c.Close()

	c.Track("q", "worker", time.Second)
	if !c.RegisterResponse(response("no-such-thread", nil)) {
		t.Fatal("fallback match did not happen")
	}
	if c.PendingCount() != 0 {
		t.Errorf("pending = %d, want 0", c.PendingCount())
	}
}

func TestResponseWithNoPendingRequestsIsUnmatched(t *testing.T) {
	c := New(nil)
	defer c.Close()

	if c.RegisterResponse(response("anything", map[string]any{"answer": "orphan"})) {
		t.Error("matched against empty pending set")
	}

	audit := c.Audit()
	if len(audit) != 1 {
		t.Fatalf("audit size = %d, want 1", len(audit))
	}
	if audit[0].Status != StatusUnmatched {
		t.Errorf("audit status = %s, want %s", audit[0].Status, StatusUnmatched)
	}
	if audit[0].Response == nil || audit[0].Response.Content["answer"] != "orphan" {
		t.Errorf("audit entry does not carry the orphan response: %+v", audit[0])
	}
}

func TestErrorResponseMarksRequestFailed(t *testing.T) {
	c := New(nil)
	defer c.Close()

	p := c.Track("q", "worker", time.Second)
	errEnv := envelope.New("worker", "User", envelope.TypeError, map[string]any{"error": "boom"}).WithThread(p.ThreadID)
	c.RegisterResponse(errEnv)

	resp, err := c.Await(context.Background(), p)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if resp.Type != envelope.TypeError {
		t.Errorf("type = %s, want %s", resp.Type, envelope.TypeError)
	}

	audit := c.Audit()
	if len(audit) != 1 || audit[0].Status != StatusFailed {
		t.Errorf("audit = %+v, want one failed entry", audit)
	}
}

func TestAwaitTimesOut(t *testing.T) {
	c := New(nil)
	defer c.Close()

	p := c.Track("q", "worker", 20*time.Millisecond)
	start := time.Now()
	resp, err := c.Await(context.Background(), p)
	if resp != nil {
		t.Errorf("resp = %v, want nil", resp)
	}
	if !errors.Is(err, errors.ErrTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
	if elapsed := time.Since(start); elapsed < 20*time.Millisecond {
		t.Errorf("returned after %s, before the deadline", elapsed)
	}
	if c.PendingCount() != 0 {
		t.Errorf("timed-out request still pending")
	}
}

func TestAwaitHonorsContextCancellation(t *testing.T) {
	c := New(nil)
	defer c.Close()

	p := c.Track("q", "worker", time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := c.Await(ctx, p)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLateResponseAfterTimeoutIsUnmatched(t *testing.T) {
	c := New(nil)
	defer c.Close()

	p := c.Track("q", "worker", 10*time.Millisecond)
	if _, err := c.Await(context.Background(), p); err == nil {
		t.Fatal("expected timeout")
	}

	if c.RegisterResponse(response(p.ThreadID, nil)) {
		t.Error("late response matched a terminal request")
	}
}

func TestAwaitAfterDeadlinePrefersCompletedResponse(t *testing.T) {
	c := New(nil)
	defer c.Close()

	p := c.Track("q", "worker", 10*time.Millisecond)
	c.RegisterResponse(response(p.ThreadID, map[string]any{"answer": "early"}))

	// Await only after the deadline has also passed; the stored response
	// must still win over the expired timer.
	time.Sleep(30 * time.Millisecond)
	resp, err := c.Await(context.Background(), p)
	if err != nil {
		t.Fatalf("Await: %v", err)
	}
	if resp.Content["answer"] != "early" {
		t.Errorf("answer = %v, want early", resp.Content["answer"])
	}
}

func TestAuditIsBounded(t *testing.T) {
	c := New(nil)
	defer c.Close()

	for range auditCap + 50 {
		p := c.Track("q", "worker", time.Second)
		c.RegisterResponse(response(p.ThreadID, nil))
	}

	if got := len(c.Audit()); got > auditCap {
		t.Errorf("audit size = %d, want <= %d", got, auditCap)
	}
}

package quota

import "testing"

func TestCheckAllowsFirstRequest(t *testing.T) {
	m := NewManager()
	d := m.Check("openai")
	if !d.Allowed {
		t.Errorf("expected first check to be allowed, got reason %q", d.Reason)
	}
}

func TestCheckDeniesAtMaxConcurrent(t *testing.T) {
	m := NewManager()
	m.SetLimits("test-provider", Limits{
		RequestsPerMinute: 1000,
		RequestsPerHour:   1000,
		MaxConcurrent:     1,
	})

	m.Start("test-provider")
	d := m.Check("test-provider")
	if d.Allowed {
		t.Error("expected deny once max concurrency is reached")
	}
	if d.WaitMs != 1000 {
		t.Errorf("expected waitMs=1000, got %d", d.WaitMs)
	}
}

func TestCheckDeniesAtRequestsPerMinute(t *testing.T) {
	m := NewManager()
	m.SetLimits("test-provider", Limits{
		RequestsPerMinute: 1,
		RequestsPerHour:   1000,
		MaxConcurrent:     100,
	})

	m.Start("test-provider")
	m.Record("test-provider", 10, 5, true)

	d := m.Check("test-provider")
	if d.Allowed {
		t.Error("expected deny once rpm limiter is exhausted")
	}
	if d.WaitMs <= 0 {
		t.Errorf("expected a positive waitMs hint, got %d", d.WaitMs)
	}
}

func TestRecordRateLimitErrorThrottles(t *testing.T) {
	m := NewManager()
	m.SetLimits("test-provider", Limits{RequestsPerMinute: 1000, RequestsPerHour: 1000, MaxConcurrent: 100})

	m.RecordRateLimitError("test-provider")
	d := m.Check("test-provider")
	if d.Allowed {
		t.Error("expected deny while throttled")
	}
	if d.Reason != "throttled" {
		t.Errorf("expected reason 'throttled', got %q", d.Reason)
	}
}

func TestUnthrottleClearsFlag(t *testing.T) {
	m := NewManager()
	m.SetLimits("test-provider", Limits{RequestsPerMinute: 1000, RequestsPerHour: 1000, MaxConcurrent: 100})

	m.RecordRateLimitError("test-provider")
	m.Unthrottle("test-provider")

	d := m.Check("test-provider")
	if !d.Allowed {
		t.Errorf("expected allow after unthrottle, got reason %q", d.Reason)
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	m := NewManager()
	m.SetLimits("test-provider", Limits{RequestsPerMinute: 1000, RequestsPerHour: 1000, MaxConcurrent: 100})
	ch := m.Subscribe()
	defer m.Unsubscribe(ch)

	m.Start("test-provider")

	select {
	case evt := <-ch:
		if evt.Kind != EventRequest {
			t.Errorf("expected EventRequest, got %v", evt.Kind)
		}
	default:
		t.Error("expected an event to be buffered on subscribe channel")
	}
}

func TestDisabledBypassesAllChecks(t *testing.T) {
	m := NewManager()
	m.SetLimits("test-provider", Limits{RequestsPerMinute: 1, MaxConcurrent: 1})
	m.Start("test-provider")
	m.SetDisabled(true)

	d := m.Check("test-provider")
	if !d.Allowed {
		t.Error("expected allow when manager is disabled")
	}
}

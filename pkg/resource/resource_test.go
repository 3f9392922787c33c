package resource

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

type userErr struct{ msg string }

func (e userErr) Error() string       { return "internal: " + e.msg }
func (e userErr) UserMessage() string { return e.msg }

func TestOf(t *testing.T) {
	r := Of(42, nil)
	v, ok := Get(r)
	if !ok || v != 42 {
		t.Fatalf("Get() = %v, %v, want 42, true", v, ok)
	}
	if r.State() != StateSuccess {
		t.Errorf("State() = %v, want success", r.State())
	}

	r = Of(0, errors.New("boom"))
	if r.State() != StateFailure {
		t.Fatalf("State() = %v, want failure", r.State())
	}
	if got := Message(ErrOf(r)); got != "boom" {
		t.Errorf("Message() = %q, want %q", got, "boom")
	}
}

func TestFromErrorPrefersUserMessage(t *testing.T) {
	err := fmt.Errorf("get restaurants: %w", userErr{msg: "Server unavailable"})
	r := FromError[string](err)

	kind, ok := ErrOf(r).(Default)
	if !ok {
		t.Fatalf("ErrOf() = %T, want Default", ErrOf(r))
	}
	if kind.Message != "Server unavailable" {
		t.Errorf("Message = %q, want %q", kind.Message, "Server unavailable")
	}
}

func TestErrRoundTripsKind(t *testing.T) {
	r := Errorf[int]("rating must be %d-%d", 1, 5)
	err := Err(r)
	if err == nil {
		t.Fatal("Err() = nil, want error")
	}
	if !IsKind(err) {
		t.Error("IsKind() = false, want true")
	}

	again := FromError[int](fmt.Errorf("wrapped: %w", err))
	if Message(ErrOf(again)) != "rating must be 1-5" {
		t.Errorf("message lost: %q", Message(ErrOf(again)))
	}
	if Err(NewSuccess(1)) != nil {
		t.Error("Err(success) should be nil")
	}
}

func TestNewFailureNilKind(t *testing.T) {
	r := NewFailure[int](nil)
	if Message(ErrOf(r)) != DefaultMessage {
		t.Errorf("Message() = %q, want default", Message(ErrOf(r)))
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		r    Resource[string]
		want string
	}{
		{"loading", NewLoading[string](true), "loading:true"},
		{"success", NewSuccess("ok"), "success:ok"},
		{"failure", Errorf[string]("nope"), "failure:nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			Match(tt.r,
				func(b bool) { got = fmt.Sprintf("loading:%v", b) },
				func(s string) { got = "success:" + s },
				func(k ErrorKind) { got = "failure:" + Message(k) },
			)
			if got != tt.want {
				t.Errorf("Match() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMap(t *testing.T) {
	r := Map(NewSuccess(3), func(n int) string { return fmt.Sprint(n * 2) })
	if v, _ := Get(r); v != "6" {
		t.Errorf("Map() = %q, want 6", v)
	}

	f := Map(Errorf[int]("x"), func(n int) string { return "" })
	if Message(ErrOf(f)) != "x" {
		t.Errorf("Map() dropped failure")
	}
}

func TestCallEmitsLoadingThenTerminal(t *testing.T) {
	var got []State
	Call(context.Background(), func(context.Context) Resource[int] {
		return NewSuccess(1)
	}, func(r Resource[int]) {
		got = append(got, r.State())
	})

	if len(got) != 2 || got[0] != StateLoading || got[1] != StateSuccess {
		t.Fatalf("emissions = %v, want [loading success]", got)
	}
}

func TestCallRetryOnError(t *testing.T) {
	attempts := 0
	var last Resource[string]
	Call(context.Background(), func(context.Context) Resource[string] {
		attempts++
		if attempts < 3 {
			return Errorf[string]("temporary")
		}
		return NewSuccess("done")
	}, func(r Resource[string]) {
		last = r
	}, RetryOnError(2, time.Millisecond), WithoutLoading())

	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if v, ok := Get(last); !ok || v != "done" {
		t.Errorf("last = %#v, want success", last)
	}
}

func TestCallNonTerminalBecomesFailure(t *testing.T) {
	var last Resource[int]
	Call(context.Background(), func(context.Context) Resource[int] {
		return NewLoading[int](true)
	}, func(r Resource[int]) { last = r })

	if last.State() != StateFailure {
		t.Errorf("State() = %v, want failure", last.State())
	}
}

func TestCallCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	var last Resource[int]
	Call(ctx, func(context.Context) Resource[int] {
		called = true
		return NewSuccess(1)
	}, func(r Resource[int]) { last = r })

	if called {
		t.Error("fetch should not run on a cancelled context")
	}
	if last.State() != StateFailure {
		t.Errorf("State() = %v, want failure", last.State())
	}
}

func TestHelpersInferFromCallResults(t *testing.T) {
	fetch := func(fail bool) Resource[[]string] {
		if fail {
			return Errorf[[]string]("offline")
		}
		return NewSuccess([]string{"a", "b"})
	}

	if !IsTerminal(fetch(false)) {
		t.Error("IsTerminal(success) = false")
	}
	if list, ok := Get(fetch(false)); !ok || len(list) != 2 {
		t.Errorf("Get() = %v, %v", list, ok)
	}
	if got := Message(ErrOf(fetch(true))); got != "offline" {
		t.Errorf("Message() = %q, want offline", got)
	}
	if _, ok := Get(NewLoading[int](true)); ok {
		t.Error("Get(loading) reported a result")
	}
}

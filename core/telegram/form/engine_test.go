package form

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func threeFieldDef(name string, complete CompleteFunc) Definition {
	return Definition{
		Name: name,
		Fields: []Field{
			{Name: "code", Prompt: "Send the code"},
			{Name: "pdf", Prompt: "Send the document link"},
			{Name: "aff", Prompt: "Send the affiliate link"},
		},
		OnComplete: complete,
	}
}

func TestEngineCollectsFieldsInOrder(t *testing.T) {
	e := NewEngine(Options{})
	key := Key{ChatID: 1, UserID: 7}

	var calls int32
	var got *Values
	def := threeFieldDef("catalog_add", func(ctx context.Context, v *Values) error {
		atomic.AddInt32(&calls, 1)
		got = v
		return nil
	})

	first, err := e.Start(context.Background(), key, def)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if first.Field != "code" {
		t.Fatalf("first prompt field = %q, want code", first.Field)
	}

	res, err := e.Submit(context.Background(), key, "VIDEO5")
	if err != nil {
		t.Fatalf("submit code: %v", err)
	}
	if res.Done || res.Next.Field != "pdf" {
		t.Fatalf("after code: done=%v next=%q, want next pdf", res.Done, res.Next.Field)
	}

	res, err = e.Submit(context.Background(), key, "http://x/y.pdf")
	if err != nil {
		t.Fatalf("submit pdf: %v", err)
	}
	if res.Done || res.Next.Field != "aff" {
		t.Fatalf("after pdf: done=%v next=%q, want next aff", res.Done, res.Next.Field)
	}

	res, err = e.Submit(context.Background(), key, "http://aff/1")
	if err != nil {
		t.Fatalf("submit aff: %v", err)
	}
	if !res.Done {
		t.Fatalf("final submit did not complete the form")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("completion invoked %d times, want 1", n)
	}
	if got == nil {
		t.Fatalf("completion saw no values")
	}
	if order := strings.Join(got.Names(), ","); order != "code,pdf,aff" {
		t.Fatalf("collected order = %q, want code,pdf,aff", order)
	}
	if v := got.MustGet("pdf"); v != "http://x/y.pdf" {
		t.Fatalf("collected pdf = %q", v)
	}

	if _, err := e.Submit(context.Background(), key, "anything"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("submit after completion: err = %v, want ErrNoSession", err)
	}
	if e.Active(key) {
		t.Fatalf("session still active after completion")
	}
}

func TestEngineStartValidatesDefinition(t *testing.T) {
	e := NewEngine(Options{})
	noop := func(context.Context, *Values) error { return nil }

	if _, err := e.Start(context.Background(), Key{}, Definition{Name: "empty", OnComplete: noop}); !errors.Is(err, ErrNoFields) {
		t.Fatalf("empty fields: err = %v, want ErrNoFields", err)
	}
	fields := []Field{{Name: "x", Prompt: "x?"}}
	if _, err := e.Start(context.Background(), Key{}, Definition{Name: "silent", Fields: fields}); !errors.Is(err, ErrNoCompletion) {
		t.Fatalf("nil completion: err = %v, want ErrNoCompletion", err)
	}
	if n := e.Len(); n != 0 {
		t.Fatalf("rejected definitions left %d sessions", n)
	}
}

func TestEngineStartReplacesSession(t *testing.T) {
	e := NewEngine(Options{})
	key := Key{ChatID: 3, UserID: 3}

	var oldCalls int32
	oldDef := threeFieldDef("old", func(context.Context, *Values) error {
		atomic.AddInt32(&oldCalls, 1)
		return nil
	})
	if _, err := e.Start(context.Background(), key, oldDef); err != nil {
		t.Fatalf("start old: %v", err)
	}
	if _, err := e.Submit(context.Background(), key, "OLDVALUE"); err != nil {
		t.Fatalf("submit into old: %v", err)
	}

	var got *Values
	newDef := Definition{
		Name:   "new",
		Fields: []Field{{Name: "title", Prompt: "Title?"}},
		OnComplete: func(ctx context.Context, v *Values) error {
			got = v
			return nil
		},
	}
	first, err := e.Start(context.Background(), key, newDef)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	if first.Field != "title" {
		t.Fatalf("restart prompt = %q, want title", first.Field)
	}

	res, err := e.Submit(context.Background(), key, "fresh")
	if err != nil || !res.Done {
		t.Fatalf("submit into new: res=%+v err=%v", res, err)
	}
	if got.Len() != 1 {
		t.Fatalf("new form collected %d values, want 1", got.Len())
	}
	if _, ok := got.Get("code"); ok {
		t.Fatalf("value leaked from replaced session")
	}
	if atomic.LoadInt32(&oldCalls) != 0 {
		t.Fatalf("replaced session ran its completion")
	}
}

func TestEngineSubmitWithoutSession(t *testing.T) {
	e := NewEngine(Options{})
	if _, err := e.Submit(context.Background(), Key{ChatID: 9, UserID: 9}, "hello"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("err = %v, want ErrNoSession", err)
	}
}

func TestEngineInvalidInputKeepsSession(t *testing.T) {
	e := NewEngine(Options{})
	key := Key{ChatID: 4, UserID: 4}

	var got *Values
	def := Definition{
		Name: "strict",
		Fields: []Field{
			{
				Name:   "code",
				Prompt: "Code?",
				Validate: func(raw string) (string, error) {
					if raw != strings.ToUpper(raw) {
						return "", errors.New("code must be uppercase")
					}
					return raw, nil
				},
			},
			{Name: "note", Prompt: "Note?"},
		},
		OnComplete: func(ctx context.Context, v *Values) error {
			got = v
			return nil
		},
	}
	if _, err := e.Start(context.Background(), key, def); err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err := e.Submit(context.Background(), key, "lower")
	var inv *InvalidInputError
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want InvalidInputError", err)
	}
	if inv.Field != "code" || inv.Prompt.Field != "code" {
		t.Fatalf("invalid input reported field %q prompt %q, want code", inv.Field, inv.Prompt.Field)
	}
	if !e.Active(key) {
		t.Fatalf("session dropped after invalid input")
	}

	// Blank input is rejected by the default acceptance rule.
	if _, err := e.Submit(context.Background(), key, "   "); !errors.As(err, &inv) {
		t.Fatalf("blank input: err = %v, want InvalidInputError", err)
	}

	res, err := e.Submit(context.Background(), key, "GOOD")
	if err != nil {
		t.Fatalf("valid retry: %v", err)
	}
	if res.Done || res.Next.Field != "note" {
		t.Fatalf("retry did not advance: %+v", res)
	}
	if res, err = e.Submit(context.Background(), key, "done"); err != nil || !res.Done {
		t.Fatalf("finish: res=%+v err=%v", res, err)
	}
	if v := got.MustGet("code"); v != "GOOD" {
		t.Fatalf("collected code = %q, want GOOD", v)
	}
}

func TestEngineCompletionFailureRemovesSession(t *testing.T) {
	e := NewEngine(Options{})
	key := Key{ChatID: 5, UserID: 5}
	errSave := errors.New("storage unavailable")

	var calls int32
	def := Definition{
		Name:   "doomed",
		Fields: []Field{{Name: "v", Prompt: "V?"}},
		OnComplete: func(context.Context, *Values) error {
			atomic.AddInt32(&calls, 1)
			return errSave
		},
	}
	if _, err := e.Start(context.Background(), key, def); err != nil {
		t.Fatalf("start: %v", err)
	}

	res, err := e.Submit(context.Background(), key, "x")
	var ce *CompletionError
	if !errors.As(err, &ce) {
		t.Fatalf("err = %v, want CompletionError", err)
	}
	if !errors.Is(err, errSave) {
		t.Fatalf("CompletionError does not wrap the cause: %v", err)
	}
	if !res.Done || res.Values == nil {
		t.Fatalf("failed completion lost the result: %+v", res)
	}
	if e.Active(key) {
		t.Fatalf("session survived a failed completion")
	}
	if _, err := e.Submit(context.Background(), key, "again"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("resubmit after failure: err = %v, want ErrNoSession", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("completion retried automatically")
	}

	// The user starts over from scratch.
	if _, err := e.Start(context.Background(), key, def); err != nil {
		t.Fatalf("restart after failure: %v", err)
	}
}

func TestEngineCancelIsIdempotent(t *testing.T) {
	e := NewEngine(Options{})
	key := Key{ChatID: 6, UserID: 6}

	var calls int32
	def := threeFieldDef("cancelme", func(context.Context, *Values) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})
	if _, err := e.Start(context.Background(), key, def); err != nil {
		t.Fatalf("start: %v", err)
	}

	if !e.Cancel(key) {
		t.Fatalf("cancel of active session reported no session")
	}
	if e.Cancel(key) {
		t.Fatalf("second cancel reported a session")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("cancelled session ran its completion")
	}
	if _, err := e.Submit(context.Background(), key, "x"); !errors.Is(err, ErrNoSession) {
		t.Fatalf("submit after cancel: err = %v, want ErrNoSession", err)
	}
}

func TestEngineExpireReapsAgedSessions(t *testing.T) {
	start := time.Date(2025, 11, 3, 10, 0, 0, 0, time.UTC)
	current := start
	e := NewEngine(Options{
		Timeout: 15 * time.Minute,
		Clock:   func() time.Time { return current },
	})

	oldKey := Key{ChatID: 1, UserID: 1}
	newKey := Key{ChatID: 2, UserID: 2}

	var oldCalls, newCalls int32
	if _, err := e.Start(context.Background(), oldKey, threeFieldDef("old", func(context.Context, *Values) error {
		atomic.AddInt32(&oldCalls, 1)
		return nil
	})); err != nil {
		t.Fatalf("start old: %v", err)
	}

	current = start.Add(10 * time.Minute)
	newDef := Definition{
		Name:   "young",
		Fields: []Field{{Name: "v", Prompt: "V?"}},
		OnComplete: func(context.Context, *Values) error {
			atomic.AddInt32(&newCalls, 1)
			return nil
		},
	}
	if _, err := e.Start(context.Background(), newKey, newDef); err != nil {
		t.Fatalf("start young: %v", err)
	}

	// Age exactly at the timeout boundary is reaped.
	if reaped := e.Expire(start.Add(15 * time.Minute)); reaped != 1 {
		t.Fatalf("Expire reaped %d sessions, want 1", reaped)
	}
	if e.Active(oldKey) {
		t.Fatalf("aged session survived")
	}
	if !e.Active(newKey) {
		t.Fatalf("young session was reaped")
	}
	if reaped := e.Expire(start.Add(15 * time.Minute)); reaped != 0 {
		t.Fatalf("second Expire reaped %d sessions, want 0", reaped)
	}

	// The survivor still completes normally.
	if res, err := e.Submit(context.Background(), newKey, "x"); err != nil || !res.Done {
		t.Fatalf("survivor submit: res=%+v err=%v", res, err)
	}
	if atomic.LoadInt32(&oldCalls) != 0 {
		t.Fatalf("expired session ran its completion")
	}
	if atomic.LoadInt32(&newCalls) != 1 {
		t.Fatalf("survivor completion ran %d times", newCalls)
	}
}

func TestEngineConcurrentFinalSubmitCompletesOnce(t *testing.T) {
	e := NewEngine(Options{})
	key := Key{ChatID: 8, UserID: 8}

	var calls int32
	def := Definition{
		Name:   "race",
		Fields: []Field{{Name: "v", Prompt: "V?"}},
		OnComplete: func(context.Context, *Values) error {
			atomic.AddInt32(&calls, 1)
			time.Sleep(10 * time.Millisecond)
			return nil
		},
	}
	if _, err := e.Start(context.Background(), key, def); err != nil {
		t.Fatalf("start: %v", err)
	}

	const workers = 16
	var wg sync.WaitGroup
	var wins, misses int32
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Submit(context.Background(), key, "x")
			switch {
			case err == nil:
				atomic.AddInt32(&wins, 1)
			case errors.Is(err, ErrNoSession):
				atomic.AddInt32(&misses, 1)
			default:
				t.Errorf("unexpected submit error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Fatalf("%d submits won, want exactly 1", wins)
	}
	if misses != workers-1 {
		t.Fatalf("%d submits missed, want %d", misses, workers-1)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("completion ran %d times, want 1", calls)
	}
}

func TestEngineKeysAreIndependent(t *testing.T) {
	e := NewEngine(Options{})
	sameChat := Key{ChatID: 10, UserID: 1}
	otherUser := Key{ChatID: 10, UserID: 2}
	otherChat := Key{ChatID: 11, UserID: 1}

	noop := func(context.Context, *Values) error { return nil }
	for _, key := range []Key{sameChat, otherUser, otherChat} {
		if _, err := e.Start(context.Background(), key, threeFieldDef("multi", noop)); err != nil {
			t.Fatalf("start %+v: %v", key, err)
		}
	}
	if n := e.Len(); n != 3 {
		t.Fatalf("engine holds %d sessions, want 3", n)
	}

	if _, err := e.Submit(context.Background(), sameChat, "AAA"); err != nil {
		t.Fatalf("advance one key: %v", err)
	}
	if !e.Cancel(otherUser) {
		t.Fatalf("cancel other user: no session")
	}

	// Untouched keys keep their own position.
	res, err := e.Submit(context.Background(), otherChat, "BBB")
	if err != nil {
		t.Fatalf("other chat submit: %v", err)
	}
	if res.Next.Field != "pdf" {
		t.Fatalf("other chat advanced to %q, want pdf", res.Next.Field)
	}
}

func TestEngineSweepExpiresInBackground(t *testing.T) {
	e := NewEngine(Options{Timeout: time.Millisecond})
	key := Key{ChatID: 12, UserID: 12}
	noop := func(context.Context, *Values) error { return nil }
	if _, err := e.Start(context.Background(), key, threeFieldDef("sweep", noop)); err != nil {
		t.Fatalf("start: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.Sweep(ctx, 5*time.Millisecond)
	}()

	deadline := time.After(2 * time.Second)
	for e.Active(key) {
		select {
		case <-deadline:
			cancel()
			t.Fatalf("sweeper did not expire the session")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done
}

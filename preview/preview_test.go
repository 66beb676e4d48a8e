package preview

import (
	"context"
	"errors"
	"testing"
	"time"
)

func staticDoc(data string) Generator {
	return func(context.Context) (Document, error) {
		return Document{Data: []byte(data), ContentType: "application/pdf", Pages: 1}, nil
	}
}

func TestRequestPublishesAndReplaces(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil)
	if st := m.Status(); st.State != StateIdle || st.Seq != 0 {
		t.Fatalf("initial status: %+v", st)
	}

	first, err := m.Request(context.Background(), staticDoc("one"))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if first.State != StateReady || first.Handle == "" || first.Seq != 1 || first.Pages != 1 {
		t.Fatalf("unexpected status: %+v", first)
	}
	doc, err := m.Document()
	if err != nil || string(doc.Data) != "one" {
		t.Fatalf("Document: %q %v", doc.Data, err)
	}

	second, err := m.Request(context.Background(), staticDoc("two"))
	if err != nil {
		t.Fatalf("Request error: %v", err)
	}
	if second.Handle == first.Handle {
		t.Fatalf("expected a fresh handle")
	}
	if _, err := store.Get(first.Handle); !errors.Is(err, ErrNotFound) {
		t.Fatalf("previous handle should be released, got %v", err)
	}
	if store.Len() != 1 {
		t.Fatalf("store should hold one document, has %d", store.Len())
	}
}

func TestRequestFailure(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil)
	if _, err := m.Request(context.Background(), staticDoc("ok")); err != nil {
		t.Fatal(err)
	}
	st, err := m.Request(context.Background(), func(context.Context) (Document, error) {
		return Document{}, errors.New("layout exploded")
	})
	if !errors.Is(err, ErrPreviewGeneration) {
		t.Fatalf("expected ErrPreviewGeneration, got %v", err)
	}
	if st.State != StateFailed || st.Message != FailureMessage || st.Handle != "" {
		t.Fatalf("unexpected failed status: %+v", st)
	}
	if _, err := m.Document(); !errors.Is(err, ErrNotFound) {
		t.Fatalf("failed preview has no document, got %v", err)
	}

	m.Dismiss()
	if store.Len() != 0 {
		t.Fatalf("dismiss should release the last published document, %d left", store.Len())
	}
}

func TestNewerRequestSupersedesOlder(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil)

	started := make(chan struct{})
	release := make(chan struct{})
	type result struct {
		st  Status
		err error
	}
	done := make(chan result, 1)
	go func() {
		st, err := m.Request(context.Background(), func(ctx context.Context) (Document, error) {
			close(started)
			<-release
			return Document{Data: []byte("stale")}, nil
		})
		done <- result{st, err}
	}()
	<-started

	st, err := m.Request(context.Background(), staticDoc("fresh"))
	if err != nil || st.Seq != 2 {
		t.Fatalf("newer request: %+v %v", st, err)
	}
	close(release)

	old := <-done
	if !errors.Is(old.err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", old.err)
	}
	if got := m.Status(); got.Handle != st.Handle || got.State != StateReady {
		t.Fatalf("stale result must not be published: %+v", got)
	}
	if store.Len() != 1 {
		t.Fatalf("stale document should be released, store has %d", store.Len())
	}
}

func TestNewerRequestCancelsOlderContext(t *testing.T) {
	m := NewManager(NewMemoryStore(), nil)
	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := m.Request(context.Background(), func(ctx context.Context) (Document, error) {
			close(started)
			select {
			case <-ctx.Done():
				return Document{}, ctx.Err()
			case <-time.After(5 * time.Second):
				return Document{}, errors.New("context was not cancelled")
			}
		})
		done <- err
	}()
	<-started

	if _, err := m.Request(context.Background(), staticDoc("fresh")); err != nil {
		t.Fatal(err)
	}
	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("cancelled request should report ErrSuperseded, got %v", err)
	}
	if st := m.Status(); st.State != StateReady {
		t.Fatalf("cancelled request must not mark failure: %+v", st)
	}
}

func TestDismissDuringGeneration(t *testing.T) {
	store := NewMemoryStore()
	m := NewManager(store, nil)
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := m.Request(context.Background(), func(context.Context) (Document, error) {
			close(started)
			<-release
			return Document{Data: []byte("late")}, nil
		})
		done <- err
	}()
	<-started
	m.Dismiss()
	close(release)

	if err := <-done; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded, got %v", err)
	}
	if st := m.Status(); st.State != StateIdle || st.Handle != "" {
		t.Fatalf("dismissed preview should be idle: %+v", st)
	}
	if store.Len() != 0 {
		t.Fatalf("late document should be released, store has %d", store.Len())
	}
}

func TestSessions(t *testing.T) {
	store := NewMemoryStore()
	s := NewSessions(store, 0, nil)
	a := s.Get("a")
	if s.Get("a") != a {
		t.Fatalf("Get should return the same manager")
	}
	if _, ok := s.Lookup("b"); ok {
		t.Fatalf("unknown session should not exist")
	}
	if _, err := a.Request(context.Background(), staticDoc("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("b").Request(context.Background(), staticDoc("y")); err != nil {
		t.Fatal(err)
	}
	if !s.Close("a") || s.Close("a") {
		t.Fatalf("Close should report whether the session existed")
	}
	if store.Len() != 1 {
		t.Fatalf("closing a session releases only its document, store has %d", store.Len())
	}
}

func TestSessionsExpireWhenIdle(t *testing.T) {
	store := NewMemoryStore()
	s := NewSessions(store, time.Minute, nil)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	if _, err := s.Get("idle").Request(context.Background(), staticDoc("x")); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get("busy").Request(context.Background(), staticDoc("y")); err != nil {
		t.Fatal(err)
	}

	now = now.Add(50 * time.Second)
	if _, ok := s.Lookup("busy"); !ok {
		t.Fatalf("session within TTL should exist")
	}
	now = now.Add(20 * time.Second)
	if _, ok := s.Lookup("idle"); ok {
		t.Fatalf("idle session should be expired")
	}
	if n := s.Sweep(); n != 1 {
		t.Fatalf("Sweep closed %d sessions, want 1", n)
	}
	if s.Len() != 1 || store.Len() != 1 {
		t.Fatalf("expired session and its document should be released: sessions=%d docs=%d", s.Len(), store.Len())
	}
	if _, ok := s.Lookup("busy"); !ok {
		t.Fatalf("Lookup should extend the TTL")
	}

	// 过期但尚未清理的会话在 Get 时被替换
	now = now.Add(2 * time.Minute)
	if st := s.Get("busy").Status(); st.State != StateIdle {
		t.Fatalf("expired session should restart idle, got %s", st.State)
	}
	if store.Len() != 0 {
		t.Fatalf("replaced session should release its document, store has %d", store.Len())
	}
}

func TestSessionsRunStopsWithContext(t *testing.T) {
	s := NewSessions(nil, time.Minute, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

package profile

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const samplePage = `<!doctype html><html><body>
<div class="seller">
  <span class="score rating-score"> 4.9 </span>
  <strong class="total-orders">1,204</strong>
</div>
<h3 class="gig-title">I will <b>design</b> your logo</h3>
<h3 class="gig-title">Second gig</h3>
</body></html>`

func newServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchParsesProfile(t *testing.T) {
	var gotPath, gotUA string
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotUA = r.URL.Path, r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(samplePage))
	})
	c := NewClient(Config{BaseURL: srv.URL + "/"}, srv.Client())

	p, err := c.Fetch(context.Background(), "@jane_doe")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if gotPath != "/jane_doe" || gotUA != "Mozilla/5.0" {
		t.Fatalf("request path=%q ua=%q", gotPath, gotUA)
	}
	if p.Rating != "4.9" || p.Orders != "1,204" || p.TopGig != "I will design your logo" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if p.URL != srv.URL+"/jane_doe" || p.Username != "jane_doe" {
		t.Fatalf("unexpected identity %+v", p)
	}

	a, err := Analyze(p)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	advice := a.Advice()
	if len(advice) != 2 || !strings.Contains(advice[0], "excellent") || !strings.Contains(advice[1], "raising your prices") {
		t.Fatalf("unexpected advice %v", advice)
	}
	out := a.Render()
	if !strings.Contains(out, "jane\\_doe") || !strings.Contains(out, "[View Profile]("+p.URL+")") {
		t.Fatalf("unexpected render %q", out)
	}
}

func TestFetchMissingFieldsAreNA(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>nothing</p></body></html>`))
	})
	p, err := NewClient(Config{BaseURL: srv.URL}, srv.Client()).Fetch(context.Background(), "bob")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if p.Rating != "N/A" || p.Orders != "N/A" || p.TopGig != "N/A" {
		t.Fatalf("expected N/A fields, got %+v", p)
	}
	a, err := Analyze(p)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(a.Advice()) != 0 {
		t.Fatalf("no metrics must give no advice, got %v", a.Advice())
	}
}

func TestFetchErrors(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	c := NewClient(Config{BaseURL: srv.URL, Blocked: []string{" Karim_B "}}, srv.Client())
	ctx := context.Background()

	if _, err := c.Fetch(ctx, "ghost"); !errors.Is(err, ErrFetch) {
		t.Fatalf("404 err = %v, want ErrFetch", err)
	}
	if _, err := c.Fetch(ctx, "karim_b"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("blocked err = %v", err)
	}
	if _, err := c.Fetch(ctx, "../admin"); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("invalid err = %v", err)
	}
	if _, err := c.Fetch(ctx, ""); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("empty err = %v", err)
	}
}

func TestDefaultBlockList(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(samplePage))
	})
	ctx := context.Background()

	c := NewClient(Config{BaseURL: srv.URL}, srv.Client())
	if _, err := c.Fetch(ctx, "Karim_Boulahia"); !errors.Is(err, ErrBlocked) {
		t.Fatalf("default block list err = %v, want ErrBlocked", err)
	}

	c = NewClient(Config{BaseURL: srv.URL, Blocked: []string{}}, srv.Client())
	if _, err := c.Fetch(ctx, "karim_boulahia"); err != nil {
		t.Fatalf("explicitly empty block list: %v", err)
	}
}

func TestFetchTimeout(t *testing.T) {
	srv := newServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})
	c := NewClient(Config{BaseURL: srv.URL, Timeout: 50 * time.Millisecond}, srv.Client())
	if _, err := c.Fetch(context.Background(), "slow"); !errors.Is(err, ErrFetch) {
		t.Fatalf("timeout err = %v, want ErrFetch", err)
	}
}

func TestAdviceThresholds(t *testing.T) {
	cases := []struct {
		rating, orders string
		want           []string
	}{
		{"4.8", "50", []string{"excellent", "raising"}},
		{"4.5", "10", []string{"good, but", "optimizing"}},
		{"4.49", "9", []string{"low", "more sales"}},
	}
	for _, tc := range cases {
		a, err := Analyze(Profile{Rating: tc.rating, Orders: tc.orders})
		if err != nil {
			t.Fatalf("analyze %+v: %v", tc, err)
		}
		got := a.Advice()
		for i, frag := range tc.want {
			if !strings.Contains(got[i], frag) {
				t.Errorf("rating=%s orders=%s advice[%d]=%q, want %q", tc.rating, tc.orders, i, got[i], frag)
			}
		}
	}
	if _, err := Analyze(Profile{Rating: "great", Orders: "N/A"}); !errors.Is(err, ErrFetch) {
		t.Fatalf("bad rating err = %v", err)
	}
}

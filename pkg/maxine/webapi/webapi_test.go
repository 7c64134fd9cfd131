package webapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.Client(), Endpoints{
		Cat:     srv.URL + "/cat",
		Dog:     srv.URL + "/dog",
		Urban:   srv.URL + "/urban",
		Bing:    srv.URL + "/bing",
		SearxNG: srv.URL,
	})
}

func TestRandomCat(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr error
	}{
		{"ok", `[{"id":"a","url":"https://cdn/cat.jpg"}]`, "https://cdn/cat.jpg", nil},
		{"empty list", `[]`, "", ErrNoResult},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			})
			got, err := c.RandomCat(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRandomDog(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dog" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"message":"https://dog/1.jpg","status":"success"}`))
	})
	got, err := c.RandomDog(context.Background())
	if err != nil {
		t.Fatalf("RandomDog: %v", err)
	}
	if got != "https://dog/1.jpg" {
		t.Errorf("got %q", got)
	}
}

func TestRandomDogServerError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	})
	if _, err := c.RandomDog(context.Background()); err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestDefine(t *testing.T) {
	var gotTerm string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotTerm = r.URL.Query().Get("term")
		if gotTerm == "nothing" {
			w.Write([]byte(`{"list":[]}`))
			return
		}
		w.Write([]byte(`{"list":[{"word":"yeet","definition":"to throw"},{"word":"yeet","definition":"second"}]}`))
	})

	def, err := c.Define(context.Background(), "yeet & co")
	if err != nil {
		t.Fatalf("Define: %v", err)
	}
	if gotTerm != "yeet & co" {
		t.Errorf("term not encoded correctly: %q", gotTerm)
	}
	if def.Word != "yeet" || def.Definition != "to throw" {
		t.Errorf("unexpected definition %+v", def)
	}

	if _, err := c.Define(context.Background(), "nothing"); !errors.Is(err, ErrNoResult) {
		t.Errorf("expected ErrNoResult, got %v", err)
	}
}

const bingPage = `<html><body>
<div class="b_focusLabel">Not this one</div>
<div class="baselClock">
  <div class="b_focusLabel">Time in <b>Tokyo</b>, Japan</div>
  <div id="digit_time">9:41 PM</div>
</div>
</body></html>`

func TestTimeIn(t *testing.T) {
	var ua, q string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		q = r.URL.Query().Get("q")
		w.Write([]byte(bingPage))
	})

	got, err := c.TimeIn(context.Background(), "Tokyo")
	if err != nil {
		t.Fatalf("TimeIn: %v", err)
	}
	if got.Label != "Time in Tokyo, Japan" {
		t.Errorf("label = %q", got.Label)
	}
	if got.Time != "9:41 PM" {
		t.Errorf("time = %q", got.Time)
	}
	if q != "time in Tokyo" {
		t.Errorf("query = %q", q)
	}
	if ua != BrowserUserAgent {
		t.Errorf("user agent = %q", ua)
	}
}

func TestTimeInNoClock(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body>no results</body></html>`))
	})
	if _, err := c.TimeIn(context.Background(), "Atlantis"); !errors.Is(err, ErrNoResult) {
		t.Fatalf("expected ErrNoResult, got %v", err)
	}
}

func TestExtractText(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"article", `<html><body><nav>menu</nav><article><h1>Title</h1><p>Body text.</p></article></body></html>`, "Title Body text."},
		{"body fallback", `<html><body><p>Hello</p><script>var x;</script><p>world</p></body></html>`, "Hello world"},
		{"plain text", `just text`, "just text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractText([]byte(tt.body)); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPageTextRejectsNonHTTP(t *testing.T) {
	c := New(nil, Endpoints{})
	for _, u := range []string{"ftp://example.com", "not a url", "file:///etc/passwd", "http://"} {
		if _, err := c.PageText(context.Background(), u); err == nil {
			t.Errorf("PageText(%q) should fail", u)
		}
	}
}

func TestSearch(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.URL.Query().Get("format") != "json" {
			t.Errorf("unexpected request %s", r.URL)
		}
		w.Write([]byte(`{"results":[
			{"title":"a","content":"1"},{"title":"b","content":"2"},{"title":"c","content":"3"},
			{"title":"d","content":"4"},{"title":"e","content":"5"},{"title":"f","content":"6"}]}`))
	})

	results, err := c.Search(context.Background(), "golang", 5)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 5 || results[0].Title != "a" || results[4].Content != "5" {
		t.Errorf("unexpected results %+v", results)
	}
}

func TestSearchDisabled(t *testing.T) {
	c := New(nil, Endpoints{})
	if c.SearchEnabled() {
		t.Fatal("search should be disabled without a SearxNG URL")
	}
	if _, err := c.Search(context.Background(), "x", 5); err == nil {
		t.Fatal("expected error")
	}
}

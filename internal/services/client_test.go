package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/shelfplay/internal/shared"
)

func TestClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Empty BaseURL", func(t *testing.T) {
			c := NewClient("", "", nil, nil)
			if c.BaseURL() != "http://localhost:3000" {
				t.Errorf("expected default base URL, got %s", c.BaseURL())
			}
		})

		t.Run("With Token", func(t *testing.T) {
			c := NewClient("http://example.com", "tok", nil, nil)
			if !c.Authenticated() {
				t.Error("expected client to report authenticated")
			}
		})

		t.Run("Without Token", func(t *testing.T) {
			c := NewClient("http://example.com", "", nil, nil)
			if c.Authenticated() {
				t.Error("expected client to report unauthenticated")
			}
		})
	})

	t.Run("Login", func(t *testing.T) {
		t.Run("Successful", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if r.URL.Path != "/user/login" {
					t.Errorf("expected /user/login, got %s", r.URL.Path)
				}

				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["email"] != "reader@example.com" {
					t.Errorf("expected email in body, got %v", body)
				}

				json.NewEncoder(w).Encode(map[string]any{
					"token": "abc123",
					"user":  map[string]string{"id": "u1", "email": "reader@example.com"},
				})
			}))
			defer server.Close()

			c := NewClient(server.URL, "", nil, nil)
			result, err := c.Login(context.Background(), "reader@example.com", "hunter2")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Token != "abc123" {
				t.Errorf("expected token abc123, got %s", result.Token)
			}
			if result.User.ID != "u1" {
				t.Errorf("expected user id u1, got %s", result.User.ID)
			}
		})

		t.Run("Rejected Credentials", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			c := NewClient(server.URL, "", nil, nil)
			if _, err := c.Login(context.Background(), "reader@example.com", "wrong"); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			c := NewClient("http://example.com", "", nil, nil)
			if _, err := c.Login(context.Background(), "", ""); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("Empty Token In Response", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]any{"token": ""})
			}))
			defer server.Close()

			c := NewClient(server.URL, "", nil, nil)
			if _, err := c.Login(context.Background(), "a@b.c", "p"); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
		})
	})

	t.Run("Me", func(t *testing.T) {
		t.Run("Attaches Bearer Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("expected bearer header, got %q", got)
				}
				json.NewEncoder(w).Encode(map[string]string{"id": "u1", "name": "Reader"})
			}))
			defer server.Close()

			c := NewClient(server.URL, "tok", nil, nil)
			user, err := c.Me(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if user.Name != "Reader" {
				t.Errorf("expected user name, got %s", user.Name)
			}
		})

		t.Run("Expired Token", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			c := NewClient(server.URL, "stale", nil, nil)
			if _, err := c.Me(context.Background()); !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
		})

		t.Run("No Token", func(t *testing.T) {
			c := NewClient("http://example.com", "", nil, nil)
			if _, err := c.Me(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("Books", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/booksManagement/books" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"books": []map[string]any{
					{"id": "b1", "title": "Dune", "author": "Herbert"},
					{"id": "b2", "title": "Hyperion", "author": "Simmons"},
				},
			})
		}))
		defer server.Close()

		c := NewClient(server.URL, "tok", nil, nil)
		books, err := c.Books(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(books) != 2 {
			t.Fatalf("expected 2 books, got %d", len(books))
		}
		if books[0].Title != "Dune" {
			t.Errorf("expected first book Dune, got %s", books[0].Title)
		}
	})

	t.Run("Chapters", func(t *testing.T) {
		t.Run("Successful", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/booksManagement/books/b1/chapters" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				json.NewEncoder(w).Encode(map[string]any{
					"chapters": []map[string]any{{"id": "c1", "book_id": "b1", "number": 1, "title": "Arrival"}},
				})
			}))
			defer server.Close()

			c := NewClient(server.URL, "tok", nil, nil)
			chapters, err := c.Chapters(context.Background(), "b1")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(chapters) != 1 || chapters[0].Title != "Arrival" {
				t.Errorf("unexpected chapters %+v", chapters)
			}
		})

		t.Run("Missing Book ID", func(t *testing.T) {
			c := NewClient("http://example.com", "tok", nil, nil)
			if _, err := c.Chapters(context.Background(), ""); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
		})
	})

	t.Run("StreamPath", func(t *testing.T) {
		cases := []struct {
			name   string
			ref    ResourceRef
			resume bool
			want   string
		}{
			{"Book Intro Fresh", ResourceRef{KindBookIntro, "b1"}, false, "/audioStreaming/bookintro/b1/audio"},
			{"Book Intro Resume", ResourceRef{KindBookIntro, "b1"}, true, "/audioStreaming/books/b1/audio?resume=true"},
			{"Chapter", ResourceRef{KindChapter, "c9"}, false, "/audioStreaming/chapters/c9/audio"},
			{"Chapter Ignores Resume Flag", ResourceRef{KindChapter, "c9"}, true, "/audioStreaming/chapters/c9/audio"},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if got := StreamPath(tc.ref, tc.resume); got != tc.want {
					t.Errorf("expected %s, got %s", tc.want, got)
				}
			})
		}
	})

	t.Run("FetchStream", func(t *testing.T) {
		t.Run("Returns Bytes With Auth", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Authorization"); got != "Bearer tok" {
					t.Errorf("expected bearer header, got %q", got)
				}
				w.Write([]byte("audio-bytes"))
			}))
			defer server.Close()

			c := NewClient(server.URL, "tok", nil, nil)
			data, err := c.FetchStream(context.Background(), ResourceRef{KindChapter, "c1"}, false)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if string(data) != "audio-bytes" {
				t.Errorf("unexpected body %q", string(data))
			}
		})

		t.Run("Unauthorized", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			}))
			defer server.Close()

			c := NewClient(server.URL, "stale", nil, nil)
			if _, err := c.FetchStream(context.Background(), ResourceRef{KindChapter, "c1"}, false); !errors.Is(err, shared.ErrTokenExpired) {
				t.Errorf("expected ErrTokenExpired, got %v", err)
			}
		})
	})

	t.Run("Raw Get", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
		}))
		defer server.Close()

		c := NewClient(server.URL, "", nil, nil)
		resp, err := c.Get(context.Background(), "/health")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !resp.IsJSON {
			t.Error("expected JSON response")
		}
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"humblesync/internal/models"
	"humblesync/internal/shared"
)

// newTestService spins up an httptest server with the given handler and
// returns an authenticated client pointed at it.
func newTestService(t *testing.T, handler http.HandlerFunc) (*HumbleService, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc := NewHumbleService(server.URL, nil, 1000)
	svc.session = "test-session"
	return svc, server
}

func TestHumbleService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("Defaults", func(t *testing.T) {
			svc := NewHumbleService("", nil, 0)
			if svc.baseURL != humbleBaseURL {
				t.Errorf("expected production base URL, got %s", svc.baseURL)
			}
			if svc.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Custom", func(t *testing.T) {
			client := &http.Client{}
			svc := NewHumbleService("http://example.com", client, 2)
			if svc.baseURL != "http://example.com" {
				t.Errorf("expected custom base URL, got %s", svc.baseURL)
			}
			if svc.httpClient != client {
				t.Error("expected custom client to be used")
			}
		})
	})

	t.Run("Authenticate", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				cookie, err := r.Cookie(sessionCookieKey)
				if err != nil || cookie.Value != "secret" {
					t.Errorf("expected session cookie on request, got %v", err)
				}
				json.NewEncoder(w).Encode(userDetails{UserID: "42", UserName: "gamer"})
			})

			userID, userName, err := svc.Authenticate(context.Background(), "secret")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if userID != "42" || userName != "gamer" {
				t.Errorf("unexpected identity: %s/%s", userID, userName)
			}
		})

		t.Run("Empty Cookie", func(t *testing.T) {
			svc := NewHumbleService("http://example.com", nil, 0)
			if _, _, err := svc.Authenticate(context.Background(), ""); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Rejected Session", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})

			if _, _, err := svc.Authenticate(context.Background(), "stale"); !errors.Is(err, shared.ErrAuthFailed) {
				t.Errorf("expected ErrAuthFailed, got %v", err)
			}
			if svc.session != "" {
				t.Error("rejected session should be discarded")
			}
		})
	})

	t.Run("GetOrderList", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != orderListPath {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode([]map[string]string{
				{"gamekey": "abc"}, {"gamekey": "def"},
			})
		})

		gamekeys, err := svc.GetOrderList(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(gamekeys) != 2 || gamekeys[0] != "abc" || gamekeys[1] != "def" {
			t.Errorf("unexpected gamekeys: %v", gamekeys)
		}
	})

	t.Run("GetOrder", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(models.Order{
				GameKey: "abc",
				Product: models.OrderProduct{Category: "bundle", HumanName: "Indie Bundle"},
				Subproducts: []models.SubproductData{
					{MachineName: "worldofgoo", HumanName: "World of Goo"},
				},
			})
		})

		order, err := svc.GetOrder(context.Background(), "abc")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if order.GameKey != "abc" || len(order.Subproducts) != 1 {
			t.Errorf("unexpected order: %+v", order)
		}
	})

	t.Run("GetTrovePage", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode([]models.TroveData{
				{MachineName: "trove_game", HumanName: "Trove Game"},
			})
		})

		page, err := svc.GetTrovePage(context.Background(), 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(page) != 1 || page[0].MachineName != "trove_game" {
			t.Errorf("unexpected trove page: %v", page)
		}
	})

	t.Run("HadTroveSubscription", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]bool{"has_ever_subscribed": true})
		})

		subscribed, err := svc.HadTroveSubscription(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !subscribed {
			t.Error("expected subscribed = true")
		}
	})

	t.Run("GetTroveSignedURL", func(t *testing.T) {
		t.Run("Success", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost {
					t.Errorf("expected POST, got %s", r.Method)
				}
				if err := r.ParseForm(); err != nil {
					t.Fatalf("failed to parse form: %v", err)
				}
				if r.PostForm.Get("machine_name") != "trove_game" {
					t.Errorf("unexpected machine_name %q", r.PostForm.Get("machine_name"))
				}
				json.NewEncoder(w).Encode(map[string]string{"signed_url": "https://dl.humble.com/x?sig=1"})
			})

			url, err := svc.GetTroveSignedURL(context.Background(), models.TroveDownload{MachineName: "trove_game_linux"}, "trove_game")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if url != "https://dl.humble.com/x?sig=1" {
				t.Errorf("unexpected url %q", url)
			}
		})

		t.Run("Lapsed Entitlement", func(t *testing.T) {
			svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			})

			_, err := svc.GetTroveSignedURL(context.Background(), models.TroveDownload{}, "trove_game")
			if !errors.Is(err, shared.ErrAuthenticationRequired) {
				t.Errorf("expected ErrAuthenticationRequired, got %v", err)
			}
		})
	})

	t.Run("Transport Failure", func(t *testing.T) {
		svc, server := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
		server.Close()

		if _, err := svc.GetOrderList(context.Background()); !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable, got %v", err)
		}
	})

	t.Run("Server Error", func(t *testing.T) {
		svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		})

		if _, err := svc.GetOrderList(context.Background()); !errors.Is(err, shared.ErrRemoteUnavailable) {
			t.Errorf("expected ErrRemoteUnavailable, got %v", err)
		}
	})
}

package collect

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/vpenkov/perfidia/internal/model"
)

func newTestConfig(serverURL string) *model.Config {
	cfg := model.DefaultConfig()
	cfg.Collect.RansomwareLiveURL = serverURL
	cfg.Collect.RansomwhereURL = serverURL
	cfg.Collect.APIKey = "test-key"
	cfg.Collect.RequestsPerSecond = 1000
	cfg.Collect.Burst = 10
	cfg.Collect.Workers = 2
	return cfg
}

func TestRansomwareLive_Claims(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/victims/recent" {
			t.Errorf("Expected path /victims/recent, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("order"); got != "discovered" {
			t.Errorf("Expected order=discovered, got %q", got)
		}
		if got := r.Header.Get("X-API-KEY"); got != "test-key" {
			t.Errorf("Expected X-API-KEY test-key, got %q", got)
		}
		if got := r.Header.Get("User-Agent"); !strings.HasPrefix(got, "perfidia/") {
			t.Errorf("Expected perfidia user agent, got %q", got)
		}
		_, _ = w.Write([]byte(`{"victims": [
			{"group": "akira", "victim": "Acme Corp", "activity": "Manufacturing",
			 "country": "US", "discovered": "2024-03-01 10:00:00",
			 "attackdate": "2024-02-20", "post_url": "http://leak.onion/acme"},
			{"group": "lockbit", "website": "beta.example.com", "discovered": "2024-03-02"}
		]}`))
	}))
	defer server.Close()

	client := NewRansomwareLive(newTestConfig(server.URL))
	claims, err := client.Claims(context.Background())
	if err != nil {
		t.Fatalf("Claims failed: %v", err)
	}

	if len(claims) != 2 {
		t.Fatalf("Expected 2 claims, got %d", len(claims))
	}

	first := claims[0]
	if first.Source != SourceRansomwareLive {
		t.Errorf("Expected source %q, got %q", SourceRansomwareLive, first.Source)
	}
	if first.Group != "akira" || first.Victim != "Acme Corp" {
		t.Errorf("Unexpected first claim: %+v", first)
	}
	if first.ClaimDate != "2024-03-01 10:00:00" {
		t.Errorf("Expected discovered date as claim date, got %q", first.ClaimDate)
	}
	if first.PublishDate != "2024-02-20" {
		t.Errorf("Expected attack date as publish date, got %q", first.PublishDate)
	}
	if first.PostURL != "http://leak.onion/acme" {
		t.Errorf("Unexpected post URL %q", first.PostURL)
	}
	if first.Deadline != "" {
		t.Errorf("Feed carries no deadlines, got %q", first.Deadline)
	}

	// No victim name: the website stands in.
	if claims[1].Victim != "beta.example.com" {
		t.Errorf("Expected website fallback, got %q", claims[1].Victim)
	}
}

func TestRansomwareLive_ClaimsBareArray(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"group": "clop", "victim": "Gamma"}]`))
	}))
	defer server.Close()

	client := NewRansomwareLive(newTestConfig(server.URL))
	claims, err := client.Claims(context.Background())
	if err != nil {
		t.Fatalf("Claims failed: %v", err)
	}
	if len(claims) != 1 || claims[0].Group != "clop" {
		t.Errorf("Unexpected claims: %+v", claims)
	}
}

func TestRansomwareLive_ClaimsUnauthorized(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "invalid key"}`))
	}))
	defer server.Close()

	client := NewRansomwareLive(newTestConfig(server.URL))
	_, err := client.Claims(context.Background())
	if err == nil {
		t.Fatal("Expected error for 401 response")
	}
	if !strings.Contains(err.Error(), "check your API key") {
		t.Errorf("Expected API key hint in error, got: %v", err)
	}
}

func TestRansomwareLive_ClaimsMissingKey(t *testing.T) {
	t.Setenv("RANSOMWARELIVE_API_KEY", "")

	cfg := newTestConfig("http://unused.invalid")
	cfg.Collect.APIKey = ""

	client := NewRansomwareLive(cfg)
	_, err := client.Claims(context.Background())
	if err == nil {
		t.Fatal("Expected error when no API key is configured")
	}
	if !strings.Contains(err.Error(), "RANSOMWARELIVE_API_KEY") {
		t.Errorf("Expected error to name the env var, got: %v", err)
	}
}

func TestRansomwareLive_APIKeyFromEnv(t *testing.T) {
	t.Setenv("RANSOMWARELIVE_API_KEY", "env-key")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-API-KEY"); got != "env-key" {
			t.Errorf("Expected env API key, got %q", got)
		}
		_, _ = w.Write([]byte(`{"victims": []}`))
	}))
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.Collect.APIKey = ""

	client := NewRansomwareLive(cfg)
	if _, err := client.Claims(context.Background()); err != nil {
		t.Fatalf("Claims failed: %v", err)
	}
}

func TestRansomwareLive_Negotiations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/negotiations":
			_, _ = w.Write([]byte(`{"groups": [
				{"group": "akira", "chats": 1},
				{"group": "gone", "chats": 3},
				{"group": "lockbit", "chats": 1}
			]}`))
		case "/negotiations/akira":
			_, _ = w.Write([]byte(`{"chats": [
				{"id": "c1", "victim": "Acme", "message_count": 2, "paid": true}
			]}`))
		case "/negotiations/gone":
			// Logs pulled upstream; the listing answers 404.
			w.WriteHeader(http.StatusNotFound)
		case "/negotiations/lockbit":
			_, _ = w.Write([]byte(`{"chats": [
				{"chat_id": "c2"},
				{"id": ""}
			]}`))
		case "/negotiations/akira/c1":
			_, _ = w.Write([]byte(`{
				"messages": [
					{"party": "attacker", "content": "pay up", "time": "2023-01-01T10:00:00"},
					{"party": "victim", "content": "how much", "timestamp": "2023-01-02T09:00:00"}
				],
				"ransominfo": {"initialransom": "50000 usd"}
			}`))
		case "/negotiations/lockbit/c2":
			_, _ = w.Write([]byte(`{
				"messages": [],
				"ransominfo": {"victim": "Beta Corp", "negotiatedransom": "10000"}
			}`))
		default:
			t.Errorf("Unexpected request path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewRansomwareLive(newTestConfig(server.URL))
	chats, err := client.Negotiations(context.Background())
	if err != nil {
		t.Fatalf("Negotiations failed: %v", err)
	}

	if len(chats) != 2 {
		t.Fatalf("Expected 2 chats, got %d", len(chats))
	}

	akira := chats[0]
	if akira.Group != "akira" || akira.ChatID != "c1" {
		t.Fatalf("Expected akira/c1 first, got %s/%s", akira.Group, akira.ChatID)
	}
	if akira.Victim != "Acme" {
		t.Errorf("Expected victim from listing, got %q", akira.Victim)
	}
	if len(akira.Messages) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(akira.Messages))
	}
	if akira.Messages[1].Time != "2023-01-02T09:00:00" {
		t.Errorf("Expected timestamp field to stand in for time, got %q", akira.Messages[1].Time)
	}
	if akira.StartedAt != "2023-01-01T10:00:00" || akira.EndedAt != "2023-01-02T09:00:00" {
		t.Errorf("Unexpected chat span %q .. %q", akira.StartedAt, akira.EndedAt)
	}
	if akira.Meta.InitialRansom != "50000 usd" {
		t.Errorf("Expected ransom info to fill listing gaps, got %q", akira.Meta.InitialRansom)
	}
	if !akira.Meta.Paid {
		t.Error("Expected paid flag from listing")
	}
	if akira.Meta.MessageCount == nil || *akira.Meta.MessageCount != 2 {
		t.Errorf("Unexpected message count: %v", akira.Meta.MessageCount)
	}

	lockbit := chats[1]
	if lockbit.Group != "lockbit" || lockbit.ChatID != "c2" {
		t.Fatalf("Expected lockbit/c2 second, got %s/%s", lockbit.Group, lockbit.ChatID)
	}
	if lockbit.Victim != "Beta Corp" {
		t.Errorf("Expected victim from ransom info, got %q", lockbit.Victim)
	}
	if lockbit.Meta.NegotiatedRansom != "10000" {
		t.Errorf("Expected negotiated ransom from ransom info, got %q", lockbit.Meta.NegotiatedRansom)
	}
	if lockbit.Meta.MessageCount == nil || *lockbit.Meta.MessageCount != 0 {
		t.Errorf("Expected computed message count 0, got %v", lockbit.Meta.MessageCount)
	}
}

func TestRansomwareLive_NegotiationsGroupLimit(t *testing.T) {
	var mu sync.Mutex
	hits := make(map[string]int)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()

		switch r.URL.Path {
		case "/negotiations":
			_, _ = w.Write([]byte(`{"groups": [
				{"group": "first"}, {"group": "second"}, {"group": "third"}
			]}`))
		case "/negotiations/first":
			_, _ = w.Write([]byte(`{"chats": []}`))
		default:
			t.Errorf("Request beyond the group cap: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := newTestConfig(server.URL)
	cfg.Collect.GroupLimit = 1

	client := NewRansomwareLive(cfg)
	chats, err := client.Negotiations(context.Background())
	if err != nil {
		t.Fatalf("Negotiations failed: %v", err)
	}
	if len(chats) != 0 {
		t.Errorf("Expected no chats, got %d", len(chats))
	}

	mu.Lock()
	defer mu.Unlock()
	if hits["/negotiations/first"] != 1 {
		t.Errorf("Expected one listing request for the first group, got %d", hits["/negotiations/first"])
	}
	if hits["/negotiations/second"] != 0 || hits["/negotiations/third"] != 0 {
		t.Error("Groups beyond the cap should not be fetched")
	}
}

func TestRansomwareLive_NegotiationsChatFailureSkipped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/negotiations":
			_, _ = w.Write([]byte(`{"groups": [{"group": "akira"}]}`))
		case "/negotiations/akira":
			_, _ = w.Write([]byte(`{"chats": [{"id": "ok"}, {"id": "broken"}]}`))
		case "/negotiations/akira/ok":
			_, _ = w.Write([]byte(`{"messages": [{"party": "victim", "content": "hello"}]}`))
		case "/negotiations/akira/broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewRansomwareLive(newTestConfig(server.URL))
	chats, err := client.Negotiations(context.Background())
	if err != nil {
		t.Fatalf("Negotiations failed: %v", err)
	}
	if len(chats) != 1 || chats[0].ChatID != "ok" {
		t.Errorf("Expected the broken chat to be skipped, got %+v", chats)
	}
}

func TestRansomwareLive_NegotiationsEscapesGroupName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.EscapedPath() {
		case "/negotiations":
			_, _ = w.Write([]byte(`{"groups": [{"group": "black basta"}]}`))
		case "/negotiations/black%20basta":
			_, _ = w.Write([]byte(`{"chats": []}`))
		default:
			t.Errorf("Unexpected request path: %s", r.URL.EscapedPath())
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewRansomwareLive(newTestConfig(server.URL))
	if _, err := client.Negotiations(context.Background()); err != nil {
		t.Fatalf("Negotiations failed: %v", err)
	}
}

func TestDecodeVictims(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		count int
	}{
		{"wrapped", `{"victims": [{"group": "a"}, {"group": "b"}]}`, 2},
		{"bare array", `[{"group": "a"}]`, 1},
		{"empty wrapper", `{"victims": []}`, 0},
		{"leading whitespace", "\n\t [{\"group\": \"a\"}]", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := decodeVictims([]byte(tt.body))
			if err != nil {
				t.Fatalf("decodeVictims failed: %v", err)
			}
			if len(rows) != tt.count {
				t.Errorf("Expected %d rows, got %d", tt.count, len(rows))
			}
		})
	}

	if _, err := decodeVictims([]byte(`not json`)); err == nil {
		t.Error("Expected error for malformed body")
	}
}

func TestChatSummary_ID(t *testing.T) {
	var s chatSummary
	if err := json.Unmarshal([]byte(`{"id": "a", "chat_id": "b"}`), &s); err != nil {
		t.Fatal(err)
	}
	if s.id() != "a" {
		t.Errorf("Expected id to win over chat_id, got %q", s.id())
	}

	s = chatSummary{ChatID: "b"}
	if s.id() != "b" {
		t.Errorf("Expected chat_id fallback, got %q", s.id())
	}
}

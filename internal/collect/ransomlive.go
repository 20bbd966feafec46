// Package collect pulls claim, negotiation, and payment records from their
// upstream APIs into the local models. Collectors rate-limit per host, fan
// slow pulls through the worker pool, and leave date fields as raw strings
// for the aggregation layer to parse.
package collect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/vpenkov/perfidia/internal/model"
	"github.com/vpenkov/perfidia/internal/util"
	"github.com/vpenkov/perfidia/internal/worker"
)

// SourceRansomwareLive tags records collected from the ransomware.live pro API
const SourceRansomwareLive = "ransomware.live"

// RansomwareLive is a client for the ransomware.live pro API
type RansomwareLive struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *worker.Limiter
	userAgent  string
	groupLimit int
	workers    int
	verbose    bool
}

// NewRansomwareLive creates a ransomware.live collector from configuration.
// The API key falls back to the RANSOMWARELIVE_API_KEY environment variable.
func NewRansomwareLive(cfg *model.Config) *RansomwareLive {
	apiKey := cfg.Collect.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("RANSOMWARELIVE_API_KEY")
	}

	return &RansomwareLive{
		baseURL: strings.TrimRight(cfg.Collect.RansomwareLiveURL, "/"),
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: cfg.HTTP.Timeout,
			Transport: &http.Transport{
				Proxy: util.NewProxyFunc(cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy),
			},
		},
		limiter:    worker.NewLimiter(cfg.Collect.RequestsPerSecond, cfg.Collect.Burst),
		userAgent:  cfg.HTTP.UserAgent,
		groupLimit: cfg.Collect.GroupLimit,
		workers:    cfg.Collect.Workers,
		verbose:    cfg.Output.Verbose,
	}
}

// victimEntry is one row of the /victims/recent response
type victimEntry struct {
	Group       string `json:"group"`
	Victim      string `json:"victim"`
	Website     string `json:"website"`
	Description string `json:"description"`
	Activity    string `json:"activity"`
	Country     string `json:"country"`
	Discovered  string `json:"discovered"`
	AttackDate  string `json:"attackdate"`
	PostURL     string `json:"post_url"`
}

// Claims fetches the recent victim feed and maps each entry to a Claim.
// The feed carries no deadlines; those stay empty.
func (c *RansomwareLive) Claims(ctx context.Context) ([]model.Claim, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	query := url.Values{"order": []string{"discovered"}}
	body, status, err := c.get(ctx, "/victims/recent", query)
	if err != nil {
		return nil, fmt.Errorf("recent victims: %w", err)
	}
	if status != http.StatusOK {
		return nil, c.statusError("recent victims", status, body)
	}

	rows, err := decodeVictims(body)
	if err != nil {
		return nil, fmt.Errorf("decode victims: %w", err)
	}

	claims := make([]model.Claim, 0, len(rows))
	for _, row := range rows {
		claims = append(claims, model.Claim{
			Source:      SourceRansomwareLive,
			Group:       row.Group,
			Victim:      firstNonEmpty(row.Victim, row.Website, row.Description),
			Sector:      row.Activity,
			Country:     row.Country,
			ClaimDate:   row.Discovered,
			PublishDate: row.AttackDate,
			PostURL:     row.PostURL,
		})
	}
	return claims, nil
}

// decodeVictims accepts both the wrapped {"victims": [...]} form and a bare
// array, which older API revisions returned
func decodeVictims(body []byte) ([]victimEntry, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var rows []victimEntry
		err := json.Unmarshal(trimmed, &rows)
		return rows, err
	}

	var wrapper struct {
		Victims []victimEntry `json:"victims"`
	}
	if err := json.Unmarshal(trimmed, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Victims, nil
}

// chatSummary is one entry of a group's chat listing. The ransom metadata
// lives here; id naming varies between API revisions.
type chatSummary struct {
	ID               string `json:"id"`
	ChatID           string `json:"chat_id"`
	Victim           string `json:"victim"`
	MessageCount     *int   `json:"message_count"`
	InitialRansom    string `json:"initialransom"`
	NegotiatedRansom string `json:"negotiatedransom"`
	Paid             bool   `json:"paid"`
}

func (s chatSummary) id() string {
	if s.ID != "" {
		return s.ID
	}
	return s.ChatID
}

// chatDetail is the full transcript response for one chat
type chatDetail struct {
	Messages []struct {
		Party     string `json:"party"`
		Content   string `json:"content"`
		Time      string `json:"time"`
		Timestamp string `json:"timestamp"`
	} `json:"messages"`
	RansomInfo struct {
		Victim           string `json:"victim"`
		InitialRansom    string `json:"initialransom"`
		NegotiatedRansom string `json:"negotiatedransom"`
		Paid             bool   `json:"paid"`
	} `json:"ransominfo"`
}

// Negotiations pulls full negotiation transcripts: the group list, each
// group's chat listing, and every chat's messages. Detail fetches fan out
// through the worker pool; a failed chat is warned and skipped rather than
// failing the whole run. Results are sorted by group and chat id.
func (c *RansomwareLive) Negotiations(ctx context.Context) ([]model.Chat, error) {
	if err := c.requireKey(); err != nil {
		return nil, err
	}

	groups, err := c.negotiationGroups(ctx)
	if err != nil {
		return nil, err
	}
	// Chat pulls are slow; cap the group count per run.
	if c.groupLimit > 0 && len(groups) > c.groupLimit {
		groups = groups[:c.groupLimit]
	}

	pool := worker.NewPool(c.workers)
	pool.Start()

	for _, group := range groups {
		summaries, err := c.groupChats(ctx, group)
		if err != nil {
			pool.Shutdown()
			return nil, fmt.Errorf("group %s: %w", group, err)
		}
		if c.verbose {
			fmt.Fprintf(os.Stderr, "collect: %s: %d chats\n", group, len(summaries))
		}
		for _, summary := range summaries {
			if summary.id() == "" {
				continue
			}
			pool.Submit(&chatJob{client: c, group: group, summary: summary})
		}
	}

	var chats []model.Chat
	for _, res := range pool.Wait() {
		r := res.(*chatResult)
		if r.err != nil {
			fmt.Fprintf(os.Stderr, "Warning: chat %s/%s: %v\n", r.group, r.chatID, r.err)
			continue
		}
		chats = append(chats, r.chat)
	}

	sort.Slice(chats, func(i, j int) bool {
		if chats[i].Group != chats[j].Group {
			return chats[i].Group < chats[j].Group
		}
		return chats[i].ChatID < chats[j].ChatID
	})
	return chats, nil
}

// negotiationGroups lists the groups that have negotiation logs
func (c *RansomwareLive) negotiationGroups(ctx context.Context) ([]string, error) {
	body, status, err := c.get(ctx, "/negotiations", nil)
	if err != nil {
		return nil, fmt.Errorf("negotiation groups: %w", err)
	}
	if status != http.StatusOK {
		return nil, c.statusError("negotiation groups", status, body)
	}

	var wrapper struct {
		Groups []struct {
			Group string `json:"group"`
		} `json:"groups"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("decode negotiation groups: %w", err)
	}

	groups := make([]string, 0, len(wrapper.Groups))
	for _, g := range wrapper.Groups {
		if g.Group != "" {
			groups = append(groups, g.Group)
		}
	}
	return groups, nil
}

// groupChats lists chat summaries for one group. The API answers 404 for
// groups whose logs have been pulled; that is an empty listing, not an error.
func (c *RansomwareLive) groupChats(ctx context.Context, group string) ([]chatSummary, error) {
	body, status, err := c.get(ctx, "/negotiations/"+url.PathEscape(group), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status != http.StatusOK {
		return nil, c.statusError("chat listing", status, body)
	}

	var wrapper struct {
		Chats []chatSummary `json:"chats"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("decode chat listing: %w", err)
	}
	return wrapper.Chats, nil
}

// fetchChat pulls one chat's transcript and merges it with the listing
// metadata. Ransom info from the detail fills whatever the summary lacks.
func (c *RansomwareLive) fetchChat(ctx context.Context, group string, summary chatSummary) (model.Chat, error) {
	chatID := summary.id()
	path := "/negotiations/" + url.PathEscape(group) + "/" + url.PathEscape(chatID)
	body, status, err := c.get(ctx, path, nil)
	if err != nil {
		return model.Chat{}, err
	}
	if status != http.StatusOK {
		return model.Chat{}, c.statusError("chat detail", status, body)
	}

	var detail chatDetail
	if err := json.Unmarshal(body, &detail); err != nil {
		return model.Chat{}, fmt.Errorf("decode chat detail: %w", err)
	}

	chat := model.Chat{
		Group:  group,
		ChatID: chatID,
		Victim: firstNonEmpty(summary.Victim, detail.RansomInfo.Victim),
		Meta: model.ChatMeta{
			MessageCount:     summary.MessageCount,
			InitialRansom:    firstNonEmpty(summary.InitialRansom, detail.RansomInfo.InitialRansom),
			NegotiatedRansom: firstNonEmpty(summary.NegotiatedRansom, detail.RansomInfo.NegotiatedRansom),
			Paid:             summary.Paid || detail.RansomInfo.Paid,
		},
	}

	for _, m := range detail.Messages {
		chat.Messages = append(chat.Messages, model.Message{
			Party:   m.Party,
			Content: m.Content,
			Time:    firstNonEmpty(m.Time, m.Timestamp),
		})
	}
	if len(chat.Messages) > 0 {
		chat.StartedAt = chat.Messages[0].Time
		chat.EndedAt = chat.Messages[len(chat.Messages)-1].Time
	}
	if chat.Meta.MessageCount == nil {
		n := len(chat.Messages)
		chat.Meta.MessageCount = &n
	}

	return chat, nil
}

// chatJob fetches one chat transcript through the worker pool
type chatJob struct {
	client  *RansomwareLive
	group   string
	summary chatSummary
}

func (j *chatJob) Execute(ctx context.Context) worker.Result {
	chat, err := j.client.fetchChat(ctx, j.group, j.summary)
	return &chatResult{
		group:  j.group,
		chatID: j.summary.id(),
		chat:   chat,
		err:    err,
	}
}

type chatResult struct {
	group  string
	chatID string
	chat   model.Chat
	err    error
}

func (r *chatResult) GetError() error {
	return r.err
}

func (c *RansomwareLive) requireKey() error {
	if c.apiKey == "" {
		return fmt.Errorf("ransomware.live: missing API key (use --api-key or RANSOMWARELIVE_API_KEY)")
	}
	return nil
}

// get performs a rate-limited GET and returns the body and status code
func (c *RansomwareLive) get(ctx context.Context, path string, query url.Values) ([]byte, int, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	if err := c.limiter.Wait(ctx, u); err != nil {
		return nil, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-API-KEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

// statusError surfaces the API's error body alongside the status code
func (c *RansomwareLive) statusError(what string, status int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%s: status 401, check your API key: %s", what, snippet)
	}
	return fmt.Errorf("%s: status %d: %s", what, status, snippet)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

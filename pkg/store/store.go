// Package store publishes analysis results to Redis so that other tools can
// read PECs without rerunning the analysis.
//
// Layout, one MULTI/EXEC transaction per analysis:
//
//	NETPEC_ANALYSIS|<id>        hash   summary fields
//	NETPEC_PEC|<id>|<pec id>    hash   one per PEC
//	NETPEC_TREE|<id>            string trie snapshot as JSON
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/newtron-network/netpec/pkg/analysis"
	"github.com/newtron-network/netpec/pkg/pec"
	"github.com/newtron-network/netpec/pkg/trie"
	"github.com/newtron-network/netpec/pkg/util"
)

// Table names
const (
	TableAnalysis = "NETPEC_ANALYSIS"
	TablePEC      = "NETPEC_PEC"
	TableTree     = "NETPEC_TREE"
)

// Summary is the NETPEC_ANALYSIS entry of one published result
type Summary struct {
	ID          string    `json:"id"`
	Hostnames   []string  `json:"hostnames"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Prefixes    int       `json:"prefixes"`
	Nodes       int       `json:"nodes"`
	PECs        int       `json:"pecs"`
	Collected   int       `json:"collected"`
	Skipped     int       `json:"skipped"`
	Valid       bool      `json:"valid"`
}

// PECEntry is the NETPEC_PEC entry of one class
type PECEntry struct {
	ID           int      `json:"id"`
	Prefix       string   `json:"prefix"`
	Kind         pec.Kind `json:"type"`
	PrefixLength int      `json:"prefixLength"`
	Origin       string   `json:"origin,omitempty"`
	Range        string   `json:"range"`
	SourceTypes  []string `json:"sourceTypes"`
	Description  string   `json:"description"`
}

// Published is a summary with its PECs, ordered by PEC ID
type Published struct {
	Summary
	Entries []PECEntry `json:"entries"`
}

// Store reads and writes published results
type Store struct {
	client *redis.Client
}

// New connects to Redis at addr, database db
func New(addr string, db int) *Store {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: addr, DB: db}))
}

// NewWithClient wraps an existing client
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the underlying client
func (s *Store) Close() error {
	return s.client.Close()
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Publish writes r atomically. Publishing the same ID again overwrites the
// summary and tree and adds or replaces PEC entries.
func (s *Store) Publish(ctx context.Context, r *analysis.Result) error {
	id := r.ID.String()
	tree, err := json.Marshal(r.Tree)
	if err != nil {
		return fmt.Errorf("encoding trie: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key(TableAnalysis, id), hashArgs(summaryFields(summarize(r)))...)
	for _, p := range r.PECs {
		pipe.HSet(ctx, key(TablePEC, id, strconv.Itoa(p.ID)), hashArgs(pecFields(p))...)
	}
	pipe.Set(ctx, key(TableTree, id), tree, 0)

	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return fmt.Errorf("pipeline exec: %w", err)
	}
	util.WithAnalysis("publish", id).Infof("published %d PECs", len(r.PECs))
	return nil
}

// List returns every published summary, oldest first
func (s *Store) List(ctx context.Context) ([]Summary, error) {
	keys, err := s.client.Keys(ctx, TableAnalysis+"|*").Result()
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", TableAnalysis, err)
	}
	summaries := make([]Summary, 0, len(keys))
	for _, k := range keys {
		fields, err := s.client.HGetAll(ctx, k).Result()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", k, err)
		}
		summaries = append(summaries, parseSummary(strings.TrimPrefix(k, TableAnalysis+"|"), fields))
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.Before(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// Get returns a published result. It returns util.ErrNotFound when id was
// never published.
func (s *Store) Get(ctx context.Context, id string) (*Published, error) {
	fields, err := s.client.HGetAll(ctx, key(TableAnalysis, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading analysis %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("analysis %s: %w", id, util.ErrNotFound)
	}
	out := &Published{Summary: parseSummary(id, fields), Entries: []PECEntry{}}

	keys, err := s.client.Keys(ctx, key(TablePEC, id, "*")).Result()
	if err != nil {
		return nil, fmt.Errorf("scanning PECs of %s: %w", id, err)
	}
	for _, k := range keys {
		pf, err := s.client.HGetAll(ctx, k).Result()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", k, err)
		}
		out.Entries = append(out.Entries, parsePEC(pf))
	}
	sort.Slice(out.Entries, func(i, j int) bool { return out.Entries[i].ID < out.Entries[j].ID })
	return out, nil
}

// Tree returns the published trie snapshot
func (s *Store) Tree(ctx context.Context, id string) (*trie.NodeView, error) {
	data, err := s.client.Get(ctx, key(TableTree, id)).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("trie of %s: %w", id, util.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading trie of %s: %w", id, err)
	}
	var view trie.NodeView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("decoding trie of %s: %w", id, err)
	}
	return &view, nil
}

// Delete removes every key of a published result
func (s *Store) Delete(ctx context.Context, id string) error {
	n, err := s.client.Exists(ctx, key(TableAnalysis, id)).Result()
	if err != nil {
		return fmt.Errorf("checking analysis %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("analysis %s: %w", id, util.ErrNotFound)
	}
	pecKeys, err := s.client.Keys(ctx, key(TablePEC, id, "*")).Result()
	if err != nil {
		return fmt.Errorf("scanning PECs of %s: %w", id, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key(TableAnalysis, id), key(TableTree, id))
	for _, k := range pecKeys {
		pipe.Del(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return fmt.Errorf("pipeline exec: %w", err)
	}
	util.WithAnalysis("delete", id).Infof("deleted %d keys", len(pecKeys)+2)
	return nil
}

func key(table string, parts ...string) string {
	return table + "|" + strings.Join(parts, "|")
}

func hashArgs(fields map[string]string) []interface{} {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return args
}

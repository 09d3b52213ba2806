package sources

import (
	"sort"
	"sync"
	"time"

	"github.com/kayz/techwatch/internal/config"
)

// Registry maps source ids to fetchers. The pipeline treats each entry as
// opaque; unknown ids are reported by the collector, not here.
type Registry struct {
	sources map[string]Source
	mu      sync.RWMutex
}

var redditSubreddits = map[string]string{
	"reddit_programming": "programming",
	"reddit_ml":          "MachineLearning",
	"reddit_llm":         "LocalLLaMA",
	"reddit_devops":      "devops",
	"reddit_selfhosted":  "selfhosted",
	"reddit_netsec":      "netsec",
	"reddit_webdev":      "webdev",
}

// NewRegistry builds the default source set.
func NewRegistry(cfg config.SourcesConfig) *Registry {
	c := newClient(time.Duration(cfg.TimeoutSeconds)*time.Second, cfg.UserAgent)

	r := &Registry{sources: make(map[string]Source)}
	r.Register(NewHackerNews("", c))
	r.Register(NewLobsters("", c))
	r.Register(NewGitHubTrending("", c))
	r.Register(NewTechNews(nil, c))
	r.Register(NewProductHunt("", c))
	r.Register(NewArxiv("arxiv_ai", "cs.AI", "", c))
	for id, sub := range redditSubreddits {
		r.Register(NewReddit(id, sub, "", c))
	}
	return r
}

// NewEmptyRegistry returns a registry with no sources, for callers that
// register their own.
func NewEmptyRegistry() *Registry {
	return &Registry{sources: make(map[string]Source)}
}

func (r *Registry) Register(s Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[s.Name()] = s
}

// Resolve looks up a source by id.
func (r *Registry) Resolve(id string) (Source, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sources[id]
	return s, ok
}

func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

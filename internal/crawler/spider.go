package crawler

import (
	"context"
	"io"
	"log/slog"
	"net/url"

	"github.com/nao1215/sitetree/internal/model"
)

const (
	// DefaultRootPath is the document every crawl starts from. It is not
	// discovered through a redirect from "/".
	DefaultRootPath = "/index.html"

	// DefaultMaxDepth bounds the recursion depth on pathological sites.
	DefaultMaxDepth = 256
)

// Spider crawls a website depth-first and assembles the site tree.
//
// A Spider holds configuration only. Every call to Crawl gets a fresh
// visited set, so one Spider can run any number of independent crawls.
type Spider struct {
	// fetcher retrieves resources.
	fetcher Fetcher

	// logger receives crawl diagnostics. Pruned branches are only visible here.
	logger *slog.Logger

	// rootPath is the path of the first document, resolved against the base URL.
	rootPath string

	// maxDepth limits how deep below the root the crawl recurses.
	// 0 disables the limit.
	maxDepth int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithLogger sets the logger for crawl diagnostics.
func WithLogger(logger *slog.Logger) SpiderOption {
	return func(s *Spider) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRootPath overrides the root document path.
func WithRootPath(path string) SpiderOption {
	return func(s *Spider) {
		s.rootPath = path
	}
}

// WithMaxDepth sets the maximum recursion depth. The root is at depth 0.
// 0 means unlimited.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// NewSpider creates a Spider that fetches through fetcher.
func NewSpider(fetcher Fetcher, opts ...SpiderOption) *Spider {
	s := &Spider{
		fetcher:  fetcher,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		rootPath: DefaultRootPath,
		maxDepth: DefaultMaxDepth,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Crawl crawls the site at baseURL, starting from the root document, and
// returns the root of the site tree.
//
// Failures below the root never fail the crawl: an unresolvable, foreign,
// already visited or unfetchable link simply contributes no node. Crawl
// returns ErrInvalidBaseURL if baseURL is unusable, ErrRootNotFetched if the
// root document itself was pruned, and the context error together with the
// partial tree if ctx is cancelled.
func (s *Spider) Crawl(ctx context.Context, baseURL string) (*model.Node, error) {
	base, err := ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	sess := &session{
		spider:  s,
		base:    base,
		visited: NewVisitedSet(),
	}

	root := sess.crawl(ctx, s.rootPath, 0)

	s.logger.Debug("crawl finished",
		"base", base.String(),
		"visited", sess.visited.Len(),
	)

	if err := ctx.Err(); err != nil {
		return root, err
	}
	if root == nil {
		return nil, ErrRootNotFetched
	}
	return root, nil
}

// session is the state of one Crawl call.
type session struct {
	spider  *Spider
	base    *url.URL
	visited VisitedSet
}

// crawl processes one link candidate and returns its node, or nil if the
// branch is pruned.
func (sess *session) crawl(ctx context.Context, path string, depth int) *model.Node {
	logger := sess.spider.logger

	if ctx.Err() != nil {
		return nil
	}
	if sess.spider.maxDepth > 0 && depth > sess.spider.maxDepth {
		logger.Debug("depth limit reached", "path", path, "depth", depth)
		return nil
	}

	logger.Debug("processing path", "path", path)

	target, err := Resolve(sess.base, path)
	if err != nil {
		logger.Debug("skipping unresolvable link", "path", path, "error", err)
		return nil
	}

	if !ShouldFollow(sess.base, target, sess.visited) {
		logger.Debug("ignoring link", "url", target.String())
		return nil
	}
	// Claim the URL before fetching so that references met while this
	// branch is still being crawled are ignored.
	sess.visited.Add(target)

	body, contentType, err := sess.spider.fetcher.Fetch(ctx, target.String())
	if err != nil {
		logger.Warn("unable to load URL", "url", target.String(), "error", err)
		return nil
	}

	node := model.NewNode(nodeName(target))

	if !IsHTML(contentType) {
		logger.Debug("not scanning non-HTML resource",
			"url", target.String(),
			"contentType", contentType,
		)
		return node
	}

	links, err := DiscoverLinks(body, contentType)
	if err != nil {
		logger.Debug("unable to parse document", "url", target.String(), "error", err)
		return node
	}

	for _, link := range links {
		node.AddChild(sess.crawl(ctx, link.Raw, depth+1))
	}

	return node
}

package stream

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"tradestream/pkg/alpaca"
)

// MarketStream is the live market-data connection capability. The real
// implementation is pkg/alpaca.WSClient; tests substitute fakes.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(sub alpaca.Subscription) error
	Listen(ctx context.Context) error
	SetMessageHandler(h func([]byte))
	Close() error
}

// ConnectFunc builds a fresh connection for a feed. Credentials are
// resolved inside the func, so a missing key blocks only that start
// attempt.
type ConnectFunc func(feed alpaca.Feed) (MarketStream, error)

// OrderPlacer is the external order-placement capability.
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, order alpaca.OrderRequest) (*alpaca.Order, error)
}

// BarSink receives bar records for persistence. Optional.
type BarSink interface {
	RecordBar(ctx context.Context, rec Record) error
}

// RecordPublisher forwards every ingested record to a message bus. Optional.
type RecordPublisher interface {
	Publish(rec Record) error
}

const (
	defaultReadyDelay = 2 * time.Second
	stopJoinTimeout   = 5 * time.Second
)

// Options configures a Manager. Connect is required; the sinks and the
// order placer may be nil.
type Options struct {
	Logger      *zap.Logger
	Connect     ConnectFunc
	Orders      OrderPlacer
	Bars        BarSink
	Publisher   RecordPublisher
	DefaultFeed alpaca.Feed
	ReadyDelay  time.Duration
}

// Manager owns the buffer registry and the singleton stream session. The
// broker permits one live connection, so at most one session is active at a
// time; buffers outlive sessions and are only emptied by an explicit clear.
type Manager struct {
	logger      *zap.Logger
	connect     ConnectFunc
	orders      OrderPlacer
	bars        BarSink
	publisher   RecordPublisher
	defaultFeed alpaca.Feed
	readyDelay  time.Duration
	registry    *Registry

	mu   sync.Mutex
	sess *session
}

// session is the state of one live connection.
type session struct {
	feed      alpaca.Feed
	capacity  int
	duration  time.Duration
	conn      MarketStream
	subs      map[Kind]map[string]struct{}
	counters  map[Kind]*atomic.Int64
	startedAt time.Time
	endAt     time.Time // zero when running indefinitely
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewManager(opts Options) *Manager {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.DefaultFeed == "" {
		opts.DefaultFeed = alpaca.FeedSIP
	}
	if opts.ReadyDelay == 0 {
		opts.ReadyDelay = defaultReadyDelay
	}
	return &Manager{
		logger:      opts.Logger,
		connect:     opts.Connect,
		orders:      opts.Orders,
		bars:        opts.Bars,
		publisher:   opts.Publisher,
		defaultFeed: opts.DefaultFeed,
		readyDelay:  opts.ReadyDelay,
		registry:    NewRegistry(),
	}
}

// Registry exposes the shared buffer registry.
func (m *Manager) Registry() *Registry {
	return m.registry
}

// Active reports whether a session is currently running.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sess != nil
}

// StartOptions are the parameters of a stream start.
type StartOptions struct {
	Symbols        []string
	Kinds          []Kind
	Feed           string        // empty = manager default
	Duration       time.Duration // 0 = run indefinitely
	BufferCapacity int           // per-buffer cap, 0 = unbounded
	Replace        bool
}

// StartResult summarizes a successfully started session.
type StartResult struct {
	Symbols        []string
	Kinds          []Kind
	Feed           alpaca.Feed
	Duration       time.Duration
	BufferCapacity int
	StartedAt      time.Time
}

// Start validates the request, establishes the connection, subscribes the
// requested kinds, and launches the receive loop on its own goroutine. It
// fails with ErrAlreadyActive when a session is running and Replace is
// false; with Replace the running session is stopped first. The call waits
// a short readiness grace before returning, a best-effort signal that the
// handshake has settled, not a guarantee.
func (m *Manager) Start(ctx context.Context, opts StartOptions) (*StartResult, error) {
	symbols := normalizeSymbols(opts.Symbols)
	if len(symbols) == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}

	kinds := opts.Kinds
	if len(kinds) == 0 {
		kinds = []Kind{KindTrades, KindQuotes}
	}
	for _, k := range kinds {
		if !k.IsValid() {
			return nil, fmt.Errorf("invalid data kind: %q (valid: %v)", k, allKinds)
		}
	}

	feed := m.defaultFeed
	if opts.Feed != "" {
		parsed, err := alpaca.ParseFeed(opts.Feed)
		if err != nil {
			return nil, err
		}
		feed = parsed
	}
	if opts.Duration < 0 {
		return nil, fmt.Errorf("duration must not be negative")
	}

	result, err := m.startSession(ctx, opts, symbols, kinds, feed)
	if err != nil {
		return nil, err
	}

	// Readiness grace: give the connection handshake a moment to settle
	// before the caller starts querying. Best effort, not a guarantee.
	select {
	case <-time.After(m.readyDelay):
	case <-ctx.Done():
	}

	return result, nil
}

func (m *Manager) startSession(ctx context.Context, opts StartOptions, symbols []string, kinds []Kind, feed alpaca.Feed) (*StartResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.sess != nil {
		if !opts.Replace {
			return nil, ErrAlreadyActive
		}
		m.stopLocked()
	}

	conn, err := m.connect(feed)
	if err != nil {
		return nil, fmt.Errorf("create stream connection: %w", err)
	}

	s := &session{
		feed:     feed,
		capacity: opts.BufferCapacity,
		duration: opts.Duration,
		conn:     conn,
		subs:     make(map[Kind]map[string]struct{}),
		counters: make(map[Kind]*atomic.Int64),
		done:     make(chan struct{}),
	}
	for _, k := range allKinds {
		s.counters[k] = new(atomic.Int64)
	}

	conn.SetMessageHandler(m.makeMessageHandler(s))

	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect stream: %w", err)
	}

	if err := conn.Subscribe(subscriptionFor(kinds, symbols)); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	for _, k := range kinds {
		s.addSubscribed(k, symbols)
	}

	s.startedAt = time.Now()
	if opts.Duration > 0 {
		s.endAt = s.startedAt.Add(opts.Duration)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	m.sess = s

	go m.run(s, runCtx)
	if !s.endAt.IsZero() {
		go m.expire(s)
	}

	m.logger.Info("stream started",
		zap.Strings("symbols", symbols),
		zap.Any("kinds", kinds),
		zap.String("feed", string(feed)),
		zap.Duration("duration", opts.Duration),
		zap.Int("buffer_capacity", opts.BufferCapacity),
	)

	return &StartResult{
		Symbols:        symbols,
		Kinds:          kinds,
		Feed:           feed,
		Duration:       opts.Duration,
		BufferCapacity: opts.BufferCapacity,
		StartedAt:      s.startedAt,
	}, nil
}

// run drives the connection's receive loop and marks the session ended when
// the loop exits, whether by cancellation or by a broken connection.
func (m *Manager) run(s *session, ctx context.Context) {
	err := s.conn.Listen(ctx)
	if err != nil {
		m.logger.Error("stream loop exited", zap.Error(err))
	}
	// The loop can exit on its own (broken connection); release the
	// session context either way.
	s.cancel()
	close(s.done)

	m.mu.Lock()
	if m.sess == s {
		s.clearSubscriptions()
		m.sess = nil
		m.logger.Info("stream session ended")
	}
	m.mu.Unlock()
}

// expire enforces the configured duration: once the end time passes the
// session is stopped, rather than leaving the end time purely informational.
func (m *Manager) expire(s *session) {
	timer := time.NewTimer(time.Until(s.endAt))
	defer timer.Stop()

	select {
	case <-timer.C:
		m.mu.Lock()
		if m.sess == s {
			m.logger.Info("stream duration elapsed, stopping",
				zap.Duration("duration", s.duration))
			m.stopLocked()
		}
		m.mu.Unlock()
	case <-s.done:
	}
}

// StopResult carries the final statistics of a stopped session.
type StopResult struct {
	Runtime       time.Duration
	TotalEvents   int64
	EventsByKind  map[Kind]int64
	BufferCount   int
	BufferedItems int64
}

// Stop tears down the active session: cancels the receive loop, closes the
// connection (a transport already torn down by the remote side is not a
// failure), and clears the subscription set. Buffers are retained.
func (m *Manager) Stop() (*StopResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sess
	if s == nil {
		return nil, ErrNoActiveSession
	}

	result := &StopResult{
		Runtime:       time.Since(s.startedAt),
		EventsByKind:  s.counterSnapshot(),
		BufferCount:   m.registry.Len(),
		BufferedItems: m.registry.TotalItems(),
	}
	for _, n := range result.EventsByKind {
		result.TotalEvents += n
	}

	m.stopLocked()
	m.logger.Info("stream stopped",
		zap.Duration("runtime", result.Runtime),
		zap.Int64("total_events", result.TotalEvents),
	)
	return result, nil
}

// stopLocked releases the session. Callers hold m.mu. The receive loop
// closes s.done on exit, so joining on it here cannot deadlock with run's
// own locking, which happens after the close.
func (m *Manager) stopLocked() {
	s := m.sess
	s.cancel()
	_ = s.conn.Close()

	select {
	case <-s.done:
	case <-time.After(stopJoinTimeout):
		m.logger.Warn("timed out waiting for stream loop to exit")
	}

	s.clearSubscriptions()
	m.sess = nil
}

// AddResult summarizes an add-symbols operation.
type AddResult struct {
	Added          []string
	Kinds          []Kind
	TotalSymbols   int
	BuffersCreated int
	Runtime        time.Duration
	TotalEvents    int64
}

// AddSymbols extends the active subscription set. When kinds is empty the
// symbols are added to every kind that currently has at least one
// subscriber. Buffers for the new pairs are created eagerly so queries have
// a target before the first event arrives.
func (m *Manager) AddSymbols(symbols []string, kinds []Kind) (*AddResult, error) {
	normalized := normalizeSymbols(symbols)
	if len(normalized) == 0 {
		return nil, fmt.Errorf("no symbols provided")
	}
	for _, k := range kinds {
		if !k.IsValid() {
			return nil, fmt.Errorf("invalid data kind: %q (valid: %v)", k, allKinds)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sess
	if s == nil {
		return nil, ErrNoActiveSession
	}

	if len(kinds) == 0 {
		kinds = s.subscribedKinds()
		if len(kinds) == 0 {
			return nil, fmt.Errorf("no existing subscriptions; specify data kinds")
		}
	}

	if err := s.conn.Subscribe(subscriptionFor(kinds, normalized)); err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	created := 0
	for _, k := range kinds {
		s.addSubscribed(k, normalized)
		for _, sym := range normalized {
			if m.registry.Get(sym, k) == nil {
				m.registry.GetOrCreate(sym, k, s.capacity)
				created++
			}
		}
	}

	result := &AddResult{
		Added:          normalized,
		Kinds:          kinds,
		TotalSymbols:   len(s.allSymbols()),
		BuffersCreated: created,
		Runtime:        time.Since(s.startedAt),
	}
	for _, c := range s.counterSnapshot() {
		result.TotalEvents += c
	}

	m.logger.Info("symbols added to stream",
		zap.Strings("symbols", normalized),
		zap.Any("kinds", kinds),
	)
	return result, nil
}

// StatusReport describes the active session.
type StatusReport struct {
	Feed           alpaca.Feed
	StartedAt      time.Time
	Elapsed        time.Duration
	Duration       time.Duration // 0 = indefinite
	Remaining      time.Duration // meaningful only when Duration > 0
	BufferCapacity int
	Subscriptions  map[Kind][]string
	TotalSymbols   int
	EventsByKind   map[Kind]int64
	TotalEvents    int64
	EventsPerMin   float64 // 0 when elapsed is zero
	BufferCount    int
	BufferedItems  int64
}

// Status reports configuration, runtime, subscriptions, and counters for
// the active session.
func (m *Manager) Status() (*StatusReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.sess
	if s == nil {
		return nil, ErrNoActiveSession
	}

	report := &StatusReport{
		Feed:           s.feed,
		StartedAt:      s.startedAt,
		Elapsed:        time.Since(s.startedAt),
		Duration:       s.duration,
		BufferCapacity: s.capacity,
		Subscriptions:  make(map[Kind][]string),
		EventsByKind:   s.counterSnapshot(),
		BufferCount:    m.registry.Len(),
		BufferedItems:  m.registry.TotalItems(),
	}
	if !s.endAt.IsZero() {
		report.Remaining = time.Until(s.endAt)
	}
	for k, set := range s.subs {
		if len(set) == 0 {
			continue
		}
		report.Subscriptions[k] = sortedSymbols(set)
	}
	report.TotalSymbols = len(s.allSymbols())
	for _, n := range report.EventsByKind {
		report.TotalEvents += n
	}
	if mins := report.Elapsed.Minutes(); mins > 0 {
		report.EventsPerMin = float64(report.TotalEvents) / mins
	}
	return report, nil
}

func (s *session) addSubscribed(k Kind, symbols []string) {
	set, ok := s.subs[k]
	if !ok {
		set = make(map[string]struct{})
		s.subs[k] = set
	}
	for _, sym := range symbols {
		set[sym] = struct{}{}
	}
}

func (s *session) subscribedKinds() []Kind {
	var kinds []Kind
	for _, k := range allKinds {
		if len(s.subs[k]) > 0 {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (s *session) allSymbols() map[string]struct{} {
	all := make(map[string]struct{})
	for _, set := range s.subs {
		for sym := range set {
			all[sym] = struct{}{}
		}
	}
	return all
}

func (s *session) clearSubscriptions() {
	s.subs = make(map[Kind]map[string]struct{})
}

func (s *session) counterSnapshot() map[Kind]int64 {
	out := make(map[Kind]int64, len(s.counters))
	for k, c := range s.counters {
		if n := c.Load(); n > 0 {
			out[k] = n
		}
	}
	return out
}

// subscriptionFor spreads the symbol list over the wire-level subscription
// fields for the requested kinds.
func subscriptionFor(kinds []Kind, symbols []string) alpaca.Subscription {
	var sub alpaca.Subscription
	for _, k := range kinds {
		switch k {
		case KindTrades:
			sub.Trades = append(sub.Trades, symbols...)
		case KindQuotes:
			sub.Quotes = append(sub.Quotes, symbols...)
		case KindBars:
			sub.Bars = append(sub.Bars, symbols...)
		case KindUpdatedBars:
			sub.UpdatedBars = append(sub.UpdatedBars, symbols...)
		case KindDailyBars:
			sub.DailyBars = append(sub.DailyBars, symbols...)
		case KindStatuses:
			sub.Statuses = append(sub.Statuses, symbols...)
		}
	}
	return sub
}

func normalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// normalizeSymbols uppercases, trims, and dedupes, preserving order.
func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := strings.ToUpper(strings.TrimSpace(s))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}

func sortedSymbols(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for sym := range set {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

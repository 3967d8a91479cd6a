package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-band-notify/internal/domain"
	"github.com/go-band-notify/internal/pkg/clock"
	"golang.org/x/sync/errgroup"
)

const StatusOK = "ok"

// Report is what a cycle returns to whoever triggered it. Status is always
// "ok": recovery happens through claim expiry, never through the caller.
type Report struct {
	Status       string `json:"status"`
	Processed    int    `json:"processed"`
	Sent         int    `json:"sent"`
	PrunedTokens int    `json:"pruned_tokens"`
}

type queue interface {
	ClaimBatch(ctx context.Context, limit int, claimTTL time.Duration) ([]domain.Notification, error)
	MarkSent(ctx context.Context, ids []string) error
	CountPending(ctx context.Context) (int, error)
}

type tokenStore interface {
	TokensFor(ctx context.Context, recipientID string) ([]domain.DeviceToken, error)
	Prune(ctx context.Context, token string) error
}

type gateway interface {
	SendMulticast(ctx context.Context, tokens []domain.DeviceToken, msg domain.PushMessage) ([]domain.TokenResult, error)
}

// Recorder receives cycle measurements. metrics.Metrics satisfies it.
type Recorder interface {
	ObserveCycle(processed, sent, pruned int, elapsed time.Duration)
	ObserveDispatch(outcome domain.PushOutcome, n int)
	SetPending(n int)
}

type Config struct {
	BatchSize   int
	ClaimTTL    time.Duration
	Concurrency int
	// Timeout bounds one cycle; zero means no bound beyond the caller's ctx.
	Timeout time.Duration
}

type WorkerDeps struct {
	Queue    queue
	Tokens   tokenStore
	Gateway  gateway
	Clock    clock.Clock
	Recorder Recorder
	Log      *slog.Logger
	Config   Config
}

// Worker runs delivery cycles. It holds no state between cycles, so several
// workers may share one queue; the atomic claim keeps their batches apart.
type Worker struct {
	queue    queue
	tokens   tokenStore
	gateway  gateway
	clock    clock.Clock
	recorder Recorder
	log      *slog.Logger
	cfg      Config
}

func NewWorker(d WorkerDeps) *Worker {
	if d.Recorder == nil {
		d.Recorder = nopRecorder{}
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Config.Concurrency < 1 {
		d.Config.Concurrency = 1
	}
	return &Worker{
		queue:    d.Queue,
		tokens:   d.Tokens,
		gateway:  d.Gateway,
		clock:    d.Clock,
		recorder: d.Recorder,
		log:      d.Log.With("component", "delivery_worker"),
		cfg:      d.Config,
	}
}

// RunCycle claims one batch, dispatches it, marks it sent and prunes dead
// tokens. It never fails.
func (w *Worker) RunCycle(ctx context.Context) Report {
	start := w.clock.Now()
	cycleCtx := ctx
	if w.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		cycleCtx, cancel = context.WithTimeout(ctx, w.cfg.Timeout)
		defer cancel()
	}

	report := w.runCycle(cycleCtx)

	elapsed := w.clock.Now().Sub(start)
	w.recorder.ObserveCycle(report.Processed, report.Sent, report.PrunedTokens, elapsed)
	if pending, err := w.queue.CountPending(context.WithoutCancel(ctx)); err != nil {
		w.log.Warn("count pending failed", "err", err)
	} else {
		w.recorder.SetPending(pending)
	}
	w.log.Info("delivery cycle complete",
		"processed", report.Processed,
		"sent", report.Sent,
		"pruned_tokens", report.PrunedTokens,
		"elapsed", elapsed,
	)
	return report
}

func (w *Worker) runCycle(ctx context.Context) Report {
	report := Report{Status: StatusOK}

	claimed, err := w.queue.ClaimBatch(ctx, w.cfg.BatchSize, w.cfg.ClaimTTL)
	if err != nil {
		w.log.Error("claim batch failed, cycle aborted", "err", err)
		return report
	}
	if len(claimed) == 0 {
		return report
	}
	report.Processed = len(claimed)

	results := w.dispatchAll(ctx, groupByRecipient(claimed))

	// Only recipients actually attempted are marked. The rest were cut off
	// by cancellation and stay claimed until the claim expires.
	var ids []string
	for _, r := range results {
		if r.attempted {
			ids = append(ids, r.notificationIDs...)
		}
	}
	if skipped := len(claimed) - len(ids); skipped > 0 {
		w.log.Warn("cycle interrupted, notifications left for reclaim", "count", skipped, "err", ctx.Err())
	}

	// Mark-sent and pruning are bookkeeping for work already attempted, so
	// they run even if the cycle deadline has passed.
	bookkeeping := context.WithoutCancel(ctx)
	if len(ids) > 0 {
		if err := w.queue.MarkSent(bookkeeping, ids); err != nil {
			w.log.Error("mark sent failed, batch reclaimable after claim ttl", "err", err, "count", len(ids))
		} else {
			report.Sent = len(ids)
		}
	}
	report.PrunedTokens = w.pruneInvalid(bookkeeping, results)
	return report
}

type recipientBatch struct {
	recipientID   string
	notifications []domain.Notification
}

type recipientResult struct {
	recipientID     string
	notificationIDs []string
	// attempted is set once the gateway was called, or once the recipient
	// was found to have no tokens while the cycle was still live.
	attempted bool
	tokens    []domain.TokenResult
}

// groupByRecipient keeps recipients in order of their first notification.
func groupByRecipient(ns []domain.Notification) []recipientBatch {
	index := make(map[string]int)
	var out []recipientBatch
	for _, n := range ns {
		i, ok := index[n.RecipientID]
		if !ok {
			i = len(out)
			index[n.RecipientID] = i
			out = append(out, recipientBatch{recipientID: n.RecipientID})
		}
		out[i].notifications = append(out[i].notifications, n)
	}
	return out
}

func (w *Worker) dispatchAll(ctx context.Context, batches []recipientBatch) []recipientResult {
	results := make([]recipientResult, len(batches))
	var g errgroup.Group
	g.SetLimit(w.cfg.Concurrency)
	for i, b := range batches {
		g.Go(func() error {
			results[i] = w.dispatchRecipient(ctx, b)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// dispatchRecipient sends one recipient's notifications. Any failure,
// panics included, stays inside this call.
func (w *Worker) dispatchRecipient(ctx context.Context, b recipientBatch) (res recipientResult) {
	res.recipientID = b.recipientID
	res.notificationIDs = make([]string, len(b.notifications))
	for i, n := range b.notifications {
		res.notificationIDs[i] = n.NotificationID
	}
	log := w.log.With("recipient_id", b.recipientID, "notifications", len(b.notifications))
	defer func() {
		if r := recover(); r != nil {
			log.Error("dispatch panicked", "panic", fmt.Sprint(r))
			w.recorder.ObserveDispatch(domain.OutcomeTransientError, 1)
			res.attempted = true
		}
	}()

	if ctx.Err() != nil {
		return res
	}
	tokens, err := w.tokens.TokensFor(ctx, b.recipientID)
	if err != nil {
		if ctx.Err() != nil {
			return res
		}
		log.Warn("token lookup failed", "err", err)
		w.recorder.ObserveDispatch(domain.OutcomeTransientError, 1)
		res.attempted = true
		return res
	}
	if len(tokens) == 0 {
		log.Debug("no device tokens, skipping push")
		res.attempted = ctx.Err() == nil
		return res
	}
	if ctx.Err() != nil {
		return res
	}

	res.attempted = true
	results, err := w.gateway.SendMulticast(ctx, tokens, composeMessage(b.notifications))
	if err != nil {
		log.Warn("push dispatch failed", "err", err, "tokens", len(tokens))
	}
	counts := map[domain.PushOutcome]int{}
	for _, r := range results {
		counts[r.Outcome]++
	}
	for outcome, n := range counts {
		w.recorder.ObserveDispatch(outcome, n)
	}
	res.tokens = results
	return res
}

func (w *Worker) pruneInvalid(ctx context.Context, results []recipientResult) int {
	seen := map[string]struct{}{}
	pruned := 0
	for _, r := range results {
		for _, tr := range r.tokens {
			if tr.Outcome != domain.OutcomeInvalidToken {
				continue
			}
			if _, dup := seen[tr.Token]; dup {
				continue
			}
			seen[tr.Token] = struct{}{}
			if err := w.tokens.Prune(ctx, tr.Token); err != nil {
				w.log.Warn("prune token failed", "recipient_id", r.recipientID, "err", err)
				continue
			}
			pruned++
		}
	}
	return pruned
}

type nopRecorder struct{}

func (nopRecorder) ObserveCycle(int, int, int, time.Duration) {}
func (nopRecorder) ObserveDispatch(domain.PushOutcome, int)   {}
func (nopRecorder) SetPending(int)                            {}

package bridge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/zurielbm/pp2ot-bridge/internal/core/config"
	"github.com/zurielbm/pp2ot-bridge/internal/core/formatter"
	"github.com/zurielbm/pp2ot-bridge/internal/core/history"
	"github.com/zurielbm/pp2ot-bridge/internal/core/kv"
	"github.com/zurielbm/pp2ot-bridge/internal/core/logging"
	"github.com/zurielbm/pp2ot-bridge/internal/core/push"
	"github.com/zurielbm/pp2ot-bridge/internal/integration/ontime"
	"github.com/zurielbm/pp2ot-bridge/pkg/randid"
)

const (
	pushLockKey = "lock:push"
	pushLockTTL = 5 * time.Minute
)

var (
	ErrEmptyDraft     = errors.New("draft is empty")
	ErrPushInProgress = errors.New("another push is in progress")
)

// PushOptions controls a single push.
type PushOptions struct {
	// DryRun plans the creates without sending them. The draft and history
	// are left alone.
	DryRun bool
	// KeepDraft skips clearing the draft after a real push.
	KeepDraft bool
	Observer  push.Observer
}

// PushResult is the outcome of Push.
type PushResult struct {
	Record history.Record
	Report *push.Report
	// Rundown is the destination rundown read back after the push. It is the
	// pre-push rundown for dry runs, and empty if the refresh failed.
	Rundown ontime.Rundown
}

// PushService runs the push engine against the destination and handles what
// happens around it: locking, the settle delay, clearing the draft and
// recording history.
type PushService struct {
	dest    RundownAPI
	drafts  *DraftService
	store   kv.KV
	history history.Store
	cfg     *config.Config
	log     zerolog.Logger

	sleep func(time.Duration)
	newID func() string
	now   func() time.Time
}

func NewPushService(dest RundownAPI, drafts *DraftService, store kv.KV, hist history.Store, cfg *config.Config, log zerolog.Logger) *PushService {
	return &PushService{
		dest:    dest,
		drafts:  drafts,
		store:   store,
		history: hist,
		cfg:     cfg,
		log:     log,
		sleep:   time.Sleep,
		newID:   func() string { return randid.Generate(8) },
		now:     time.Now,
	}
}

// Push sends the current draft to the destination rundown.
//
// Per-item failures end up in the report. The returned error is reserved for
// problems that stop the push from starting: an empty draft, a held lock, or
// an unresolvable rundown. Once the walk starts it runs to completion even if
// ctx is cancelled.
func (s *PushService) Push(ctx context.Context, opts PushOptions) (*PushResult, error) {
	m, err := s.drafts.Load(ctx)
	if err != nil {
		return nil, err
	}
	if m.Len() == 0 {
		return nil, ErrEmptyDraft
	}

	id := s.newID()
	ctx = logging.WithPushID(ctx, id)

	if !opts.DryRun {
		release, err := s.lock(ctx, id)
		if err != nil {
			return nil, err
		}
		defer release()
	}

	rundown, err := s.currentRundown(ctx)
	if err != nil {
		return nil, err
	}

	var dest push.Destination = s.dest
	if opts.DryRun {
		dest = newPlanner(rundown)
	}

	engineOpts := []push.Option{push.WithClock(s.now)}
	if opts.Observer != nil {
		engineOpts = append(engineOpts, push.WithObserver(opts.Observer))
	}
	engine := push.NewEngine(dest, logging.Component("push-engine"), engineOpts...)

	report, err := engine.PushTo(ctx, rundown, m.Items())
	if err != nil {
		return nil, err
	}

	result := &PushResult{
		Record: history.FromReport(id, report, opts.DryRun),
		Report: report,
	}

	if opts.DryRun {
		result.Rundown = rundown
		return result, nil
	}

	// The walk is done; nothing below should be skipped by a cancelled ctx.
	ctx = context.WithoutCancel(ctx)
	s.afterPush(ctx, m, opts, result)
	return result, nil
}

func (s *PushService) afterPush(ctx context.Context, m *formatter.Model, opts PushOptions, result *PushResult) {
	s.sleep(s.cfg.SettleDelay)

	if err := s.drafts.Archive(ctx, m); err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("archive pushed draft")
	}
	if !opts.KeepDraft {
		if err := s.drafts.Clear(ctx); err != nil {
			s.log.Warn().Ctx(ctx).Err(err).Msg("clear draft after push")
		}
	}

	if err := s.history.Save(ctx, result.Record, s.cfg.HistoryLimit); err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("record push history")
	}

	rundown, err := s.dest.CurrentRundown(ctx)
	if err != nil {
		s.log.Warn().Ctx(ctx).Err(err).Msg("refresh rundown after push")
		return
	}
	result.Rundown = rundown
}

// currentRundown is the single read a push is planned and executed against.
func (s *PushService) currentRundown(ctx context.Context) (ontime.Rundown, error) {
	r, err := s.dest.CurrentRundown(ctx)
	if err != nil {
		s.log.Error().Ctx(ctx).Err(err).Msg("fetch current rundown")
		return ontime.Rundown{}, fmt.Errorf("%w: %w", push.ErrRundownUnresolved, err)
	}
	return r, nil
}

// lock marks a push as running. The marker expires on its own so a crashed
// run does not block later pushes for long. Two runs starting at the same
// instant can both pass the check.
func (s *PushService) lock(ctx context.Context, id string) (func(), error) {
	held, err := s.store.Has(ctx, pushLockKey)
	if err != nil {
		return nil, fmt.Errorf("check push lock: %w", err)
	}
	if held {
		return nil, ErrPushInProgress
	}

	if err := s.store.SetTTL(ctx, pushLockKey, id, pushLockTTL); err != nil {
		return nil, fmt.Errorf("take push lock: %w", err)
	}

	return func() {
		if err := s.store.Delete(context.WithoutCancel(ctx), pushLockKey); err != nil {
			s.log.Warn().Err(err).Msg("release push lock")
		}
	}, nil
}

// planner is a Destination that records creates instead of sending them.
// Ids are synthetic so later items can chain onto earlier ones.
type planner struct {
	rundown ontime.Rundown
	n       int
}

func newPlanner(r ontime.Rundown) *planner {
	return &planner{rundown: r}
}

func (p *planner) CurrentRundown(context.Context) (ontime.Rundown, error) {
	return p.rundown, nil
}

func (p *planner) CreateEntry(_ context.Context, _ string, entry ontime.CreateEntry) (ontime.Created, error) {
	p.n++
	return ontime.Created{ID: fmt.Sprintf("planned-%s-%d", entry.Type, p.n)}, nil
}

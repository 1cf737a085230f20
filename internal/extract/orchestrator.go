// Package extract drives an embedded browser session against the billing
// page, collects what the injected script reports over the message bridge,
// and reconciles the outcome into the store.
package extract

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bizzkoot/copilot-tracker/internal/bridge"
	"github.com/bizzkoot/copilot-tracker/internal/config"
	"github.com/bizzkoot/copilot-tracker/internal/logger"
	"github.com/bizzkoot/copilot-tracker/internal/models"
	"github.com/bizzkoot/copilot-tracker/internal/store"
)

var (
	// ErrBusy means an extraction attempt is already in flight. Callers
	// should use cached data and try again later, not queue up.
	ErrBusy = errors.New("extraction already in progress")
	// ErrTimeout means the terminal event never arrived within the
	// attempt deadline. The session is closed before this is returned.
	ErrTimeout = errors.New("extraction timed out")
)

// interactiveTimeout replaces the headless deadline when a visible window
// is open, leaving the user time to complete the GitHub login first.
const interactiveTimeout = 5 * time.Minute

// Orchestrator runs extraction attempts one at a time. Each attempt opens
// a fresh browser session, installs a bridge sink, waits (bounded) for the
// script's customer/usage/complete events, and tears everything down.
type Orchestrator struct {
	store    *store.Store
	bridge   *bridge.Bridge
	timeout  time.Duration
	headless bool

	inProgress atomic.Bool

	// newSession is a construction seam so tests can substitute a fake
	// session that feeds the bridge directly.
	newSession func(headless bool) Session
}

func New(cfg *config.Config, st *store.Store) *Orchestrator {
	br := bridge.New()
	profileDir := filepath.Join(cfg.DataDir, "browser-profile")
	return &Orchestrator{
		store:    st,
		bridge:   br,
		timeout:  cfg.ExtractionTimeout,
		headless: cfg.BrowserHeadless,
		newSession: func(headless bool) Session {
			return newBrowserSession(cfg.BrowserPath, profileDir, headless, cfg.SettleDelay, br)
		},
	}
}

// Fetch runs one scheduled extraction attempt, headless unless configured
// otherwise.
func (o *Orchestrator) Fetch(ctx context.Context) (*models.ExtractionResult, error) {
	return o.run(ctx, false)
}

// FetchInteractive runs an attempt in a visible browser window so the user
// can complete a login before the script extracts.
func (o *Orchestrator) FetchInteractive(ctx context.Context) (*models.ExtractionResult, error) {
	return o.run(ctx, true)
}

// InProgress reports whether an attempt is currently running.
func (o *Orchestrator) InProgress() bool {
	return o.inProgress.Load()
}

func (o *Orchestrator) run(ctx context.Context, interactive bool) (*models.ExtractionResult, error) {
	if !o.inProgress.CompareAndSwap(false, true) {
		return nil, ErrBusy
	}
	defer o.inProgress.Store(false)

	events := o.bridge.Install()
	defer o.bridge.Uninstall()

	// An interactive attempt always shows the window; the user has to see
	// the login page to act on it.
	session := o.newSession(o.headless && !interactive)
	defer session.Close()

	timeout := o.timeout
	if interactive {
		timeout = interactiveTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	startErr := make(chan error, 1)
	go func() { startErr <- session.Start(ctx) }()

	result := &models.ExtractionResult{}
	for {
		select {
		case err := <-startErr:
			if err != nil {
				result.Err = fmt.Sprintf("failed to open browser session: %v", err)
				return result, fmt.Errorf("failed to open browser session: %w", err)
			}
			startErr = nil

		case ev := <-events:
			switch ev.Name {
			case eventCustomer:
				id, err := parseCustomerEvent(ev.Payload)
				if err != nil {
					logger.Warn("customer event unusable", "error", err)
					continue
				}
				result.CustomerID = id

			case eventUsage:
				figures, rows, err := parseUsageEvent(ev.Payload)
				if err != nil {
					logger.Warn("usage event unusable", "error", err)
					continue
				}
				result.Usage = figures
				result.HistoryRows = rows

			case eventComplete:
				done := parseCompleteEvent(ev.Payload)
				if !done.Success {
					result.Err = done.Error
					if result.Err == "" {
						result.Err = "extraction reported failure"
					}
					return result, fmt.Errorf("extraction failed: %s", result.Err)
				}
				o.reconcile(result)
				return result, nil

			default:
				logger.Debug("ignoring unknown bridge event", "event", ev.Name)
			}

		case <-ctx.Done():
			result.Err = "extraction timed out"
			return result, ErrTimeout
		}
	}
}

// reconcile commits a successful attempt: identifier first (it flips the
// auth state), then counters, then the history wholesale.
func (o *Orchestrator) reconcile(result *models.ExtractionResult) {
	if result.CustomerID != nil {
		if err := o.store.SetCustomerID(*result.CustomerID); err != nil {
			logger.Error("failed to persist customer id", "error", err)
		}
	}

	if result.Usage != nil {
		used := uint32(result.Usage.DiscountQuantity)
		limit := uint32(result.Usage.UserPremiumRequestEntitlement)
		if limit == 0 {
			limit = models.DefaultUsageLimit
		}
		if err := o.store.SetUsage(used, limit); err != nil {
			logger.Error("failed to persist usage counters", "error", err)
		}
	}

	if len(result.HistoryRows) > 0 {
		o.store.SetUsageHistory(MapHistoryRows(result.HistoryRows, time.Now()))
	}
}

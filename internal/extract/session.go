package extract

import (
	"context"
	"encoding/json"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"

	"github.com/bizzkoot/copilot-tracker/internal/bridge"
	"github.com/bizzkoot/copilot-tracker/internal/logger"
)

// Session is one embedded browser visit to the billing page. Start blocks
// until navigation completes (the injected script keeps reporting through
// the bridge afterwards); Close releases the browser on every exit path.
type Session interface {
	Start(ctx context.Context) error
	Close()
}

// browserSession drives a Chrome instance over the DevTools protocol. The
// extraction script is registered before navigation so it runs inside the
// page with the user's cookies; results come back through a CDP binding
// wired to the bridge.
//
// All sessions share one persistent profile directory. That is what makes
// the flow work at all: the cookies from an interactive login must still
// be there when the next headless poll opens its own session.
type browserSession struct {
	execPath    string
	profileDir  string
	headless    bool
	settleDelay time.Duration
	bridge      *bridge.Bridge

	cancelTask  context.CancelFunc
	cancelAlloc context.CancelFunc
}

func newBrowserSession(execPath, profileDir string, headless bool, settleDelay time.Duration, br *bridge.Bridge) Session {
	return &browserSession{
		execPath:    execPath,
		profileDir:  profileDir,
		headless:    headless,
		settleDelay: settleDelay,
		bridge:      br,
	}
}

func (s *browserSession) Start(ctx context.Context) error {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.headless),
		chromedp.UserDataDir(s.profileDir),
	)
	if s.execPath != "" {
		opts = append(opts, chromedp.ExecPath(s.execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	taskCtx, cancelTask := chromedp.NewContext(allocCtx)
	s.cancelAlloc = cancelAlloc
	s.cancelTask = cancelTask

	chromedp.ListenTarget(taskCtx, func(ev any) {
		if call, ok := ev.(*runtime.EventBindingCalled); ok && call.Name == bindingName {
			s.handleBindingCall(call.Payload)
		}
	})

	// The attempt deadline covers navigation too; Close tears the browser
	// down if this is abandoned mid-flight.
	navCtx, cancelNav := context.WithCancel(taskCtx)
	defer cancelNav()
	go func() {
		select {
		case <-ctx.Done():
			cancelNav()
		case <-navCtx.Done():
		}
	}()

	script := extractionScript(s.settleDelay.Milliseconds())
	return chromedp.Run(navCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			if err := runtime.AddBinding(bindingName).Do(ctx); err != nil {
				return err
			}
			_, err := page.AddScriptToEvaluateOnNewDocument(script).Do(ctx)
			return err
		}),
		chromedp.Navigate(billingURL),
	)
}

// handleBindingCall unwraps one script-side push. Malformed payloads are
// logged and dropped without ending the session.
func (s *browserSession) handleBindingCall(payload string) {
	var msg struct {
		Name    string          `json:"name"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal([]byte(payload), &msg); err != nil || msg.Name == "" {
		logger.Warn("ignoring malformed bridge payload", "error", err)
		return
	}
	s.bridge.Push(msg.Name, msg.Payload)
}

func (s *browserSession) Close() {
	if s.cancelTask != nil {
		s.cancelTask()
	}
	if s.cancelAlloc != nil {
		s.cancelAlloc()
	}
}

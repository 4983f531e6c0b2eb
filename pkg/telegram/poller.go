// Package telegram connects the bot dispatcher to the Telegram Bot API using
// long polling.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"github.com/unowned-ai/readlater/pkg/bot"
	"github.com/unowned-ai/readlater/pkg/logger"
	"github.com/unowned-ai/readlater/pkg/ratelimit"
)

// ErrNotPolling is reported by Check while the poller is not receiving updates.
var ErrNotPolling = errors.New("telegram poller is not running")

// API is the part of *tgbotapi.BotAPI the poller uses.
type API interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler receives inbound events. *bot.Dispatcher implements it.
type Handler interface {
	OnPlainMessage(ctx context.Context, owner int64, text string, att bot.Attachment) bot.Response
	OnChoice(ctx context.Context, owner int64, token string) bot.Response
	OnPageRequest(ctx context.Context, owner int64, token string) bot.Response
}

// Recorder counts outbound API calls by result.
type Recorder interface {
	Sent(result string)
}

type nopRecorder struct{}

func (nopRecorder) Sent(string) {}

// Config tunes the poller.
type Config struct {
	PollTimeout int
	Workers     int
	SendRate    float64
	SendBurst   int
}

// NewAPI authenticates against the Bot API.
func NewAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	api.Debug = debug
	return api, nil
}

// Poller receives updates and hands them to a Handler, at most Workers at
// a time, and presents the responses.
type Poller struct {
	api     API
	handler Handler
	log     logger.Logger
	metrics Recorder
	limiter *ratelimit.KeyedRateLimiter
	cfg     Config
	running atomic.Bool
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

func WithLogger(log logger.Logger) PollerOption {
	return func(p *Poller) { p.log = log }
}

func WithRecorder(r Recorder) PollerOption {
	return func(p *Poller) { p.metrics = r }
}

func NewPoller(api API, handler Handler, cfg Config, opts ...PollerOption) *Poller {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.SendRate <= 0 {
		cfg.SendRate = 1
	}
	if cfg.SendBurst <= 0 {
		cfg.SendBurst = 1
	}
	p := &Poller{
		api:     api,
		handler: handler,
		log:     logger.NewNop(),
		metrics: nopRecorder{},
		cfg:     cfg,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.limiter = ratelimit.New(cfg.SendRate, cfg.SendBurst)
	return p
}

// Close releases the per-chat limiter. Run calls it on exit.
func (p *Poller) Close() {
	p.limiter.Stop()
}

// Check reports whether updates are being received.
func (p *Poller) Check(context.Context) error {
	if !p.running.Load() {
		return ErrNotPolling
	}
	return nil
}

// Run polls until ctx is cancelled, then waits for in-flight updates.
func (p *Poller) Run(ctx context.Context) error {
	defer p.Close()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = p.cfg.PollTimeout
	updates := p.api.GetUpdatesChan(u)

	p.running.Store(true)
	defer p.running.Store(false)
	p.log.Info("Polling for updates", logger.Int("workers", p.cfg.Workers))

	var g errgroup.Group
	g.SetLimit(p.cfg.Workers)

	defer func() {
		_ = g.Wait()
		p.log.Info("Poller stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			p.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			g.Go(func() error {
				p.Handle(ctx, update)
				return nil
			})
		}
	}
}

// Handle processes one update synchronously.
func (p *Poller) Handle(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		p.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		p.handleMessage(ctx, update.Message)
	default:
		p.log.Debug("Ignoring update", logger.Int("update_id", update.UpdateID))
	}
}

func (p *Poller) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	resp := p.handler.OnPlainMessage(ctx, msg.From.ID, messageText(msg), attachmentFrom(msg))
	p.present(ctx, msg.Chat.ID, nil, resp.Replies)
}

func (p *Poller) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil {
		return
	}

	var resp bot.Response
	if bot.IsPageToken(cq.Data) {
		resp = p.handler.OnPageRequest(ctx, cq.From.ID, cq.Data)
	} else {
		resp = p.handler.OnChoice(ctx, cq.From.ID, cq.Data)
	}

	// The client shows a spinner until the callback is answered.
	if _, err := p.api.Request(tgbotapi.NewCallback(cq.ID, resp.Notice)); err != nil {
		p.metrics.Sent("error")
		p.log.Warn("Failed to answer callback", logger.Error(err))
	}

	chatID := cq.From.ID
	var from *origin
	if cq.Message != nil && cq.Message.Chat != nil {
		chatID = cq.Message.Chat.ID
		from = &origin{chatID: chatID, messageID: cq.Message.MessageID}
	}
	p.present(ctx, chatID, from, resp.Replies)
}

func (p *Poller) present(ctx context.Context, chatID int64, from *origin, replies []bot.Reply) {
	for _, r := range replies {
		if r.Text == "" {
			continue
		}
		if err := p.limiter.Wait(ctx, chatID); err != nil {
			p.metrics.Sent("dropped")
			p.log.Warn("Dropped reply", logger.Int64("chat_id", chatID), logger.Error(err))
			return
		}

		if _, err := p.api.Send(chattable(chatID, from, r)); err != nil {
			// Re-rendering an unchanged card is not a failure.
			if strings.Contains(err.Error(), "message is not modified") {
				p.metrics.Sent("unchanged")
				continue
			}
			p.metrics.Sent("error")
			p.log.Error("Failed to send reply", logger.Int64("chat_id", chatID), logger.Error(err))
			continue
		}
		p.metrics.Sent("ok")
	}
}

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	tmpl "github.com/condo-notify/internal/application/template"
	"github.com/condo-notify/internal/domain"
	"github.com/condo-notify/internal/pkg/id"
	"golang.org/x/sync/errgroup"
)

const (
	defaultConcurrency = 8
	defaultPushTimeout = 10 * time.Second
	archiveTimeout     = 10 * time.Second
)

// Gateway delivers one message to one endpoint token. Implementations must
// classify every failure as transient or permanent rather than returning errors.
type Gateway interface {
	Deliver(ctx context.Context, token string, msg domain.PushMessage) domain.DeliveryOutcome
}

// ReportArchive stores finished dispatch reports for later inspection.
type ReportArchive interface {
	Archive(ctx context.Context, r *domain.DispatchReport) error
}

type Service interface {
	// Send renders templateName for every distinct recipient, persists one
	// unread notification per recipient and pushes it to each valid endpoint.
	// Store failures abort the call; rows already written are kept.
	Send(ctx context.Context, templateName string, params map[string]string, recipientUserIDs []string, opts ...SendOption) (*domain.DispatchReport, error)
}

type templateSource interface {
	Get(ctx context.Context, name string) (*domain.Template, error)
}

type endpointRegistry interface {
	ListValid(ctx context.Context, userID string) ([]string, error)
	Invalidate(ctx context.Context, token string) error
}

type notificationStore interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// ServiceDeps groups the collaborators of the dispatcher. Archive is optional.
type ServiceDeps struct {
	Templates     templateSource
	Registry      endpointRegistry
	Notifications notificationStore
	Gateway       Gateway
	Archive       ReportArchive
	Concurrency   int
	PushTimeout   time.Duration
}

type service struct {
	templates     templateSource
	registry      endpointRegistry
	notifications notificationStore
	gateway       Gateway
	archive       ReportArchive
	concurrency   int
	pushTimeout   time.Duration
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		templates:     deps.Templates,
		registry:      deps.Registry,
		notifications: deps.Notifications,
		gateway:       deps.Gateway,
		archive:       deps.Archive,
		concurrency:   deps.Concurrency,
		pushTimeout:   deps.PushTimeout,
	}
	if s.concurrency <= 0 {
		s.concurrency = defaultConcurrency
	}
	if s.pushTimeout <= 0 {
		s.pushTimeout = defaultPushTimeout
	}
	return s
}

type sendConfig struct {
	recipientParams map[string]map[string]string
	data            map[string]string
}

type SendOption func(*sendConfig)

// WithRecipientParams overlays per-recipient params (keyed by user id) on the shared params.
func WithRecipientParams(p map[string]map[string]string) SendOption {
	return func(c *sendConfig) { c.recipientParams = p }
}

// WithData attaches extra key/value data to every pushed message and stored notification.
func WithData(data map[string]string) SendOption {
	return func(c *sendConfig) { c.data = data }
}

func (s *service) Send(ctx context.Context, templateName string, params map[string]string, recipientUserIDs []string, opts ...SendOption) (*domain.DispatchReport, error) {
	var cfg sendConfig
	for _, o := range opts {
		o(&cfg)
	}
	recipients := distinct(recipientUserIDs)
	if len(recipients) == 0 {
		return nil, fmt.Errorf("at least one recipient is required: %w", domain.ErrBadRequest)
	}
	tpl, err := s.templates.Get(ctx, templateName)
	if err != nil {
		return nil, err
	}

	report := &domain.DispatchReport{
		DispatchID:   id.New(),
		TemplateName: tpl.Name,
		Recipients:   make([]domain.RecipientReport, len(recipients)),
		StartedAt:    time.Now().UTC(),
	}

	var (
		mu        sync.Mutex
		renderErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, userID := range recipients {
		userID := userID
		rep := &report.Recipients[i]
		rep.UserID = userID
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				rep.Error = err.Error()
				return err
			}
			err := s.sendOne(gctx, tpl, mergeParams(params, cfg.recipientParams[userID]), cfg.data, userID, rep)
			if errors.Is(err, domain.ErrMissingParameter) {
				mu.Lock()
				if renderErr == nil {
					renderErr = err
				}
				mu.Unlock()
				return nil
			}
			return err
		})
	}
	fatal := g.Wait()
	report.FinishedAt = time.Now().UTC()

	s.logReport(report, fatal)
	s.archiveReport(ctx, report)

	if fatal != nil {
		return report, fmt.Errorf("dispatch %s: %w", tpl.Name, fatal)
	}
	if renderErr != nil {
		return report, fmt.Errorf("render %s: %w", tpl.Name, renderErr)
	}
	return report, nil
}

// sendOne handles a single recipient. Render errors are recorded on rep and
// returned as-is; any other returned error is a store failure.
func (s *service) sendOne(ctx context.Context, tpl *domain.Template, params, data map[string]string, userID string, rep *domain.RecipientReport) error {
	title, body, err := tmpl.Render(tpl, params)
	if err != nil {
		rep.Error = err.Error()
		return err
	}

	n := &domain.Notification{
		NotificationID: id.New(),
		UserID:         userID,
		TemplateName:   tpl.Name,
		Title:          title,
		Body:           body,
		Data:           data,
		CreatedAt:      time.Now().UTC(),
	}
	// The row must exist before any push can reach the device.
	if err := s.notifications.Create(ctx, n); err != nil {
		rep.Error = err.Error()
		return fmt.Errorf("create notification for %s: %w", userID, err)
	}
	rep.NotificationID = n.NotificationID

	tokens, err := s.registry.ListValid(ctx, userID)
	if err != nil {
		rep.Error = err.Error()
		return fmt.Errorf("list endpoints for %s: %w", userID, err)
	}
	if len(tokens) == 0 {
		return nil
	}

	msg := domain.PushMessage{Title: title, Body: body, Data: messageData(data, tpl.Name, n)}
	outcomes := make([]domain.DeliveryOutcome, len(tokens))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, token := range tokens {
		i, token := i, token
		g.Go(func() error {
			outcomes[i] = s.deliver(ctx, token, msg)
			return nil
		})
	}
	_ = g.Wait()

	rep.Attempted = len(tokens)
	for i, outcome := range outcomes {
		switch outcome {
		case domain.Delivered:
			rep.Delivered++
		case domain.PermanentFailure:
			if err := s.registry.Invalidate(ctx, tokens[i]); err != nil {
				slog.Warn("failed to invalidate endpoint", "user_id", userID, "err", err)
				rep.Error = "invalidate endpoint: " + err.Error()
				continue
			}
			rep.Invalidated++
		default:
			rep.Transient++
		}
	}
	return nil
}

func (s *service) deliver(ctx context.Context, token string, msg domain.PushMessage) domain.DeliveryOutcome {
	ctx, cancel := context.WithTimeout(ctx, s.pushTimeout)
	defer cancel()
	return s.gateway.Deliver(ctx, token, msg)
}

func (s *service) logReport(r *domain.DispatchReport, fatal error) {
	var created, attempted, delivered, invalidated int
	for _, rr := range r.Recipients {
		if rr.NotificationID != "" {
			created++
		}
		attempted += rr.Attempted
		delivered += rr.Delivered
		invalidated += rr.Invalidated
	}
	attrs := []any{
		"dispatch_id", r.DispatchID,
		"template", r.TemplateName,
		"recipients", len(r.Recipients),
		"notifications", created,
		"attempted", attempted,
		"delivered", delivered,
		"invalidated", invalidated,
		"duration", r.FinishedAt.Sub(r.StartedAt),
	}
	if fatal != nil {
		slog.Error("dispatch aborted", append(attrs, "err", fatal)...)
		return
	}
	slog.Info("dispatch finished", attrs...)
}

func (s *service) archiveReport(ctx context.Context, r *domain.DispatchReport) {
	if s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := s.archive.Archive(ctx, r); err != nil {
		slog.Warn("failed to archive dispatch report", "dispatch_id", r.DispatchID, "err", err)
	}
}

// distinct trims ids, drops empties and removes duplicates, keeping first-seen order.
func distinct(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, raw := range ids {
		uid := strings.TrimSpace(raw)
		if uid == "" || seen[uid] {
			continue
		}
		seen[uid] = true
		out = append(out, uid)
	}
	return out
}

func mergeParams(base, override map[string]string) map[string]string {
	if len(override) == 0 {
		return base
	}
	merged := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}
	return merged
}

func messageData(data map[string]string, templateName string, n *domain.Notification) map[string]string {
	out := make(map[string]string, len(data)+3)
	for k, v := range data {
		out[k] = v
	}
	out["type"] = templateName
	out["notification_id"] = n.NotificationID
	out["user_id"] = n.UserID
	return out
}

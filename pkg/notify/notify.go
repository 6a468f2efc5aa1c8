// Package notify sends run summaries through telegram, email, slack, webhooks or a custom script.
package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"os"
	"strings"
	"time"

	ntfy "github.com/go-pkgz/notify"
)

// Params holds notification settings, filled from the notify_* config keys.
type Params struct {
	Channels      []string
	OnError       bool
	OnComplete    bool
	TimeoutMs     int
	TelegramToken string
	TelegramChat  string
	SlackToken    string
	SlackChannel  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPStartTLS  bool
	EmailFrom     string
	EmailTo       []string
	WebhookURLs   []string
	CustomScript  string
}

// Service delivers run summaries to the configured channels.
type Service struct {
	channels   []channel
	custom     *customChannel
	onError    bool
	onComplete bool
	timeoutMs  int
	hostname   string
	log        logger
}

// channel is a notifier bound to one destination.
type channel struct {
	notifier   ntfy.Notifier
	dest       string
	htmlEscape bool // telegram destinations use HTML parse mode
}

type logger interface {
	Print(format string, args ...any)
}

// errUnavailable marks a channel that is configured correctly but can't be reached at startup.
var errUnavailable = errors.New("channel unavailable")

// builders validate Params for a channel name and build its notifiers.
var builders = map[string]func(Params) ([]channel, error){
	"telegram": buildTelegram,
	"email":    buildEmail,
	"slack":    buildSlack,
	"webhook":  buildWebhooks,
}

// Result holds run summary data for notifications.
type Result struct {
	Status   string   `json:"status"` // "success" or "failure"
	Target   string   `json:"target"`
	RunID    string   `json:"run_id"`
	Total    int      `json:"total"`
	Passed   int      `json:"passed"`
	Failed   int      `json:"failed"`
	Duration string   `json:"duration"`
	Failures []string `json:"failures,omitempty"` // ids of failed cases
	Error    string   `json:"error,omitempty"`    // run-level error, e.g. interrupted run
}

// maxListedFailures limits case ids listed in a message.
const maxListedFailures = 10

// New creates a Service from Params. it returns nil, nil when no channels are configured,
// Send is nil-safe so callers don't check.
// a misconfigured channel is an error, an unreachable one is logged and skipped.
func New(p Params, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // nil service means notifications are off
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	svc := &Service{onError: p.OnError, onComplete: p.OnComplete, timeoutMs: p.TimeoutMs, hostname: hostname, log: log}
	if svc.timeoutMs <= 0 {
		svc.timeoutMs = 10000
	}

	for _, ch := range p.Channels {
		name := strings.TrimSpace(strings.ToLower(ch))
		if name == "custom" {
			if p.CustomScript == "" {
				return nil, errors.New("custom channel: notify_custom_script is required")
			}
			svc.custom = newCustomChannel(p.CustomScript)
			continue
		}

		build, ok := builders[name]
		if !ok {
			return nil, fmt.Errorf("unknown notification channel: %q", ch)
		}
		chs, bErr := build(p)
		if errors.Is(bErr, errUnavailable) {
			log.Print("[WARN] %s channel disabled: %v", name, bErr)
			continue
		}
		if bErr != nil {
			return nil, fmt.Errorf("%s channel: %w", name, bErr)
		}
		svc.channels = append(svc.channels, chs...)
	}

	if len(svc.channels) == 0 && svc.custom == nil {
		log.Print("[WARN] all notification channels were disabled due to initialization errors")
	}
	return svc, nil
}

// Send delivers the summary if the result status is enabled by on_complete/on_error.
// delivery errors are logged, never returned.
func (s *Service) Send(ctx context.Context, r Result) {
	if s == nil || !s.wants(r.Status) {
		return
	}

	msg := s.formatMessage(r)
	sendCtx, cancel := context.WithTimeout(ctx, time.Duration(s.timeoutMs)*time.Millisecond)
	defer cancel()

	for _, ch := range s.channels {
		text := msg
		if ch.htmlEscape {
			text = html.EscapeString(msg)
		}
		if err := ch.notifier.Send(sendCtx, ch.dest, text); err != nil {
			s.log.Print("[WARN] notification failed for %s: %v", ch.notifier, err)
		}
	}

	if s.custom != nil {
		if err := s.custom.send(sendCtx, r); err != nil {
			s.log.Print("[WARN] custom notification failed: %v", err)
		}
	}
}

func (s *Service) wants(status string) bool {
	switch status {
	case "success":
		return s.onComplete
	case "failure":
		return s.onError
	}
	return true
}

// formatMessage creates a plain text notification message from the result.
func (s *Service) formatMessage(r Result) string {
	var b strings.Builder

	if r.Status == "success" {
		fmt.Fprintf(&b, "livecheck passed on %s\n", s.hostname)
	} else {
		fmt.Fprintf(&b, "livecheck failed on %s\n", s.hostname)
	}

	b.WriteString("\n")

	if r.Target != "" {
		fmt.Fprintf(&b, "target:   %s\n", r.Target)
	}
	if r.RunID != "" {
		fmt.Fprintf(&b, "run:      %s\n", r.RunID)
	}
	if r.Duration != "" {
		fmt.Fprintf(&b, "duration: %s\n", r.Duration)
	}

	fmt.Fprintf(&b, "cases:    %d passed, %d failed of %d\n", r.Passed, r.Failed, r.Total)

	if len(r.Failures) > 0 {
		ids := r.Failures
		if len(ids) > maxListedFailures {
			ids = ids[:maxListedFailures]
		}
		fmt.Fprintf(&b, "failed:   %s", strings.Join(ids, ", "))
		if extra := len(r.Failures) - len(ids); extra > 0 {
			fmt.Fprintf(&b, " and %d more", extra)
		}
		b.WriteString("\n")
	}

	if r.Error != "" {
		fmt.Fprintf(&b, "error:    %s\n", r.Error)
	}

	return b.String()
}

// telegramChannelMaker is replaced in tests, the real one calls the telegram API.
var telegramChannelMaker = makeTelegramChannel

func makeTelegramChannel(p Params) (channel, error) {
	tg, err := ntfy.NewTelegram(ntfy.TelegramParams{Token: p.TelegramToken})
	if err != nil {
		return channel{}, fmt.Errorf("create telegram notifier: %w", err)
	}
	return channel{notifier: tg, dest: fmt.Sprintf("telegram:%s?parseMode=HTML", p.TelegramChat), htmlEscape: true}, nil
}

// buildTelegram checks the bot settings, then connects. a failed connection is errUnavailable
// with the token redacted from the message.
func buildTelegram(p Params) ([]channel, error) {
	if p.TelegramToken == "" {
		return nil, errors.New("notify_telegram_token is required")
	}
	if p.TelegramChat == "" {
		return nil, errors.New("notify_telegram_chat is required")
	}
	ch, err := telegramChannelMaker(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", errUnavailable, strings.ReplaceAll(err.Error(), p.TelegramToken, "[REDACTED]"))
	}
	return []channel{ch}, nil
}

// buildEmail sends to all recipients in one mailto destination.
func buildEmail(p Params) ([]channel, error) {
	switch {
	case p.SMTPHost == "":
		return nil, errors.New("notify_smtp_host is required")
	case p.EmailFrom == "":
		return nil, errors.New("notify_email_from is required")
	case len(p.EmailTo) == 0:
		return nil, errors.New("notify_email_to is required")
	}

	em := ntfy.NewEmail(ntfy.SMTPParams{Host: p.SMTPHost, Port: p.SMTPPort, Username: p.SMTPUsername,
		Password: p.SMTPPassword, StartTLS: p.SMTPStartTLS})
	dest := fmt.Sprintf("mailto:%s?from=%s&subject=%s", strings.Join(p.EmailTo, ","),
		url.QueryEscape(p.EmailFrom), url.QueryEscape("livecheck run"))
	return []channel{{notifier: em, dest: dest}}, nil
}

func buildSlack(p Params) ([]channel, error) {
	switch {
	case p.SlackToken == "":
		return nil, errors.New("notify_slack_token is required")
	case p.SlackChannel == "":
		return nil, errors.New("notify_slack_channel is required")
	}
	return []channel{{notifier: ntfy.NewSlack(p.SlackToken), dest: "slack:" + p.SlackChannel}}, nil
}

// buildWebhooks shares one webhook notifier between all urls.
func buildWebhooks(p Params) ([]channel, error) {
	if len(p.WebhookURLs) == 0 {
		return nil, errors.New("notify_webhook_urls is required")
	}
	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	res := make([]channel, 0, len(p.WebhookURLs))
	for _, u := range p.WebhookURLs {
		res = append(res, channel{notifier: wh, dest: u})
	}
	return res, nil
}

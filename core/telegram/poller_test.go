package telegram

import (
	"testing"
	"time"

	coreconfig "github.com/m3rciful/orderbot/core/config"

	tele "gopkg.in/telebot.v4"
)

func TestBuildPollerLongpollDefault(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: coreconfig.RunModeLongpoll})
	lp, ok := p.(*tele.LongPoller)
	if !ok {
		t.Fatalf("poller = %T, want *tele.LongPoller", p)
	}
	if lp.Timeout != defaultLongPollTimeout {
		t.Fatalf("timeout = %s", lp.Timeout)
	}

	p = BuildPoller(PollerOptions{LongPollTimeoutSeconds: 25})
	if got := p.(*tele.LongPoller).Timeout; got != 25*time.Second {
		t.Fatalf("custom timeout = %s", got)
	}
}

func TestBuildPollerWebhook(t *testing.T) {
	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: "Webhook"},
		Webhook:  coreconfig.WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443},
	}
	p := BuildPoller(PollerOptionsFrom(cfg))
	wh, ok := p.(*tele.Webhook)
	if !ok {
		t.Fatalf("poller = %T, want *tele.Webhook", p)
	}
	if wh.Listen != "0.0.0.0:8443" {
		t.Fatalf("listen = %q", wh.Listen)
	}
	if wh.Endpoint == nil || wh.Endpoint.PublicURL != "https://example.org/hook" {
		t.Fatalf("endpoint = %+v", wh.Endpoint)
	}
}

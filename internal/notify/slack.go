package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ligun0805/x-faucet/internal/faucetcore"
)

var ErrSlackNotOK = errors.New("non-ok response returned from Slack")

type slackRequestBody struct {
	Text string `json:"text"`
}

// Slack posts to incoming webhooks. Errors go to AlertURL, everything
// else to InfoURL. An empty URL silences that severity.
type Slack struct {
	AlertURL string
	InfoURL  string
	Client   *http.Client

	log *logrus.Entry
	wg  sync.WaitGroup
}

func NewSlack(alertURL, infoURL string, log *logrus.Entry) *Slack {
	return &Slack{
		AlertURL: strings.TrimSpace(alertURL),
		InfoURL:  strings.TrimSpace(infoURL),
		Client:   &http.Client{Timeout: 10 * time.Second},
		log:      log.WithField("component", "slack"),
	}
}

// Enabled reports whether any webhook is configured.
func (s *Slack) Enabled() bool { return s.AlertURL != "" || s.InfoURL != "" }

func (s *Slack) urlFor(sev faucetcore.Severity) string {
	if sev == faucetcore.SeverityError {
		return s.AlertURL
	}
	return s.InfoURL
}

// Send delivers one message synchronously.
func (s *Slack) Send(ctx context.Context, text string, sev faucetcore.Severity) error {
	url := s.urlFor(sev)
	if url == "" {
		return nil
	}
	body, err := json.Marshal(slackRequestBody{Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Add("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	buf, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if strings.TrimSpace(string(buf)) != "ok" {
		return fmt.Errorf("%w: %d %s", ErrSlackNotOK, resp.StatusCode, buf)
	}
	return nil
}

// Notify sends in the background so the caller (the event loop) never
// waits on the network.
func (s *Slack) Notify(title, body string, sev faucetcore.Severity) {
	if s.urlFor(sev) == "" {
		return
	}
	text := title
	if body != "" {
		text = title + "\n" + body
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.Send(context.Background(), text, sev); err != nil {
			s.log.WithError(err).Warn("slack delivery failed")
		}
	}()
}

// Wait blocks until in-flight deliveries finish.
func (s *Slack) Wait() { s.wg.Wait() }

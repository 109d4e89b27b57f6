// Package smshttp delivers SMS through a JSON gateway endpoint. The
// gateway contract is a single POST carrying the destination and body;
// anything but a 2xx is a delivery failure.
package smshttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"civicvote/contexts/participation/voter-signup/ports"
)

type Sender struct {
	gatewayURL string
	from       string
	client     *http.Client
}

func NewSender(gatewayURL, from string) *Sender {
	return &Sender{
		gatewayURL: gatewayURL,
		from:       from,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Body string `json:"body"`
}

func (s *Sender) Send(ctx context.Context, phone, body string) error {
	payload, err := json.Marshal(sendRequest{From: s.from, To: phone, Body: body})
	if err != nil {
		return fmt.Errorf("encode sms payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.gatewayURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}

var _ ports.SMSSender = (*Sender)(nil)

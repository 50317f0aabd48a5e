// Package billing provides the synchronous remote client that provisions a
// billing account for each patient. The wire contract is deliberately small:
// one POST with the patient identifier, name, and email; any non-2xx answer
// or transport fault is a failure the caller must surface, because patient
// creation is not allowed to complete without a billing account.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

var (
	// ErrBillingRejected means the billing service understood the request
	// and refused it (remote validation failure). Retrying the same input
	// will not help.
	ErrBillingRejected = errors.New("billing account request rejected")

	// ErrBillingUnavailable means the billing service could not be reached
	// or failed while processing (transient fault, remote crash, open
	// circuit breaker).
	ErrBillingUnavailable = errors.New("billing service unavailable")
)

// AccountClient is the contract the patient orchestrator consumes.
type AccountClient interface {
	CreateBillingAccount(ctx context.Context, patientID, name, email string) error
}

type createAccountRequest struct {
	PatientID string `json:"patient_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
}

// Client calls the billing service over HTTP. A circuit breaker fails fast
// when the remote is persistently down. The client never retries a request;
// retry policy belongs to the external caller repeating the create.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
	log     zerolog.Logger
}

func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:    "billing",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).
				Str("from", from.String()).Str("to", to.String()).
				Msg("billing circuit breaker state change")
		},
	})

	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		breaker: breaker,
		log:     log,
	}
}

func (c *Client) CreateBillingAccount(ctx context.Context, patientID, name, email string) error {
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.post(ctx, patientID, name, email)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: circuit open", ErrBillingUnavailable)
	}
	return err
}

func (c *Client) post(ctx context.Context, patientID, name, email string) error {
	body, err := json.Marshal(createAccountRequest{
		PatientID: patientID,
		Name:      name,
		Email:     email,
	})
	if err != nil {
		return fmt.Errorf("marshal billing request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/billing-accounts", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build billing request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBillingUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrBillingRejected, resp.StatusCode, detail)
	default:
		return fmt.Errorf("%w: status %d", ErrBillingUnavailable, resp.StatusCode)
	}
}

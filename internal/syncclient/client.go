// Package syncclient talks to the inventory server: best-effort state
// replication, health checks, and backup discovery and restore.
//
// Replication calls never return errors to their caller. They report false
// and log, so the local ledger keeps working while the server is away.
package syncclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/luis-polezi/stock-control/internal/apierror"
	"github.com/luis-polezi/stock-control/internal/archive"
	"github.com/luis-polezi/stock-control/internal/dto"
	"github.com/luis-polezi/stock-control/internal/infra"
	"github.com/luis-polezi/stock-control/internal/model"
	"github.com/rs/zerolog/log"
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	Breaker infra.CircuitBreakerConfig
}

type Client struct {
	rc      *resty.Client
	base    *url.URL
	breaker *infra.CircuitBreaker

	mu    sync.RWMutex
	token string
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	base, _ := url.Parse(baseURL)
	rc := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	bc := cfg.Breaker
	bc.OnStateChange = func(from, to infra.CBState) {
		switch to {
		case infra.CBOpen:
			log.Warn().Str("server", cfg.BaseURL).Msg("server unreachable, working in offline mode")
		case infra.CBClosed:
			log.Info().Str("server", cfg.BaseURL).Msg("server reachable again")
		}
	}
	return &Client{rc: rc, base: base, breaker: infra.NewCircuitBreaker(bc)}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Offline reports whether the circuit is open.
func (c *Client) Offline() bool {
	return c.breaker.State() == infra.CBOpen
}

// SyncState pushes the full ledger. It returns false on any failure.
func (c *Client) SyncState(ctx context.Context, l model.Ledger, actor string) bool {
	req := dto.SyncRequest{Products: nonNilProducts(l.Products), Logs: nonNilLogs(l.Logs), User: actor}
	var resp dto.SyncResponse
	if err := c.do(ctx, http.MethodPost, "/api/sync", req, &resp); err != nil {
		log.Warn().Err(err).Str("actor", actor).Msg("sync failed")
		return false
	}
	log.Debug().Int("products", len(req.Products)).Int("logs", len(req.Logs)).Msg("state synced")
	return true
}

// CheckHealth pings the liveness endpoint.
func (c *Client) CheckHealth(ctx context.Context) bool {
	var resp dto.HealthResponse
	if err := c.do(ctx, http.MethodGet, "/api/health", nil, &resp); err != nil {
		log.Warn().Err(err).Msg("health check failed")
		return false
	}
	return resp.Status == "OK"
}

// FetchLatestBackupPointer returns the most recent backup known to the
// server. Absent when there is none or the server cannot be reached.
func (c *Client) FetchLatestBackupPointer(ctx context.Context) (model.BackupPointer, bool) {
	var resp dto.LatestBackupResponse
	if err := c.do(ctx, http.MethodGet, "/api/latest-backup", nil, &resp); err != nil {
		log.Warn().Err(err).Msg("latest backup lookup failed")
		return model.BackupPointer{}, false
	}
	if !resp.HasBackup || resp.Backup == nil {
		return model.BackupPointer{}, false
	}
	return *resp.Backup, true
}

// RestoreFromBackup downloads and parses a backup document. downloadURL may
// be absolute or relative to the server; the bearer token is only sent to
// the server itself. The returned ledger is meant to replace the local one
// wholesale.
func (c *Client) RestoreFromBackup(ctx context.Context, downloadURL string) (model.Ledger, error) {
	req := c.rc.R().SetContext(ctx)
	if c.ownsURL(downloadURL) {
		req = c.request(ctx)
	}
	var body []byte
	err := c.breaker.Execute(func() error {
		resp, err := req.Get(downloadURL)
		if err != nil {
			return fmt.Errorf("download backup: %v: %w", err, apierror.ErrRemoteUnavailable)
		}
		if resp.IsError() {
			return fmt.Errorf("download backup: status %d: %w", resp.StatusCode(), apierror.ErrRemoteUnavailable)
		}
		body = resp.Body()
		return nil
	})
	if err != nil {
		return model.Ledger{}, circuitErr(err)
	}

	doc, err := archive.DecodeDocument(body)
	if err != nil {
		return model.Ledger{}, err
	}
	return doc.Data, nil
}

// PushBackup asks the server to archive the given ledger.
func (c *Client) PushBackup(ctx context.Context, l model.Ledger, actor string, automatic bool) (dto.BackupResponse, bool) {
	req := dto.BackupRequest{
		Products:  nonNilProducts(l.Products),
		Logs:      nonNilLogs(l.Logs),
		User:      actor,
		Timestamp: time.Now().UTC().Format(dto.TimestampLayout),
		Automatic: automatic,
	}
	var resp dto.BackupResponse
	if err := c.do(ctx, http.MethodPost, "/api/backup", req, &resp); err != nil {
		log.Warn().Err(err).Bool("automatic", automatic).Msg("backup failed")
		return dto.BackupResponse{}, false
	}
	return resp, true
}

// Login exchanges credentials for a token and keeps it for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (dto.LoginResponse, error) {
	var resp dto.LoginResponse
	if err := c.do(ctx, http.MethodPost, "/api/login", dto.LoginRequest{Username: username, Password: password}, &resp); err != nil {
		return dto.LoginResponse{}, err
	}
	c.SetToken(resp.AccessToken)
	return resp, nil
}

func (c *Client) ListBackups(ctx context.Context) ([]model.BackupInfo, error) {
	var resp dto.BackupListResponse
	if err := c.do(ctx, http.MethodGet, "/api/backups", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Backups, nil
}

func (c *Client) DeleteBackup(ctx context.Context, fileName string) error {
	var resp dto.MessageResponse
	return c.do(ctx, http.MethodDelete, "/api/backup/"+url.PathEscape(fileName), nil, &resp)
}

// ── transport ────────────────────────────────────────────────────────────────

func (c *Client) request(ctx context.Context) *resty.Request {
	req := c.rc.R().SetContext(ctx)
	if tok := c.Token(); tok != "" {
		req.SetAuthToken(tok)
	}
	return req
}

// ownsURL reports whether raw points at the configured server.
func (c *Client) ownsURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if !u.IsAbs() {
		return u.Host == ""
	}
	return c.base != nil && strings.EqualFold(u.Scheme, c.base.Scheme) && strings.EqualFold(u.Host, c.base.Host)
}

// do runs one JSON call. Transport errors and 5xx count against the circuit
// breaker; 4xx answers are the caller's fault and do not.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var clientErr error
	err := c.breaker.Execute(func() error {
		var apiErr apierror.APIError
		req := c.request(ctx).SetError(&apiErr)
		if body != nil {
			req.SetBody(body)
		}
		if result != nil {
			req.SetResult(result)
		}
		resp, err := req.Execute(method, path)
		if err != nil {
			return fmt.Errorf("%s %s: %v: %w", method, path, err, apierror.ErrRemoteUnavailable)
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return fmt.Errorf("%s %s: status %d %s: %w", method, path, resp.StatusCode(), apiErr.Error, apierror.ErrRemoteUnavailable)
		}
		if resp.IsError() {
			clientErr = statusErr(resp.StatusCode(), apiErr.Error)
		}
		return nil
	})
	if err != nil {
		return circuitErr(err)
	}
	return clientErr
}

func circuitErr(err error) error {
	if errors.Is(err, infra.ErrCircuitOpen) {
		return fmt.Errorf("offline mode: %v: %w", err, apierror.ErrRemoteUnavailable)
	}
	return err
}

func statusErr(status int, msg string) error {
	kind := apierror.ErrRemoteUnavailable
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		kind = apierror.ErrValidation
	case http.StatusUnauthorized:
		kind = apierror.ErrDenied
	case http.StatusForbidden:
		kind = apierror.ErrForbidden
	case http.StatusNotFound:
		kind = apierror.ErrNotFound
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return fmt.Errorf("server answered %d: %s: %w", status, msg, kind)
}

func nonNilProducts(p []model.Product) []model.Product {
	if p == nil {
		return []model.Product{}
	}
	return p
}

func nonNilLogs(l []model.MovementLog) []model.MovementLog {
	if l == nil {
		return []model.MovementLog{}
	}
	return l
}

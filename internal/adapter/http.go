package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/MKhiriev/bank-mmudzi/internal/config"
	"github.com/MKhiriev/bank-mmudzi/internal/logger"
	"github.com/MKhiriev/bank-mmudzi/internal/utils"
	"github.com/MKhiriev/bank-mmudzi/models"
)

type httpOperatorAPI struct {
	client *utils.HTTPClient
	logger *logger.Logger
}

// NewHTTPOperatorAPI returns an [OperatorAPI] talking to cfg.Address. A bare
// host:port is treated as http.
func NewHTTPOperatorAPI(cfg config.ClientConfig, logger *logger.Logger) (OperatorAPI, error) {
	baseURL, err := normalizeBaseURL(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	return &httpOperatorAPI{
		client: utils.NewHTTPClient(baseURL, cfg.RequestTimeout, strings.TrimSpace(cfg.Token)),
		logger: logger,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

func (h *httpOperatorAPI) Status(ctx context.Context) (models.SyncStatusReport, error) {
	var report models.SyncStatusReport
	err := h.do(h.request(ctx).SetResult(&report), "GET", "/api/sync/status")
	return report, err
}

func (h *httpOperatorAPI) Trigger(ctx context.Context) (bool, error) {
	var res models.TriggerSyncResponse
	if err := h.do(h.request(ctx).SetResult(&res), "POST", "/api/sync/trigger"); err != nil {
		return false, err
	}
	return res.Scheduled, nil
}

func (h *httpOperatorAPI) Recheck(ctx context.Context) (models.RecheckResponse, error) {
	var res models.RecheckResponse
	err := h.do(h.request(ctx).SetResult(&res), "POST", "/api/sync/recheck")
	return res, err
}

func (h *httpOperatorAPI) ListConflicts(ctx context.Context) ([]models.ConflictRecord, error) {
	var res models.ConflictsResponse
	if err := h.do(h.request(ctx).SetResult(&res), "GET", "/api/conflicts/"); err != nil {
		return nil, err
	}
	return res.Conflicts, nil
}

func (h *httpOperatorAPI) GetConflict(ctx context.Context, id int64) (models.ConflictRecord, error) {
	var c models.ConflictRecord
	err := h.do(h.request(ctx).SetResult(&c), "GET", "/api/conflicts/"+strconv.FormatInt(id, 10))
	return c, err
}

func (h *httpOperatorAPI) Resolve(ctx context.Context, id int64, strategy string, merged models.Row) (bool, error) {
	body := models.ResolveConflictRequest{Strategy: strategy}
	if len(merged) > 0 {
		body.Merged = merged
	}

	var res models.ResolveConflictResponse
	req := h.request(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(&res)
	if err := h.do(req, "POST", "/api/conflicts/"+strconv.FormatInt(id, 10)+"/resolve"); err != nil {
		return false, err
	}
	return res.Resolved, nil
}

func (h *httpOperatorAPI) Tail(ctx context.Context, session string, limit int) ([]models.LogEntry, error) {
	req := h.request(ctx)
	if session != "" {
		req.SetQueryParam("session", session)
	}
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}

	var res models.SyncLogResponse
	if err := h.do(req.SetResult(&res), "GET", "/api/sync/log"); err != nil {
		return nil, err
	}
	return res.Entries, nil
}

func (h *httpOperatorAPI) Version(ctx context.Context) (models.VersionResponse, error) {
	var v models.VersionResponse
	err := h.do(h.request(ctx).SetResult(&v), "GET", "/api/version")
	return v, err
}

func (h *httpOperatorAPI) request(ctx context.Context) *resty.Request {
	return h.client.R().SetContext(ctx)
}

func (h *httpOperatorAPI) do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	if err = mapHTTPError(resp); err != nil {
		h.logger.Debug().Err(err).
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode()).
			Msg("operator API call failed")
		return err
	}
	return nil
}

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Spok95/kyefa/internal/apperr"
	"github.com/Spok95/kyefa/internal/config"
	"github.com/Spok95/kyefa/internal/ctxutil"
	"github.com/Spok95/kyefa/internal/logging"
	"github.com/Spok95/kyefa/internal/metrics"
	"github.com/Spok95/kyefa/internal/observability"
)

// Client — типизированный доступ к бэкенду. Базовый URL приходит из конфига,
// глобального состояния нет.
type Client struct {
	baseURL string
	timeout time.Duration
	http    *http.Client
	log     *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		timeout: cfg.HTTPTimeout,
		http:    &http.Client{},
		log:     logging.Or(log).Named("gateway"),
	}
}

// WithHTTPClient — подмена транспорта (тесты, прокси).
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

type response struct {
	status int
	body   []byte
}

// send выполняет запрос. Ошибка возвращается только для транспорта;
// статус разбирают вызывающие.
func (c *Client) send(ctx context.Context, op, method, path string, body io.Reader, contentType string) (*response, error) {
	ctx, cancel := ctxutil.WithRequestTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	t0 := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveGateway(op, 0, time.Since(t0))
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()
	raw, err := io.ReadAll(resp.Body)
	metrics.ObserveGateway(op, resp.StatusCode, time.Since(t0))
	if err != nil {
		return nil, err
	}
	c.log.Debug("backend call",
		zap.String("op", op),
		zap.String("effect", ctxutil.OpOr(ctx, "-")),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(t0)),
	)
	return &response{status: resp.StatusCode, body: raw}, nil
}

// call — общий путь для мутаций и списков: JSON туда, JSON обратно, ошибки
// в таксономию apperr.
func (c *Client) call(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	ct := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return apperr.NewSerialization(err)
		}
		body = bytes.NewReader(b)
		ct = "application/json"
	}
	resp, err := c.send(ctx, op, method, path, body, ct)
	if err != nil {
		return c.networkErr(op, err)
	}
	return c.decode(op, resp, out)
}

func (c *Client) decode(op string, resp *response, out any) error {
	if resp.status/100 != 2 {
		e := backendErr(resp)
		c.log.Warn("backend error", zap.String("op", op), zap.Int("status", resp.status), zap.String("message", e.Message))
		if isSystemStatus(resp.status) {
			observability.CaptureOp(op, e)
		}
		return e
	}
	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		e := apperr.NewSerialization(fmt.Errorf("%s: unexpected response shape: %w", op, err))
		observability.CaptureOp(op, e)
		return e
	}
	return nil
}

func (c *Client) networkErr(op string, err error) error {
	e := apperr.NewNetwork(err)
	c.log.Warn("backend unreachable", zap.String("op", op), zap.Error(err))
	// отмена со стороны клиента (выход, остановка) — не инцидент
	if !errors.Is(err, context.Canceled) {
		observability.CaptureOp(op, e)
	}
	return e
}

type errorBody struct {
	Message string `json:"message"`
}

// backendErr: сначала {message}, иначе сырой текст ответа.
func backendErr(resp *response) *apperr.Error {
	var eb errorBody
	if err := json.Unmarshal(resp.body, &eb); err == nil && strings.TrimSpace(eb.Message) != "" {
		return apperr.NewBackend(eb.Message)
	}
	text := strings.TrimSpace(string(resp.body))
	if text == "" {
		text = fmt.Sprintf("http %d", resp.status)
	}
	return apperr.NewBackend(text)
}

// Считаем системными: 5xx и 429. 4xx — ответы на ввод пользователя.
func isSystemStatus(code int) bool {
	return code >= 500 || code == http.StatusTooManyRequests
}

// multipartFile собирает тело с одним полем-файлом.
func multipartFile(field, filename string, data []byte) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile(field, filepath.Base(filename))
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

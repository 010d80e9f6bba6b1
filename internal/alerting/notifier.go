package alerting

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Notifier 定义告警输送接口。Delivery failures are recoverable: callers log
// and continue, they never abort the run.
type Notifier interface {
	Notify(ctx context.Context, text string) error
	NotifyFile(ctx context.Context, text, filePath, filename string) error
}

// SlackNotifier 通过 Slack Web API 推送消息。
type SlackNotifier struct {
	botToken string
	channel  string
	baseURL  string
	client   *http.Client
	logger   zerolog.Logger
}

// NewSlackNotifier 构造 Slack 告警器。
func NewSlackNotifier(botToken, channel, baseURL string, timeout time.Duration, logger zerolog.Logger) *SlackNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if baseURL == "" {
		baseURL = "https://slack.com/api"
	}

	return &SlackNotifier{
		botToken: botToken,
		channel:  channel,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		logger:   logger.With().Str("component", "alert_slack").Logger(),
	}
}

// Notify 调用 chat.postMessage API 推送文本。
func (n *SlackNotifier) Notify(ctx context.Context, text string) error {
	payload := map[string]string{
		"channel": n.channel,
		"text":    text,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/chat.postMessage", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+n.botToken)

	if err := n.send(req); err != nil {
		return err
	}

	n.logger.Info().Str("channel", n.channel).Msg("告警已发送 (Slack)")
	return nil
}

// NotifyFile uploads a file with the message as the initial comment.
func (n *SlackNotifier) NotifyFile(ctx context.Context, text, filePath, filename string) error {
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open upload file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	_ = writer.WriteField("channels", n.channel)
	_ = writer.WriteField("initial_comment", text)
	_ = writer.WriteField("filename", filename)

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("create multipart field: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy upload file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/files.upload", &buf)
	if err != nil {
		return fmt.Errorf("create slack upload request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+n.botToken)

	if err := n.send(req); err != nil {
		return err
	}

	n.logger.Info().Str("channel", n.channel).Str("filename", filename).Msg("告警已发送 (Slack, 附件)")
	return nil
}

func (n *SlackNotifier) send(req *http.Request) error {
	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send slack request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack 响应码异常: %d", resp.StatusCode)
	}

	var result struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err == nil {
		if !result.OK {
			return fmt.Errorf("slack 返回 ok=false: %s", result.Error)
		}
	}
	return nil
}

// ConsoleNotifier is the dry-run fallback used when no bot token is
// configured: the formatted content goes to local output instead.
type ConsoleNotifier struct {
	Out io.Writer
}

// NewConsoleNotifier writes notifications to w (stdout when nil).
func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleNotifier{Out: w}
}

// Notify prints the message body without markup.
func (c *ConsoleNotifier) Notify(_ context.Context, text string) error {
	divider := strings.Repeat("=", 50)
	_, err := fmt.Fprintf(c.Out, "\n%s\n%s\n%s\n", divider, strings.ReplaceAll(text, "*", ""), divider)
	return err
}

// NotifyFile prints the message and the attachment path.
func (c *ConsoleNotifier) NotifyFile(ctx context.Context, text, filePath, filename string) error {
	if err := c.Notify(ctx, text); err != nil {
		return err
	}
	_, err := fmt.Fprintf(c.Out, "(attachment %s at %s)\n", filename, filePath)
	return err
}

var _ Notifier = (*SlackNotifier)(nil)
var _ Notifier = (*ConsoleNotifier)(nil)

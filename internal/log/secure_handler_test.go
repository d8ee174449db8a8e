package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestSecureHandlerMasksSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "cookie header", key: "cookie", value: "JSESSIONID=abc123"},
		{name: "captcha code", key: "captcha_code", value: "1234"},
		{name: "session id", key: "session_id", value: "deadbeef"},
		{name: "mixed case token", key: "Token", value: "xyz"},
		{name: "keyword substring", key: "portal_password", value: "hunter2"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)

			logger.Info("test", tt.key, tt.value)

			out := buf.String()
			if strings.Contains(out, tt.value) {
				t.Errorf("output leaked value %q: %s", tt.value, out)
			}
			if !strings.Contains(out, MaskValue) {
				t.Errorf("output missing mask: %s", out)
			}
		})
	}
}

func TestSecureHandlerMasksSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{name: "jwt", value: "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiIxIn0.sig"},
		{name: "bearer token", value: "Bearer abc.def.ghi"},
		{name: "session cookie pair", value: "JSESSIONID=9A3F2C"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)

			logger.Info("test", "detail", tt.value)

			if strings.Contains(buf.String(), tt.value) {
				t.Errorf("output leaked value %q: %s", tt.value, buf.String())
			}
		})
	}
}

func TestSecureHandlerPassesNormalAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)

	logger.Info("extracting page",
		"page", 3,
		"rows", 25,
		"url", "https://zfcg.czt.fujian.gov.cn/maincms-web/xmgg",
	)

	out := buf.String()
	for _, want := range []string{"page=3", "rows=25", "zfcg.czt.fujian.gov.cn"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q: %s", want, out)
		}
	}
}

func TestSecureHandlerSanitizesGroups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)

	logger.Info("request",
		slog.Group("http",
			slog.String("cookie", "JSESSIONID=abc"),
			slog.String("method", "GET"),
		),
	)

	out := buf.String()
	if strings.Contains(out, "JSESSIONID=abc") {
		t.Errorf("group attr leaked: %s", out)
	}
	if !strings.Contains(out, "method=GET") {
		t.Errorf("group attr dropped: %s", out)
	}
}

func TestSecureHandlerWithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true).With("token", "secret-value")

	logger.Info("test")

	if strings.Contains(buf.String(), "secret-value") {
		t.Errorf("WithAttrs leaked value: %s", buf.String())
	}
}

func TestVerboseControlsLevel(t *testing.T) {
	t.Parallel()

	var quiet bytes.Buffer
	NewSecureLogger(&quiet, false).Debug("hidden")
	if quiet.Len() != 0 {
		t.Errorf("debug logged without verbose: %s", quiet.String())
	}

	var loud bytes.Buffer
	NewSecureLogger(&loud, true).Debug("shown")
	if loud.Len() == 0 {
		t.Error("debug suppressed in verbose mode")
	}
}

func TestSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureJSONLogger(&buf, true)

	logger.Info("test", "cookie", "JSESSIONID=abc")

	out := buf.String()
	if !strings.Contains(out, `"msg":"test"`) {
		t.Errorf("not JSON output: %s", out)
	}
	if strings.Contains(out, "JSESSIONID=abc") {
		t.Errorf("JSON output leaked value: %s", out)
	}
}

func TestSecureHandlerEnabled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	h := NewSecureHandler(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug enabled below handler level")
	}
	if !h.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info disabled at handler level")
	}
}

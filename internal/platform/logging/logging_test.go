package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/ogurasousui/teamplan/internal/platform/config"
	"github.com/sirupsen/logrus"
)

func TestNewWithWriter_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, err := NewWithWriter(config.LogConfig{Level: "warn", Format: "json"}, &buf)
	if err != nil {
		t.Fatalf("NewWithWriter returned error: %v", err)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Fatalf("expected warn level, got %s", logger.GetLevel())
	}

	logger.Info("hidden")
	logger.WithField("member_id", "m-1").Warn("visible")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected one json entry, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "visible" || entry["member_id"] != "m-1" {
		t.Fatalf("unexpected entry %v", entry)
	}
}

func TestNewWithWriter_InvalidLevel(t *testing.T) {
	t.Parallel()

	if _, err := NewWithWriter(config.LogConfig{Level: "loud"}, &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

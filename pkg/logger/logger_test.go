package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferLogger(level Level) (*Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return New(Options{Output: buf, Level: level}), buf
}

func decodeEntry(t *testing.T, buf *bytes.Buffer) LogEntry {
	t.Helper()

	var entry LogEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestLogger_WritesJSON(t *testing.T) {
	log, buf := newBufferLogger(LevelInfo)

	log.Info("engine ready", Backend("memory"))

	entry := decodeEntry(t, buf)
	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "engine ready", entry.Message)
	assert.Equal(t, "memory", entry.Fields["store_backend"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	log, buf := newBufferLogger(LevelWarn)

	log.Debug("not written")
	log.Info("not written either")
	assert.Zero(t, buf.Len())

	log.Warn("written")
	assert.NotZero(t, buf.Len())
}

func TestLogger_With(t *testing.T) {
	base, buf := newBufferLogger(LevelInfo)
	log := base.With(Component("eventbus"), CommunityID("community-1"))

	log.Info("event handled", MemberID("alice"))

	entry := decodeEntry(t, buf)
	assert.Equal(t, "eventbus", entry.Fields["component"])
	assert.Equal(t, "community-1", entry.Fields["community_id"])
	assert.Equal(t, "alice", entry.Fields["member_id"])
}

func TestLogger_ErrField(t *testing.T) {
	log, buf := newBufferLogger(LevelInfo)

	log.Error("save failed", Err(errors.New("disk full")))

	entry := decodeEntry(t, buf)
	assert.Equal(t, "ERROR", entry.Level)
	assert.Equal(t, "disk full", entry.Fields["error"])

	assert.Nil(t, Err(nil).Value)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelInfo, ParseLevel("INFO"))
	assert.Equal(t, LevelWarn, ParseLevel("warning"))
	assert.Equal(t, LevelError, ParseLevel(" error "))
	assert.Equal(t, LevelFatal, ParseLevel("FATAL"))
	// Неизвестный уровень безопасно деградирует в info
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "DEBUG", LevelDebug.String())
	assert.Equal(t, "FATAL", LevelFatal.String())
	assert.Equal(t, "UNKNOWN", Level(42).String())
}

func TestFieldConstructors(t *testing.T) {
	assert.Equal(t, Field{Key: "tier", Value: 2}, TierIndex(2))
	assert.Equal(t, Field{Key: "rank_name", Value: "Gold"}, RankName("Gold"))
	assert.Equal(t, Field{Key: "latency", Value: "1.5s"}, Latency(1500*time.Millisecond))
	assert.Equal(t, Field{Key: "flag", Value: true}, Bool("flag", true))
}

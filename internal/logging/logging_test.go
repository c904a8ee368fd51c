package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetup(t *testing.T) {
	l := Setup("debug", "text")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	l = Setup("nonsense", "json")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestFromContext_CarriesFields(t *testing.T) {
	Setup("info", "json")
	var buf bytes.Buffer
	base.SetOutput(&buf)
	t.Cleanup(func() { Setup("info", "json") })

	ctx := WithFields(context.Background(), logrus.Fields{"request_id": "r-1"})
	ctx = WithFields(ctx, logrus.Fields{"member_id": "m-1"})
	FromContext(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "r-1", line["request_id"])
	assert.Equal(t, "m-1", line["member_id"])
	assert.Equal(t, "hello", line["msg"])
}

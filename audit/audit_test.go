package audit

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BKH516/sahatu-admin-console/domain"
)

func TestRecordFillsIDAndTimestamp(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRecorder(buf)

	r.Record(domain.SecurityEvent{Type: domain.EventLoginSuccess, Subject: "admin@sahatu.example"})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.NotEmpty(t, entry["audit_id"])
	assert.Equal(t, string(domain.EventLoginSuccess), entry["event"])
	assert.Equal(t, "admin@sahatu.example", entry["subject"])
}

func TestRecordSanitizesHostileDetails(t *testing.T) {
	buf := &bytes.Buffer{}
	r := NewRecorder(buf)

	r.Record(domain.SecurityEvent{
		Type:    domain.EventRejectedMessage,
		Origin:  "https://evil.example",
		Details: `<script>document.location="https://evil.example"</script>`,
	})

	assert.NotContains(t, buf.String(), "<script>")
}

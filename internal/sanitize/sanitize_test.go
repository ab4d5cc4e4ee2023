package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInput(t *testing.T) {
	assert.Equal(t, "hello", Input("  hello  "))
	assert.Equal(t, "&lt;script&gt;", Input("<script>"))
}

func TestValidEmail(t *testing.T) {
	valid := []string{"admin@sahatu.example", "a.b+c@sub.domain.org"}
	invalid := []string{"", "no-at-sign", "@nodomain", "user@", "user@nodot", "two @spaces.com"}

	for _, e := range valid {
		assert.True(t, ValidEmail(e), e)
	}
	for _, e := range invalid {
		assert.False(t, ValidEmail(e), e)
	}
}

func TestSuspicious(t *testing.T) {
	assert.True(t, Suspicious(`<script>alert(1)</script>`))
	assert.True(t, Suspicious(`<img onerror=evil()>`))
	assert.True(t, Suspicious("JAVASCRIPT:void(0)"))
	assert.False(t, Suspicious("plain admin note about dosage"))
}

func TestSecureOrigin(t *testing.T) {
	assert.True(t, SecureOrigin("https://admin.sahatu.example"))
	assert.True(t, SecureOrigin("http://localhost:3000"))
	assert.True(t, SecureOrigin("http://127.0.0.1:8080"))
	assert.False(t, SecureOrigin("http://admin.sahatu.example"))
	assert.False(t, SecureOrigin("::not a url::"))
}

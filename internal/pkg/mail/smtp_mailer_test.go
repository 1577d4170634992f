package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncode(t *testing.T) {
	raw := string(encode("billing@streambill.local", Message{
		To:       "user@example.com",
		Subject:  "Your consolidated bill for 2026-03",
		HTMLBody: "<h2>Streambill</h2>",
	}))

	assert.Contains(t, raw, "From: billing@streambill.local\r\n")
	assert.Contains(t, raw, "To: user@example.com\r\n")
	assert.Contains(t, raw, "Subject: Your consolidated bill for 2026-03\r\n")
	assert.Contains(t, raw, "Content-Type: text/html; charset=UTF-8\r\n\r\n<h2>Streambill</h2>")
}

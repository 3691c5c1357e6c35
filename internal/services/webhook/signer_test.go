package webhook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	body := []byte(`{"event_type":"transaction.paid","amount":10000}`)
	ts := time.Now().Unix()

	header := Sign("whsec_secret", ts, body)
	assert.True(t, Verify("whsec_secret", header, body))
}

func TestVerifyRejectsTampering(t *testing.T) {
	body := []byte(`{"amount":10000}`)
	header := Sign("whsec_secret", 1700000000, body)

	assert.False(t, Verify("whsec_secret", header, []byte(`{"amount":99999}`)), "body changed")
	assert.False(t, Verify("other_secret", header, body), "wrong secret")
	assert.False(t, Verify("whsec_secret", "t=1700000000,v1=deadbeef", body), "forged digest")
	assert.False(t, Verify("whsec_secret", "", body), "empty header")
	assert.False(t, Verify("whsec_secret", "v1=abc", body), "missing timestamp")
}

func TestVerifyIgnoresUnknownSegments(t *testing.T) {
	body := []byte(`{}`)
	header := Sign("s", 42, body)

	assert.True(t, Verify("s", header+",v0=legacy", body))
}

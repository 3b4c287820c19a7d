package codec

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateTimeEpoch(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).WriteDateTime(domainMinTime))
	assert.Equal(t, make([]byte, 8), buf.Bytes())

	got, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadDateTime()
	require.NoError(t, err)
	assert.True(t, got.Equal(domainMinTime))
}

func TestDateTimeBeforeEpochClampsToZero(t *testing.T) {
	before := domainMinTime.Add(-time.Hour)

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).WriteDateTime(before))
	assert.Equal(t, make([]byte, 8), buf.Bytes())
}

func TestDateTimeRoundTrip(t *testing.T) {
	now := time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).WriteDateTime(now))

	got, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadDateTime()
	require.NoError(t, err)
	assert.True(t, got.Equal(now))
}

func TestDateTimeMaxClamp(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewEncoder(&buf).WriteInt64(maxTicks))

	got, err := NewDecoder(bytes.NewReader(buf.Bytes())).ReadDateTime()
	require.NoError(t, err)
	assert.True(t, got.Equal(domainMaxTime))
}

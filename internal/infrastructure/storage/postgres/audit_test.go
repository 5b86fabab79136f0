package postgres

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditCodecRoundTrip(t *testing.T) {
	codec, err := newAuditCodec()
	require.NoError(t, err)

	big := json.RawMessage(`{"note":"` + string(bytes.Repeat([]byte("x"), 2048)) + `"}`)
	entry := AuditEntry{Changes: big}

	codec.pack(&entry, 1024)
	assert.Equal(t, CompressionZstd, entry.CompressionAlgo)
	assert.Nil(t, entry.Changes)
	assert.Less(t, len(entry.ChangesCompressed), len(big))

	require.NoError(t, codec.unpack(&entry))
	assert.JSONEq(t, string(big), string(entry.Changes))
	assert.Nil(t, entry.ChangesCompressed)
}

func TestAuditCodecKeepsSmallChanges(t *testing.T) {
	codec, err := newAuditCodec()
	require.NoError(t, err)

	entry := AuditEntry{Changes: json.RawMessage(`{"to":"confirmed"}`)}
	codec.pack(&entry, 1024)

	assert.Equal(t, CompressionNone, entry.CompressionAlgo)
	assert.Nil(t, entry.ChangesCompressed)
	require.NoError(t, codec.unpack(&entry))
	assert.JSONEq(t, `{"to":"confirmed"}`, string(entry.Changes))
}

package serve

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequest_ExplodeUnmarshal(t *testing.T) {
	input := `{"type":"explode","payload":{"path":"/tmp/sample.zip","maxDepth":3,"deleteAfterExtraction":true}}`

	var req Request
	err := json.Unmarshal([]byte(input), &req)
	require.NoError(t, err)

	assert.Equal(t, "explode", req.Type)

	var payload ExplodePayload
	err = json.Unmarshal(req.Payload, &payload)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/sample.zip", payload.Path)
	require.NotNil(t, payload.MaxDepth)
	assert.Equal(t, 3, *payload.MaxDepth)
	require.NotNil(t, payload.DeleteAfterExtraction)
	assert.True(t, *payload.DeleteAfterExtraction)
}

func TestRequest_ExplodeOverridesAbsentByDefault(t *testing.T) {
	input := `{"type":"explode","payload":{"path":"/tmp/sample.zip"}}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(input), &req))

	var payload ExplodePayload
	require.NoError(t, json.Unmarshal(req.Payload, &payload))

	assert.Nil(t, payload.MaxDepth)
	assert.Nil(t, payload.DeleteAfterExtraction)
}

func TestRequest_ContentDecodesBase64(t *testing.T) {
	input := `{"type":"explode","payload":{"content":"aGVsbG8=","name":"hello.txt"}}`

	var req Request
	require.NoError(t, json.Unmarshal([]byte(input), &req))

	var payload ExplodePayload
	require.NoError(t, json.Unmarshal(req.Payload, &payload))

	assert.Equal(t, []byte("hello"), payload.Content)
	assert.Equal(t, "hello.txt", payload.Name)
}

func TestResponse_Marshal(t *testing.T) {
	resp := Response{
		Success: true,
		Type:    "ready",
	}

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"success":true`)
	assert.Contains(t, string(data), `"type":"ready"`)
}

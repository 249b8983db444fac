package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	cserrors "github.com/manpreetbhatti/codesync/internal/errors"
)

func TestBytesJSON(t *testing.T) {
	data, err := json.Marshal(Bytes{0, 1, 255})
	require.NoError(t, err)
	assert.JSONEq(t, `[0,1,255]`, string(data))

	data, err = json.Marshal(Bytes(nil))
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	var b Bytes
	require.NoError(t, json.Unmarshal([]byte(`[ 7, 8 ,9]`), &b))
	assert.Equal(t, Bytes{7, 8, 9}, b)
}

func TestBytesRejectsNonBytes(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"out of range", `[256]`},
		{"negative", `[-1]`},
		{"fraction", `[1.5]`},
		{"string", `"AQID"`},
		{"object", `{"0":1}`},
		{"string element", `["a"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var b Bytes
			assert.Error(t, json.Unmarshal([]byte(tt.input), &b))
		})
	}
}

func TestParse(t *testing.T) {
	msg, err := Parse([]byte(`{"userName":"room-1","type":"init","fileName":"main","fileExtension":".py"}`))
	require.NoError(t, err)
	assert.Equal(t, "room-1", msg.UserName)
	assert.Equal(t, TypeInit, msg.Type)
	assert.Equal(t, "main", msg.FileName)
	assert.Equal(t, ".py", msg.FileExtension)
	assert.False(t, msg.HasUpdate())

	_, err = Parse([]byte(`not json`))
	assert.True(t, cserrors.Is(err, cserrors.ErrCodeMalformedMessage))
}

func TestUpdateBytes(t *testing.T) {
	msg, err := Parse([]byte(`{"userName":"r","type":"update","update":[1,2,3]}`))
	require.NoError(t, err)
	update, err := msg.UpdateBytes()
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, update)

	msg, _ = Parse([]byte(`{"userName":"r","type":"update","update":null}`))
	_, err = msg.UpdateBytes()
	assert.True(t, cserrors.Is(err, cserrors.ErrCodeInvalidUpdate))

	msg, _ = Parse([]byte(`{"userName":"r","type":"update","update":"abc"}`))
	_, err = msg.UpdateBytes()
	assert.True(t, cserrors.Is(err, cserrors.ErrCodeInvalidUpdate))
}

func TestOutboundEnvelopes(t *testing.T) {
	assert.JSONEq(t, `{"type":"welcome","message":"Connected to server"}`, string(Welcome()))
	assert.JSONEq(t, `{"type":"init","file":"main","extension":".js","update":[4,5]}`,
		string(Init("main", ".js", []byte{4, 5})))
	assert.JSONEq(t, `{"type":"init","file":"main","extension":".js","update":[]}`,
		string(Init("main", ".js", nil)))
	assert.JSONEq(t, `{"type":"error","message":"Unknown type"}`,
		string(Error(cserrors.UnknownMessageType("cursor"))))
}

func TestRelayKeepsPayload(t *testing.T) {
	msg, err := Parse([]byte(`{"userName":"r","type":"awareness","update":[10,20,30]}`))
	require.NoError(t, err)

	out := Relay(msg.Type, msg.Update)
	assert.JSONEq(t, `{"type":"awareness","update":[10,20,30]}`, string(out))
}

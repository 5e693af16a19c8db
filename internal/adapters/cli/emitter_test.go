package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

func TestEmitter_JSONIsCanonical(t *testing.T) {
	var out, errOut bytes.Buffer
	e := NewEmitter(&out, &errOut, true, false)

	env := Succeed(CmdFeedbackAdd, map[string]any{"id": 3, "a": "<b>"}, success("Saved feedback #3"))
	require.NoError(t, e.Emit(env))

	assert.Equal(t,
		`{"command":"feedback.add","lines":["Saved feedback #3"],"ok":true,"result":{"a":"<b>","id":3},"schema_version":"v5"}`+"\n",
		out.String())
	assert.Empty(t, errOut.String())
}

func TestEmitter_JSONErrorGoesToStdout(t *testing.T) {
	var out, errOut bytes.Buffer
	e := NewEmitter(&out, &errOut, true, false)

	require.NoError(t, e.Emit(Fail(CmdRunsShow, errors.New("boom"))))

	assert.Equal(t,
		`{"command":"runs.show","error":{"code":"INTERNAL_ERROR","details":{},"message":"boom"},"ok":false,"schema_version":"v5"}`+"\n",
		out.String())
}

func TestEmitter_Human(t *testing.T) {
	var out, errOut bytes.Buffer
	e := NewEmitter(&out, &errOut, false, false)

	require.NoError(t, e.Emit(Succeed(CmdAuthStatus, nil, emphasis("Auth mode: token"), plain("Token: not configured"))))
	require.NoError(t, e.Emit(Fail(CmdAuthStatus, errors.New("boom"))))

	assert.Equal(t, "Auth mode: token\nToken: not configured\n", out.String())
	assert.Equal(t, "INTERNAL_ERROR: boom\n", errOut.String())
}

func TestEmitter_QuietSuppressesSuccessLinesOnly(t *testing.T) {
	var out, errOut bytes.Buffer
	e := NewEmitter(&out, &errOut, false, true)

	require.NoError(t, e.Emit(Succeed(CmdFeedbackAdd, nil, plain("Saved feedback #1"))))
	require.NoError(t, e.Emit(Fail(CmdFeedbackAdd, errors.New("boom"))))

	assert.Empty(t, out.String())
	assert.Equal(t, "INTERNAL_ERROR: boom\n", errOut.String())
}

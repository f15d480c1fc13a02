package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrapKeepsCode(t *testing.T) {
	base := NotFound("chart kind \"scatter\"")
	wrapped := Wrap(base, "page lookup failed")

	assert.Equal(t, CodeNotFound, GetCode(wrapped))
	assert.True(t, Is(wrapped, base))
	assert.Equal(t, "page lookup failed: chart kind \"scatter\" not found", wrapped.Error())
}

func TestWrapPlainErrorIsInternal(t *testing.T) {
	err := Wrap(fmt.Errorf("boom"), "store failed")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	err := fmt.Errorf("handler: %w", InvalidInput("bad row"))
	assert.Equal(t, CodeInvalidInput, GetCode(err))
	assert.True(t, IsAppError(err))
	assert.Equal(t, "UNKNOWN", GetCode(fmt.Errorf("plain")))
}

func TestWithCode(t *testing.T) {
	err := WithCode(CodeRenderFailed, fmt.Errorf("parse error on line 2"))
	assert.Equal(t, CodeRenderFailed, GetCode(err))
	assert.Equal(t, "parse error on line 2", err.Error())
}

func TestRenderFailed(t *testing.T) {
	cause := fmt.Errorf("lexical error")
	err := RenderFailed("diagram compile failed", cause)
	assert.Equal(t, CodeRenderFailed, err.Code)
	assert.True(t, Is(err, cause))
}

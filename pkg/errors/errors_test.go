package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/trademark-screening/pkg/errors"
)

func TestNew_FieldsAreSetCorrectly(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		code    errors.ErrorCode
		message string
	}{
		{"internal", errors.CodeInternal, "unexpected failure"},
		{"invalid candidate", errors.ErrCodeCandidateInvalid, "name is required"},
		{"collaborator", errors.ErrCodeCollaboratorUnavailable, "tokenizer unavailable"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ae := errors.New(tc.code, tc.message)
			require.NotNil(t, ae)
			assert.Equal(t, tc.code, ae.Code)
			assert.Equal(t, tc.message, ae.Message)
			assert.Empty(t, ae.Detail)
			assert.Nil(t, ae.Cause)
		})
	}
}

func TestWrap_NilErrReturnsNil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, errors.Wrap(nil, errors.CodeInternal, "ignored"))
}

func TestWrap_CauseChainIsPreserved(t *testing.T) {
	t.Parallel()

	root := stderrors.New("connection refused")
	ae := errors.Wrap(root, errors.ErrCodeCollaboratorUnavailable, "search index unreachable")

	require.NotNil(t, ae)
	assert.True(t, stderrors.Is(ae, root))
	assert.Equal(t, "[TM_002] search index unreachable: connection refused", ae.Error())
}

func TestWrap_UnknownCodePreservesOriginal(t *testing.T) {
	t.Parallel()

	inner := errors.New(errors.ErrCodeCollaboratorTimeout, "embedding timed out")
	outer := errors.Wrap(fmt.Errorf("distinctiveness: %w", inner), errors.CodeUnknown, "check failed")

	assert.Equal(t, errors.ErrCodeCollaboratorTimeout, outer.Code)
	assert.Equal(t, errors.KindCollaboratorUnavailable, outer.Kind())
}

func TestError_WithDetail(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeCandidateInvalid, "invalid candidate").WithDetail("name is blank")
	assert.Equal(t, "[TM_001] invalid candidate: name is blank", ae.Error())

	var nilErr *errors.AppError
	assert.Nil(t, nilErr.WithDetail("x"))
	assert.Nil(t, nilErr.WithCause(stderrors.New("x")))
}

func TestIsCode_TraversesChain(t *testing.T) {
	t.Parallel()

	ae := errors.New(errors.ErrCodeCheckComputation, "boom")
	wrapped := fmt.Errorf("phonetic: %w", ae)

	assert.True(t, errors.IsCode(wrapped, errors.ErrCodeCheckComputation))
	assert.False(t, errors.IsCode(wrapped, errors.ErrCodeCandidateInvalid))
	assert.False(t, errors.IsCode(nil, errors.ErrCodeCheckComputation))
}

func TestGetCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, errors.CodeOK, errors.GetCode(nil))
	assert.Equal(t, errors.CodeUnknown, errors.GetCode(stderrors.New("plain")))
	assert.Equal(t, errors.ErrCodeCollaboratorTimeout,
		errors.GetCode(errors.New(errors.ErrCodeCollaboratorTimeout, "slow")))
}

func TestAs_WrapsForeignErrors(t *testing.T) {
	t.Parallel()

	plain := stderrors.New("nan in vector")
	ae := errors.As(plain, errors.ErrCodeCheckComputation)
	require.NotNil(t, ae)
	assert.Equal(t, errors.ErrCodeCheckComputation, ae.Code)
	assert.True(t, stderrors.Is(ae, plain))

	original := errors.NotFound("missing")
	assert.Same(t, original, errors.As(original, errors.CodeInternal))
	assert.Nil(t, errors.As(nil, errors.CodeInternal))
}

func TestUnavailable(t *testing.T) {
	t.Parallel()

	ae := errors.Unavailable("tokenizer", stderrors.New("dial tcp"))
	assert.Equal(t, errors.ErrCodeCollaboratorUnavailable, ae.Code)
	assert.Equal(t, "tokenizer unavailable", ae.Message)
	assert.True(t, errors.IsNotFound(errors.NotFound("x")))
}

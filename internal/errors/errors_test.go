package errors

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategorySeverityAndRetryableFromCode(t *testing.T) {
	cases := []struct {
		code      string
		category  Category
		severity  Severity
		retryable bool
	}{
		{ErrCodeStoreOpenFailed, CategoryStorageFatal, SeverityFatal, false},
		{ErrCodeInsertFailed, CategoryStorageRecoverable, SeverityWarning, false},
		{ErrCodeDimensionMismatch, CategoryDimensionMismatch, SeverityError, false},
		{ErrCodeRerankBackendUnavailable, CategoryBackendFailure, SeverityError, true},
		{ErrCodeRerankTimeout, CategoryBackendFailure, SeverityError, true},
		{ErrCodeRerankMalformedResponse, CategoryBackendFailure, SeverityError, false},
		{ErrCodeRerankFrozenBatch, CategoryAnomaly, SeverityInfo, false},
	}
	for _, tc := range cases {
		err := New(tc.code, "boom", nil)
		assert.Equalf(t, tc.category, err.Category, "code=%s", tc.code)
		assert.Equalf(t, tc.severity, err.Severity, "code=%s", tc.code)
		assert.Equalf(t, tc.retryable, err.Retryable, "code=%s", tc.code)
	}
}

func TestDimensionMismatch_CarriesExpectedAndGotDetails(t *testing.T) {
	err := DimensionMismatch(384, 256)
	assert.Equal(t, ErrCodeDimensionMismatch, err.Code)
	assert.Equal(t, "384", err.Details["expected"])
	assert.Equal(t, "256", err.Details["got"])
	assert.Equal(t, CategoryDimensionMismatch, err.Category)
}

func TestRetrievalError_ErrorFormatsCodeAndMessage(t *testing.T) {
	err := New(ErrCodeQuerySyntax, "unterminated quote", nil)
	assert.Equal(t, "[ERR_202_QUERY_SYNTAX] unterminated quote", err.Error())
}

func TestRetrievalError_UnwrapReturnsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := New(ErrCodeInsertFailed, "insert failed", cause)
	assert.Equal(t, cause, err.Unwrap())
	assert.ErrorIs(t, err, cause)
}

func TestRetrievalError_IsMatchesByCode(t *testing.T) {
	a := New(ErrCodeDimensionMismatch, "a", nil)
	b := New(ErrCodeDimensionMismatch, "b", nil)
	c := New(ErrCodeQuerySyntax, "c", nil)
	assert.True(t, a.Is(b))
	assert.False(t, a.Is(c))
}

func TestWrap_NilErrorReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInsertFailed, nil))
}

func TestWrap_PreservesMessageAndCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(ErrCodeInsertFailed, cause)
	require.NotNil(t, err)
	assert.Equal(t, "boom", err.Message)
	assert.Equal(t, cause, err.Cause)
}

func TestWithDetail_Chains(t *testing.T) {
	err := New(ErrCodeInsertFailed, "x", nil).WithDetail("table", "embeddings").WithDetail("row", "5")
	assert.Equal(t, "embeddings", err.Details["table"])
	assert.Equal(t, "5", err.Details["row"])
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(New(ErrCodeRerankTimeout, "x", nil)))
	assert.False(t, IsRetryable(New(ErrCodeInsertFailed, "x", nil)))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(errors.New("plain")))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(New(ErrCodeStoreOpenFailed, "x", nil)))
	assert.False(t, IsFatal(New(ErrCodeInsertFailed, "x", nil)))
	assert.False(t, IsFatal(nil))
}

func TestGetCodeAndCategory(t *testing.T) {
	err := New(ErrCodeSchemaCorrupt, "x", nil)
	assert.Equal(t, ErrCodeSchemaCorrupt, GetCode(err))
	assert.Equal(t, CategoryStorageFatal, GetCategory(err))
	assert.Equal(t, "", GetCode(errors.New("plain")))
	assert.Equal(t, Category(""), GetCategory(errors.New("plain")))
}

func TestCircuitBreaker_OpensAfterMaxFailures(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(2), WithResetTimeout(50*time.Millisecond))
	assert.True(t, cb.Allow())

	cb.RecordFailure()
	assert.True(t, cb.Allow())
	cb.RecordFailure()
	assert.False(t, cb.Allow())
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_HalfOpensAfterResetTimeout(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1), WithResetTimeout(10*time.Millisecond))
	cb.RecordFailure()
	require.False(t, cb.Allow())

	time.Sleep(15 * time.Millisecond)
	assert.Equal(t, StateHalfOpen, cb.State())
	assert.True(t, cb.Allow())
}

func TestCircuitBreaker_SuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(3))
	cb.RecordFailure()
	cb.RecordFailure()
	cb.RecordSuccess()
	assert.Equal(t, 0, cb.Failures())
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ExecuteRecordsOutcome(t *testing.T) {
	cb := NewCircuitBreaker("test", WithMaxFailures(1))

	err := cb.Execute(func() error { return errors.New("boom") })
	assert.Error(t, err)
	assert.Equal(t, StateOpen, cb.State())

	err = cb.Execute(func() error { return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
}

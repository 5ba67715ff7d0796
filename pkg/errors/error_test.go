package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeNoDataForSymbol, "no data for symbol '%s'", "pzu")
	suite.NotNil(err)
	suite.Equal(ErrCodeNoDataForSymbol, err.Code)
	suite.Equal("no data for symbol 'pzu'", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestWrapError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeQueryFailed, "query failed", cause)
	suite.NotNil(err)
	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Equal("query failed", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeQueryFailed, cause, "query failed for symbol: %s", "pko")
	suite.NotNil(err)
	suite.Equal(ErrCodeQueryFailed, err.Code)
	suite.Equal("query failed for symbol: pko", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNoDataForSymbol, "no data for symbol", cause)
	suite.Equal("[200] no data for symbol: underlying error", err.Error())
}

func (suite *ErrorTestSuite) TestUnwrap() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNoDataForSymbol, "no data for symbol", cause)
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestUnwrapNil() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Nil(err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal(ErrCodeInvalidParameter, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	cause := New(ErrCodeNoDataForSymbol, "no data for symbol")
	err := Wrap(ErrCodeEmptyReturns, "no valid returns", cause)
	// GetCode should return the outermost error's code
	suite.Equal(ErrCodeEmptyReturns, GetCode(err))
}

func (suite *ErrorTestSuite) TestGetCodeFromStandardError() {
	err := errors.New("standard error")
	suite.Equal(ErrCodeUnknown, GetCode(err))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.True(HasCode(err, ErrCodeInvalidParameter))
	suite.False(HasCode(err, ErrCodeNoDataForSymbol))
}

func (suite *ErrorTestSuite) TestIsError() {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNoDataForSymbol, "no data for symbol", cause)
	suite.True(Is(err, cause))
}

func (suite *ErrorTestSuite) TestMissingColumnsError() {
	err := NewMissingColumnsError([]string{"signal", "ret_1d"})
	suite.Equal("missing required columns: [signal, ret_1d]", err.Error())
	suite.True(IsMissingColumnsError(err))
}

func (suite *ErrorTestSuite) TestMissingColumnsErrorWrapped() {
	cause := NewMissingColumnsError([]string{"close"})
	err := Wrap(ErrCodeMissingColumn, "panel validation failed", cause)
	suite.True(IsMissingColumnsError(err))

	var missingErr *MissingColumnsError
	suite.True(As(err, &missingErr))
	suite.Equal([]string{"close"}, missingErr.Columns)
}

func (suite *ErrorTestSuite) TestIsMissingColumnsErrorFalse() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.False(IsMissingColumnsError(err))
}

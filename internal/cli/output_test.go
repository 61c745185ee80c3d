package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/storefront/internal/shop"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]int{"deleted": 3})
	require.NoError(t, err)

	resp := decodeResponse(t, buf)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"deleted": float64(3)}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("not_found", "store 9 does not exist", map[string]int{"store_id": 9})
	require.NoError(t, err)

	resp := decodeResponse(t, buf)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "not_found", resp.Error.Code)
	assert.Equal(t, "store 9 does not exist", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error("empty_cart", "nothing to check out", "user ana"))
			assert.Contains(t, buf.String(), "Error [empty_cart]: nothing to check out")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details: user ana")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_Render(t *testing.T) {
	text := func(w io.Writer) error {
		_, err := fmt.Fprintln(w, "Added store 1")
		return err
	}

	buf := &bytes.Buffer{}
	require.NoError(t, (&OutputFormatter{Format: "text", Writer: buf}).Render(map[string]int{"id": 1}, text))
	assert.Equal(t, "Added store 1\n", buf.String())

	buf.Reset()
	require.NoError(t, (&OutputFormatter{Format: "json", Writer: buf}).Render(map[string]int{"id": 1}, text))
	resp := decodeResponse(t, buf)
	assert.Equal(t, "ok", resp.Status)
	assert.NotContains(t, buf.String(), "Added store")
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		wantLog bool
	}{
		{"verbose_enabled", true, true},
		{"verbose_disabled", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			errOut := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:    "json",
				Writer:    out,
				ErrWriter: errOut,
				Verbose:   tt.verbose,
			}

			formatter.VerboseLog("opening %s", "storefront.db")

			assert.Empty(t, out.String(), "diagnostics never corrupt JSON output")
			if tt.wantLog {
				assert.Contains(t, errOut.String(), "opening storefront.db")
			} else {
				assert.Empty(t, errOut.String())
			}
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitFailure, "rejected", shop.ErrNotFound))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
}

func TestExitError_Unwraps(t *testing.T) {
	err := WrapExitError(ExitFailure, "failed to add store", shop.ErrDuplicateKey)
	assert.ErrorIs(t, err, shop.ErrDuplicateKey)
	assert.Equal(t, "failed to add store: shop: duplicate key", err.Error())
	assert.Equal(t, "bad flag", NewExitError(ExitCommandError, "bad flag").Error())
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{failed("x", shop.ErrNotFound), "not_found"},
		{failed("x", shop.ErrDuplicateKey), "duplicate_key"},
		{failed("x", shop.ErrInvalid), "invalid"},
		{failed("x", shop.ErrEmptyCart), "empty_cart"},
		{failed("x", shop.ErrInsufficientStock), "insufficient_stock"},
		{failed("x", &shop.CascadeError{Completed: []string{"products"}, Err: errors.New("io")}), "partial_cascade"},
		{NewExitError(ExitCommandError, "bad flag"), "command_error"},
		{errors.New("boom"), "internal"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ErrorCode(tt.err), tt.err.Error())
	}
}

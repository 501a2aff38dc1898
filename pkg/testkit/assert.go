package testkit

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertCalled fails the test unless the fake received method on exactly
// path at least once.
func AssertCalled(t testing.TB, api *FakeAPI, method, path string) bool {
	t.Helper()
	for _, c := range api.Calls() {
		if c.Method == method && c.Path == path {
			return true
		}
	}
	return assert.Fail(t, fmt.Sprintf("expected %s %s to be called", method, path), "calls:\n%s", describe(api.Calls()))
}

// AssertNotCalled fails the test if the fake received method on path.
func AssertNotCalled(t testing.TB, api *FakeAPI, method, path string) bool {
	t.Helper()
	for _, c := range api.Calls() {
		if c.Method == method && c.Path == path {
			return assert.Fail(t, fmt.Sprintf("expected %s %s not to be called", method, path), "calls:\n%s", describe(api.Calls()))
		}
	}
	return true
}

// AssertNoWrites fails the test if the fake received anything but GETs.
func AssertNoWrites(t testing.TB, api *FakeAPI) bool {
	t.Helper()
	writes := api.Writes()
	return assert.Empty(t, writes, "unexpected writes:\n%s", describe(writes))
}

// AssertJSONBody compares a recorded body against expected JSON, ignoring
// key order and whitespace.
func AssertJSONBody(t testing.TB, expected string, c Call) bool {
	t.Helper()
	var expVal, actVal interface{}
	require.NoError(t, json.Unmarshal([]byte(expected), &expVal), "expected body is not valid JSON")
	if !assert.NoError(t, json.Unmarshal(c.Body, &actVal), "%s %s body is not valid JSON: %s", c.Method, c.Path, string(c.Body)) {
		return false
	}
	return assert.Equal(t, expVal, actVal, "%s %s body mismatch", c.Method, c.Path)
}

// Only returns the single call in calls, failing the test otherwise.
func Only(t testing.TB, calls []Call) Call {
	t.Helper()
	require.Len(t, calls, 1, "calls:\n%s", describe(calls))
	return calls[0]
}

func describe(calls []Call) string {
	var b strings.Builder
	for _, c := range calls {
		fmt.Fprintf(&b, "  %s %s %s\n", c.Method, c.Path, strings.TrimSpace(string(c.Body)))
	}
	if b.Len() == 0 {
		return "  (none)\n"
	}
	return b.String()
}

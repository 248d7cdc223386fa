package testkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertStatusCode checks the response code with testify.
func AssertStatusCode(t *testing.T, scenario *Scenario, got int) {
	t.Helper()
	assert.Equal(t, scenario.ExpectedCode, got,
		"[%s] HTTP status code mismatch", scenario.Name)
}

// AssertJSONBody compares expected and actual after decoding both, so key
// order and whitespace never matter. Keys named in IgnoreFields are removed
// from top-level objects (and from each element of a top-level array) first.
func AssertJSONBody(t *testing.T, scenario *Scenario, expected, actual []byte) {
	t.Helper()
	if len(expected) == 0 {
		return
	}

	var expVal, actVal interface{}
	require.NoError(t, json.Unmarshal(expected, &expVal),
		"[%s] expected response file is not valid JSON", scenario.Name)

	if !assert.NoError(t, json.Unmarshal(actual, &actVal),
		"[%s] actual response is not valid JSON\nbody: %s", scenario.Name, string(actual)) {
		return
	}

	for _, key := range scenario.IgnoreFields {
		dropKey(expVal, key)
		dropKey(actVal, key)
	}

	assert.Equal(t, expVal, actVal, "[%s] response body mismatch", scenario.Name)
}

func dropKey(v interface{}, key string) {
	switch val := v.(type) {
	case map[string]interface{}:
		delete(val, key)
	case []interface{}:
		for _, el := range val {
			if m, ok := el.(map[string]interface{}); ok {
				delete(m, key)
			}
		}
	}
}

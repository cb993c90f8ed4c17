package utils

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ParseJSONResponse attempts to parse a string response as JSON.
func ParseJSONResponse(response string) (map[string]interface{}, error) {
	var result map[string]interface{}
	err := json.Unmarshal([]byte(response), &result)
	if err != nil {
		return nil, fmt.Errorf("failed to parse response as JSON: %w", err)
	}
	return result, nil
}

// RenderMap formats a map as "key: value" lines with deterministic key
// order, for embedding structured inputs and outputs in prompt text.
func RenderMap(values map[string]interface{}) string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %v\n", k, values[k])
	}
	return strings.TrimSuffix(b.String(), "\n")
}

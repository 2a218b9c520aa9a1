package mcpserver

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

var errArgType = errors.New("wrong argument type")

// optString returns the string argument key, or nil when it was not passed.
func optString(req mcp.CallToolRequest, key string) (*string, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}

	s, ok := raw.(string)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a string", errArgType, key)
	}

	return &s, nil
}

// optStrings returns the string list argument key, or nil when it was not
// passed. A single comma separated string is accepted too.
func optStrings(req mcp.CallToolRequest, key string) (*[]string, error) {
	raw, ok := req.GetArguments()[key]
	if !ok || raw == nil {
		return nil, nil
	}

	var out []string

	switch v := raw.(type) {
	case string:
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	case []any:
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %s must be a list of strings", errArgType, key)
			}

			out = append(out, s)
		}
	case []string:
		out = v
	default:
		return nil, fmt.Errorf("%w: %s must be a list of strings", errArgType, key)
	}

	if out == nil {
		out = []string{}
	}

	return &out, nil
}

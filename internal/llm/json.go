package llm

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/newthinker/folio/internal/core"
)

// codeBlockRe matches the first fenced block, with an optional "json" tag or
// any other info string terminated by a newline.
var codeBlockRe = regexp.MustCompile("```(?:json|[^\n]*\n)?([\\s\\S]*?)```")

// ParseJSON parses model output as JSON. The whole text is tried first, then
// the body of the first fenced code block. The parsed value is not validated
// against any shape.
func ParseJSON(response string) (any, error) {
	var v any
	if _, err := extractJSON(response, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeJSON locates JSON the same way as ParseJSON and decodes it into v.
func DecodeJSON(response string, v any) error {
	raw, err := extractJSON(response, new(any))
	if err != nil {
		return err
	}
	if err := sonic.ConfigStd.UnmarshalFromString(raw, v); err != nil {
		return fmt.Errorf("decoding JSON: %w", err)
	}
	return nil
}

// extractJSON returns the JSON text that successfully parsed into v.
func extractJSON(response string, v any) (string, error) {
	if err := sonic.ConfigStd.UnmarshalFromString(response, v); err == nil {
		return response, nil
	}

	m := codeBlockRe.FindStringSubmatch(response)
	if m == nil || m[1] == "" {
		return "", core.ErrNoJSON
	}

	body := strings.TrimSpace(m[1])
	if err := sonic.ConfigStd.UnmarshalFromString(body, v); err != nil {
		return "", core.WrapError(core.ErrCodeBlockJSON, err)
	}
	return body, nil
}

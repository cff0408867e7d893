package usecase

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/organicai/scanner/internal/domain"
)

// codeFenceRegex matches a reply wrapped in a markdown code block
var codeFenceRegex = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// ParseProduct decodes a model reply into a Product. Models often wrap JSON in
// a markdown code block; the fence is stripped before decoding. No schema
// validation is applied beyond the JSON structure itself.
func ParseProduct(reply string) (*domain.Product, error) {
	text := cleanReply(reply)
	if text == "" {
		return nil, fmt.Errorf("%w: empty reply", domain.ErrParse)
	}

	var product domain.Product
	if err := json.Unmarshal([]byte(text), &product); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}

	return &product, nil
}

// cleanReply trims whitespace and an enclosing code fence
func cleanReply(reply string) string {
	text := strings.TrimSpace(reply)
	if m := codeFenceRegex.FindStringSubmatch(text); m != nil {
		text = m[1]
	}
	return strings.TrimSpace(text)
}

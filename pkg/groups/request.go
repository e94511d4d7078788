package groups

import (
	"fmt"
	"maps"

	"github.com/aretw0/automator/pkg/domain"
	"github.com/aretw0/automator/pkg/validation"
	"github.com/mitchellh/mapstructure"
)

// DecodeCreateRequest decodes a raw request as parsed from JSON or YAML.
// Action ids go through validation.ParseActionIDs so format errors keep
// domain.ErrInvalidActionID; other decode errors wrap domain.ErrInvalidRequest.
// Condition configs are passed through untouched for the factory to check.
func DecodeCreateRequest(raw map[string]any) (CreateRequest, error) {
	rest := maps.Clone(raw)
	ids, err := validation.ParseActionIDs(rest["action_ids"])
	if err != nil {
		return CreateRequest{}, err
	}
	delete(rest, "action_ids")

	var req CreateRequest
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &req,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return CreateRequest{}, err
	}
	if err := dec.Decode(rest); err != nil {
		return CreateRequest{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	req.ActionIDs = ids
	return req, nil
}

// DecodeCreateRequests decodes a list of raw requests, failing on the first bad one.
func DecodeCreateRequests(raw []any) ([]CreateRequest, error) {
	out := make([]CreateRequest, 0, len(raw))
	for i, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: group %d is %T, not an object", domain.ErrInvalidRequest, i, item)
		}
		req, err := DecodeCreateRequest(m)
		if err != nil {
			return nil, fmt.Errorf("group %d: %w", i, err)
		}
		out = append(out, req)
	}
	return out, nil
}

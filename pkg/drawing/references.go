package drawing

import (
	"context"
	"fmt"
	"sort"

	"github.com/mitchellh/mapstructure"
)

// Reference is a resolved reference of a drawing to the element it depicts.
type Reference struct {
	TargetDocumentID            string `json:"targetDocumentId,omitempty"`
	TargetElementID             string `json:"targetElementId,omitempty"`
	TargetVersionID             string `json:"targetVersionId,omitempty"`
	TargetElementMicroversionID string `json:"targetElementMicroversionId"`
	LatestElementMicroversionID string `json:"latestElementMicroversionId"`
}

// OutOfDate returns true if the referenced element changed since the drawing
// was last updated.
func (r Reference) OutOfDate() bool {
	return r.LatestElementMicroversionID != r.TargetElementMicroversionID
}

// ResolvedReferences is the resolve references document of one drawing.
type ResolvedReferences struct {
	ResolvedReferences []Reference `json:"resolvedReferences"`
}

// OutOfDate returns the references that need an update.
func (r ResolvedReferences) OutOfDate() []Reference {
	var out []Reference
	for _, ref := range r.ResolvedReferences {
		if ref.OutOfDate() {
			out = append(out, ref)
		}
	}
	return out
}

// NeedsUpdate returns the out of date references of the drawing. The drawing
// needs an update when the result is not empty.
func (s *Service) NeedsUpdate(ctx context.Context, t Target) ([]Reference, error) {
	path := t.elementPath("api/v9/appelements") + "/resolvereferences?includeInternal=false"

	s.logger.Info("initiated retrieval of drawing references", "target", t.String())

	var resp ResolvedReferences
	if err := s.api.Get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("error getting drawing references: %w", err)
	}
	return resp.OutOfDate(), nil
}

// WorkspaceDrawingsNeedingUpdate returns the sorted element ids of the
// drawings in the target's workspace that need an update.
func (s *Service) WorkspaceDrawingsNeedingUpdate(ctx context.Context, t Target) ([]string, error) {
	if !t.IsWorkspace() {
		return nil, ErrNotWorkspace
	}

	// drawingsOnly=true is required for this endpoint.
	path := fmt.Sprintf(
		"api/v9/appelements/d/%s/w/%s/resolvereferences?includeInternal=false&drawingsOnly=true",
		t.DocumentID, t.WorkspaceID)

	s.logger.Info("initiated retrieval of workspace drawing references", "document", t.DocumentID)

	var raw map[string]any
	if err := s.api.Get(ctx, path, &raw); err != nil {
		return nil, fmt.Errorf("error getting workspace drawing references: %w", err)
	}

	byElement, err := decodeWorkspaceReferences(raw)
	if err != nil {
		return nil, err
	}

	var ids []string
	for elementID, refs := range byElement {
		if len(refs.OutOfDate()) > 0 {
			ids = append(ids, elementID)
		}
	}
	sort.Strings(ids)

	return ids, nil
}

// decodeWorkspaceReferences decodes the element id keyed response of the
// workspace resolve references call.
func decodeWorkspaceReferences(raw map[string]any) (map[string]ResolvedReferences, error) {
	out := make(map[string]ResolvedReferences, len(raw))

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &out,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("error decoding workspace drawing references: %w", err)
	}
	return out, nil
}

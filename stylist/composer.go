package stylist

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"wardrobewiz/jsonutil"
	"wardrobewiz/services"
)

type CollectionStyle struct {
	Name        string
	Description string
	StyleGuide  string
	Tags        []string
}

type CompositionInput struct {
	Style     CollectionStyle
	Occasion  string
	Inventory []InventoryItem
}

type SelectedItem struct {
	ItemID uint   `json:"itemId"`
	Reason string `json:"reason"`
}

type OutfitSelection struct {
	Items           []SelectedItem `json:"items"`
	ConfidenceScore float64        `json:"confidenceScore"`
	Explanation     string         `json:"explanation"`
}

// replyID accepts ids sent either as JSON numbers or strings.
type replyID string

func (id *replyID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = replyID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = replyID(n.String())
	return nil
}

type compositionReply struct {
	Items []struct {
		ItemID replyID `json:"itemId"`
		Reason string  `json:"reason"`
	} `json:"items"`
	ConfidenceScore *float64 `json:"confidenceScore"`
	Explanation     string   `json:"explanation"`
}

// validate checks the reply against the inventory. Unknown ids fail the
// whole outfit, nothing is filtered out.
func (r compositionReply) validate(inventory []InventoryItem) (*OutfitSelection, error) {
	if len(r.Items) == 0 {
		return nil, fmt.Errorf("%w: outfit has no items", ErrSchemaViolation)
	}
	if r.ConfidenceScore == nil {
		return nil, fmt.Errorf("%w: confidenceScore is missing", ErrSchemaViolation)
	}
	if err := checkUnitConfidence(*r.ConfidenceScore); err != nil {
		return nil, err
	}

	known := make(map[uint]struct{}, len(inventory))
	for _, item := range inventory {
		known[item.ID] = struct{}{}
	}

	selection := &OutfitSelection{
		Items:           make([]SelectedItem, 0, len(r.Items)),
		ConfidenceScore: *r.ConfidenceScore,
		Explanation:     strings.TrimSpace(r.Explanation),
	}
	seen := make(map[uint]struct{}, len(r.Items))
	for _, item := range r.Items {
		id, err := strconv.ParseUint(string(item.ItemID), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownOutfitItem, item.ItemID)
		}
		if _, ok := known[uint(id)]; !ok {
			return nil, fmt.Errorf("%w: %d", ErrUnknownOutfitItem, id)
		}
		if _, dup := seen[uint(id)]; dup {
			return nil, fmt.Errorf("%w: item %d selected twice", ErrSchemaViolation, id)
		}
		seen[uint(id)] = struct{}{}
		selection.Items = append(selection.Items, SelectedItem{ItemID: uint(id), Reason: strings.TrimSpace(item.Reason)})
	}
	return selection, nil
}

// ComposeOutfit asks the model for one outfit drawn from inventory. Every
// returned id is checked against inventory before the selection is returned.
func (s *Stylist) ComposeOutfit(ctx context.Context, input CompositionInput) (*OutfitSelection, error) {
	if len(input.Inventory) == 0 {
		return nil, fmt.Errorf("%w: wardrobe is empty", ErrInvalidInput)
	}
	if strings.TrimSpace(input.Occasion) == "" {
		return nil, fmt.Errorf("%w: occasion is required", ErrInvalidInput)
	}

	resp, elapsed, err := s.invoke(ctx, services.LLMRequest{
		Kind:              KindCompose,
		SystemInstruction: stylistSystemInstruction,
		Prompt:            buildCompositionPrompt(input),
		Temperature:       0.4,
	})
	if err != nil {
		s.record(ctx, KindCompose, resp, elapsed, err)
		return nil, fmt.Errorf("%w: %w", ErrCompositionFailed, err)
	}

	reply, err := jsonutil.Decode[compositionReply](resp.Response)
	if err != nil {
		s.record(ctx, KindCompose, resp, elapsed, err)
		return nil, err
	}
	selection, err := reply.validate(input.Inventory)
	s.record(ctx, KindCompose, resp, elapsed, err)
	if err != nil {
		if errors.Is(err, ErrUnknownOutfitItem) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrCompositionFailed, err)
	}
	return selection, nil
}

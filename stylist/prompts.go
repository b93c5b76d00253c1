package stylist

import (
	"fmt"
	"strings"
)

const stylistSystemInstruction = `You are a professional fashion stylist working inside a wardrobe app. You only answer with a single JSON object. Never wrap the JSON in markdown code fences and never add commentary before or after it.`

const extractionPrompt = `Analyze the clothing item in this image and return a JSON object with exactly these fields:
- "name": a short display name for the item, at most 50 characters
- "description": one or two sentences describing the item, material and fit
- "category": one of "tops", "bottoms", "dresses", "outerwear", "shoes", "accessories", "others"
- "colors": up to 10 lower-case color tags
- "styles": up to 10 lower-case style tags such as "casual", "formal", "streetwear"
- "occasions": up to 10 lower-case occasion tags such as "everyday", "office", "party"
- "isWearable": true only if the image shows a clothing item, shoes or an accessory a person can wear, otherwise false
- "confidenceScore": a number from 0 to 100 describing how certain you are about this analysis

If the image does not show a wearable item, still return every field and set "isWearable" to false.
Return strict JSON only, no markdown.`

const synthesisPrompt = `Create a new outfit collection for this user. Use the inspiration pieces, the user's wardrobe and the user's request below.
Do not repeat the theme of an existing collection.

Return a JSON object with exactly these fields:
- "name": a catchy collection name, at most 50 characters
- "description": a description of the collection's look and mood, at most 500 characters
- "tags": up to 10 lower-case style tags
- "styleGuide": practical styling advice for this collection in a few sentences
- "suggestedOccasions": up to 10 occasions this collection suits
- "confidenceScore": a number from 0 to 1 describing how well the collection fits the user's request and wardrobe

Return strict JSON only, no markdown.`

const compositionPrompt = `Assemble exactly one outfit from the wardrobe below for the given collection style and occasion.

Rules:
- pick exactly one pair of shoes
- pick exactly one bottom garment (a dress counts as top and bottom together)
- add any number of top layers that work together
- keep colors, style and occasion coherent
- only use item ids that appear in the wardrobe list, never invent ids

Return a JSON object with exactly these fields:
- "items": an array of objects {"itemId": <wardrobe item id>, "reason": <why this piece was chosen>}
- "confidenceScore": a number from 0 to 1 describing how well the outfit matches the style and occasion
- "explanation": a short explanation of the outfit as a whole

Return strict JSON only, no markdown.`

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return "-"
	}
	return strings.Join(tags, ", ")
}

func writeItemBlock(b *strings.Builder, label string, m ItemMetadata) {
	fmt.Fprintf(b, "- %s: %s (%s)\n", label, m.Name, m.Category)
	if m.Description != "" {
		fmt.Fprintf(b, "  description: %s\n", m.Description)
	}
	fmt.Fprintf(b, "  colors: %s\n", joinTags(m.Colors))
	fmt.Fprintf(b, "  styles: %s\n", joinTags(m.Styles))
	fmt.Fprintf(b, "  occasions: %s\n", joinTags(m.Occasions))
}

func writeInventory(b *strings.Builder, inventory []InventoryItem) {
	if len(inventory) == 0 {
		b.WriteString("(empty)\n")
		return
	}
	for _, item := range inventory {
		writeItemBlock(b, fmt.Sprintf("id %d", item.ID), item.Metadata)
	}
}

func buildSynthesisPrompt(input SynthesisInput) string {
	var b strings.Builder
	b.WriteString(synthesisPrompt)

	b.WriteString("\n\nUser request:\n")
	if strings.TrimSpace(input.Prompt) == "" {
		b.WriteString("(none, infer a theme from the wardrobe and inspiration pieces)\n")
	} else {
		b.WriteString(strings.TrimSpace(input.Prompt))
		b.WriteString("\n")
	}

	b.WriteString("\nInspiration pieces:\n")
	if len(input.Inspirations) == 0 {
		b.WriteString("(none)\n")
	}
	for i, m := range input.Inspirations {
		writeItemBlock(&b, fmt.Sprintf("inspiration %d", i+1), m)
	}

	b.WriteString("\nWardrobe:\n")
	writeInventory(&b, input.Wardrobe)

	b.WriteString("\nExisting collections:\n")
	if len(input.Existing) == 0 {
		b.WriteString("(none)\n")
	}
	for _, c := range input.Existing {
		fmt.Fprintf(&b, "- %s: %s [%s]\n", c.Name, c.Description, joinTags(c.Tags))
	}
	return b.String()
}

func buildCompositionPrompt(input CompositionInput) string {
	var b strings.Builder
	b.WriteString(compositionPrompt)

	b.WriteString("\n\nCollection style:\n")
	if input.Style.Name != "" {
		fmt.Fprintf(&b, "name: %s\n", input.Style.Name)
	}
	fmt.Fprintf(&b, "description: %s\n", input.Style.Description)
	if input.Style.StyleGuide != "" {
		fmt.Fprintf(&b, "style guide: %s\n", input.Style.StyleGuide)
	}
	fmt.Fprintf(&b, "tags: %s\n", joinTags(input.Style.Tags))

	fmt.Fprintf(&b, "\nOccasion:\n%s\n", strings.TrimSpace(input.Occasion))

	b.WriteString("\nWardrobe:\n")
	writeInventory(&b, input.Inventory)
	return b.String()
}

package usecases

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/gikalabs/localsearch-go/internal/domain/entities"
	"github.com/gikalabs/localsearch-go/internal/domain/ports"
)

const attributePrompt = `You are an intelligent chatbot tasked with accurately extracting key "attribute: value" pairs from user queries. Identify and extract only attribute: value pairs that are explicitly present in the query, strictly following the instructions below. Consider the context of previous queries when responding to subsequent ones, and correct minor spelling mistakes before extracting.

1. Attributes to extract (strictly limited to): %s. Never use "Attribute" or "Value" as an attribute name.
2. Only include attributes that are both explicitly mentioned in the query and present in the list above. Do not infer attributes the user did not state.
3. One attribute you must include in your response is "Category".
4. Map extracted attributes to the nearest attribute in the list; normalize naming (e.g. "short sleeves" becomes "Sleeve_length: Short").
5. Keep values in the same language as the query.
6. If multiple values belong to the same attribute, emit one pair per value.
7. Output format: a pure list of pairs, formatted strictly as [("attribute1": "value1"), ("attribute2": "value2"), ...] with no extra lines, commentary or chat history.

<conversation>
%s
</conversation>

Query: %s
`

// knownAttributes is the closed enumeration of extractable attribute
// names. Output pairs naming anything else are rejected.
var knownAttributes = []string{
	"Brand", "Category", "Product_category", "Subcategory", "Size",
	"Native_color", "Primary_color", "Pattern", "Type", "Product_type",
	"Color_family", "Dress_type", "Fabric", "Neckline", "Occasion",
	"Fit", "Color", "Colour", "Sleeve_style", "Neck", "Length", "Closure",
	"Sleeve_length", "Print", "Waist_detail", "Style", "Model_size",
	"Strap_style", "Feature", "Embellishment", "Detail", "Hemline",
	"Skirt_style", "Trim", "Collection_name", "Line", "Pocket",
	"Collar_style", "Fabric_detail", "Cuff_style", "Origin", "Price",
	"Price_Range", "Composition", "Silhouette", "Design", "Gender",
	"Bodice_style", "Waistband", "Hem_style", "Slit", "Embroidery",
	"Texture", "Seam", "Trend", "Trends", "Motif", "Designer",
	"Lapel_style", "Back", "Hardware", "Pleat", "Cut", "Finish",
	"Construction", "Train", "Metallic", "Logo", "Year", "Drape",
	"Tie", "Reversible", "Product_name", "Glitter", "Stitch", "Sequin",
	"Activity", "Model", "Dress_name", "Design_element", "Applique",
	"Rise", "Petite", "Backless", "Quality", "Armhole", "Care",
	"Fabric_weight", "Graphic", "Product_line", "Maternity", "Inseam",
	"Department", "Bead", "Effect", "Range", "Brand_Exclusion",
}

// pairPattern matches one ("attribute": "value") element of the output list.
var pairPattern = regexp.MustCompile(`\(\s*"([^"]+)"\s*:\s*"([^"]+)"\s*\)`)

// AttributeExtractor parses structured product attributes out of a
// user query via a generation-model call. Extraction output is
// validated against the closed attribute enumeration; unknown keys
// fail the extraction rather than passing through as arbitrary text.
type AttributeExtractor struct {
	llm       ports.GenerationService
	timeout   time.Duration
	canonical map[string]string // lowercased name -> canonical name
}

// NewAttributeExtractor creates an AttributeExtractor.
func NewAttributeExtractor(llm ports.GenerationService, timeout time.Duration) *AttributeExtractor {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	canonical := make(map[string]string, len(knownAttributes))
	for _, name := range knownAttributes {
		canonical[strings.ToLower(name)] = name
	}
	return &AttributeExtractor{llm: llm, timeout: timeout, canonical: canonical}
}

// Extract runs the extraction call and parses its output into validated
// attribute pairs.
func (e *AttributeExtractor) Extract(ctx context.Context, query string, history []entities.ChatMessage) ([]entities.AttributePair, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	req := ports.GenerationRequest{
		Prompt: fmt.Sprintf(attributePrompt,
			strings.Join(knownAttributes, ", "),
			FormatHistory(history),
			query),
		Options: ports.TemperatureZero(),
	}
	out, err := e.llm.Complete(ctx, req)
	if err != nil {
		return nil, &entities.GenerationError{Stage: "attributes", Err: err}
	}
	return e.Parse(out)
}

// Parse validates raw model output of the form
// [("attribute1": "value1"), ("attribute2": "value2"), ...].
// Pair keys are matched case-insensitively against the enumeration and
// normalized to their canonical casing; an unknown key or an output
// with no pairs at all is a ParseError.
func (e *AttributeExtractor) Parse(output string) ([]entities.AttributePair, error) {
	matches := pairPattern.FindAllStringSubmatch(output, -1)
	if len(matches) == 0 {
		return nil, &entities.ParseError{Block: "attributes", Output: output}
	}

	pairs := make([]entities.AttributePair, 0, len(matches))
	for _, m := range matches {
		name, ok := e.canonical[strings.ToLower(strings.TrimSpace(m[1]))]
		if !ok {
			return nil, &entities.ParseError{Block: "attributes", Output: m[1]}
		}
		pairs = append(pairs, entities.AttributePair{Name: name, Value: strings.TrimSpace(m[2])})
	}
	return pairs, nil
}

package descriptions

import "sort"

// Tool descriptions shown to MCP clients, with usage examples

const (
	FormListDescription = `List the fillable forms known to the catalog, grouped by issuer.

**When to use:** Before filling anything, to find the exact form name or one of its aliases.

**Examples:**
• Discover forms: "Which forms can you fill for India Post?"
• Check availability: entries marked unavailable are missing their PDF or coordinates file

**Common workflows:**
1. form_list → form_fields → collect values from the user → form_fill

**Best practices:** Pass issuer when several issuers publish a form with the same name.`

	FormFieldsDescription = `List the fields of a form with their kind and, for boxed fields, the number of boxes.

**When to use:** After picking a form, to learn which values to ask the user for.

**Examples:**
• "What do I need to fill in the Pay-in-Slip?"
• Boxed account numbers report "max N characters"; longer values run past the last box

**Field kinds:**
• text: one line at the field position
• spaced: one character per box
• multiline: word-wrapped inside a box, extra lines are dropped
• checkbox: a single bold mark such as X`

	FormFillDescription = `Fill a form by stamping values onto its blank PDF at the catalog coordinates.

**When to use:** Once the values for the form's fields are known.

**Examples:**
• values: {"Account No": "2544631", "Credit To": "Jane Doe", "Amount in Words": "Five thousand only"}
• Style: font, font_size, bold and color apply to fields that do not set their own

**Behavior:**
• Values go on the first page; the other pages are copied unchanged
• Unknown field names are ignored, fields without a value stay blank
• Fields that cannot be drawn are reported as diagnostics and the rest of the form is still filled
• The source PDF is never modified; output defaults to <source>_filled.pdf

**Best practices:** Check the diagnostics in the result and read the output back with form_inspect.`

	FormGridDescription = `Write a copy of a PDF with a labelled coordinate grid on every page.

**When to use:** When adding a new form, to read off the start and end coordinates of each field.

**Examples:**
• "Make a calibration copy of Withdrawal.pdf with 25pt grid lines"

**Coordinates:** The origin is the top-left corner of the page and Y grows downward, the same
convention coordinates files use. Labels mark every major grid intersection.`

	FormInspectDescription = `Read back the text of every page of a PDF inside the forms directory.

**When to use:** To verify a filled form, or to check which document a catalog entry points at.

**Best practices:** Filled values are listed per page under "Stamped", one line per baseline.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"form_list":    FormListDescription,
	"form_fields":  FormFieldsDescription,
	"form_fill":    FormFillDescription,
	"form_grid":    FormGridDescription,
	"form_inspect": FormInspectDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the sorted tool names
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

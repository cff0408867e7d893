package vision

import (
	"strings"

	"github.com/lithammer/dedent"
)

// LabelPrompt is the fixed instruction sent with every label image. The text
// is kept on several lines here and joined into one line.
var LabelPrompt = strings.Join(strings.Split(strings.TrimSpace(dedent.Dedent(`
	Analyze this product label image. Extract the product name, ingredients list, and assess its health score on a scale of 1-10.
	Then suggest 3 healthier alternatives with cleaner ingredients. For each alternative, explain why it's healthier.
	Format the response as JSON with this structure:
	{name: string, ingredients: string[], healthScore: number, alternatives: [{name: string, ingredients: string[], healthScore: number, reasons: string[]}]}
`)), "\n"), " ")

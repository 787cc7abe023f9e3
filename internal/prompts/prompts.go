// Package prompts holds the fixed instructions sent to the generative models.
package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// RoutingInstruction asks for the seller name and nothing else; the trimmed
// response becomes the vendor folder name.
const RoutingInstruction = "From this document, extract only the seller's name. Respond with the name and nothing else."

// ExtractionInstruction asks for the full structured record. The embedded JSON
// skeleton is the wire schema the evaluator parses later.
const ExtractionInstruction = `The JSON structure shown below is the desired output format.
Extract the information and return it in this exact JSON format.
The extracted data should include client details, seller information, invoice metadata, itemized product details, and payment instructions.

Output only the JSON. Do not include explanations or formatting like ` + "```json" + `.

{
  "invoice": {
    "client_name": "", "client_address": "", "seller_name": "", "seller_address": "",
    "invoice_number": "", "invoice_date": "", "due_date": ""
  },
  "items": [
    { "description": "", "quantity": "", "total_price": "" }
  ],
  "subtotal": { "tax": "", "discount": "", "total": "" },
  "payment_instructions": {
    "due_date": "", "bank_name": "", "account_number": "", "payment_method": ""
  }
}`

// BuildComparisonPrompt assembles the judge prompt for one invoice. Both JSON
// bodies are embedded verbatim and only the listed deal-breaker fields may be
// compared. Comparison is strict except for case and surrounding whitespace.
func BuildComparisonPrompt(fileName string, groundTruth, extracted []byte, dealBreakers []string) string {
	fields := make([]string, len(dealBreakers))
	copy(fields, dealBreakers)
	sort.Strings(fields)

	var list strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&list, "- %s\n", f)
	}

	return fmt.Sprintf(`You are a precise JSON-producing invoice evaluator. Your task is to perform a STRICT comparison between the GROUND TRUTH and the EXTRACTED OUTPUT for the invoice named %q.
Your response MUST be a single, valid JSON object and nothing else.

Compare ONLY the following fields:
%s
GROUND TRUTH:
%s

EXTRACTED OUTPUT:
%s

Comparison Rules:
1.  Strict, character-by-character comparison.
2.  EXCEPTIONS: case-insensitivity and leading/trailing whitespace are a Match.
3.  Any other difference is a Mismatch (e.g. currency symbols, commas).

JSON Output Structure:
{
  "overall_status": "Pass" or "Mismatch",
  "mismatches": [{ "field": "...", "expected": "...", "actual": "..." }]
}
If status is "Pass", mismatches must be an empty list.
Provide your verdict now.`, fileName, list.String(), groundTruth, extracted)
}

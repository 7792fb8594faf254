package extract

import "strings"

// buildExtractionPrompt assembles the instruction block and the cleaned
// document text into a single prompt.
func buildExtractionPrompt(text string) string {
	var b strings.Builder

	b.WriteString("You are a financial document parser for scanned bank statements, invoices and receipts.\n\n")
	b.WriteString("Task:\n")
	b.WriteString("- Extract ALL transactions from the document text below.\n")
	b.WriteString("- Output STRICT JSON only (no comments, no trailing commas, no extra text).\n")
	b.WriteString("- Output a single JSON object.\n\n")
	b.WriteString("The object must have this shape:\n")
	b.WriteString("{\n")
	b.WriteString("  \"transactions\": [\n")
	b.WriteString("    {\n")
	b.WriteString("      \"date\": string, ISO format \"YYYY-MM-DD\",\n")
	b.WriteString("      \"description\": string,\n")
	b.WriteString("      \"amount\": number (always positive),\n")
	b.WriteString("      \"type\": \"INCOME\" or \"EXPENSE\",\n")
	b.WriteString("      \"category\": string\n")
	b.WriteString("    }\n")
	b.WriteString("  ],\n")
	b.WriteString("  \"summary\": { \"total_income\": number, \"total_expenses\": number }\n")
	b.WriteString("}\n\n")
	b.WriteString("Rules:\n")
	b.WriteString("- Money received by the account holder is INCOME; money paid out is EXPENSE.\n")
	b.WriteString("- If the document has separate \"paid out\" / \"paid in\" columns, use them to set \"type\".\n")
	b.WriteString("- The text was produced by OCR and may still contain recognition noise; extract what you can.\n\n")
	b.WriteString("Return ONLY valid raw JSON.\n")
	b.WriteString("Do NOT wrap the response in code fences.\n")
	b.WriteString("Do NOT use ```json or any Markdown.\n")
	b.WriteString("Output must begin with \"{\" and end with \"}\".\n\n")
	b.WriteString("Document text:\n")
	b.WriteString(text)

	return b.String()
}

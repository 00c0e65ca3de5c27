package assistant

import "fmt"

// Prompts sent to Gemini. Kept in one place so wording changes don't hide in
// the orchestration code.

func classifyPrompt(text string) string {
	return fmt.Sprintf(`Is this a request to create a document? Only respond with "true" or "false": %q`, text)
}

func answerPrompt(query string) string {
	return fmt.Sprintf(`You are a helpful and knowledgeable GST and Income Tax professional for personalized advice. Your name is Finacco Solutions. Reply to the following query with clear, concise, and accurate information focused only on the user's question.
Avoid introductions or general explanations unless directly related.
Use bullet points, tables, and section headings if helpful for clarity.
Keep the language simple and easy to understand, especially for non-experts.
User's query: %s`, query)
}

func fieldListPrompt(docType string) string {
	return fmt.Sprintf(`Generate field list for Indian %s document.

Requirements:
1. Include all parties, dates, amounts with ₹
2. Use Indian formats (DD/MM/YYYY)
3. Mark required fields
4. Include description/placeholder where helpful

Return PURE JSON format ONLY:
{
  "fields": [
    {
      "id": "party1_name",
      "label": "First Party Name",
      "type": "text",
      "required": true,
      "placeholder": "Full legal name"
    }
  ]
}`, docType)
}

func documentPrompt(docType, dataJSON string) string {
	return fmt.Sprintf(`Generate a professional %s document in Indian format with perfect structure and formatting.

User Data: %s

STRICT REQUIREMENTS:
1. Use proper semantic HTML tags (h1, h2, p, strong)
2. All dates in DD/MM/YYYY format (bold)
3. Monetary values with ₹ symbol (bold)
4. Parties clearly identified
5. Use a formal, natural paragraph-based tone
6. Complete paragraphs (no bullet points unless specified)
7. Standard clauses for %s
8. Do not compress or shrink content to fit one page; let it flow naturally
9. Signature section at the end with space for each party

Return the COMPLETE HTML document body with all formatting.`, docType, dataJSON, docType)
}

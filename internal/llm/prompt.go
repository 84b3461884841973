// Package llm holds the provider-agnostic pieces of model-assisted document
// analysis: the prompt and the tolerant response parser every provider
// adapter shares.
package llm

import "fmt"

// PromptFormat is the classification prompt. The four format arguments are
// sender, recipients, subject and (possibly truncated) body.
const PromptFormat = `You are a document classification system for a personal email archive. Analyze the following email and classify it.
Respond with a JSON object containing:
- document_type: one of "marketing", "legal", "bank_statement", "receipt", "subscription", "unclassified"
- score: integer between 0 and 200 (composite confidence score, higher means more confident)
- breakdown: object mapping scoring category names to integer points
- reasoning: string (brief explanation of the classification)
- tags: array of short lowercase keyword strings
- correspondent: string (organization the email is from, empty if unknown)
- detected_amount: number (billed or stated amount, 0 if none)
- detected_currency: string (ISO currency code such as "USD", empty if none)
- subscription_type: string ("monthly", "yearly", "quarterly", "weekly" or empty)

Email:
From: %s
To: %s
Subject: %s
Body:
%s

Respond only with the JSON object and nothing else.`

// FormatRecipients renders the To header for the prompt, naming the first
// recipient and counting the rest.
func FormatRecipients(to []string) string {
	if len(to) == 0 {
		return ""
	}
	out := to[0]
	if len(to) > 1 {
		out += fmt.Sprintf(" and %d others", len(to)-1)
	}
	return out
}

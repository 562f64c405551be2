package extraction

import "context"

// Extractor defines the interface for receipt field extraction backends
type Extractor interface {
	// Extract sends a normalized receipt image to a vision model and
	// returns the raw text of the model's response
	Extract(ctx context.Context, img NormalizedImage) (string, error)
	// Close closes the extractor and releases resources
	Close() error
}

// receiptPrompt is the shared instruction used by all extraction backends
const receiptPrompt = `You are analyzing a photo of a purchase receipt. Carefully read all text in the image and extract the following fields:

1. **merchant**: The store or business name, usually the largest text at the top of the receipt. Examples: "Tesco", "Aldi", "Lidl".

2. **date**: The purchase or transaction date, converted to YYYY-MM-DD format. Common source formats: MM/DD/YYYY, DD/MM/YYYY, YYYY.MM.DD, or written dates.

3. **total_amount**: The final total or grand total, usually at the bottom, labeled "TOTAL", "Amount Due", or similar. Extract only the numeric value.

4. **currency**: The currency of the total as a short code, e.g. "HUF", "EUR", "USD".

5. **category**: Exactly one of: "Food", "Travel", "Entertainment", "Utilities", "Other". Pick the one that best matches the purchase.

6. **items**: The names of the purchased line items as an array of strings. Use an empty array if none are readable.

Return ONLY valid JSON in this exact format:
{
  "merchant": "Store Name",
  "date": "YYYY-MM-DD",
  "total_amount": 0.00,
  "currency": "HUF",
  "category": "Other",
  "items": ["Item 1", "Item 2"]
}

Important:
- total_amount must be a number (not a string)
- If you cannot find a field, use null for that field
- Do not include any text before or after the JSON
- Do not use markdown code blocks`

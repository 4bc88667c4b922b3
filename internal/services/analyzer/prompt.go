package analyzer

// ExtractionPrompt captures the instructions sent to the language model when
// extracting structured metadata from recognized document text. Keep updates
// centralized here so it is easy to tweak without hunting through call sites.
const ExtractionPrompt = `You are an assistant that extracts structured metadata from scanned business documents.

Given the OCR text of a document, determine:

- "document_type": one of "invoice", "receipt", "contract", "delivery_note", "statement", "correspondence", or "other".

- "supplier": the name of the issuing company or person, or "" if not identifiable.

- "document_date": the document's own date in YYYY-MM-DD form, or "" if no date is present.

- "key_info": a JSON object holding the most important facts as key/value pairs (amounts, reference numbers, subject). Use an empty object when nothing useful can be extracted.

- "confidence": your confidence in this extraction as a number between 0 and 1.

- "anomalies": a list of short strings describing anything suspicious or unusual (missing totals, inconsistent dates, unreadable sections). Use an empty list when nothing stands out.

You must respond ONLY with a JSON object like: {"document_type": "invoice", "supplier": "Acme GmbH", "document_date": "2025-01-15", "key_info": {"invoice_number": "4711", "total_amount": "1.200,00 EUR"}, "confidence": 0.93, "anomalies": []}

Now extract from this document text:`

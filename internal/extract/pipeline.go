package extract

import (
	"fmt"
	"log"
	"strings"
	"unicode"

	"github.com/fleetops/receipt-ocr-service/internal/models"
	"github.com/fleetops/receipt-ocr-service/internal/ocr"
)

const maxKeywords = 20

// Extract runs the full pipeline over one image's OCR results and assembles
// the structured receipt record. The only error it returns is a malformed
// input set; every internal failure is converted into a success:false
// record so callers never see an unhandled fault. Running it twice over the
// same results yields identical output.
func Extract(results []ocr.Result) (record *models.ExtractionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("extraction pipeline recovered from panic: %v", r)
			record = failureResult(fmt.Sprintf("internal extraction error: %v", r))
			err = nil
		}
	}()

	fragments, err := BuildFragments(results)
	if err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		return failureResult("no readable text detected in image"), nil
	}

	record = models.NewExtractionResult()
	record.Success = true
	data := &record.ExtractedData

	addField := func(name, value string) {
		record.OCRFields = append(record.OCRFields, models.OCRField{
			FieldName:       name,
			ExtractedValue:  value,
			ConfidenceScore: ScoreField(value, fragments),
		})
	}

	if supplier, ok := ExtractSupplier(fragments); ok {
		data.Supplier = supplier
		addField(models.FieldSupplier, supplier)
	}
	if date, ok := ExtractDate(fragments); ok {
		data.TransactionDate = date
		addField(models.FieldTransactionDate, date)
	}
	if terms, ok := ExtractTerms(fragments); ok {
		data.PaymentTerms = terms
		addField(models.FieldPaymentTerms, terms)
	}
	if taxID, ok := ExtractTaxID(fragments); ok {
		data.VATRegTIN = taxID
		addField(models.FieldVATRegTIN, taxID)
	}

	subtotal, hasSubtotal := ExtractSubtotal(fragments)
	vat, hasVAT := ExtractVAT(fragments)
	due, hasDue := ExtractAmountDue(fragments)

	amounts := Reconcile(Amounts{
		Subtotal: subtotal, VAT: vat, Due: due,
		HasSubtotal: hasSubtotal, HasVAT: hasVAT, HasDue: hasDue,
	}, fragments)

	if amounts.HasSubtotal {
		data.TotalAmount = toFloat(amounts.Subtotal)
		addField(models.FieldTotalAmount, amounts.Subtotal.StringFixed(2))
	}
	if amounts.HasVAT {
		data.VATAmount = toFloat(amounts.VAT)
		addField(models.FieldVATAmount, amounts.VAT.StringFixed(2))
	}
	if amounts.HasDue {
		data.TotalAmountDue = toFloat(amounts.Due)
		addField(models.FieldTotalAmountDue, amounts.Due.StringFixed(2))
	}

	data.Items = ParseItems(fragments)

	for _, f := range fragments {
		record.RawText = append(record.RawText, f.Text)
	}
	record.Keywords = Keywords(record.RawText)
	record.OverallConfidence = OverallConfidence(fragments)

	return record, nil
}

// failureResult builds the degraded success:false record with empty
// collections.
func failureResult(message string) *models.ExtractionResult {
	record := models.NewExtractionResult()
	record.Success = false
	record.Error = message
	return record
}

// stopWords are dropped from the keyword set.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"this": true, "that": true, "are": true, "was": true, "you": true,
	"your": true, "our": true, "per": true, "any": true, "all": true,
	"not": true, "may": true, "has": true, "have": true,
}

// Keywords derives up to maxKeywords lowercase keywords from the raw text,
// in order of first appearance, with stop words, short tokens and bare
// numbers removed.
func Keywords(rawText []string) []string {
	keywords := make([]string, 0, maxKeywords)
	seen := make(map[string]bool)

	for _, line := range rawText {
		tokens := strings.FieldsFunc(line, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, token := range tokens {
			word := strings.ToLower(token)
			if len(word) < 3 || stopWords[word] || !containsLetter(word) || seen[word] {
				continue
			}
			seen[word] = true
			keywords = append(keywords, word)
			if len(keywords) == maxKeywords {
				return keywords
			}
		}
	}
	return keywords
}

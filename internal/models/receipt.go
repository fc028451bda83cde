package models

// Field names used in the ocr_fields section of the extraction result.
const (
	FieldSupplier        = "supplier"
	FieldTransactionDate = "transaction_date"
	FieldPaymentTerms    = "payment_terms"
	FieldVATRegTIN       = "vat_reg_tin"
	FieldTotalAmount     = "total_amount"
	FieldVATAmount       = "vat_amount"
	FieldTotalAmountDue  = "total_amount_due"
)

// Item categories from the operational vocabulary.
const (
	CategoryVehicleParts = "Vehicle_Parts"
	CategoryFuel         = "Fuel"
	CategoryTools        = "Tools"
	CategoryEquipment    = "Equipment"
	CategorySupplies     = "Supplies"
	CategoryOther        = "Other"
)

// Recognized item units. PCS is the default when no unit token is found.
const (
	UnitPCS   = "PCS"
	UnitUnit  = "UNIT"
	UnitEA    = "EA"
	UnitPiece = "PIECE"
	UnitPC    = "PC"
)

// LineItem is one reconciled row of the receipt's item table.
type LineItem struct {
	ItemName   string  `json:"item_name"`
	Quantity   float64 `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice float64 `json:"total_price"`
	Category   string  `json:"category"`
	Unit       string  `json:"unit"`
}

// ExtractedData holds the typed receipt fields. Money values are rounded to
// exactly 2 decimal places before being stored here.
type ExtractedData struct {
	Supplier        string     `json:"supplier,omitempty"`
	TransactionDate string     `json:"transaction_date,omitempty"`
	PaymentTerms    string     `json:"payment_terms,omitempty"`
	VATRegTIN       string     `json:"vat_reg_tin,omitempty"`
	TotalAmount     float64    `json:"total_amount,omitempty"`
	VATAmount       float64    `json:"vat_amount,omitempty"`
	TotalAmountDue  float64    `json:"total_amount_due,omitempty"`
	Items           []LineItem `json:"items"`
}

// OCRField reports one extracted field with its confidence score.
type OCRField struct {
	FieldName       string  `json:"field_name"`
	ExtractedValue  string  `json:"extracted_value"`
	ConfidenceScore float64 `json:"confidence_score"`
}

// ExtractionResult is the full output record for one processed image.
type ExtractionResult struct {
	Success           bool          `json:"success"`
	Error             string        `json:"error,omitempty"`
	ExtractedData     ExtractedData `json:"extracted_data"`
	OCRFields         []OCRField    `json:"ocr_fields"`
	Keywords          []string      `json:"keywords"`
	RawText           []string      `json:"raw_text"`
	OverallConfidence float64       `json:"overall_confidence"`
}

// NewExtractionResult returns a result with all collections initialized so the
// JSON encoding always carries empty arrays rather than nulls.
func NewExtractionResult() *ExtractionResult {
	return &ExtractionResult{
		ExtractedData: ExtractedData{Items: []LineItem{}},
		OCRFields:     []OCRField{},
		Keywords:      []string{},
		RawText:       []string{},
	}
}

// Config represents the service configuration
type Config struct {
	// Server config
	Port int    `yaml:"port"`
	Host string `yaml:"host"`

	// OCR engine config
	OCR OCRConfig `yaml:"ocr"`

	// Optional AI category suggestions
	AI AIConfig `yaml:"ai"`

	// CORS allowed origins (overridable via ALLOWED_ORIGINS)
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// OCRConfig points at the external OCR engine service.
type OCRConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Language       string `yaml:"language"`
}

// AIConfig configures the optional item-category suggestion provider.
type AIConfig struct {
	Enabled bool         `yaml:"enabled"`
	OpenAI  OpenAIConfig `yaml:"openai"`
}

// OpenAIConfig for OpenAI or any OpenAI-compatible endpoint
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url,omitempty"`
	Model   string `yaml:"model"`
}

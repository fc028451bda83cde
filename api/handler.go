package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fleetops/receipt-ocr-service/internal/ai"
	"github.com/fleetops/receipt-ocr-service/internal/auth"
	"github.com/fleetops/receipt-ocr-service/internal/db"
	"github.com/fleetops/receipt-ocr-service/internal/extract"
	"github.com/fleetops/receipt-ocr-service/internal/models"
	"github.com/fleetops/receipt-ocr-service/internal/ocr"
	"github.com/fleetops/receipt-ocr-service/internal/storage"
)

const (
	MaxUploadSize = 10 * 1024 * 1024 // 10MB
	Version       = "1.0.0"
)

// Handler handles HTTP requests for receipt processing
type Handler struct {
	config      *models.Config
	ocrClient   *ocr.Client
	categorizer *ai.Categorizer
}

// NewHandler creates a new API handler
func NewHandler(config *models.Config, ocrClient *ocr.Client, categorizer *ai.Categorizer) *Handler {
	return &Handler{
		config:      config,
		ocrClient:   ocrClient,
		categorizer: categorizer,
	}
}

// SetupRoutes configures the HTTP routes
func (h *Handler) SetupRoutes() *mux.Router {
	router := mux.NewRouter()

	// Main endpoints
	router.HandleFunc("/api/process-receipt", h.ProcessReceipt).Methods("POST")
	router.HandleFunc("/api/receipts", h.GetReceipts).Methods("GET")

	// Receipt CRUD
	router.HandleFunc("/api/receipt/{id}", h.GetReceipt).Methods("GET")
	router.HandleFunc("/api/receipt/{id}", h.DeleteReceipt).Methods("DELETE")

	// Statistics
	router.HandleFunc("/api/stats", h.GetStats).Methods("GET")

	// Auth
	router.HandleFunc("/api/login", auth.LoginHandler).Methods("POST")

	// Health check
	router.HandleFunc("/health", h.Health).Methods("GET")

	return router
}

// HealthResponse represents the health check response structure
type HealthResponse struct {
	Status    string        `json:"status"`
	Version   string        `json:"version"`
	Timestamp string        `json:"timestamp"`
	Uptime    string        `json:"uptime"`
	Memory    MemoryStats   `json:"memory"`
	OCREngine ServiceStatus `json:"ocrEngine"`
	Database  ServiceStatus `json:"database"`
	Storage   ServiceStatus `json:"storage"`
}

// MemoryStats represents memory usage statistics
type MemoryStats struct {
	Allocated string `json:"allocated"`
	Total     string `json:"total"`
	System    string `json:"system"`
}

// ServiceStatus represents the status of a service dependency
type ServiceStatus struct {
	Available bool   `json:"available"`
	Version   string `json:"version,omitempty"`
	Error     string `json:"error,omitempty"`
}

var startTime = time.Now()

// Health endpoint - enhanced for monitoring
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	// Memory statistics
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	ocrStatus := h.checkOCREngine(r.Context())
	databaseStatus := h.checkDatabase()
	storageStatus := h.checkStorage()

	response := HealthResponse{
		Status:    "healthy",
		Version:   Version,
		Timestamp: time.Now().Format(time.RFC3339),
		Uptime:    time.Since(startTime).String(),
		Memory: MemoryStats{
			Allocated: fmt.Sprintf("%.2f MB", float64(m.Alloc)/1024/1024),
			Total:     fmt.Sprintf("%.2f MB", float64(m.TotalAlloc)/1024/1024),
			System:    fmt.Sprintf("%.2f MB", float64(m.Sys)/1024/1024),
		},
		OCREngine: ocrStatus,
		Database:  databaseStatus,
		Storage:   storageStatus,
	}

	// The OCR engine is the only hard dependency
	if !ocrStatus.Available {
		response.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	json.NewEncoder(w).Encode(response)
}

// checkOCREngine pings the external OCR service
func (h *Handler) checkOCREngine(ctx context.Context) ServiceStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := h.ocrClient.Ping(ctx); err != nil {
		return ServiceStatus{
			Available: false,
			Error:     err.Error(),
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "EasyOCR",
	}
}

// checkDatabase verifies PostgreSQL connection
func (h *Handler) checkDatabase() ServiceStatus {
	if db.Pool == nil {
		return ServiceStatus{
			Available: false,
			Error:     "database pool not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "PostgreSQL via pgx",
	}
}

// checkStorage verifies MinIO connection
func (h *Handler) checkStorage() ServiceStatus {
	if storage.Client == nil {
		return ServiceStatus{
			Available: false,
			Error:     "storage client not initialized",
		}
	}

	return ServiceStatus{
		Available: true,
		Version:   "MinIO S3",
	}
}

// ProcessReceipt runs the full OCR and extraction pipeline on an uploaded image
func (h *Handler) ProcessReceipt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	requestStart := time.Now()

	claims, err := auth.GetClaimsFromContext(ctx)
	if err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized: "+err.Error())
		return
	}

	// Parse multipart form
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadSize)
	if err := r.ParseMultipartForm(MaxUploadSize); err != nil {
		h.sendError(w, http.StatusBadRequest, "File too large or invalid form data")
		return
	}

	// Get file - accept both "file" and "image" field names
	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("image")
		if err != nil {
			h.sendError(w, http.StatusBadRequest, "No file provided (use 'file' or 'image' field)")
			return
		}
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "Failed to read file")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	filename := fmt.Sprintf("%s_%s%s",
		time.Now().Format("20060102_150405"),
		uuid.New().String()[:8],
		storage.GetFileExtension(contentType),
	)

	// Upload to MinIO (if configured)
	var imageURL string
	if storage.Client != nil {
		imageURL, err = storage.UploadReceiptImage(
			ctx,
			filename,
			bytes.NewReader(imageData),
			int64(len(imageData)),
			contentType,
		)
		if err != nil {
			// Log but don't fail - image storage is optional
			fmt.Printf("Warning: failed to upload image to MinIO: %v\n", err)
		}
	}

	// OCR
	ocrStart := time.Now()
	results, err := h.ocrClient.ReadImage(ctx, header.Filename, imageData)
	ocrDuration := time.Since(ocrStart).Seconds()
	if err != nil {
		h.sendError(w, http.StatusBadGateway, fmt.Sprintf("OCR engine failed: %v", err))
		return
	}

	// Extraction
	record, err := extract.Extract(results)
	if err != nil {
		h.sendError(w, http.StatusUnprocessableEntity, fmt.Sprintf("extraction failed: %v", err))
		return
	}

	// Optional AI category suggestions for items left as Other
	if record.Success {
		h.categorizer.SuggestCategories(ctx, record.ExtractedData.Items)
	}

	// Persist the record (best-effort)
	var savedReceipt *db.Receipt
	if db.Pool != nil && record.Success {
		savedReceipt = h.saveReceipt(ctx, record, imageURL)
	}

	response := map[string]interface{}{
		"success":            record.Success,
		"extracted_data":     record.ExtractedData,
		"ocr_fields":         record.OCRFields,
		"keywords":           record.Keywords,
		"raw_text":           record.RawText,
		"overall_confidence": record.OverallConfidence,
		"ocr_duration":       ocrDuration,
		"total_duration":     time.Since(requestStart).Seconds(),
		"user_id":            claims.UserID,
	}
	if record.Error != "" {
		response["error"] = record.Error
	}
	if savedReceipt != nil {
		response["receipt_id"] = savedReceipt.ID
		response["created_at"] = savedReceipt.CreatedAt
		response["saved_to_db"] = true
	} else {
		response["saved_to_db"] = false
	}
	if imageURL != "" {
		response["image_url"] = imageURL
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// saveReceipt maps an extraction record to the receipts table. Failures are
// logged and swallowed so the extraction response still reaches the client.
func (h *Handler) saveReceipt(ctx context.Context, record *models.ExtractionResult, imageURL string) *db.Receipt {
	data := record.ExtractedData

	var transactionDate *time.Time
	if data.TransactionDate != "" {
		if t, err := time.Parse("2006-01-02T15:04:05", data.TransactionDate); err == nil {
			transactionDate = &t
		}
	}

	itemsJSON := ""
	if len(data.Items) > 0 {
		if raw, err := json.Marshal(data.Items); err == nil {
			itemsJSON = string(raw)
		}
	}

	recordJSON := ""
	if raw, err := json.Marshal(record); err == nil {
		recordJSON = string(raw)
	}

	receipt := &db.Receipt{
		Supplier:        data.Supplier,
		TransactionDate: transactionDate,
		PaymentTerms:    data.PaymentTerms,
		VATRegTIN:       data.VATRegTIN,
		TotalAmount:     data.TotalAmount,
		VATAmount:       data.VATAmount,
		TotalAmountDue:  data.TotalAmountDue,
		Confidence:      record.OverallConfidence,
		ImageURL:        imageURL,
		ItemsJSON:       itemsJSON,
		RecordJSON:      recordJSON,
	}

	if err := db.SaveReceipt(ctx, receipt); err != nil {
		fmt.Printf("Warning: failed to save receipt to DB: %v\n", err)
		return nil
	}
	return receipt
}

// GetReceipts returns recent receipts
func (h *Handler) GetReceipts(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()

	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	receipts, err := db.GetReceipts(ctx, 100)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, fmt.Sprintf("failed to get receipts: %v", err))
		return
	}

	// Generate presigned URLs for images
	for i := range receipts {
		if receipts[i].ImageURL != "" && storage.Client != nil {
			if presignedURL, err := storage.GetPresignedURL(ctx, receipts[i].ImageURL); err == nil {
				receipts[i].ImageURL = presignedURL
			}
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":  true,
		"receipts": receipts,
		"count":    len(receipts),
	})
}

// GetReceipt returns a single receipt
func (h *Handler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	vars := mux.Vars(r)
	receiptID := vars["id"]

	receipt, err := db.GetReceiptByID(ctx, receiptID)
	if err != nil {
		h.sendError(w, http.StatusNotFound, fmt.Sprintf("receipt not found: %v", err))
		return
	}

	if receipt.ImageURL != "" && storage.Client != nil {
		if presignedURL, err := storage.GetPresignedURL(ctx, receipt.ImageURL); err == nil {
			receipt.ImageURL = presignedURL
		}
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"receipt": receipt,
	})
}

// DeleteReceipt removes a receipt and its stored image
func (h *Handler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	vars := mux.Vars(r)
	receiptID := vars["id"]

	// Delete image from MinIO first (ignore errors)
	if storage.Client != nil {
		if receipt, err := db.GetReceiptByID(ctx, receiptID); err == nil && receipt.ImageURL != "" {
			_ = storage.DeleteImage(ctx, receipt.ImageURL)
		}
	}

	if err := db.DeleteReceipt(ctx, receiptID); err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to delete receipt")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"message": "receipt deleted",
	})
}

// GetStats returns monthly statistics
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx := r.Context()
	if _, err := auth.GetClaimsFromContext(ctx); err != nil {
		h.sendError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if db.Pool == nil {
		h.sendError(w, http.StatusServiceUnavailable, "database not available")
		return
	}

	stats, err := db.GetMonthlyStats(ctx)
	if err != nil {
		h.sendError(w, http.StatusInternalServerError, "failed to get stats")
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": true,
		"stats":   stats,
	})
}

// sendError sends an error response
func (h *Handler) sendError(w http.ResponseWriter, statusCode int, message string) {
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

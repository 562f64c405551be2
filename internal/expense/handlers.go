package expense

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/akos050607/SpendSmart/internal/extraction"
)

// corsError writes an error response with CORS headers set
func corsError(w http.ResponseWriter, message string, code int) {
	setCORSHeaders(w)
	http.Error(w, message, code)
}

// setCORSHeaders sets CORS headers on a response
func setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeJSONError writes an error payload with the given status code
func writeJSONError(w http.ResponseWriter, code int, message string, extra map[string]string) {
	body := map[string]string{"error": message}
	for k, v := range extra {
		body[k] = v
	}
	writeJSON(w, code, body)
}

// pathID parses the {id} path value
func pathID(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// handleIndex serves the HTML interface
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// handleListExpenses returns all records, purchase date descending
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	records, err := s.service.List()
	if err != nil {
		slog.Error("Error listing expenses", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleScanReceipt accepts a receipt upload and runs the extraction pipeline
func (s *Server) handleScanReceipt(w http.ResponseWriter, r *http.Request) {
	// 50MB cap to handle high-resolution phone photos
	maxFormSize := int64(50 << 20)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		slog.Error("Error parsing multipart form", "error", err)
		errorMsg := "Error parsing form"
		if err.Error() == "http: request body too large" {
			errorMsg = "File is too large. Maximum size is 50MB. Please compress or resize your image."
		}
		writeJSONError(w, http.StatusBadRequest, errorMsg, nil)
		return
	}

	f, header, err := r.FormFile("file")
	if err != nil {
		slog.Error("Error getting file from form", "error", err)
		writeJSONError(w, http.StatusBadRequest, "No file was selected. Please choose a file to upload.", nil)
		return
	}
	defer f.Close()

	if header.Size > maxFormSize {
		writeJSONError(w, http.StatusBadRequest, "File is too large. Maximum size is 50MB. Please compress or resize your image.", nil)
		return
	}

	data, err := io.ReadAll(f)
	if err != nil {
		slog.Error("Error reading file data", "error", err, "filename", header.Filename)
		writeJSONError(w, http.StatusInternalServerError, "Error reading file. Please try again.", nil)
		return
	}

	contentType := uploadContentType(header.Header.Get("Content-Type"), header.Filename)

	record, err := s.service.ScanReceipt(r.Context(), header.Filename, data, contentType)
	if err != nil {
		s.writeScanError(w, header.Filename, err)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// writeScanError maps pipeline failures to user-facing responses
func (s *Server) writeScanError(w http.ResponseWriter, filename string, err error) {
	slog.Error("Error scanning receipt", "filename", filename, "error", err)

	var imgErr *extraction.ImageError
	var apiErr *extraction.APIError
	var parseErr *extraction.ParseError

	switch {
	case errors.As(err, &imgErr):
		writeJSONError(w, http.StatusBadRequest, "Could not read image", nil)
	case errors.As(err, &apiErr):
		writeJSONError(w, http.StatusBadGateway, "AI service unavailable", nil)
	case errors.As(err, &parseErr):
		// Hand the raw model text back so the user can fall back to manual entry
		writeJSONError(w, http.StatusUnprocessableEntity,
			"Could not read receipt fields from the AI response",
			map[string]string{"raw_response": parseErr.Raw})
	default:
		writeJSONError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// uploadContentType determines the content type of an upload, falling back
// to the filename extension when the browser sent none
func uploadContentType(contentType, filename string) string {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if contentType != "" && contentType != "application/octet-stream" {
		return contentType
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".pdf":
		return "application/pdf"
	case ".heic":
		return "image/heic"
	case ".heif":
		return "image/heif"
	default:
		return "application/octet-stream"
	}
}

// handleCreateExpense creates a record from a manual entry form
func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := s.service.AddManual(fields)
	if err != nil {
		slog.Error("Error creating expense", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, record)
}

// handleGetExpense returns a single record
func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		corsError(w, "Expense ID required", http.StatusBadRequest)
		return
	}
	record, err := s.service.Get(id)
	if err != nil {
		corsError(w, "Expense not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleUpdateExpense replaces a record's fields
func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		corsError(w, "Expense ID required", http.StatusBadRequest)
		return
	}

	var fields map[string]any
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		corsError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	record, err := s.service.Update(id, fields)
	if err != nil {
		slog.Error("Error updating expense", "id", id, "error", err)
		corsError(w, "Expense not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, record)
}

// handleDeleteExpense deletes a record
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		corsError(w, "Expense ID required", http.StatusBadRequest)
		return
	}
	if err := s.service.Delete(id); err != nil {
		corsError(w, "Expense not found", http.StatusNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleRecentScans returns the newest AI-created records
func (s *Server) handleRecentScans(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.service.RecentScans(limit)
	if err != nil {
		slog.Error("Error listing recent scans", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, records)
}

// handleSummary returns dashboard aggregates
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.service.Summarize()
	if err != nil {
		slog.Error("Error summarizing expenses", "error", err)
		corsError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

package images

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
)

// UploadHandler accepts a multipart form with a "file" field, stores it
// and answers {"url": "..."}.
func UploadHandler(store Store, maxSize int64, logger *slog.Logger) http.Handler {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		// Limit the body before parsing; the form overhead gets 1MB.
		r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)
		if err := r.ParseMultipartForm(maxSize); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
				return
			}
			http.Error(w, "Failed to parse form", http.StatusBadRequest)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "No file provided", http.StatusBadRequest)
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
		if err != nil {
			http.Error(w, "Upload failed", http.StatusBadRequest)
			return
		}

		url, err := store.Put(r.Context(), header.Filename, header.Header.Get("Content-Type"), data)
		switch {
		case errors.Is(err, ErrTooLarge):
			http.Error(w, "File too large", http.StatusRequestEntityTooLarge)
			return
		case errors.Is(err, ErrUnsupportedType):
			http.Error(w, "Unsupported file type", http.StatusUnsupportedMediaType)
			return
		case err != nil:
			logger.Error("image upload failed", "error", err, "filename", header.Filename)
			http.Error(w, "Upload failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"url": url})
	})
}

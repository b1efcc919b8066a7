package docextract

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// uploadField is the multipart form field carrying the document.
const uploadField = "file"

// HTTPOption configures RegisterHTTP.
type HTTPOption func(*httpHandler)

// WithProbeCache serves POST /probe through cache, keyed by ContentHash.
func WithProbeCache(cache ProbeCache) HTTPOption {
	return func(h *httpHandler) { h.cache = cache }
}

type httpHandler struct {
	e     *Extractor
	cache ProbeCache
}

// RegisterHTTP mounts the extraction endpoints on r:
//
//	POST /extract   document in, ExtractedDocument out
//	POST /probe     document in, ProbeResult out
//	POST /markdown  document in, text/markdown out
//	GET  /formats   supported formats
//
// The document is either a multipart upload in field "file" or the raw
// request body, with its type in Content-Type and its name in the
// "filename" query parameter.
func (e *Extractor) RegisterHTTP(r chi.Router, opts ...HTTPOption) {
	h := &httpHandler{e: e}
	for _, o := range opts {
		o(h)
	}
	r.Post("/extract", h.extract)
	r.Post("/probe", h.probe)
	r.Post("/markdown", h.markdown)
	r.Get("/formats", h.formats)
}

func (h *httpHandler) extract(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}
	doc, err := h.e.Extract(r.Context(), up.data, up.mimeType, up.filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *httpHandler) probe(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var key string
	if h.cache != nil {
		key = ContentHash(up.data)
	}
	res, err := h.e.ProbeCached(r.Context(), h.cache, key, up.data, up.mimeType, up.filename)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *httpHandler) markdown(w http.ResponseWriter, r *http.Request) {
	up, err := h.readUpload(r)
	if err != nil {
		writeError(w, err)
		return
	}
	md, err := h.e.Markdown(r.Context(), up.data, up.mimeType, up.filename)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	io.WriteString(w, md)
}

func (h *httpHandler) formats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"formats": SupportedFormats()})
}

type upload struct {
	data     []byte
	mimeType string
	filename string
}

// readUpload reads at most MaxInputSize+1 bytes so that an oversized body
// reaches Extract and fails there with ErrOversizedInput.
func (h *httpHandler) readUpload(r *http.Request) (*upload, error) {
	limit := h.e.cfg.MaxInputSize + 1
	ct := r.Header.Get("Content-Type")

	if mt, _, err := mime.ParseMediaType(ct); err == nil && mt == "multipart/form-data" {
		mr, err := r.MultipartReader()
		if err != nil {
			return nil, badRequest(err)
		}
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				return nil, badRequest(fmt.Errorf("missing form field %q", uploadField))
			}
			if err != nil {
				return nil, badRequest(err)
			}
			if part.FormName() != uploadField {
				part.Close()
				continue
			}
			data, err := io.ReadAll(io.LimitReader(part, limit))
			part.Close()
			if err != nil {
				return nil, badRequest(err)
			}
			return &upload{
				data:     data,
				mimeType: part.Header.Get("Content-Type"),
				filename: part.FileName(),
			}, nil
		}
	}

	data, err := io.ReadAll(io.LimitReader(r.Body, limit))
	if err != nil {
		return nil, badRequest(err)
	}
	return &upload{
		data:     data,
		mimeType: ct,
		filename: r.URL.Query().Get("filename"),
	}, nil
}

type requestError struct{ err error }

func (e *requestError) Error() string { return "bad request: " + e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

// StatusCode maps an extraction error to an HTTP status.
func StatusCode(err error) int {
	var re *requestError
	if errors.As(err, &re) {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return http.StatusRequestEntityTooLarge
		}
		return http.StatusBadRequest
	}
	switch KindOf(err) {
	case KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case KindCorruptArchive, KindEmptyContent:
		return http.StatusUnprocessableEntity
	case KindPasswordProtected:
		return http.StatusLocked
	case KindOversizedInput:
		return http.StatusRequestEntityTooLarge
	case KindTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage is an actionable message for an extraction error.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindUnsupportedFormat:
		return "This file type is not supported. Upload a .pptx or .docx file; for scanned PDFs or pictures, upload the page images instead."
	case KindCorruptArchive:
		return "The file could not be read. It may be damaged or not a real " + strings.Join(SupportedFormats(), "/") + " file; try saving it again."
	case KindPasswordProtected:
		return "The file is password protected. Remove the password and upload it again."
	case KindEmptyContent:
		return "No text was found in the file. If it contains scanned pages, upload them as images."
	case KindOversizedInput:
		return "The file is too large. Split it or compress its images and try again."
	case KindTimedOut:
		return "Processing took too long. Try a smaller file."
	default:
		return "The file could not be processed."
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code := StatusCode(err)
	body := map[string]string{
		"error":   err.Error(),
		"message": UserMessage(err),
	}
	var re *requestError
	if !errors.As(err, &re) {
		body["kind"] = string(KindOf(err))
	}
	writeJSON(w, code, body)
}

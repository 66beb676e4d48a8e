package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ByLCY/vitae/photo"
	"github.com/ByLCY/vitae/preview"
	"github.com/ByLCY/vitae/record"
	rasterrenderer "github.com/ByLCY/vitae/renderer/raster"
)

const maxDPI = 300

// decodeRecord 读取请求体中的简历 JSON。出错时已写入响应。
func (s *Server) decodeRecord(w http.ResponseWriter, r *http.Request) (record.Record, bool) {
	body := http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)
	rec, err := record.Decode(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeError(w, r, http.StatusRequestEntityTooLarge, "body_too_large", fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
			return record.Record{}, false
		}
		s.writeError(w, r, http.StatusBadRequest, "invalid_record", err.Error())
		return record.Record{}, false
	}
	return rec, true
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	out, err := s.engine.Run(r.Context(), rec)
	if err != nil {
		s.renderFailed(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": out.FileName}))
	w.Header().Set("X-Page-Count", strconv.Itoa(out.Pages))
	_, _ = w.Write(out.PDF)
}

func (s *Server) handlePagePNG(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(chi.URLParam(r, "page"))
	if err != nil || page < 1 {
		s.writeError(w, r, http.StatusBadRequest, "invalid_page", "page must be a positive integer")
		return
	}
	dpi := float64(rasterrenderer.DefaultDPI)
	if raw := r.URL.Query().Get("dpi"); raw != "" {
		dpi, err = strconv.ParseFloat(raw, 64)
		if err != nil || dpi <= 0 || dpi > maxDPI {
			s.writeError(w, r, http.StatusBadRequest, "invalid_dpi", fmt.Sprintf("dpi must be in (0, %d]", maxDPI))
			return
		}
	}
	rec, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	data, err := s.engine.PagePNG(r.Context(), rec, page, dpi)
	if err != nil {
		if errors.Is(err, rasterrenderer.ErrPageOutOfRange) {
			s.writeError(w, r, http.StatusNotFound, "page_not_found", err.Error())
			return
		}
		s.renderFailed(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(data)
}

func (s *Server) renderFailed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		// 客户端已断开
		return
	}
	if s.logger != nil {
		s.logger.Error("生成失败", "path", r.URL.Path, "err", err)
	}
	s.writeError(w, r, http.StatusInternalServerError, "render_failed", "unable to generate the resume")
}

func (s *Server) handlePreviewRequest(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.decodeRecord(w, r)
	if !ok {
		return
	}
	m := s.sessions.Get(chi.URLParam(r, "session"))
	status, err := m.Request(r.Context(), func(ctx context.Context) (preview.Document, error) {
		out, err := s.engine.Run(ctx, rec)
		if err != nil {
			return preview.Document{}, err
		}
		return preview.Document{
			Data:        out.PDF,
			ContentType: "application/pdf",
			FileName:    out.FileName,
			Pages:       out.Pages,
		}, nil
	})
	switch {
	case errors.Is(err, preview.ErrSuperseded):
		s.writeError(w, r, http.StatusConflict, "superseded", "a newer preview request replaced this one")
	case err != nil:
		s.writeError(w, r, http.StatusInternalServerError, "preview_failed", preview.FailureMessage)
	default:
		writeJSON(w, http.StatusOK, status)
	}
}

func (s *Server) handlePreviewStatus(w http.ResponseWriter, r *http.Request) {
	m, ok := s.sessions.Lookup(chi.URLParam(r, "session"))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, "session_not_found", "no preview for this session")
		return
	}
	writeJSON(w, http.StatusOK, m.Status())
}

func (s *Server) handlePreviewDocument(w http.ResponseWriter, r *http.Request) {
	m, ok := s.sessions.Lookup(chi.URLParam(r, "session"))
	if !ok {
		s.writeError(w, r, http.StatusNotFound, "session_not_found", "no preview for this session")
		return
	}
	doc, err := m.Document()
	if err != nil {
		s.writeError(w, r, http.StatusNotFound, "preview_not_ready", "the preview is not available")
		return
	}
	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("inline", map[string]string{"filename": doc.FileName}))
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(doc.Data)
}

func (s *Server) handlePreviewDismiss(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Close(chi.URLParam(r, "session")) {
		s.writeError(w, r, http.StatusNotFound, "session_not_found", "no preview for this session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type cropRequest struct {
	Image string     `json:"image"`
	Rect  photo.Rect `json:"rect"`
}

type cropResponse struct {
	Image string `json:"image"`
}

func (s *Server) handleCrop(w http.ResponseWriter, r *http.Request) {
	var req cropRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes)).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	src, err := photo.Resolve(r.Context(), req.Image, s.opts.Pipeline.Photo)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid_image", err.Error())
		return
	}
	data, err := photo.Crop(src.Data, req.Rect)
	switch {
	case errors.Is(err, photo.ErrInvalidCrop):
		s.writeError(w, r, http.StatusBadRequest, "invalid_crop", "crop width and height must be at least 1px and coordinates finite")
	case errors.Is(err, photo.ErrImageTooLarge):
		s.writeError(w, r, http.StatusUnprocessableEntity, "image_too_large", err.Error())
	case errors.Is(err, photo.ErrImageDecode):
		s.writeError(w, r, http.StatusUnprocessableEntity, "image_decode_failed", "the image could not be decoded")
	case err != nil:
		s.writeError(w, r, http.StatusInternalServerError, "crop_failed", "unable to crop the image")
	default:
		writeJSON(w, http.StatusOK, cropResponse{Image: photo.EncodeDataURI("image/jpeg", data)})
	}
}

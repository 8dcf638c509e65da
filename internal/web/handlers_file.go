package web

import (
	"bytes"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/tabedit/internal/core"
	"github.com/JonMunkholm/tabedit/internal/logging"
	"github.com/JonMunkholm/tabedit/internal/tabfile"
)

// multipartOverhead is allowed on top of the file size limit for the form
// boundaries and the other fields.
const multipartOverhead = 1 << 20

// handleUpload loads the posted file into the session.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := s.formFile(w, r, "file")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	sess := sessionFrom(r.Context())
	opts := core.DecodeOptions{Charset: r.FormValue("charset")}
	if _, err := s.service.Upload(r.Context(), sess, header.Filename, file, opts); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r)
}

// handleExport downloads the table as edited_data.xlsx or edited_data.csv
// depending on the route.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := tabfile.FormatFromName(r.URL.Path)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	t, err := sessionFrom(r.Context()).Exported(r.Context(), string(format))
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	// Encode fully before writing so an error can still become a response.
	var buf bytes.Buffer
	if err := tabfile.Encode(&buf, format, t); err != nil {
		s.respondError(w, r, err)
		return
	}

	logging.FromContext(r.Context()).Info("table exported",
		"format", format,
		"rows", t.Len(),
		"bytes", buf.Len(),
	)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, format.ExportName()))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// handleRecipeDownload returns the steps applied since the file was loaded.
func (s *Server) handleRecipeDownload(w http.ResponseWriter, r *http.Request) {
	recipe := sessionFrom(r.Context()).Recipe()
	if len(recipe.Steps) == 0 {
		s.respondError(w, r, core.ErrNoSteps)
		return
	}
	data, err := recipe.YAML()
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set("Content-Disposition", `attachment; filename="recipe.yaml"`)
	_, _ = w.Write(data)
}

// handleRecipeRun applies an uploaded recipe as one undoable step.
func (s *Server) handleRecipeRun(w http.ResponseWriter, r *http.Request) {
	file, _, err := s.formFile(w, r, "recipe")
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	recipe, err := core.LoadRecipe(file)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if _, err := sessionFrom(r.Context()).ApplyRecipe(r.Context(), recipe); err != nil {
		s.respondError(w, r, err)
		return
	}
	redirectHome(w, r)
}

// formFile bounds the request body and returns the named multipart file.
func (s *Server) formFile(w http.ResponseWriter, r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize)
		}
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingFile) {
			return nil, nil, errNoFile
		}
		return nil, nil, fmt.Errorf("%w: %w", errInvalidRequest, err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, errNoFile
	}
	return file, header, nil
}

package http

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"expensebook/internal/log"
	"expensebook/internal/store"
	"expensebook/internal/workbook"
)

// multipartMemory is how much of an upload ParseMultipartForm keeps in
// memory before spilling to disk.
const multipartMemory = 8 << 20

type importView struct {
	Revision  uint64 `json:"revision"`
	Entries   int    `json:"entries"`
	Months    int    `json:"months"`
	Summaries int    `json:"summaries"`
}

// handleImport replaces the whole state with the uploaded workbook. The file
// comes either as the "file" field of a multipart form or as the raw body.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, name, err := s.uploadedWorkbook(w, r)
	if err != nil {
		writeError(w, r, log.OpImport, err)
		return
	}
	defer body.Close()

	var (
		res workbook.Result
		rev uint64
	)
	err = s.guard.Do(func() error {
		var err error
		if res, err = workbook.Import(body); err != nil {
			return err
		}
		rev, err = s.store.Dispatch(store.ImportData{
			Expenses:  res.Expenses,
			Summaries: res.Summaries,
			Workbook:  res.Raw,
		})
		return err
	})
	if err != nil {
		writeError(w, r, log.OpImport, err)
		return
	}

	view := importView{
		Revision:  rev,
		Entries:   res.Expenses.Count(),
		Months:    len(res.Expenses),
		Summaries: len(res.Summaries),
	}
	s.logger.InfoContext(r.Context(), "Workbook imported",
		log.FieldFile, name,
		log.FieldBytes, len(res.Raw),
		log.FieldEntries, view.Entries,
		log.FieldRevision, rev)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) uploadedWorkbook(w http.ResponseWriter, r *http.Request) (io.ReadCloser, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.EqualFold(mediaType, "multipart/form-data") {
		return r.Body, "", nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, "", uploadError(err)
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", uploadError(err)
	}
	return file, header.Filename, nil
}

func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return fmt.Errorf("%w: %v", errBadRequest, err)
}

// handleExport streams the current state as a workbook attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var data []byte
	err := s.guard.Do(func() error {
		st := s.store.State()
		var err error
		data, err = workbook.Export(st.Expenses, st.Summaries, st.Workbook)
		return err
	})
	if err != nil {
		writeError(w, r, log.OpExport, err)
		return
	}

	name := workbook.FileName(s.exportYear, s.now())
	w.Header().Set("Content-Type", workbook.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.WarnContext(r.Context(), "Export write failed", log.FieldError, err, log.FieldFile, name)
		return
	}
	s.logger.InfoContext(r.Context(), "Workbook exported", log.FieldFile, name, log.FieldBytes, len(data))
}

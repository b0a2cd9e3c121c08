package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/yurifrl/conciliar/pkg/csv"
	"github.com/yurifrl/conciliar/pkg/models"
	"github.com/yurifrl/conciliar/pkg/review"
	"github.com/yurifrl/conciliar/pkg/service"
)

// Row represents a preview row in JSON responses.
type Row struct {
	RowIndex    int                    `json:"row_index"`
	DedupeKey   string                 `json:"dedupe_key"`
	Date        *models.Date           `json:"date"`
	Description string                 `json:"description"`
	Amount      string                 `json:"amount"`
	Display     string                 `json:"display"`
	Type        models.TransactionType `json:"type"`
	CategoryID  string                 `json:"category_id"`
	Status      review.Status          `json:"status"`
	ErrorReason string                 `json:"error_reason,omitempty"`
	Warning     string                 `json:"warning,omitempty"`
}

func toRow(r review.PreviewRow) Row {
	return Row{
		RowIndex:    r.RowIndex,
		DedupeKey:   r.DedupeKey,
		Date:        r.OccurrenceDate,
		Description: r.Description,
		Amount:      r.Amount.StringFixed(2),
		Display:     models.FormatBRL(r.Amount),
		Type:        r.Type,
		CategoryID:  r.CategoryID,
		Status:      r.Status,
		ErrorReason: r.ErrorReason,
		Warning:     r.Warning,
	}
}

// State represents a review session in JSON responses.
type State struct {
	SessionID string              `json:"session_id"`
	PeriodID  string              `json:"period_id"`
	FileName  string              `json:"file_name"`
	Format    models.SourceFormat `json:"format"`
	CardMode  bool                `json:"card_mode"`
	BillDate  *models.Date        `json:"bill_date,omitempty"`
	Rows      []Row               `json:"rows"`
	Counts    review.Counts       `json:"counts"`
}

func stateOf(id string, session *service.Session) State {
	st := session.State()
	rows := make([]Row, len(st.Rows))
	for i, r := range st.Rows {
		rows[i] = toRow(r)
	}
	return State{
		SessionID: id,
		PeriodID:  session.PeriodID(),
		FileName:  st.FileName,
		Format:    st.Format,
		CardMode:  st.CardMode,
		BillDate:  st.BillDate,
		Rows:      rows,
		Counts:    st.Counts,
	}
}

// ---------------- session handlers ----------------

// handleCreateSession parses an uploaded statement into a new review
// session. Form fields: statement (file), period (any day of the month,
// YYYY-MM-DD) and optional bill_date.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "failed to read form", err)
		return
	}
	file, header, err := r.FormFile("statement")
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "statement file required", err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, http.StatusInternalServerError, "failed to read file", err)
		return
	}

	day, err := models.ParseDate(r.FormValue("period"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "period must be a YYYY-MM-DD date", err)
		return
	}
	var billDate *models.Date
	if raw := r.FormValue("bill_date"); raw != "" {
		d, err := models.ParseDate(raw)
		if err != nil {
			s.respondError(w, r, http.StatusBadRequest, "bill_date must be a YYYY-MM-DD date", err)
			return
		}
		billDate = &d
	}

	period, err := s.svc.PeriodFor(r.Context(), day)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	session := s.svc.NewSession(period.ID)
	session.SetBillDate(billDate)
	if _, err := session.PreviewFile(r.Context(), header.Filename, data); err != nil {
		s.fail(w, r, err)
		return
	}

	id := uuid.NewString()
	s.sessions.Store(id, session)
	s.logger.Info("session created", "session_id", id, "file", header.Filename, "period_id", period.ID)
	s.success(w, map[string]any{"session": stateOf(id, session)})
}

// session resolves the {id} path value, responding 404 when unknown.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (string, *service.Session, bool) {
	id := r.PathValue("id")
	v, ok := s.sessions.Load(id)
	if !ok {
		s.respondError(w, r, http.StatusNotFound, "session not found", nil)
		return id, nil, false
	}
	return id, v.(*service.Session), true
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}
	s.success(w, map[string]any{"session": stateOf(id, session)})
}

func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	id, _, ok := s.session(w, r)
	if !ok {
		return
	}
	s.sessions.Delete(id)
	s.success(w, map[string]any{})
}

type rowEdit struct {
	DedupeKey  string `json:"dedupe_key"`
	CategoryID string `json:"category_id"`
	Status     string `json:"status"`
}

// rowKey reads the {row} path value and the request body.
func (s *Server) rowKey(w http.ResponseWriter, r *http.Request) (review.RowKey, rowEdit, bool) {
	var edit rowEdit
	idx, err := strconv.Atoi(r.PathValue("row"))
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "row must be a number", err)
		return review.RowKey{}, edit, false
	}
	if err := json.NewDecoder(r.Body).Decode(&edit); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid json body", err)
		return review.RowKey{}, edit, false
	}
	return review.RowKey{RowIndex: idx, DedupeKey: edit.DedupeKey}, edit, true
}

func (s *Server) handleRowCategory(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}
	key, edit, ok := s.rowKey(w, r)
	if !ok {
		return
	}
	row, err := session.ChangeRowCategory(key, edit.CategoryID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.success(w, map[string]any{"row": toRow(row), "counts": stateOf(id, session).Counts})
}

func (s *Server) handleRowStatus(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}
	key, edit, ok := s.rowKey(w, r)
	if !ok {
		return
	}
	status, err := review.ParseStatus(edit.Status)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "unknown status", err)
		return
	}
	row, err := session.ChangeRowStatus(key, status)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.success(w, map[string]any{"row": toRow(row), "counts": stateOf(id, session).Counts})
}

func (s *Server) handleBillDate(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		BillDate *models.Date `json:"bill_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "bill_date must be a YYYY-MM-DD date", err)
		return
	}
	session.SetBillDate(body.BillDate)
	s.success(w, map[string]any{"session": stateOf(id, session)})
}

func (s *Server) handleQuickCategory(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Name string `json:"name"`
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.respondError(w, r, http.StatusBadRequest, "invalid json body", err)
		return
	}
	typ, err := models.ParseTransactionType(body.Type)
	if err != nil {
		s.respondError(w, r, http.StatusBadRequest, "unknown transaction type", err)
		return
	}
	if strings.TrimSpace(body.Name) == "" {
		s.respondError(w, r, http.StatusBadRequest, "name required", nil)
		return
	}

	c, err := session.CreateQuickCategory(r.Context(), body.Name, typ)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.success(w, map[string]any{"category": c, "session": stateOf(id, session)})
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request) {
	id, session, ok := s.session(w, r)
	if !ok {
		return
	}
	// A client that hangs up mid-commit must not cancel the saga between
	// writes; the importer's own timeout still bounds it.
	res, err := session.ConfirmImport(context.WithoutCancel(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.sessions.Delete(id)
	s.logger.Info("session committed", "session_id", id, "job_id", res.JobID, "imported", res.Imported)
	s.success(w, map[string]any{"result": res})
}

// ---------------- export handlers ----------------

func (s *Server) handleExportPreview(w http.ResponseWriter, r *http.Request) {
	_, session, ok := s.session(w, r)
	if !ok {
		return
	}
	st := session.State()
	names := csv.CategoryNames(session.Categories())
	filename := strings.TrimSuffix(st.FileName, filepath.Ext(st.FileName)) + "-preview.csv"
	s.writeCSV(w, filename, csv.Create(csv.Rows(st.Rows, names), nil))
}

// handleExportPeriod writes the period's ledger entries. ?recurring=true
// keeps only recurring ones.
func (s *Server) handleExportPeriod(w http.ResponseWriter, r *http.Request) {
	periodID := r.PathValue("id")
	txs, err := s.svc.Transactions(r.Context(), periodID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	categories, err := s.svc.Categories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var filter csv.FilterFunc[csv.Entry]
	if r.URL.Query().Get("recurring") == "true" {
		filter = func(e csv.Entry) bool { return e.IsRecurring }
	}
	s.writeCSV(w, periodID+".csv", csv.Create(csv.Entries(txs, csv.CategoryNames(categories)), filter))
}

func (s *Server) writeCSV(w http.ResponseWriter, filename string, data []byte) {
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(data); err != nil {
		s.logger.Warn("failed to write csv response", "err", err)
	}
}

// ---------------- ledger handlers ----------------

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.svc.Categories(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.success(w, map[string]any{"categories": categories})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	force := r.URL.Query().Get("force") == "true"
	out, err := s.svc.SyncRecurrences(r.Context(), r.PathValue("id"), force)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.success(w, map[string]any{"sync": out})
}

func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.svc.ImportJobs(r.Context(), models.ImportJobStatus(r.URL.Query().Get("status")))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.success(w, map[string]any{"jobs": jobs})
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Recover(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.success(w, map[string]any{"recovery": rec})
}

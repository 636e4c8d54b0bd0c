package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kintreehq/kintree/pkg/cache"
	"github.com/kintreehq/kintree/pkg/codec"
	"github.com/kintreehq/kintree/pkg/date"
	"github.com/kintreehq/kintree/pkg/editor"
	"github.com/kintreehq/kintree/pkg/kterrors"
	"github.com/kintreehq/kintree/pkg/photo"
	"github.com/kintreehq/kintree/pkg/render"
	"github.com/kintreehq/kintree/pkg/tree"
	"github.com/kintreehq/kintree/pkg/tree/layout"
)

// importLimit caps the accepted size of an uploaded document.
const importLimit = 32 << 20

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	People  int    `json:"people"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  "ok",
		Version: s.version,
		People:  s.editor.Graph().Count(),
	})
}

// handleGetGraph returns the whole graph in interchange form.
func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, codec.FromGraph(s.editor.Graph()))
}

// handleGetLayout computes (or serves from cache) the positioned layout.
func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	g := s.editor.Graph()
	hash := tree.Hash(g)
	key := s.keyer.LayoutKey(hash, cache.LayoutKeyOpts{
		NodeWidth: s.metrics.NodeWidth,
		HGap:      s.metrics.HGap,
		VGap:      s.metrics.VGap,
	})

	if data, hit, err := s.cache.Get(r.Context(), key); err == nil && hit {
		writeRaw(w, "application/json", data)
		return
	}

	l := layout.Build(g, layout.WithMetrics(s.metrics), layout.WithLogger(s.logger))
	data, err := render.RenderJSON(l, render.WithJSONGraph(g), render.WithJSONHash(hash))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "rendering layout", err)
		return
	}

	if err := s.cache.Set(r.Context(), key, data, artifactTTL); err != nil {
		s.logger.Warn("layout cache write failed", "err", err)
	}
	writeRaw(w, "application/json", data)
}

// handleRenderSVG serves the hand-built SVG of the current layout.
func (s *Server) handleRenderSVG(w http.ResponseWriter, r *http.Request) {
	g := s.editor.Graph()
	key := s.keyer.ArtifactKey(tree.Hash(g), cache.ArtifactKeyOpts{Format: "svg"})

	if data, hit, err := s.cache.Get(r.Context(), key); err == nil && hit {
		writeRaw(w, "image/svg+xml", data)
		return
	}

	l := layout.Build(g, layout.WithMetrics(s.metrics), layout.WithLogger(s.logger))
	data := render.SVG(l, render.WithGraph(g), render.WithDates())

	if err := s.cache.Set(r.Context(), key, data, artifactTTL); err != nil {
		s.logger.Warn("render cache write failed", "err", err)
	}
	writeRaw(w, "image/svg+xml", data)
}

// handleExport serves the canonical interchange document as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.editor.ExportGraph()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "encoding document", err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="family.json"`)
	writeRaw(w, "application/json", data)
}

// handleImport replaces the graph with an uploaded document. A document
// failing the format check is rejected wholesale with a single message.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, importLimit))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading request body", err)
		return
	}

	if err := s.editor.ImportGraph(data); err != nil {
		var derr *codec.DecodeError
		if errors.As(err, &derr) {
			writeError(w, http.StatusBadRequest, derr.Error(), nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "importing document", err)
		return
	}
	writeJSON(w, http.StatusOK, codec.FromGraph(s.editor.Graph()))
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	s.savePerson(w, r, "")
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.editor.Graph().Contains(id) {
		writeError(w, http.StatusNotFound, "unknown person", nil)
		return
	}
	s.savePerson(w, r, id)
}

// savePerson decodes a person record, parses its dates and routes it
// through the editor. Date grammar violations join the editor's rule
// violations in one 422 response so the client can show everything at once.
func (s *Server) savePerson(w http.ResponseWriter, r *http.Request, id string) {
	var rec codec.PersonRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if id != "" {
		rec.ID = id
	}
	if rec.ID != "" {
		// Client-supplied IDs end up in URLs and storage keys.
		if err := kterrors.ValidatePersonID(rec.ID); err != nil {
			writeError(w, http.StatusBadRequest, kterrors.UserMessage(err), nil)
			return
		}
	}

	draft, msgs := draftFromRecord(rec)
	if len(msgs) > 0 {
		writeValidation(w, msgs)
		return
	}

	saved, err := s.editor.SavePerson(draft)
	if err != nil {
		s.writeEditorError(w, err)
		return
	}
	status := http.StatusOK
	if id == "" {
		status = http.StatusCreated
	}
	writeJSON(w, status, recordFromPerson(saved))
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.DeletePerson(chi.URLParam(r, "id")); err != nil {
		s.writeEditorError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setParentsRequest struct {
	ParentIDs []string `json:"parentIds"`
}

func (s *Server) handleSetParents(w http.ResponseWriter, r *http.Request) {
	var req setParentsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := s.editor.SetParents(chi.URLParam(r, "id"), req.ParentIDs); err != nil {
		s.writeEditorError(w, err)
		return
	}
	s.writePerson(w, chi.URLParam(r, "id"))
}

func (s *Server) handleAddSibling(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.AddSibling(chi.URLParam(r, "id"), chi.URLParam(r, "sid")); err != nil {
		s.writeEditorError(w, err)
		return
	}
	s.writePerson(w, chi.URLParam(r, "id"))
}

func (s *Server) handleRemoveSibling(w http.ResponseWriter, r *http.Request) {
	if err := s.editor.RemoveSibling(chi.URLParam(r, "id"), chi.URLParam(r, "sid")); err != nil {
		s.writeEditorError(w, err)
		return
	}
	s.writePerson(w, chi.URLParam(r, "id"))
}

// photoLimit caps the accepted size of an uploaded image.
const photoLimit = 16 << 20

type photoWarningResponse struct {
	Warning string             `json:"warning"`
	Person  codec.PersonRecord `json:"person"`
}

// handleSetPhoto re-encodes an uploaded image and attaches it to a person.
// An unusable image is a soft failure: the person stays untouched and the
// response carries a warning instead of an error.
func (s *Server) handleSetPhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := s.editor.Graph().Person(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown person", nil)
		return
	}

	payload, err := photo.Process(io.LimitReader(r.Body, photoLimit))
	if err != nil {
		s.logger.Warn("photo processing failed", "person", id, "err", err)
		writeJSON(w, http.StatusOK, photoWarningResponse{
			Warning: "photo could not be processed and was not attached",
			Person:  recordFromPerson(p),
		})
		return
	}

	draft := p.Clone()
	draft.Photo = payload
	saved, err := s.editor.SavePerson(draft)
	if err != nil {
		s.writeEditorError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, recordFromPerson(saved))
}

func (s *Server) handleRemovePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := s.editor.Graph().Person(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown person", nil)
		return
	}

	draft := p.Clone()
	draft.Photo = ""
	if _, err := s.editor.SavePerson(draft); err != nil {
		s.writeEditorError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ----- Helpers -----

func (s *Server) writePerson(w http.ResponseWriter, id string) {
	p, ok := s.editor.Graph().Person(id)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown person", nil)
		return
	}
	writeJSON(w, http.StatusOK, recordFromPerson(p))
}

// writeEditorError maps editor failures onto status codes: rule violations
// become 422 with the full message list, unknown IDs become 404.
func (s *Server) writeEditorError(w http.ResponseWriter, err error) {
	var verr *editor.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr.Messages)
	case errors.Is(err, tree.ErrUnknownPerson):
		writeError(w, http.StatusNotFound, "unknown person", nil)
	default:
		writeError(w, http.StatusInternalServerError, "applying edit", err)
	}
}

// draftFromRecord converts a wire record to an editor draft, collecting
// date grammar violations as user-facing messages.
func draftFromRecord(rec codec.PersonRecord) (*tree.Person, []string) {
	var msgs []string

	birth, err := date.Parse(rec.BirthDate)
	if err != nil {
		msgs = append(msgs, "birth date must be blank, a year, or YYYY-MM-DD")
	}
	death, err := date.Parse(rec.DeathDate)
	if err != nil {
		msgs = append(msgs, "death date must be blank, a year, or YYYY-MM-DD")
	}
	if len(msgs) > 0 {
		return nil, msgs
	}

	return &tree.Person{
		ID:         rec.ID,
		FirstName:  rec.FirstName,
		LastName:   rec.LastName,
		Birth:      birth,
		Death:      death,
		Photo:      rec.Photo,
		ParentIDs:  rec.ParentIDs,
		SiblingIDs: rec.SiblingIDs,
		Notes:      rec.Notes,
	}, nil
}

func recordFromPerson(p *tree.Person) codec.PersonRecord {
	return codec.PersonRecord{
		ID:         p.ID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		BirthDate:  p.Birth.String(),
		DeathDate:  p.Death.String(),
		Photo:      p.Photo,
		ParentIDs:  p.ParentIDs,
		SiblingIDs: p.SiblingIDs,
		Notes:      p.Notes,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string, err error) {
	resp := errorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

type validationResponse struct {
	Error    string   `json:"error"`
	Messages []string `json:"messages"`
}

func writeValidation(w http.ResponseWriter, msgs []string) {
	writeJSON(w, http.StatusUnprocessableEntity, validationResponse{
		Error:    "validation failed",
		Messages: msgs,
	})
}

package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"verse-rotator/internal/av"
	"verse-rotator/internal/bible"
	"verse-rotator/internal/compiler"
	"verse-rotator/internal/notes"
	"verse-rotator/internal/reference"
	"verse-rotator/internal/rotator"
	"verse-rotator/internal/settings"
	"verse-rotator/internal/store"
	"verse-rotator/internal/theme"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, rotator.ErrBusy),
		errors.Is(err, rotator.ErrUnavailable),
		errors.Is(err, notes.ErrExists):
		return http.StatusConflict
	case errors.Is(err, rotator.ErrReferenceNotFound), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, rotator.ErrDependencyMissing), errors.Is(err, notes.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, rotator.ErrDataLoad), errors.Is(err, compiler.ErrEmptyTranslation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, rotator.ErrOutOfRange),
		errors.Is(err, rotator.ErrInvalidArgument),
		errors.Is(err, notes.ErrNoName),
		errors.Is(err, compiler.ErrNoPrompts),
		errors.Is(err, compiler.ErrNoTranslation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Server) failErr(w http.ResponseWriter, err error) {
	code := statusFor(err)
	if code == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	fail(w, code, err.Error(), nil)
}

func badRequest(w http.ResponseWriter, msg string) {
	fail(w, http.StatusBadRequest, msg, nil)
}

func unavailable(w http.ResponseWriter, feature string) {
	fail(w, http.StatusServiceUnavailable, fmt.Sprintf("%s is unavailable", feature), nil)
}

func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// command runs fn under the lock and replies with the resulting state.
func (s *Server) command(w http.ResponseWriter, fn func() error) {
	var (
		err  error
		snap rotator.Snapshot
	)
	s.serial.Do(func() {
		err = fn()
		snap = s.ctrl.Snapshot()
	})
	if err != nil {
		s.failErr(w, err)
		return
	}
	success(w, snap, snap.Status.Text)
}

func (s *Server) getState(w http.ResponseWriter, r *http.Request) {
	var snap rotator.Snapshot
	s.serial.Do(func() { snap = s.ctrl.Snapshot() })
	success(w, snap, "")
}

func (s *Server) getFragment(w http.ResponseWriter, r *http.Request) {
	var doc string
	s.serial.Do(func() { doc = s.ctrl.Fragment().Document() })
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(doc))
}

type navigateRequest struct {
	Direction string `json:"direction"`
	Index     *int   `json:"index"`
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	s.command(w, func() error {
		if req.Index != nil {
			return s.ctrl.NavigateTo(*req.Index)
		}
		switch req.Direction {
		case "prev":
			return s.ctrl.Navigate(rotator.Prev)
		case "next", "":
			return s.ctrl.Navigate(rotator.Next)
		case "random":
			return s.ctrl.Random()
		}
		return fmt.Errorf("%w: direction %q", rotator.ErrInvalidArgument, req.Direction)
	})
}

type sourceRequest struct {
	Source string `json:"source"`
}

func (s *Server) pauseSource(w http.ResponseWriter, r *http.Request) (rotator.PauseSource, bool) {
	var req sourceRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			badRequest(w, "invalid request body")
			return "", false
		}
	}
	if req.Source == "" {
		return rotator.SourceUser, true
	}
	src, ok := rotator.ParsePauseSource(req.Source)
	if !ok {
		badRequest(w, fmt.Sprintf("unknown pause source %q", req.Source))
		return "", false
	}
	return src, true
}

func (s *Server) pause(w http.ResponseWriter, r *http.Request) {
	src, ok := s.pauseSource(w, r)
	if !ok {
		return
	}
	s.command(w, func() error {
		s.ctrl.Pause(src)
		return nil
	})
}

func (s *Server) resume(w http.ResponseWriter, r *http.Request) {
	src, ok := s.pauseSource(w, r)
	if !ok {
		return
	}
	s.command(w, func() error {
		s.ctrl.Resume(src)
		return nil
	})
}

func (s *Server) goTo(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reference string `json:"reference"`
	}
	if err := decode(r, &req); err != nil || req.Reference == "" {
		badRequest(w, "reference is required")
		return
	}
	s.command(w, func() error { return s.ctrl.GoTo(req.Reference) })
}

func (s *Server) setMode(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	m, ok := bible.ParseViewMode(req.Mode)
	if !ok {
		badRequest(w, fmt.Sprintf("unknown view mode %q", req.Mode))
		return
	}
	s.command(w, func() error { return s.ctrl.SetMode(r.Context(), m) })
}

func (s *Server) setTranslation(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID string `json:"id"`
	}
	if err := decode(r, &req); err != nil || req.ID == "" {
		badRequest(w, "translation id is required")
		return
	}
	s.command(w, func() error { return s.ctrl.SelectTranslation(r.Context(), req.ID) })
}

func (s *Server) setCollection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	s.command(w, func() error { return s.ctrl.SelectCollection(req.Name) })
}

func (s *Server) setInterval(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Minutes int `json:"minutes"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Minutes <= 0 {
		badRequest(w, "minutes must be positive")
		return
	}
	s.command(w, func() error { return s.ctrl.SetInterval(req.Minutes) })
}

func (s *Server) listTranslations(w http.ResponseWriter, r *http.Request) {
	var (
		ts     []bible.Translation
		active string
	)
	s.serial.Do(func() {
		ts = s.ctrl.Translations()
		active = s.ctrl.TranslationID()
	})
	success(w, map[string]any{"translations": ts, "active": active}, "")
}

func (s *Server) listCollections(w http.ResponseWriter, r *http.Request) {
	if s.collections == nil {
		unavailable(w, "collections")
		return
	}
	cols, err := s.collections.Collections(r.Context())
	if err != nil {
		s.failErr(w, err)
		return
	}
	var active string
	s.serial.Do(func() { active = s.ctrl.ActiveCollection() })
	success(w, map[string]any{"collections": cols, "active": active}, "")
}

type collectionRequest struct {
	// References are free-text lines such as "John 3:16-18".
	References []string         `json:"references"`
	Entries    []bible.EntryRef `json:"entries"`
}

func (s *Server) saveCollection(w http.ResponseWriter, r *http.Request) {
	if s.collections == nil {
		unavailable(w, "collections")
		return
	}
	name := pathParam(r, "name")
	var req collectionRequest
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	col := bible.Collection{Name: name, Entries: req.Entries}
	var unparsed []string
	for _, line := range req.References {
		found := reference.Extract(line)
		if len(found) == 0 {
			unparsed = append(unparsed, line)
			continue
		}
		for _, ex := range found {
			col.Entries = append(col.Entries, ex.Ref.Entry())
		}
	}
	if len(unparsed) > 0 {
		fail(w, http.StatusBadRequest, "some references could not be parsed", unparsed)
		return
	}

	if err := s.collections.SaveCollection(r.Context(), col); err != nil {
		s.failErr(w, err)
		return
	}
	s.refreshCollections(r)
	success(w, col.Normalized(), fmt.Sprintf("Collection %q saved.", name))
}

func (s *Server) deleteCollection(w http.ResponseWriter, r *http.Request) {
	if s.collections == nil {
		unavailable(w, "collections")
		return
	}
	name := pathParam(r, "name")
	if err := s.collections.DeleteCollection(r.Context(), name); err != nil {
		s.failErr(w, err)
		return
	}
	s.refreshCollections(r)
	success(w, nil, fmt.Sprintf("Collection %q deleted.", name))
}

func (s *Server) refreshCollections(r *http.Request) {
	s.serial.Do(func() {
		if err := s.ctrl.RefreshCollections(r.Context()); err != nil {
			s.log.Warn("failed to refresh collections", zap.Error(err))
		}
	})
}

func (s *Server) compile(w http.ResponseWriter, r *http.Request) {
	if s.compiler == nil {
		unavailable(w, "bulk compiler")
		return
	}
	var req struct {
		Translation string `json:"translation"`
		Prompts     string `json:"prompts"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if req.Translation == "" {
		req.Translation = s.compiler.LastTranslation()
	}
	res, err := s.compiler.Run(r.Context(), req.Translation, req.Prompts)
	if err != nil {
		s.failErr(w, err)
		return
	}
	success(w, res, res.Summary())
}

func (s *Server) listNotes(w http.ResponseWriter, r *http.Request) {
	if s.notes == nil {
		unavailable(w, "notes")
		return
	}
	var (
		listing notes.Listing
		err     error
	)
	s.serial.Do(func() {
		if err = s.notes.Refresh(r.Context()); err == nil {
			listing = s.notes.List(r.URL.Query().Get("search"))
		}
	})
	if err != nil {
		s.failErr(w, err)
		return
	}
	success(w, listing, "")
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	if s.notes == nil {
		unavailable(w, "notes")
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	var (
		n   bible.Note
		err error
	)
	s.serial.Do(func() {
		if err = s.notes.Refresh(r.Context()); err == nil {
			n, err = s.notes.Create(r.Context(), req.Name)
		}
	})
	if err != nil {
		s.failErr(w, err)
		return
	}
	created(w, n, fmt.Sprintf("Note %q created.", n.Name))
}

func (s *Server) getNote(w http.ResponseWriter, r *http.Request) {
	if s.notes == nil {
		unavailable(w, "notes")
		return
	}
	var (
		n   bible.Note
		err error
	)
	s.serial.Do(func() { n, err = s.notes.Open(r.Context(), pathParam(r, "name")) })
	if err != nil {
		s.failErr(w, err)
		return
	}
	success(w, n, "")
}

func (s *Server) saveNote(w http.ResponseWriter, r *http.Request) {
	if s.notes == nil {
		unavailable(w, "notes")
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	name := pathParam(r, "name")
	var err error
	s.serial.Do(func() { err = s.notes.Save(r.Context(), name, req.Content) })
	if err != nil {
		s.failErr(w, err)
		return
	}
	success(w, nil, fmt.Sprintf("Note %q saved.", name))
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	if s.notes == nil {
		unavailable(w, "notes")
		return
	}
	name := pathParam(r, "name")
	var err error
	s.serial.Do(func() { err = s.notes.Delete(r.Context(), name) })
	if err != nil {
		s.failErr(w, err)
		return
	}
	success(w, nil, fmt.Sprintf("Note %q deleted.", name))
}

func (s *Server) previewNote(w http.ResponseWriter, r *http.Request) {
	if s.notes == nil {
		unavailable(w, "notes")
		return
	}
	var (
		n   bible.Note
		err error
	)
	s.serial.Do(func() { n, err = s.notes.Open(r.Context(), pathParam(r, "name")) })
	if err != nil {
		s.failErr(w, err)
		return
	}
	html, err := notes.PreviewHTML(n.Content)
	if err != nil {
		s.failErr(w, err)
		return
	}
	success(w, map[string]string{"html": html}, "")
}

type avResponse struct {
	Settings av.Settings `json:"settings"`
	Image    string      `json:"image"`
	Images   []av.Asset  `json:"images"`
	Sounds   []av.Asset  `json:"sounds"`
	Music    []av.Asset  `json:"music"`
}

func (s *Server) avState() avResponse {
	return avResponse{
		Settings: s.av.Settings(),
		Image:    s.av.BackgroundImage(),
		Images:   av.Images,
		Sounds:   av.Sounds,
		Music:    av.Music,
	}
}

func (s *Server) getAV(w http.ResponseWriter, r *http.Request) {
	if s.av == nil {
		unavailable(w, "audiovisual system")
		return
	}
	var resp avResponse
	s.serial.Do(func() { resp = s.avState() })
	success(w, resp, "")
}

func (s *Server) putAV(w http.ResponseWriter, r *http.Request) {
	if s.av == nil {
		unavailable(w, "audiovisual system")
		return
	}
	var next av.Settings
	s.serial.Do(func() { next = s.av.Settings() })
	if err := decode(r, &next); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	var (
		resp avResponse
		err  error
	)
	s.serial.Do(func() {
		if err = s.av.Update(r.Context(), next); err == nil {
			resp = s.avState()
		}
	})
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	success(w, resp, "Audiovisual settings saved.")
}

// Preferences are the display settings a browser front end applies.
type Preferences struct {
	Theme           string `json:"theme"`
	FontSize        int    `json:"fontSize"`
	FontFamily      string `json:"fontFamily"`
	ShowProgress    bool   `json:"showProgress"`
	Fullscreen      bool   `json:"fullscreen"`
	IntervalMinutes int    `json:"intervalMinutes"`
}

func (s *Server) preferences() Preferences {
	return Preferences{
		Theme:           theme.Get(s.prefs.GetOr(settings.KeyTheme, settings.DefaultTheme)).Key,
		FontSize:        s.prefs.Int(settings.KeyFontSize, settings.DefaultFontSize),
		FontFamily:      s.prefs.GetOr(settings.KeyFontFamily, settings.DefaultFontFamily),
		ShowProgress:    s.prefs.Bool(settings.KeyShowProgress, true),
		Fullscreen:      s.prefs.Bool(settings.KeyFullscreen, false),
		IntervalMinutes: int(s.prefs.Interval().Minutes()),
	}
}

func (s *Server) getPreferences(w http.ResponseWriter, r *http.Request) {
	var p Preferences
	s.serial.Do(func() { p = s.preferences() })
	success(w, p, "")
}

func (s *Server) putPreferences(w http.ResponseWriter, r *http.Request) {
	var p Preferences
	s.serial.Do(func() { p = s.preferences() })
	if err := decode(r, &p); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	if _, ok := theme.Lookup(p.Theme); !ok {
		badRequest(w, fmt.Sprintf("unknown theme %q", p.Theme))
		return
	}
	if p.FontSize < 50 || p.FontSize > 300 {
		badRequest(w, "font size must be between 50 and 300")
		return
	}
	if p.IntervalMinutes <= 0 || p.IntervalMinutes > settings.MaxIntervalMinutes {
		badRequest(w, fmt.Sprintf("interval must be between 1 and %d minutes", settings.MaxIntervalMinutes))
		return
	}

	var err error
	s.serial.Do(func() {
		for _, set := range []func() error{
			func() error { return s.prefs.Set(settings.KeyTheme, theme.Get(p.Theme).Key) },
			func() error { return s.prefs.Set(settings.KeyFontSize, strconv.Itoa(p.FontSize)) },
			func() error { return s.prefs.Set(settings.KeyFontFamily, p.FontFamily) },
			func() error { return s.prefs.SetBool(settings.KeyShowProgress, p.ShowProgress) },
			func() error { return s.prefs.SetBool(settings.KeyFullscreen, p.Fullscreen) },
			func() error { return s.ctrl.SetInterval(p.IntervalMinutes) },
		} {
			if err = set(); err != nil {
				return
			}
		}
		p = s.preferences()
	})
	if err != nil {
		s.failErr(w, err)
		return
	}
	success(w, p, "Preferences saved.")
}

func (s *Server) getTheme(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		s.serial.Do(func() { name = s.prefs.GetOr(settings.KeyTheme, settings.DefaultTheme) })
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Write([]byte(theme.Get(name).CSSVariables()))
}

package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/pseudomuto/transformctl/pkg/api"
)

const testProject = "test-project"

type (
	// Request is a request received by a Server.
	Request struct {
		Method string
		Path   string
		Query  string
		Header http.Header
		Body   []byte
	}

	// Server is an in-memory transformations API. It keeps enough state for
	// consecutive deploys to observe each other's changes.
	Server struct {
		*httptest.Server

		// Project is the only project the server answers for.
		Project string

		mu              sync.Mutex
		transformations []api.Transformation
		schedules       []api.Schedule
		notifications   []api.Notification
		dataSets        map[string]int64
		failures        map[string]int
		requests        []Request
		nextID          int64
	}

	itemsRequest[T any] struct {
		Items            []T  `json:"items"`
		IgnoreUnknownIDs bool `json:"ignoreUnknownIds"`
	}

	updateItem struct {
		ExternalID string                                `json:"externalId"`
		Update     map[string]map[string]json.RawMessage `json:"update"`
	}
)

// NewServer starts a Server that is closed when the test ends.
func NewServer(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		Project:  testProject,
		dataSets: make(map[string]int64),
		failures: make(map[string]int),
		nextID:   1000,
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)

	return s
}

// APIConfig returns a client configuration pointing at the server.
func (s *Server) APIConfig() api.Config {
	return api.Config{
		BaseURL:      s.URL,
		Project:      s.Project,
		APIKey:       "test-key",
		RateLimit:    1000,
		RateBurst:    100,
		RetryBackoff: 1,
	}
}

// AddTransformation stores t as if it had been created earlier and returns its id.
func (s *Server) AddTransformation(t api.Transformation) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t.ID = s.nextID
	s.transformations = append(s.transformations, t)
	return t.ID
}

// AddSchedule stores a schedule for an existing transformation.
func (s *Server) AddSchedule(sch api.Schedule) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.schedules = append(s.schedules, sch)
}

// AddNotification stores a notification for an existing transformation.
func (s *Server) AddNotification(externalID, destination string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	s.notifications = append(s.notifications, api.Notification{
		ID:                       s.nextID,
		TransformationExternalID: externalID,
		Destination:              destination,
	})
}

// AddDataSet registers a data set external id.
func (s *Server) AddDataSet(externalID string, id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.dataSets[externalID] = id
}

// FailPath makes every request to path (relative to the project) answer with
// status.
func (s *Server) FailPath(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[path] = status
}

// Transformations returns a copy of the stored transformations.
func (s *Server) Transformations() []api.Transformation {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.transformations)
}

// Transformation returns the stored transformation with externalID.
func (s *Server) Transformation(externalID string) (api.Transformation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.transformationIndex(api.ByExternalID(externalID))
	if i < 0 {
		return api.Transformation{}, false
	}

	return s.transformations[i], true
}

// Schedules returns a copy of the stored schedules.
func (s *Server) Schedules() []api.Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.schedules)
}

// Notifications returns a copy of the stored notifications.
func (s *Server) Notifications() []api.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.notifications)
}

// Requests returns every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.requests)
}

// Paths returns "METHOD path" for every request received so far, with the
// project prefix removed.
func (s *Server) Paths() []string {
	reqs := s.Requests()
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.Method + " " + r.Path
	}

	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := "/api/v1/projects/" + s.Project
	if !strings.HasPrefix(r.URL.Path, prefix) {
		writeError(w, http.StatusForbidden, "unknown project", nil)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, prefix)
	body, _ := io.ReadAll(r.Body)
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   path,
		Query:  r.URL.RawQuery,
		Header: r.Header.Clone(),
		Body:   body,
	})

	if status, ok := s.failures[path]; ok {
		writeError(w, status, "injected failure", nil)
		return
	}

	switch r.Method + " " + path {
	case "POST /transformations/byids":
		s.retrieveTransformations(w, body)
	case "POST /transformations":
		s.createTransformations(w, body)
	case "POST /transformations/update":
		s.updateTransformations(w, body)
	case "POST /transformations/delete":
		s.deleteTransformations(w, body)
	case "POST /transformations/schedules/byids":
		s.retrieveSchedules(w, body)
	case "POST /transformations/schedules":
		s.createSchedules(w, body)
	case "POST /transformations/schedules/update":
		s.updateSchedules(w, body)
	case "POST /transformations/schedules/delete":
		s.deleteSchedules(w, body)
	case "GET /transformations/notifications":
		s.listNotifications(w, r)
	case "POST /transformations/notifications":
		s.createNotifications(w, body)
	case "POST /transformations/notifications/delete":
		s.deleteNotifications(w, body)
	case "POST /datasets/byids":
		s.retrieveDataSets(w, body)
	default:
		writeError(w, http.StatusNotFound, "no route for "+r.Method+" "+path, nil)
	}
}

func (s *Server) retrieveTransformations(w http.ResponseWriter, body []byte) {
	var req itemsRequest[api.Identifier]
	if !decode(w, body, &req) {
		return
	}

	var (
		out     []api.Transformation
		missing []api.Identifier
	)
	for _, id := range req.Items {
		i := s.transformationIndex(id)
		if i < 0 {
			missing = append(missing, id)
			continue
		}
		out = append(out, s.transformations[i])
	}

	if len(missing) > 0 && !req.IgnoreUnknownIDs {
		writeError(w, http.StatusBadRequest, "ids not found", missing)
		return
	}

	writeItems(w, out, "")
}

func (s *Server) createTransformations(w http.ResponseWriter, body []byte) {
	var req itemsRequest[api.Transformation]
	if !decode(w, body, &req) {
		return
	}

	var dupes []api.Identifier
	for _, t := range req.Items {
		if s.transformationIndex(api.ByExternalID(t.ExternalID)) >= 0 {
			dupes = append(dupes, api.ByExternalID(t.ExternalID))
		}
	}
	if len(dupes) > 0 {
		writeDuplicated(w, dupes)
		return
	}

	for i := range req.Items {
		s.nextID++
		req.Items[i].ID = s.nextID
		s.transformations = append(s.transformations, req.Items[i])
	}

	writeItems(w, req.Items, "")
}

func (s *Server) updateTransformations(w http.ResponseWriter, body []byte) {
	var req itemsRequest[updateItem]
	if !decode(w, body, &req) {
		return
	}

	var out []api.Transformation
	for _, u := range req.Items {
		i := s.transformationIndex(api.ByExternalID(u.ExternalID))
		if i < 0 {
			writeError(w, http.StatusBadRequest, "ids not found", []api.Identifier{api.ByExternalID(u.ExternalID)})
			return
		}

		if err := applyPatch(&s.transformations[i], u.Update); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		out = append(out, s.transformations[i])
	}

	writeItems(w, out, "")
}

func (s *Server) deleteTransformations(w http.ResponseWriter, body []byte) {
	var req itemsRequest[api.Identifier]
	if !decode(w, body, &req) {
		return
	}

	for _, id := range req.Items {
		i := s.transformationIndex(id)
		if i < 0 {
			if !req.IgnoreUnknownIDs {
				writeError(w, http.StatusBadRequest, "ids not found", []api.Identifier{id})
				return
			}
			continue
		}

		extID := s.transformations[i].ExternalID
		s.transformations = slices.Delete(s.transformations, i, i+1)
		s.schedules = slices.DeleteFunc(s.schedules, func(sch api.Schedule) bool { return sch.ExternalID == extID })
		s.notifications = slices.DeleteFunc(s.notifications, func(n api.Notification) bool {
			return n.TransformationExternalID == extID
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) retrieveSchedules(w http.ResponseWriter, body []byte) {
	var req itemsRequest[api.Identifier]
	if !decode(w, body, &req) {
		return
	}

	var out []api.Schedule
	for _, id := range req.Items {
		if i := s.scheduleIndex(id.ExternalID); i >= 0 {
			out = append(out, s.schedules[i])
		}
	}

	writeItems(w, out, "")
}

func (s *Server) createSchedules(w http.ResponseWriter, body []byte) {
	var req itemsRequest[api.Schedule]
	if !decode(w, body, &req) {
		return
	}

	for _, sch := range req.Items {
		if s.transformationIndex(api.ByExternalID(sch.ExternalID)) < 0 {
			writeError(w, http.StatusBadRequest, "ids not found", []api.Identifier{api.ByExternalID(sch.ExternalID)})
			return
		}
		if s.scheduleIndex(sch.ExternalID) >= 0 {
			writeDuplicated(w, []api.Identifier{api.ByExternalID(sch.ExternalID)})
			return
		}
	}

	s.schedules = append(s.schedules, req.Items...)
	writeItems(w, req.Items, "")
}

func (s *Server) updateSchedules(w http.ResponseWriter, body []byte) {
	var req itemsRequest[updateItem]
	if !decode(w, body, &req) {
		return
	}

	var out []api.Schedule
	for _, u := range req.Items {
		i := s.scheduleIndex(u.ExternalID)
		if i < 0 {
			writeError(w, http.StatusBadRequest, "ids not found", []api.Identifier{api.ByExternalID(u.ExternalID)})
			return
		}

		if err := applyPatch(&s.schedules[i], u.Update); err != nil {
			writeError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
		out = append(out, s.schedules[i])
	}

	writeItems(w, out, "")
}

func (s *Server) deleteSchedules(w http.ResponseWriter, body []byte) {
	var req itemsRequest[api.Identifier]
	if !decode(w, body, &req) {
		return
	}

	s.schedules = slices.DeleteFunc(s.schedules, func(sch api.Schedule) bool {
		return slices.Contains(req.Items, api.ByExternalID(sch.ExternalID))
	})

	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	extID := q.Get("transformationExternalId")

	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = 100
	}

	offset := 0
	if c := q.Get("cursor"); c != "" {
		if offset, err = strconv.Atoi(c); err != nil {
			writeError(w, http.StatusBadRequest, "invalid cursor", nil)
			return
		}
	}

	var matches []api.Notification
	for _, n := range s.notifications {
		if n.TransformationExternalID == extID {
			matches = append(matches, n)
		}
	}

	end := min(offset+limit, len(matches))
	cursor := ""
	if end < len(matches) {
		cursor = strconv.Itoa(end)
	}

	writeItems(w, matches[min(offset, end):end], cursor)
}

func (s *Server) createNotifications(w http.ResponseWriter, body []byte) {
	var req itemsRequest[api.Notification]
	if !decode(w, body, &req) {
		return
	}

	for i, n := range req.Items {
		ti := s.transformationIndex(api.ByExternalID(n.TransformationExternalID))
		if ti < 0 {
			writeError(w, http.StatusBadRequest, "ids not found", []api.Identifier{api.ByExternalID(n.TransformationExternalID)})
			return
		}

		s.nextID++
		req.Items[i].ID = s.nextID
		req.Items[i].TransformationID = s.transformations[ti].ID
	}

	s.notifications = append(s.notifications, req.Items...)
	writeItems(w, req.Items, "")
}

func (s *Server) deleteNotifications(w http.ResponseWriter, body []byte) {
	var req itemsRequest[api.Identifier]
	if !decode(w, body, &req) {
		return
	}

	s.notifications = slices.DeleteFunc(s.notifications, func(n api.Notification) bool {
		return slices.Contains(req.Items, api.ByID(n.ID))
	})

	writeJSON(w, http.StatusOK, map[string]any{})
}

func (s *Server) retrieveDataSets(w http.ResponseWriter, body []byte) {
	var req itemsRequest[api.Identifier]
	if !decode(w, body, &req) {
		return
	}

	var (
		out     []api.DataSet
		missing []api.Identifier
	)
	for _, id := range req.Items {
		n, ok := s.dataSets[id.ExternalID]
		if !ok {
			missing = append(missing, id)
			continue
		}
		out = append(out, api.DataSet{ID: n, ExternalID: id.ExternalID})
	}

	if len(missing) > 0 {
		writeError(w, http.StatusBadRequest, "ids not found", missing)
		return
	}

	writeItems(w, out, "")
}

func (s *Server) transformationIndex(id api.Identifier) int {
	return slices.IndexFunc(s.transformations, func(t api.Transformation) bool {
		if id.ExternalID != "" {
			return t.ExternalID == id.ExternalID
		}
		return t.ID == id.ID
	})
}

func (s *Server) scheduleIndex(externalID string) int {
	return slices.IndexFunc(s.schedules, func(sch api.Schedule) bool { return sch.ExternalID == externalID })
}

// applyPatch applies set and setNull field changes to v through its JSON form.
func applyPatch(v any, fields map[string]map[string]json.RawMessage) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	for name, patch := range fields {
		if val, ok := patch["set"]; ok {
			doc[name] = val
			continue
		}
		if _, ok := patch["setNull"]; ok {
			delete(doc, name)
		}
	}

	data, err = json.Marshal(doc)
	if err != nil {
		return err
	}

	// Start from zero so that cleared fields do not survive the round trip.
	switch p := v.(type) {
	case *api.Transformation:
		*p = api.Transformation{}
	case *api.Schedule:
		*p = api.Schedule{}
	}

	return json.Unmarshal(data, v)
}

func decode(w http.ResponseWriter, body []byte, v any) bool {
	if err := json.Unmarshal(body, v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body: "+err.Error(), nil)
		return false
	}

	return true
}

func writeItems[T any](w http.ResponseWriter, items []T, cursor string) {
	if items == nil {
		items = []T{}
	}

	resp := map[string]any{"items": items}
	if cursor != "" {
		resp["nextCursor"] = cursor
	}

	writeJSON(w, http.StatusOK, resp)
}

func writeError(w http.ResponseWriter, status int, msg string, missing []api.Identifier) {
	body := map[string]any{"code": status, "message": msg}
	if len(missing) > 0 {
		body["missing"] = missing
	}

	writeJSON(w, status, map[string]any{"error": body})
}

func writeDuplicated(w http.ResponseWriter, dupes []api.Identifier) {
	writeJSON(w, http.StatusConflict, map[string]any{"error": map[string]any{
		"code":       http.StatusConflict,
		"message":    "already exists",
		"duplicated": dupes,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

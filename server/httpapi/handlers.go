package httpapi

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/packrun/packrun/server/game"
	"github.com/packrun/packrun/server/gameerr"
	"github.com/packrun/packrun/server/model"
)

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Code: code, Message: message})
}

// writeGameErr maps a gameerr kind to its HTTP status, per the error
// handling policy: the core surfaces kinds, this adapter maps them.
func writeGameErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, gameerr.ErrMapNotFound):
		writeError(w, http.StatusNotFound, "mapNotFound", err.Error())
	case errors.Is(err, gameerr.ErrInvalidName):
		writeError(w, http.StatusBadRequest, "invalidArgument", err.Error())
	case errors.Is(err, gameerr.ErrTokenMissing), errors.Is(err, gameerr.ErrTokenMalformed):
		writeError(w, http.StatusUnauthorized, "invalidToken", err.Error())
	case errors.Is(err, gameerr.ErrTokenUnknown):
		writeError(w, http.StatusUnauthorized, "unknownToken", err.Error())
	case errors.Is(err, gameerr.ErrInvalidAction):
		writeError(w, http.StatusBadRequest, "invalidArgument", err.Error())
	case errors.Is(err, gameerr.ErrParse):
		writeError(w, http.StatusBadRequest, "invalidArgument", err.Error())
	case errors.Is(err, gameerr.ErrManualTickOff):
		writeError(w, http.StatusBadRequest, "invalidArgument", err.Error())
	case errors.Is(err, gameerr.ErrInternal):
		writeError(w, http.StatusInternalServerError, "internalError", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internalError", err.Error())
	}
}

// bearerToken extracts and validates the Authorization header, returning
// gameerr.ErrTokenMissing/ErrTokenMalformed for shapes other than
// "Bearer " + exactly 32 hex characters.
func bearerToken(r *http.Request) (game.Token, error) {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return "", gameerr.ErrTokenMissing
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", gameerr.ErrTokenMalformed
	}
	raw := strings.TrimPrefix(auth, prefix)
	if len(raw) != 32 {
		return "", gameerr.ErrTokenMalformed
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", gameerr.ErrTokenMalformed
	}
	return game.Token(strings.ToLower(raw)), nil
}

func (h *Handler) listMaps(w http.ResponseWriter, r *http.Request) {
	type entry struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	maps := h.Manager.Maps()
	out := make([]entry, len(maps))
	for i, m := range maps {
		out[i] = entry{ID: m.ID, Name: m.Name}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) getMap(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	mp, ok := h.Manager.MapByID(id)
	if !ok {
		writeGameErr(w, gameerr.ErrMapNotFound)
		return
	}

	type road struct {
		X0 float64 `json:"x0"`
		Y0 float64 `json:"y0"`
		X1 float64 `json:"x1,omitempty"`
		Y1 float64 `json:"y1,omitempty"`
	}
	type office struct {
		ID      string `json:"id"`
		X       float64 `json:"x"`
		Y       float64 `json:"y"`
		OffsetX int     `json:"offsetX"`
		OffsetY int     `json:"offsetY"`
	}
	type building struct {
		X int `json:"x"`
		Y int `json:"y"`
		W int `json:"w"`
		H int `json:"h"`
	}
	resp := struct {
		ID        string           `json:"id"`
		Name      string           `json:"name"`
		Roads     []road           `json:"roads"`
		Buildings []building       `json:"buildings"`
		Offices   []office         `json:"offices"`
		LootTypes []map[string]any `json:"lootTypes"`
	}{ID: mp.ID, Name: mp.Name}

	for _, rd := range mp.Roads {
		resp.Roads = append(resp.Roads, road{X0: rd.Start.X(), Y0: rd.Start.Y(), X1: rd.End.X(), Y1: rd.End.Y()})
	}
	for _, b := range mp.Buildings {
		resp.Buildings = append(resp.Buildings, building{X: b.X, Y: b.Y, W: b.Width, H: b.Height})
	}
	for _, o := range mp.Offices {
		resp.Offices = append(resp.Offices, office{ID: o.ID, X: o.Pos.X(), Y: o.Pos.Y(), OffsetX: o.OffsetX, OffsetY: o.OffsetY})
	}
	for _, lt := range mp.LootTypes {
		resp.LootTypes = append(resp.LootTypes, lt.Extra)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UserName string `json:"userName"`
		MapID    string `json:"mapId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeGameErr(w, gameerr.ErrParse)
		return
	}
	j, err := h.Manager.Join(body.MapID, body.UserName)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		AuthToken string `json:"authToken"`
		PlayerID  int    `json:"playerId"`
	}{AuthToken: string(j.Token), PlayerID: j.DogID})
}

func (h *Handler) players(w http.ResponseWriter, r *http.Request) {
	tok, err := bearerToken(r)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	roster, err := h.Manager.Players(tok)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	out := make(map[string]struct {
		Name string `json:"name"`
	}, len(roster))
	for id, name := range roster {
		out[strconv.Itoa(id)] = struct {
			Name string `json:"name"`
		}{Name: name}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	tok, err := bearerToken(r)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	st, err := h.Manager.State(tok)
	if err != nil {
		writeGameErr(w, err)
		return
	}

	type playerView struct {
		Pos   [2]float64      `json:"pos"`
		Speed [2]float64      `json:"speed"`
		Dir   string          `json:"dir"`
		Bag   []model.BagItem `json:"bag"`
		Score int             `json:"score"`
	}
	players := make(map[string]playerView, len(st.Dogs))
	for _, d := range st.Dogs {
		players[strconv.Itoa(d.ID)] = playerView{
			Pos:   [2]float64{d.Pos.X(), d.Pos.Y()},
			Speed: [2]float64{d.Speed.X(), d.Speed.Y()},
			Dir:   d.Dir.Letter(),
			Bag:   d.Bag,
			Score: d.Score,
		}
	}

	type lostView struct {
		Type int        `json:"type"`
		Pos  [2]float64 `json:"pos"`
	}
	lost := make(map[string]lostView, len(st.Lost))
	for i, lo := range st.Lost {
		lost[strconv.Itoa(i)] = lostView{Type: lo.Type, Pos: [2]float64{lo.Pos.X(), lo.Pos.Y()}}
	}

	writeJSON(w, http.StatusOK, struct {
		Players     map[string]playerView `json:"players"`
		LostObjects map[string]lostView   `json:"lostObjects"`
	}{Players: players, LostObjects: lost})
}

func (h *Handler) action(w http.ResponseWriter, r *http.Request) {
	tok, err := bearerToken(r)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	var body struct {
		Move string `json:"move"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeGameErr(w, gameerr.ErrParse)
		return
	}
	if body.Move != "" && body.Move != "U" && body.Move != "D" && body.Move != "L" && body.Move != "R" {
		writeGameErr(w, gameerr.ErrInvalidAction)
		return
	}
	dir := model.ParseDirection(body.Move)
	if err := h.Manager.SetDirection(tok, dir); err != nil {
		writeGameErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) tick(w http.ResponseWriter, r *http.Request) {
	if !h.ManualTick {
		writeGameErr(w, gameerr.ErrManualTickOff)
		return
	}
	var body struct {
		TimeDelta int `json:"timeDelta"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.TimeDelta <= 0 {
		writeGameErr(w, gameerr.ErrParse)
		return
	}
	if err := h.Manager.Tick(r.Context(), time.Duration(body.TimeDelta)*time.Millisecond); err != nil {
		writeGameErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) records(w http.ResponseWriter, r *http.Request) {
	start := 0
	maxItems := 100
	if v := r.URL.Query().Get("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeGameErr(w, gameerr.ErrParse)
			return
		}
		start = n
	}
	if v := r.URL.Query().Get("maxItems"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 100 {
			writeGameErr(w, gameerr.ErrParse)
			return
		}
		maxItems = n
	}
	recs, err := h.Manager.Records(r.Context(), start, maxItems)
	if err != nil {
		writeGameErr(w, err)
		return
	}
	type entry struct {
		Name     string  `json:"name"`
		Score    int     `json:"score"`
		PlayTime float64 `json:"playTime"`
	}
	out := make([]entry, len(recs))
	for i, rec := range recs {
		out[i] = entry{Name: rec.Name, Score: rec.Score, PlayTime: rec.PlayTimeSecs}
	}
	writeJSON(w, http.StatusOK, out)
}

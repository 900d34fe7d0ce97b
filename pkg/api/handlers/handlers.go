package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cbodonnell/planetwars/pkg/game"
	"github.com/cbodonnell/planetwars/pkg/game/types"
	"github.com/cbodonnell/planetwars/pkg/log"
	"github.com/cbodonnell/planetwars/pkg/planetwars"
	"github.com/cbodonnell/planetwars/pkg/repositories"
	"github.com/gorilla/mux"
)

const (
	// DefaultMaxTurns is used when a lobby request does not set max_turns.
	DefaultMaxTurns = 500
	// MapExt is the extension of map files in the maps directory.
	MapExt = ".json"
)

// Lobby starts sessions and reports on them.
type Lobby interface {
	StartGame(cfg game.Config) (string, error)
	GetState(id string) types.SessionState
	ListStates() []types.SessionState
}

// KeyStore hands out the join keys of a session.
type KeyStore interface {
	Keys(sessionID string) map[types.PlayerID]uint64
}

// LobbyOptions configures the games created through the lobby.
type LobbyOptions struct {
	MapsDir        string
	ReplayDir      string
	CompressReplay bool
	TurnTimeout    time.Duration
	MaxPlayers     int
}

// CreateLobbyRequest is the body of POST /lobby.
type CreateLobbyRequest struct {
	Name     string `json:"name"`
	Players  int    `json:"nop"`
	MaxTurns uint64 `json:"max_turns"`
	Map      string `json:"map"`
}

// CreateLobbyResponse returns the join keys of the new session, ordered
// by player.
type CreateLobbyResponse struct {
	ID    string             `json:"id"`
	Keys  []uint64           `json:"keys"`
	State types.SessionState `json:"state"`
}

type MapInfo struct {
	Name string `json:"name"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

// mapPath resolves a map name inside the maps directory.
func mapPath(dir, name string) (string, bool) {
	name = strings.TrimSuffix(name, MapExt)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return filepath.Join(dir, name+MapExt), true
}

func HandleCreateLobby(lobby Lobby, keys KeyStore, opts LobbyOptions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateLobbyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if req.Players < 1 || (opts.MaxPlayers > 0 && req.Players > opts.MaxPlayers) {
			http.Error(w, "Invalid number of players", http.StatusBadRequest)
			return
		}
		if req.MaxTurns == 0 {
			req.MaxTurns = DefaultMaxTurns
		}
		path, ok := mapPath(opts.MapsDir, req.Map)
		if !ok {
			http.Error(w, "Invalid map name", http.StatusBadRequest)
			return
		}
		if _, err := os.Stat(path); err != nil {
			http.Error(w, "Map not found", http.StatusNotFound)
			return
		}
		if req.Name == "" {
			req.Name = strings.TrimSuffix(req.Map, MapExt)
		}

		id, err := lobby.StartGame(game.Config{
			Name:        req.Name,
			Players:     req.Players,
			TurnTimeout: opts.TurnTimeout,
			Factory: planetwars.Config{
				MapFile:        path,
				MaxTurns:       req.MaxTurns,
				ReplayDir:      opts.ReplayDir,
				CompressReplay: opts.CompressReplay,
			},
		})
		if err != nil {
			log.Warn("failed to start game: %v", err)
			http.Error(w, "Failed to start game: "+err.Error(), http.StatusBadRequest)
			return
		}

		slots := keys.Keys(id)
		resp := CreateLobbyResponse{
			ID:    id,
			Keys:  make([]uint64, req.Players),
			State: lobby.GetState(id),
		}
		for player, key := range slots {
			if int(player) < len(resp.Keys) {
				resp.Keys[player] = key
			}
		}

		writeJSON(w, http.StatusCreated, resp)
	}
}

func HandleListLobbies(lobby Lobby) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, lobby.ListStates())
	}
}

func HandleGetLobby(lobby Lobby) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := lobby.GetState(mux.Vars(r)["id"])
		if state.Status == types.StatusUnknown {
			http.Error(w, "Game not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, state)
	}
}

func HandleListMaps(mapsDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := os.ReadDir(mapsDir)
		if err != nil {
			log.Error("failed to read maps directory: %v", err)
			http.Error(w, "Failed to list maps", http.StatusInternalServerError)
			return
		}

		maps := make([]MapInfo, 0, len(entries))
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), MapExt) {
				continue
			}
			maps = append(maps, MapInfo{Name: strings.TrimSuffix(entry.Name(), MapExt)})
		}
		sort.Slice(maps, func(i, j int) bool { return maps[i].Name < maps[j].Name })

		writeJSON(w, http.StatusOK, maps)
	}
}

func HandleListHistory(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		results, err := repository.ListResults(r.Context())
		if err != nil {
			log.Error("failed to list results: %v", err)
			http.Error(w, "Failed to list results", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, results)
	}
}

func HandleGetHistory(repository repositories.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result, err := repository.GetResult(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			if repositories.IsNotFound(err) {
				http.Error(w, "Result not found", http.StatusNotFound)
				return
			}
			log.Error("failed to get result: %v", err)
			http.Error(w, "Failed to get result", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

// HandleGetReplay serves a replay log from the replay directory.
func HandleGetReplay(replayDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		file := mux.Vars(r)["file"]
		if file == "" || file != filepath.Base(file) || strings.HasPrefix(file, ".") {
			http.Error(w, "Invalid replay name", http.StatusBadRequest)
			return
		}
		path := filepath.Join(replayDir, file)
		if _, err := os.Stat(path); err != nil {
			http.Error(w, "Replay not found", http.StatusNotFound)
			return
		}
		http.ServeFile(w, r, path)
	}
}

func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

package elevation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
)

// HeightResponse is the JSON body of HandleHeight.
type HeightResponse struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Height      float64 `json:"height"`
	Ellipsoidal float64 `json:"ellipsoidal"`
	Tile        string  `json:"tile"`
	TileSource  string  `json:"tile_source"`
	GridSize    int     `json:"grid_size"`
}

type Server struct {
	Store *Store
}

// Routes registers the handlers on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/height", s.HandleHeight)
	mux.HandleFunc("/health", s.HandleHealth)
	return mux
}

func (s *Server) HandleHeight(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		http.Error(w, "invalid lat", http.StatusBadRequest)
		return
	}
	lon, err := strconv.ParseFloat(q.Get("lon"), 64)
	if err != nil {
		http.Error(w, "invalid lon", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	result, err := PickHeight(ctx, s.Store, HeightRequest{Lat: lat, Lon: lon})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ErrNoData) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	resp := HeightResponse{
		Lat:         result.Lat,
		Lon:         result.Lon,
		Height:      result.Height,
		Ellipsoidal: result.Ellipsoidal,
		Tile:        result.Meta.Tile,
		TileSource:  result.Meta.Source,
		GridSize:    result.Meta.GridSize,
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

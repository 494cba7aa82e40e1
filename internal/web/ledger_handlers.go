package web

import (
	"net/http"
	"time"

	apperrors "github.com/camuig/capital-tracker/internal/errors"
	"github.com/camuig/capital-tracker/internal/storage"
)

// Earnings

func (s *Server) handleListEarnings(w http.ResponseWriter, r *http.Request) {
	repo := s.deps.Ledger.Repository()

	date, err := queryDate(r, "date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, to, err := queryRange(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var earnings []storage.Earning
	switch platform := r.URL.Query().Get("platform"); {
	case date != "":
		earnings, err = repo.EarningsByDate(r.Context(), date)
	case from != "":
		earnings, err = repo.EarningsByDateRange(r.Context(), from, to)
	case platform != "":
		earnings, err = repo.EarningsByPlatform(r.Context(), platform)
	default:
		earnings, err = repo.AllEarnings(r.Context())
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, earnings)
}

func (s *Server) handleAddEarning(w http.ResponseWriter, r *http.Request) {
	var e storage.Earning
	if err := decodeJSON(r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.AddEarning(r.Context(), e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleUpdateEarning(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var e storage.Earning
	if err := decodeJSON(r, &e); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.UpdateEarning(r.Context(), id, e)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeleteEarning(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Ledger.DeleteEarning(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type dailyEarningsResponse struct {
	From      string             `json:"from"`
	To        string             `json:"to"`
	Days      map[string]float64 `json:"days"`
	Today     float64            `json:"today"`
	Last7Days float64            `json:"last7Days"`
}

func (s *Server) handleDailyEarnings(w http.ResponseWriter, r *http.Request) {
	repo := s.deps.Ledger.Repository()

	from, to, err := queryRange(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if from == "" {
		to = repo.Today()
		end, _ := time.Parse(dateLayout, to)
		from = end.AddDate(0, 0, -6).Format(dateLayout)
	}

	resp := dailyEarningsResponse{From: from, To: to}
	if resp.Days, err = repo.EarningsByDay(r.Context(), from, to); err != nil {
		s.writeError(w, r, err)
		return
	}
	if resp.Today, err = repo.TotalEarningsToday(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	if resp.Last7Days, err = repo.EarningsLast7Days(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Trades

func (s *Server) handleListTrades(w http.ResponseWriter, r *http.Request) {
	repo := s.deps.Ledger.Repository()

	from, to, err := queryRange(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var trades []storage.Trade
	switch exchange := r.URL.Query().Get("exchange"); {
	case from != "":
		trades, err = repo.TradesByDateRange(r.Context(), from, to)
	case exchange != "":
		trades, err = repo.TradesByExchange(r.Context(), exchange)
	default:
		trades, err = storage.GetAll[storage.Trade](r.Context(), repo.Store)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, trades)
}

func (s *Server) handleAddTrade(w http.ResponseWriter, r *http.Request) {
	var t storage.Trade
	if err := decodeJSON(r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.AddTrade(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleDeleteTrade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.deps.Ledger.DeleteTrade(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTradePerformance(w http.ResponseWriter, r *http.Request) {
	perf, err := s.deps.Ledger.Repository().TradePerformance(r.Context(), r.URL.Query().Get("exchange"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, perf)
}

// Activities

func (s *Server) handleListActivities(w http.ResponseWriter, r *http.Request) {
	repo := s.deps.Ledger.Repository()

	date, err := queryDate(r, "date")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	from, to, err := queryRange(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var activities []storage.Activity
	switch {
	case date != "":
		activities, err = repo.ActivitiesByDate(r.Context(), date)
	case from != "":
		activities, err = repo.ActivitiesByDateRange(r.Context(), from, to)
	default:
		activities, err = storage.GetAll[storage.Activity](r.Context(), repo.Store)
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, activities)
}

func (s *Server) handleAddActivity(w http.ResponseWriter, r *http.Request) {
	var a storage.Activity
	if err := decodeJSON(r, &a); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.AddActivity(r.Context(), a)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// Projections

type projectionsResponse struct {
	Current storage.Projection  `json:"current"`
	Latest  *storage.Projection `json:"latest"`
}

func (s *Server) handleGetProjections(w http.ResponseWriter, r *http.Request) {
	repo := s.deps.Ledger.Repository()

	current, err := repo.CalculateProjections(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	latest, err := repo.LatestProjection(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, projectionsResponse{Current: current, Latest: latest})
}

func (s *Server) handleStoreProjection(w http.ResponseWriter, r *http.Request) {
	p, err := s.deps.Ledger.StoreProjection(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Miners

func (s *Server) handleListMiners(w http.ResponseWriter, r *http.Request) {
	repo := s.deps.Ledger.Repository()

	var (
		miners []storage.Miner
		err    error
	)
	switch status := r.URL.Query().Get("status"); status {
	case "":
		miners, err = repo.AllMiners(r.Context())
	case storage.MinerActive:
		miners, err = repo.ActiveMiners(r.Context())
	default:
		err = apperrors.NewValidationError("status", "status filter must be active")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, miners)
}

func (s *Server) handleAddMiner(w http.ResponseWriter, r *http.Request) {
	var m storage.Miner
	if err := decodeJSON(r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.AddMiner(r.Context(), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleMiningStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.deps.Ledger.Repository().MiningStats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Tasks

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.deps.Ledger.Repository().AllTasks(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var t storage.Task
	if err := decodeJSON(r, &t); err != nil {
		s.writeError(w, r, err)
		return
	}

	saved, err := s.deps.Ledger.AddTask(r.Context(), t)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

type taskStatusBody struct {
	Status string `json:"status"`
}

func (s *Server) handleSetTaskStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body taskStatusBody
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	task, err := s.deps.Ledger.SetTaskStatus(r.Context(), id, body.Status)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

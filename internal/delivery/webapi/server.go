package webapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/howardstar/f1hub/internal/domain"
	"github.com/howardstar/f1hub/internal/usecase"
	"go.uber.org/zap"
)

// Server is the JSON API backing the Telegram mini-app. Public endpoints
// serve schedules and standings; authenticated ones add per-user favorites,
// settings, and votes. Authentication is the signed mini-app init data in
// the X-Telegram-Init-Data header.
type Server struct {
	userUC      *usecase.UserUsecase
	favoritesUC *usecase.FavoritesUsecase
	scheduleUC  *usecase.ScheduleUsecase
	standingsUC *usecase.StandingsUsecase
	resultsUC   *usecase.ResultsUsecase
	votesUC     *usecase.VotesUsecase
	botToken    string
	logger      *zap.Logger
}

func NewServer(
	userUC *usecase.UserUsecase,
	favoritesUC *usecase.FavoritesUsecase,
	scheduleUC *usecase.ScheduleUsecase,
	standingsUC *usecase.StandingsUsecase,
	resultsUC *usecase.ResultsUsecase,
	votesUC *usecase.VotesUsecase,
	botToken string,
	logger *zap.Logger,
) *Server {
	return &Server{
		userUC:      userUC,
		favoritesUC: favoritesUC,
		scheduleUC:  scheduleUC,
		standingsUC: standingsUC,
		resultsUC:   resultsUC,
		votesUC:     votesUC,
		botToken:    botToken,
		logger:      logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealthz)

	mux.HandleFunc("GET /api/season", s.handleSeason)
	mux.HandleFunc("GET /api/next-race", s.handleNextRace)
	mux.HandleFunc("GET /api/weekend-schedule", s.handleWeekendSchedule)
	mux.HandleFunc("GET /api/quali-results", s.handleQualiResults)

	mux.HandleFunc("GET /api/drivers", s.handleDrivers)
	mux.HandleFunc("GET /api/constructors", s.handleConstructors)
	mux.HandleFunc("GET /api/race-results", s.handleRaceResults)

	mux.HandleFunc("GET /api/favorites", s.handleGetFavorites)
	mux.HandleFunc("POST /api/favorites/toggle", s.handleToggleFavorite)
	mux.HandleFunc("GET /api/settings", s.handleGetSettings)
	mux.HandleFunc("POST /api/settings", s.handleUpdateSettings)
	mux.HandleFunc("POST /api/vote", s.handleCastVote)
	mux.HandleFunc("GET /api/votes", s.handleVotes)

	return s.cors(mux)
}

func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+InitDataHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type raceDTO struct {
	Season   int    `json:"season"`
	Round    int    `json:"round"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	Location string `json:"location"`
	Date     string `json:"date"`
	StartUTC string `json:"start_utc,omitempty"`
}

func toRaceDTO(race domain.Race) raceDTO {
	dto := raceDTO{
		Season:   race.Season,
		Round:    race.Round,
		Name:     race.Name,
		Country:  race.Country,
		Location: race.Location,
		Date:     race.Date.Format("2006-01-02"),
	}
	if race.StartUTC != nil {
		dto.StartUTC = race.StartUTC.Format(time.RFC3339)
	}
	return dto
}

func (s *Server) handleSeason(w http.ResponseWriter, r *http.Request) {
	season := s.seasonParam(r)
	races, err := s.scheduleUC.Season(r.Context(), season)
	if err != nil {
		s.writeError(w, err)
		return
	}
	dtos := make([]raceDTO, 0, len(races))
	for _, race := range races {
		dtos = append(dtos, toRaceDTO(race))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"season": season, "races": dtos})
}

func (s *Server) handleNextRace(w http.ResponseWriter, r *http.Request) {
	race, err := s.scheduleUC.NextRace(r.Context(), s.seasonParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, toRaceDTO(*race))
}

type sessionDTO struct {
	Name     string `json:"name"`
	StartUTC string `json:"start_utc"`
}

func (s *Server) handleWeekendSchedule(w http.ResponseWriter, r *http.Request) {
	season := s.seasonParam(r)
	round, err := roundParam(r)
	if err != nil {
		s.writeBadRequest(w, "invalid round")
		return
	}
	sessions, err := s.scheduleUC.Weekend(r.Context(), season, round)
	if err != nil {
		s.writeError(w, err)
		return
	}
	dtos := make([]sessionDTO, 0, len(sessions))
	for _, session := range sessions {
		dtos = append(dtos, sessionDTO{Name: session.Name, StartUTC: session.StartUTC.Format(time.RFC3339)})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"season": season, "round": round, "sessions": dtos})
}

type qualiResultDTO struct {
	Position int    `json:"position"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Best     string `json:"best,omitempty"`
}

func (s *Server) handleQualiResults(w http.ResponseWriter, r *http.Request) {
	season := s.seasonParam(r)
	round, err := roundParam(r)
	if err != nil {
		s.writeBadRequest(w, "invalid round")
		return
	}

	var results []domain.QualiResult
	if round == 0 {
		round, results, err = s.resultsUC.LatestQualifying(r.Context(), season)
	} else {
		results, err = s.resultsUC.Qualifying(r.Context(), season, round)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	dtos := make([]qualiResultDTO, 0, len(results))
	for _, result := range results {
		dtos = append(dtos, qualiResultDTO{Position: result.Position, Code: result.Code, Name: result.Name, Best: result.Best})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"season": season, "round": round, "results": dtos})
}

type driverStandingDTO struct {
	Position    int    `json:"position"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Constructor string `json:"constructor"`
	Points      string `json:"points"`
	Wins        int    `json:"wins"`
	Favorite    bool   `json:"favorite"`
}

func (s *Server) handleDrivers(w http.ResponseWriter, r *http.Request) {
	standings, season, err := s.standingsUC.DriversWithFallback(r.Context(), s.seasonParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	favorites := s.optionalFavoriteDrivers(r)
	dtos := make([]driverStandingDTO, 0, len(standings))
	for _, st := range standings {
		dtos = append(dtos, driverStandingDTO{
			Position:    st.Position,
			Code:        st.Code,
			Name:        st.FullName(),
			Constructor: st.Constructor,
			Points:      st.Points.String(),
			Wins:        st.Wins,
			Favorite:    favorites[st.Code],
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"season": season, "standings": dtos})
}

type constructorStandingDTO struct {
	Position int    `json:"position"`
	Name     string `json:"name"`
	Points   string `json:"points"`
	Wins     int    `json:"wins"`
	Favorite bool   `json:"favorite"`
}

func (s *Server) handleConstructors(w http.ResponseWriter, r *http.Request) {
	standings, season, err := s.standingsUC.ConstructorsWithFallback(r.Context(), s.seasonParam(r))
	if err != nil {
		s.writeError(w, err)
		return
	}

	favorites := s.optionalFavoriteTeams(r)
	dtos := make([]constructorStandingDTO, 0, len(standings))
	for _, st := range standings {
		dtos = append(dtos, constructorStandingDTO{
			Position: st.Position,
			Name:     st.Name,
			Points:   st.Points.String(),
			Wins:     st.Wins,
			Favorite: favorites[st.Name],
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"season": season, "standings": dtos})
}

type raceResultDTO struct {
	Position int    `json:"position"`
	Code     string `json:"code"`
	Name     string `json:"name"`
	Team     string `json:"team"`
	Grid     int    `json:"grid"`
	Status   string `json:"status"`
	Points   string `json:"points"`
	Favorite bool   `json:"favorite"`
}

func (s *Server) handleRaceResults(w http.ResponseWriter, r *http.Request) {
	season := s.seasonParam(r)
	round, err := roundParam(r)
	if err != nil {
		s.writeBadRequest(w, "invalid round")
		return
	}

	round, results, err := s.resultsUC.Race(r.Context(), season, round)
	if err != nil {
		s.writeError(w, err)
		return
	}

	favorites := s.optionalFavoriteDrivers(r)
	dtos := make([]raceResultDTO, 0, len(results))
	for _, result := range results {
		dtos = append(dtos, raceResultDTO{
			Position: result.Position,
			Code:     result.Code,
			Name:     result.FullName(),
			Team:     result.Team,
			Grid:     result.Grid,
			Status:   result.Status,
			Points:   result.Points.String(),
			Favorite: favorites[result.Code],
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"season": season, "round": round, "results": dtos})
}

func (s *Server) handleGetFavorites(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	drivers, teams, err := s.favoritesUC.List(r.Context(), telegramID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if drivers == nil {
		drivers = []string{}
	}
	if teams == nil {
		teams = []string{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"drivers": drivers, "teams": teams})
}

type toggleFavoriteRequest struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireAuth(w, r)
	if !ok {
		return
	}

	var req toggleFavoriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == "" {
		s.writeBadRequest(w, "invalid body")
		return
	}

	var (
		added bool
		err   error
	)
	switch req.Kind {
	case "driver":
		added, err = s.favoritesUC.ToggleDriver(r.Context(), telegramID, req.Value)
	case "team":
		added, err = s.favoritesUC.ToggleTeam(r.Context(), telegramID, req.Value)
	default:
		s.writeBadRequest(w, "kind must be driver or team")
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"added": added})
}

type settingsDTO struct {
	Timezone             string `json:"timezone"`
	NotifyLeadMinutes    int    `json:"notify_lead_minutes"`
	NotificationsEnabled bool   `json:"notifications_enabled"`
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireAuth(w, r)
	if !ok {
		return
	}
	user, err := s.userUC.GetSettings(r.Context(), telegramID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settingsDTO{
		Timezone:             user.Timezone,
		NotifyLeadMinutes:    user.NotifyLeadMinutes,
		NotificationsEnabled: user.NotificationsEnabled,
	})
}

type updateSettingsRequest struct {
	Timezone          *string `json:"timezone"`
	NotifyLeadMinutes *int    `json:"notify_lead_minutes"`
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireAuth(w, r)
	if !ok {
		return
	}

	var req updateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeBadRequest(w, "invalid body")
		return
	}

	if req.Timezone != nil {
		if err := s.userUC.SetTimezone(r.Context(), telegramID, *req.Timezone); err != nil {
			s.writeError(w, err)
			return
		}
	}
	if req.NotifyLeadMinutes != nil {
		if err := s.userUC.SetNotifyLead(r.Context(), telegramID, *req.NotifyLeadMinutes); err != nil {
			s.writeError(w, err)
			return
		}
	}

	s.handleGetSettings(w, r)
}

type castVoteRequest struct {
	Season     int    `json:"season"`
	Round      int    `json:"round"`
	DriverCode string `json:"driver_code"`
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireAuth(w, r)
	if !ok {
		return
	}

	var req castVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.DriverCode == "" {
		s.writeBadRequest(w, "invalid body")
		return
	}
	if req.Season == 0 {
		req.Season = s.scheduleUC.CurrentSeason()
	}
	if req.Round == 0 {
		race, err := s.scheduleUC.LatestStartedRace(r.Context(), req.Season, 0)
		if err != nil {
			s.writeError(w, err)
			return
		}
		req.Round = race.Round
	}

	if err := s.votesUC.Cast(r.Context(), telegramID, req.Season, req.Round, req.DriverCode); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"season": req.Season, "round": req.Round})
}

type voteCountDTO struct {
	DriverCode string `json:"driver_code"`
	Votes      int    `json:"votes"`
}

func (s *Server) handleVotes(w http.ResponseWriter, r *http.Request) {
	telegramID, ok := s.requireAuth(w, r)
	if !ok {
		return
	}

	season := s.seasonParam(r)
	round, err := roundParam(r)
	if err != nil {
		s.writeBadRequest(w, "invalid round")
		return
	}
	if round == 0 {
		race, err := s.scheduleUC.LatestStartedRace(r.Context(), season, 0)
		if err != nil {
			s.writeError(w, err)
			return
		}
		round = race.Round
	}

	counts, err := s.votesUC.Tally(r.Context(), season, round)
	if err != nil {
		s.writeError(w, err)
		return
	}
	dtos := make([]voteCountDTO, 0, len(counts))
	for _, count := range counts {
		dtos = append(dtos, voteCountDTO{DriverCode: count.DriverCode, Votes: count.Votes})
	}

	response := map[string]any{"season": season, "round": round, "tally": dtos}
	if vote, err := s.votesUC.UserVote(r.Context(), telegramID, season, round); err == nil {
		response["my_vote"] = vote.DriverCode
	}
	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) requireAuth(w http.ResponseWriter, r *http.Request) (int64, bool) {
	initData := r.Header.Get(InitDataHeader)
	if initData == "" {
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing init data"})
		return 0, false
	}
	telegramID, err := ValidateInitData(initData, s.botToken)
	if err != nil {
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid init data"})
		return 0, false
	}
	return telegramID, true
}

// optionalAuth resolves the caller when init data is present and valid,
// without failing the request otherwise.
func (s *Server) optionalAuth(r *http.Request) (int64, bool) {
	initData := r.Header.Get(InitDataHeader)
	if initData == "" {
		return 0, false
	}
	telegramID, err := ValidateInitData(initData, s.botToken)
	if err != nil {
		return 0, false
	}
	return telegramID, true
}

func (s *Server) optionalFavoriteDrivers(r *http.Request) map[string]bool {
	telegramID, ok := s.optionalAuth(r)
	if !ok {
		return nil
	}
	drivers, _, err := s.favoritesUC.List(r.Context(), telegramID)
	if err != nil {
		return nil
	}
	return toSet(drivers)
}

func (s *Server) optionalFavoriteTeams(r *http.Request) map[string]bool {
	telegramID, ok := s.optionalAuth(r)
	if !ok {
		return nil
	}
	_, teams, err := s.favoritesUC.List(r.Context(), telegramID)
	if err != nil {
		return nil
	}
	return toSet(teams)
}

func (s *Server) seasonParam(r *http.Request) int {
	if raw := r.URL.Query().Get("season"); raw != "" {
		if season, err := strconv.Atoi(raw); err == nil && season > 1949 {
			return season
		}
	}
	return s.scheduleUC.CurrentSeason()
}

func roundParam(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("round")
	if raw == "" {
		return 0, nil
	}
	round, err := strconv.Atoi(raw)
	if err != nil || round < 1 {
		return 0, errors.New("invalid round")
	}
	return round, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeBadRequest(w http.ResponseWriter, message string) {
	s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": message})
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, usecase.ErrUserNotRegistered):
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "user not registered"})
	case errors.Is(err, usecase.ErrRoundNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "round not found"})
	case errors.Is(err, usecase.ErrResultsNotReady):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "results not ready"})
	case errors.Is(err, usecase.ErrDriverNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "driver not found"})
	case errors.Is(err, usecase.ErrInvalidTimezone), errors.Is(err, usecase.ErrInvalidLeadTime):
		s.writeBadRequest(w, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.writeJSON(w, http.StatusBadGateway, map[string]string{"error": "upstream data unavailable"})
	}
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

package controllers

import (
	"appero/internal/connectivity"
	"appero/internal/models"
	"appero/internal/providers"
	"appero/internal/services"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
)

const maxRequestBodySize = 1 << 16 // 64 KB

type ApiController struct {
	logger  providers.Logger
	engine  services.SyncEngineInterface
	monitor connectivity.MonitorInterface
	cache   providers.CacheProviderInterface
}

func NewApiController(logger providers.Logger, engine services.SyncEngineInterface, monitor connectivity.MonitorInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:  logger,
		engine:  engine,
		monitor: monitor,
		cache:   cache,
	}
}

type experiencePayload struct {
	Value   int    `json:"value"`
	Context string `json:"context"`
}

type feedbackPayload struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

type offlinePayload struct {
	Enabled bool `json:"enabled"`
}

type frustrationPayload struct {
	Identifier string `json:"identifier"`
	Threshold  int    `json:"threshold"`
	UserPrompt string `json:"user_prompt"`
}

type pointsPayload struct {
	Points    int `json:"points"`
	Threshold int `json:"threshold"`
}

type pointsResponse struct {
	ExperienceValue int  `json:"experience_value"`
	RatingThreshold int  `json:"rating_threshold"`
	Prompted        bool `json:"prompted"`
	ShouldPrompt    bool `json:"should_prompt"`
}

type promptResponse struct {
	ShouldShow bool                     `json:"should_show"`
	FlowType   models.FlowType          `json:"flow_type"`
	FeedbackUI models.FeedbackUIStrings `json:"feedback_ui"`
}

type stateResponse struct {
	UserID            string `json:"user_id"`
	UnsentExperiences int    `json:"unsent_experiences"`
	UnsentFeedback    int    `json:"unsent_feedback"`
	Revision          uint64 `json:"revision"`
}

type frustrationResponse struct {
	models.Frustration
	NeedsPrompt bool `json:"needs_prompt"`
	Deferred    bool `json:"deferred"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

// serveFromCacheOrCompute keys entries by the engine revision, so any state
// change makes older entries unreachable.
func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, name string, compute func() (any, error)) {
	cacheKey := name + ":" + strconv.FormatUint(ac.engine.Revision(), 10)
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ac.cache.Set(cacheKey, gson)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (ac *ApiController) ReceiveExperience(w http.ResponseWriter, r *http.Request) {
	var payload experiencePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	rating := models.ExperienceRating(payload.Value)
	if !rating.Valid() {
		http.Error(w, models.ErrInvalidRating.Error(), http.StatusUnprocessableEntity)
		return
	}
	ac.engine.LogExperience(r.Context(), rating, payload.Context)
	w.WriteHeader(http.StatusAccepted)
}

func (ac *ApiController) ReceiveFeedback(w http.ResponseWriter, r *http.Request) {
	var payload feedbackPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	accepted := ac.engine.SubmitFeedback(r.Context(), payload.Rating, payload.Feedback)
	status := http.StatusAccepted
	if !accepted {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]bool{"accepted": accepted})
}

func (ac *ApiController) GetPrompt(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "prompt", func() (any, error) {
		state := ac.engine.Snapshot()
		return promptResponse{
			ShouldShow: state.FeedbackPromptShouldDisplay,
			FlowType:   state.FlowType,
			FeedbackUI: state.FeedbackUIStrings,
		}, nil
	})
}

func (ac *ApiController) DismissPrompt(w http.ResponseWriter, r *http.Request) {
	ac.engine.DismissPrompt()
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) SetOffline(w http.ResponseWriter, r *http.Request) {
	var payload offlinePayload
	if !decodeBody(w, r, &payload) {
		return
	}
	ac.monitor.SetForceOffline(payload.Enabled)
	ac.logger.Infof(providers.TypePost, "Force offline set to %t", payload.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{
		"force_offline": ac.monitor.ForceOffline(),
		"connected":     ac.monitor.IsConnected(),
	})
}

func (ac *ApiController) Drain(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, ac.engine.DrainQueues(r.Context()))
}

func (ac *ApiController) Reset(w http.ResponseWriter, r *http.Request) {
	if err := ac.engine.ResetAll(); err != nil {
		ac.logger.Errorf(providers.TypePost, "Reset failed: %s", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	ac.cache.Clear()
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) GetState(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "state", func() (any, error) {
		exp, fb := ac.engine.QueueSizes()
		return stateResponse{
			UserID:            ac.engine.UserID(),
			UnsentExperiences: exp,
			UnsentFeedback:    fb,
			Revision:          ac.engine.Revision(),
		}, nil
	})
}

func (ac *ApiController) RegisterFrustration(w http.ResponseWriter, r *http.Request) {
	var payload frustrationPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if payload.Identifier == "" || payload.Threshold < 1 {
		http.Error(w, "identifier and a positive threshold are required", http.StatusUnprocessableEntity)
		return
	}
	ac.engine.RegisterFrustration(payload.Identifier, payload.Threshold, payload.UserPrompt)
	w.WriteHeader(http.StatusCreated)
}

func (ac *ApiController) LogFrustration(w http.ResponseWriter, r *http.Request) {
	var payload frustrationPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	if _, ok := ac.engine.Frustration(payload.Identifier); !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	needsPrompt := ac.engine.LogFrustration(payload.Identifier)
	writeJSON(w, http.StatusOK, map[string]bool{"needs_prompt": needsPrompt})
}

func (ac *ApiController) GetFrustration(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	f, ok := ac.engine.Frustration(id)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, frustrationResponse{
		Frustration: f,
		NeedsPrompt: ac.engine.FrustrationNeedsPrompt(id),
		Deferred:    ac.engine.IsFrustrationDeferred(id),
	})
}

func (ac *ApiController) pointsState() pointsResponse {
	return pointsResponse{
		ExperienceValue: ac.engine.ExperienceValue(),
		RatingThreshold: ac.engine.RatingThreshold(),
		Prompted:        ac.engine.RatingPrompted(),
		ShouldPrompt:    ac.engine.ShouldPromptForRating(),
	}
}

func (ac *ApiController) GetPoints(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, "points", func() (any, error) {
		return ac.pointsState(), nil
	})
}

func (ac *ApiController) LogPoints(w http.ResponseWriter, r *http.Request) {
	var payload pointsPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	ac.engine.LogPoints(payload.Points)
	writeJSON(w, http.StatusOK, ac.pointsState())
}

func (ac *ApiController) SetRatingThreshold(w http.ResponseWriter, r *http.Request) {
	var payload pointsPayload
	if !decodeBody(w, r, &payload) {
		return
	}
	ac.engine.SetRatingThreshold(payload.Threshold)
	writeJSON(w, http.StatusOK, ac.pointsState())
}

func (ac *ApiController) MarkRatingPrompted(w http.ResponseWriter, r *http.Request) {
	ac.engine.MarkRatingPrompted()
	w.WriteHeader(http.StatusNoContent)
}

func (ac *ApiController) ResetPoints(w http.ResponseWriter, r *http.Request) {
	ac.engine.ResetExperienceAndPrompt()
	w.WriteHeader(http.StatusNoContent)
}

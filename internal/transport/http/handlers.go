package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"quizhub/internal/app"
	"quizhub/internal/auth"
	"quizhub/internal/domain"
)

// API wires the quiz use cases to the JSON endpoints.
type API struct {
	creds        *auth.CredentialService
	store        auth.CredentialStore
	sessions     *auth.SessionManager
	quiz         *app.QuizService
	defaultCount int
}

func NewAPI(creds *auth.CredentialService, store auth.CredentialStore, sessions *auth.SessionManager, quiz *app.QuizService, defaultCount int) *API {
	if defaultCount <= 0 {
		defaultCount = app.DefaultSampleCount
	}
	return &API{creds: creds, store: store, sessions: sessions, quiz: quiz, defaultCount: defaultCount}
}

// Routes mounts all endpoints on a fresh mux.
func (a *API) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("POST /api/register", a.handleRegister)
	mux.HandleFunc("POST /api/login", a.handleLogin)
	mux.HandleFunc("POST /api/logout", a.requireSession(a.handleLogout))
	mux.HandleFunc("GET /api/questions", a.requireSession(a.handleQuestions))
	mux.HandleFunc("POST /api/quiz-result", a.requireSession(a.handleQuizResult))
	mux.HandleFunc("GET /api/leaderboard", a.requireSession(a.handleLeaderboard))
	mux.HandleFunc("GET /api/users", a.requireRole(domain.RoleAdmin, a.handleUsers))
	mux.HandleFunc("GET /ws/attempt", a.requireSession(a.handleAttempt))
	return mux
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cred, err := a.creds.Register(r.Context(), req.Username, req.Password, req.ConfirmPassword)
	if err != nil {
		if verr, ok := auth.IsValidation(err); ok {
			writeError(w, http.StatusBadRequest, verr.Reason)
			return
		}
		log.Printf("register %q: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	if err := a.startSession(w, r, cred.Username); err != nil {
		writeError(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "username": cred.Username})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	cred, err := a.creds.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			// One response for unknown user and wrong password.
			writeError(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		log.Printf("login %q: %v", req.Username, err)
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	if err := a.startSession(w, r, cred.Username); err != nil {
		writeError(w, http.StatusInternalServerError, "Login failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "username": cred.Username})
}

func (a *API) startSession(w http.ResponseWriter, r *http.Request, username string) error {
	token, err := a.sessions.Create(r.Context(), username)
	if err != nil {
		log.Printf("create session for %q: %v", username, err)
		return err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(SessionCookie); err == nil {
		if err := a.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			log.Printf("destroy session: %v", err)
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:   SessionCookie,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// questionPayload is a sampled question as sent to clients: the correct
// label never goes on the wire, the server scores submissions itself.
type questionPayload struct {
	ID       string            `json:"id"`
	Question string            `json:"question"`
	Choices  map[string]string `json:"choices"`
}

func (a *API) handleQuestions(w http.ResponseWriter, r *http.Request) {
	count := a.defaultCount
	if raw := r.URL.Query().Get("count"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			count = parsed
		}
	}
	questions, err := a.quiz.Sample(r.Context(), count)
	if err != nil {
		log.Printf("sample questions: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load questions")
		return
	}
	payload := make([]questionPayload, 0, len(questions))
	for _, q := range questions {
		payload = append(payload, questionPayload{ID: q.ID, Question: q.Prompt, Choices: q.Choices})
	}
	writeJSON(w, http.StatusOK, payload)
}

type answerPayload struct {
	Question string            `json:"question"`
	Selected string            `json:"selected"`
	Choices  map[string]string `json:"choices"`
}

type quizResultRequest struct {
	Score   int             `json:"score"`
	Total   int             `json:"total"`
	Answers []answerPayload `json:"answers"`
}

func (a *API) handleQuizResult(w http.ResponseWriter, r *http.Request) {
	var req quizResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Answers) == 0 || req.Total != len(req.Answers) {
		writeError(w, http.StatusBadRequest, "Answers do not match total")
		return
	}

	answers := make([]domain.Answer, 0, len(req.Answers))
	for _, ans := range req.Answers {
		answers = append(answers, domain.Answer{
			Prompt:   ans.Question,
			Selected: ans.Selected,
			Choices:  ans.Choices,
		})
	}
	// The client-reported score is advisory only.
	score, err := a.quiz.ScoreAnswers(r.Context(), answers)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownQuestion) {
			writeError(w, http.StatusBadRequest, "Unknown question in answers")
			return
		}
		log.Printf("score answers: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to score attempt")
		return
	}

	attempt := domain.Attempt{
		Username: usernameFrom(r.Context()),
		Score:    score,
		Total:    len(req.Answers),
	}
	if err := a.quiz.RecordAttempt(r.Context(), attempt); err != nil {
		log.Printf("record attempt: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to record attempt")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "score": score, "total": len(req.Answers)})
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	top, err := a.quiz.Top(r.Context(), app.DefaultTopK)
	if err != nil {
		log.Printf("leaderboard: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to load leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	usernames, err := a.creds.Usernames(r.Context())
	if err != nil {
		log.Printf("list users: %v", err)
		writeError(w, http.StatusInternalServerError, "Failed to list users")
		return
	}
	payload := make([]map[string]string, 0, len(usernames))
	for _, name := range usernames {
		payload = append(payload, map[string]string{"username": name})
	}
	writeJSON(w, http.StatusOK, payload)
}

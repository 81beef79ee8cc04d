package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/codecollab/codecollab/internal/database"
	"github.com/codecollab/codecollab/internal/judge"
	"github.com/codecollab/codecollab/internal/server"
	"github.com/codecollab/codecollab/internal/types"
	"github.com/gorilla/websocket"
)

const (
	defaultCode     = "// Start coding..."
	defaultLanguage = "javascript"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UpdateAccountRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type JoinRoomRequest struct {
	RoomId string `json:"room_id" validate:"required"`
}

type SaveCodeRequest struct {
	RoomId   string `json:"room_id" validate:"required"`
	Code     string `json:"code"`
	Language string `json:"language" validate:"omitempty,oneof=javascript python java cpp c csharp go rust typescript html"`
}

type ExecuteCodeRequest struct {
	Code     string `json:"code" validate:"required"`
	Language string `json:"language" validate:"required"`
	Stdin    string `json:"stdin"`
}

func (s *CollabApp) writeJson(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

// decodeAndValidate parses the request body into v and runs validator tags.
func (s *CollabApp) decodeAndValidate(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return err
	}

	return s.validate.Struct(v)
}

func (s *CollabApp) health(w http.ResponseWriter, _ *http.Request) {
	s.writeJson(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *CollabApp) createAccount(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	pwdHash, err := hashPassword(req.Password)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.CreateAccountParams{
		Username:     req.Username,
		EmailAddress: req.Email,
		PasswordHash: pwdHash,
	}

	newUser, err := s.db.CreateAccount(params)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.User{
		Id:           newUser.Id,
		Username:     newUser.Username,
		EmailAddress: newUser.EmailAddress,
		CreatedAt:    newUser.CreatedAt,
		UpdatedAt:    newUser.UpdatedAt,
	})
}

func (s *CollabApp) login(w http.ResponseWriter, r *http.Request) {
	var lr LoginRequest
	if err := s.decodeAndValidate(r, &lr); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	dbUser, err := s.db.GetAccountByEmail(lr.Email)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !verifyPassword(dbUser.PasswordHash, lr.Password) {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	u := types.User{
		Id:           dbUser.Id,
		Username:     dbUser.Username,
		EmailAddress: dbUser.EmailAddress,
		CreatedAt:    dbUser.CreatedAt,
		UpdatedAt:    dbUser.UpdatedAt,
	}

	token, err := s.createJwtForSession(u, defaultJwtExpiration)
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	http.SetCookie(w, createJwtCookie(token, defaultJwtExpiration))

	s.writeJson(w, http.StatusOK, u)
}

func (s *CollabApp) session(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	user, err := s.db.GetAccountById(userId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.User{
		Id:           user.Id,
		Username:     user.Username,
		EmailAddress: user.EmailAddress,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	})
}

func (s *CollabApp) logout(w http.ResponseWriter, _ *http.Request) {
	// instruct browser to delete cookie by overwriting it with an expired token
	http.SetCookie(w, createJwtCookie("", time.Duration(time.Unix(0, 0).Unix())))
	w.WriteHeader(http.StatusNoContent)
}

func (s *CollabApp) account(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.session(w, r)
	case http.MethodPut:
		userId, ok := UserId(r.Context())
		if !ok {
			errResp := NewUnauthorizedError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		curUser, err := s.db.GetAccountById(userId)
		if err != nil {
			var errResp *ApiError
			if errors.Is(err, sql.ErrNoRows) {
				errResp = NewNotFoundError()
			} else {
				errResp = NewInternalServerError(err)
			}
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		var req UpdateAccountRequest
		if err := s.decodeAndValidate(r, &req); err != nil {
			errResp := NewBadRequestError()
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		pwdHash, err := hashPassword(req.Password)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		params := database.UpdateAccountParams{
			AccountId:    curUser.Id,
			Username:     req.Username,
			PasswordHash: pwdHash,
		}

		dbUser, err := s.db.UpdateAccount(params)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}

		s.writeJson(w, http.StatusOK, types.User{
			Id:           dbUser.Id,
			Username:     dbUser.Username,
			EmailAddress: dbUser.EmailAddress,
			CreatedAt:    dbUser.CreatedAt,
			UpdatedAt:    dbUser.UpdatedAt,
		})
	default:
		errResp := NewMethodNotAllowedError()
		s.writeJson(w, errResp.StatusCode, errResp)
	}
}

func (s *CollabApp) createRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	sid, err := s.generateShortId()
	if err != nil {
		s.log.Print("generateShortId:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	newRoom, err := s.db.CreateRoom(database.CreateRoomParams{
		RoomId:  sid,
		OwnerId: userId,
	})
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// seed the room's code document so the first load is never empty
	if _, err := s.db.CreateCodeDocument(database.SaveCodeParams{
		RoomId:   newRoom.RoomId,
		Code:     defaultCode,
		Language: defaultLanguage,
	}); err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusCreated, types.Room{
		Id:        newRoom.Id,
		RoomId:    newRoom.RoomId,
		OwnerId:   newRoom.OwnerId,
		CreatedAt: newRoom.CreatedAt,
	})
}

func (s *CollabApp) joinRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	var req JoinRoomRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetRoomByRoomId(req.RoomId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !s.db.IsParticipant(room.Id, userId) {
		if err := s.db.AddParticipant(room.Id, userId); err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
	}

	s.writeJson(w, http.StatusOK, types.Room{
		Id:        room.Id,
		RoomId:    room.RoomId,
		OwnerId:   room.OwnerId,
		CreatedAt: room.CreatedAt,
	})
}

func (s *CollabApp) getRoom(w http.ResponseWriter, r *http.Request) {
	roomId := r.URL.Query().Get("id")
	if roomId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetRoomWithParticipants(roomId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	participants := make([]types.User, len(room.Participants))
	for i, p := range room.Participants {
		participants[i] = types.User{
			Id:       p.AccountId,
			Username: p.Username,
		}
	}

	s.writeJson(w, http.StatusOK, types.Room{
		Id:           room.Id,
		RoomId:       room.RoomId,
		OwnerId:      room.OwnerId,
		Participants: participants,
		CreatedAt:    room.CreatedAt,
	})
}

func (s *CollabApp) deleteRoom(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	roomId := r.URL.Query().Get("id")
	if roomId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	room, err := s.db.GetRoomByRoomId(roomId)
	if err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// only the room creator can delete it
	if room.OwnerId != userId {
		errResp := NewForbiddenError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteCodeDocuments(room.RoomId); err != nil {
		s.log.Println("delete code documents:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if err := s.db.DeleteRoom(room.Id); err != nil {
		s.log.Println("delete room:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	// live connections are not evicted: presence and persistence are
	// independent, members keep relaying until they leave
	s.writeJson(w, http.StatusNoContent, nil)
}

func (s *CollabApp) saveCode(w http.ResponseWriter, r *http.Request) {
	var req SaveCodeRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetRoomByRoomId(req.RoomId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	params := database.SaveCodeParams{
		RoomId:   req.RoomId,
		Code:     req.Code,
		Language: req.Language,
	}

	cur, err := s.db.GetCodeDocument(req.RoomId)
	switch {
	case err == nil:
		if params.Language == "" {
			params.Language = cur.Language
		}

		doc, err := s.db.UpdateCodeDocument(params)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		s.writeJson(w, http.StatusOK, codeDocumentResponse(doc))
	case errors.Is(err, sql.ErrNoRows):
		if params.Language == "" {
			params.Language = defaultLanguage
		}

		doc, err := s.db.CreateCodeDocument(params)
		if err != nil {
			errResp := NewInternalServerError(err)
			s.writeJson(w, errResp.StatusCode, errResp)
			return
		}
		s.writeJson(w, http.StatusOK, codeDocumentResponse(doc))
	default:
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
	}
}

func (s *CollabApp) loadCode(w http.ResponseWriter, r *http.Request) {
	roomId := r.URL.Query().Get("room_id")
	if roomId == "" {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if _, err := s.db.GetRoomByRoomId(roomId); err != nil {
		var errResp *ApiError
		if errors.Is(err, sql.ErrNoRows) {
			errResp = NewNotFoundError()
		} else {
			errResp = NewInternalServerError(err)
		}
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	doc, err := s.db.GetCodeDocument(roomId)
	if errors.Is(err, sql.ErrNoRows) {
		// lazily create the default document
		doc, err = s.db.CreateCodeDocument(database.SaveCodeParams{
			RoomId:   roomId,
			Code:     defaultCode,
			Language: defaultLanguage,
		})
	}
	if err != nil {
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, codeDocumentResponse(doc))
}

func (s *CollabApp) getSavedCode(w http.ResponseWriter, r *http.Request) {
	userId, ok := UserId(r.Context())
	if !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	docs, err := s.db.ListCodeDocumentsForAccount(userId)
	if err != nil {
		s.log.Println("list code documents:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	saved := make([]types.CodeDocument, 0, len(docs))
	for _, doc := range docs {
		saved = append(saved, codeDocumentResponse(doc))
	}

	s.writeJson(w, http.StatusOK, saved)
}

func (s *CollabApp) executeCode(w http.ResponseWriter, r *http.Request) {
	var req ExecuteCodeRequest
	if err := s.decodeAndValidate(r, &req); err != nil {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	if !judge.SupportedLanguage(req.Language) {
		errResp := NewBadRequestError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	result, err := s.runner.Execute(r.Context(), judge.SubmissionParams{
		Code:     req.Code,
		Language: req.Language,
		Stdin:    req.Stdin,
	})
	if err != nil {
		s.log.Println("execute code:", err)
		errResp := NewInternalServerError(err)
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	s.writeJson(w, http.StatusOK, types.ExecutionResult{
		Output: result.Output,
		Status: result.Status,
	})
}

func (s *CollabApp) serveWs(w http.ResponseWriter, r *http.Request) {
	if _, ok := UserId(r.Context()); !ok {
		errResp := NewUnauthorizedError()
		s.writeJson(w, errResp.StatusCode, errResp)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			// only allow connections from allowed origins
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}

			return slices.Contains(s.allowedOrigins, origin)
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Println("error upgrading connection:", err)
		return
	}

	client := server.NewClient(conn, s.cs, s.log)

	s.cs.RegisterClient(client)
	go client.Write()
	go client.Read()
}

func codeDocumentResponse(doc database.CodeDocument) types.CodeDocument {
	return types.CodeDocument{
		Id:        doc.Id,
		RoomId:    doc.RoomId,
		Code:      doc.Code,
		Language:  doc.Language,
		UpdatedAt: doc.UpdatedAt,
	}
}

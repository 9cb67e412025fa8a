package api

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/karansks78/RiseUp-App/pkg/middleware"
	"github.com/karansks78/RiseUp-App/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/lib/pq"
	log "github.com/sirupsen/logrus"
)

// EventPublisher defines the interface for publishing change events.
type EventPublisher interface {
	Publish(routingKey string, body []byte, correlationID string) error
}

// SocialHandler handles the client mutation surface. Every successful write
// publishes the corresponding change event; the reactive engine derives
// notifications, counters and moderation state from those events. Publish
// failures are logged and never fail the request.
type SocialHandler struct {
	DB        *sql.DB
	Publisher EventPublisher
}

// NewSocialHandler creates a new SocialHandler.
func NewSocialHandler(db *sql.DB, pub EventPublisher) *SocialHandler {
	return &SocialHandler{DB: db, Publisher: pub}
}

func (h *SocialHandler) publishChange(correlationID, path string, op models.Operation, before, after any) {
	ev := models.ChangeEvent{
		EventID:       uuid.New().String(),
		CorrelationID: correlationID,
		Path:          path,
		Operation:     op,
		Timestamp:     time.Now(),
	}
	if before != nil {
		ev.Before, _ = json.Marshal(before)
	}
	if after != nil {
		ev.After, _ = json.Marshal(after)
	}

	body, _ := json.Marshal(ev)
	if err := h.Publisher.Publish(ev.RoutingKey(), body, correlationID); err != nil {
		log.Errorf("[API] Error publishing change event: %v path=%s correlation_id=%s", err, path, correlationID)
	}
}

// CreateUser godoc
// @Summary      Create a user profile
// @Description  Creates a user profile and publishes a users create event
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreateUserRequest  true  "Create user request"
// @Success      201      {object}  models.User
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /users [post]
func (h *SocialHandler) CreateUser(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req models.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := models.User{
		ID:        uuid.New().String(),
		Username:  req.Username,
		Email:     req.Email,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	_, err := h.DB.Exec(
		"INSERT INTO users (id, username, email, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)",
		user.ID, user.Username, user.Email, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		log.Errorf("[API] Error creating user: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	h.publishChange(correlationID, models.UserPath(user.ID), models.OpCreate, nil, user.Snapshot())

	log.Infof("[API] User created: id=%s username=%s correlation_id=%s", user.ID, user.Username, correlationID)
	c.JSON(http.StatusCreated, user)
}

// UpdateUser godoc
// @Summary      Update a user profile
// @Description  Updates profile fields and publishes a users update event with before/after snapshots. Derived fields (follower_count, rewarded, blocked) are engine-owned and cannot be set here.
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id       path      string                    true  "User ID"
// @Param        request  body      models.UpdateUserRequest  true  "Update user request"
// @Success      200      {object}  models.User
// @Failure      400      {object}  map[string]string
// @Failure      404      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /users/{id} [put]
func (h *SocialHandler) UpdateUser(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	userID := c.Param("id")

	var req models.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	err := h.DB.QueryRow(
		"SELECT id, username, email, follower_count, rewarded, blocked, created_at, updated_at FROM users WHERE id = $1",
		userID).
		Scan(&user.ID, &user.Username, &user.Email, &user.FollowerCount, &user.Rewarded, &user.Blocked,
			&user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	before := user.Snapshot()

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	user.UpdatedAt = time.Now()

	// Derived fields stay untouched: only the engine writes them.
	_, err = h.DB.Exec(
		"UPDATE users SET username = $1, email = $2, updated_at = $3 WHERE id = $4",
		user.Username, user.Email, user.UpdatedAt, user.ID,
	)
	if err != nil {
		log.Errorf("[API] Error updating user: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}

	h.publishChange(correlationID, models.UserPath(user.ID), models.OpUpdate, before, user.Snapshot())

	log.Infof("[API] User updated: id=%s correlation_id=%s", user.ID, correlationID)
	c.JSON(http.StatusOK, user)
}

// GetUser godoc
// @Summary      Get a user by ID
// @Produce      json
// @Tags         users
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  models.User
// @Failure      404  {object}  map[string]string
// @Router       /users/{id} [get]
func (h *SocialHandler) GetUser(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	err := h.DB.QueryRow(
		"SELECT id, username, email, follower_count, rewarded, blocked, created_at, updated_at FROM users WHERE id = $1",
		userID).
		Scan(&user.ID, &user.Username, &user.Email, &user.FollowerCount, &user.Rewarded, &user.Blocked,
			&user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch user"})
		return
	}

	c.JSON(http.StatusOK, user)
}

// CreatePost godoc
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreatePostRequest  true  "Create post request"
// @Success      201      {object}  models.Post
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /posts [post]
func (h *SocialHandler) CreatePost(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req models.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post := models.Post{
		ID:        uuid.New().String(),
		UserID:    req.UserID,
		Caption:   req.Caption,
		ImageURL:  req.ImageURL,
		CreatedAt: time.Now(),
	}

	_, err := h.DB.Exec(
		"INSERT INTO posts (id, user_id, caption, image_url, created_at) VALUES ($1, $2, $3, $4, $5)",
		post.ID, post.UserID, post.Caption, post.ImageURL, post.CreatedAt,
	)
	if err != nil {
		log.Errorf("[API] Error creating post: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create post"})
		return
	}

	h.publishChange(correlationID, "posts/"+post.ID, models.OpCreate, nil, post)

	log.Infof("[API] Post created: id=%s user_id=%s correlation_id=%s", post.ID, post.UserID, correlationID)
	c.JSON(http.StatusCreated, post)
}

// ListPosts godoc
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Success      200  {array}   models.Post
// @Failure      500  {object}  map[string]string
// @Router       /posts [get]
func (h *SocialHandler) ListPosts(c *gin.Context) {
	rows, err := h.DB.Query(
		"SELECT id, user_id, caption, image_url, created_at FROM posts ORDER BY created_at DESC")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch posts"})
		return
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Caption, &p.ImageURL, &p.CreatedAt); err != nil {
			continue
		}
		posts = append(posts, p)
	}

	c.JSON(http.StatusOK, posts)
}

// LikePost godoc
// @Summary      Like a post
// @Description  Records a like and publishes the like creation event the notification engine consumes
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "Post ID"
// @Param        request  body      models.LikeRequest  true  "Like request"
// @Success      201      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /posts/{id}/likes [post]
func (h *SocialHandler) LikePost(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	postID := c.Param("id")

	var req models.LikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.DB.Exec(
		"INSERT INTO likes (post_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		postID, req.UserID,
	)
	if err != nil {
		log.Errorf("[API] Error creating like: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to like post"})
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "already liked"})
		return
	}

	h.publishChange(correlationID, models.LikePath(postID, req.UserID), models.OpCreate, nil, nil)

	log.Infof("[API] Like created: post_id=%s user_id=%s correlation_id=%s", postID, req.UserID, correlationID)
	c.JSON(http.StatusCreated, gin.H{"status": "liked"})
}

// Follow godoc
// @Summary      Follow a user
// @Description  Writes both sides of the follow edge and publishes both creation events
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "User ID being followed"
// @Param        request  body      models.FollowRequest  true  "Follow request"
// @Success      201      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /users/{id}/follow [post]
func (h *SocialHandler) Follow(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	userID := c.Param("id")

	var req models.FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FollowerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot follow yourself"})
		return
	}

	res, err := h.DB.Exec(
		"INSERT INTO followers (user_id, follower_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		userID, req.FollowerID,
	)
	if err != nil {
		log.Errorf("[API] Error creating follower edge: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to follow"})
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "already following"})
		return
	}

	if _, err := h.DB.Exec(
		"INSERT INTO following (user_id, following_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		req.FollowerID, userID,
	); err != nil {
		log.Errorf("[API] Error creating following edge: %v correlation_id=%s", err, correlationID)
	}

	h.publishChange(correlationID, models.FollowerPath(userID, req.FollowerID), models.OpCreate, nil, nil)
	h.publishChange(correlationID, models.FollowingPath(req.FollowerID, userID), models.OpCreate, nil, nil)

	log.Infof("[API] Follow created: user_id=%s follower_id=%s correlation_id=%s", userID, req.FollowerID, correlationID)
	c.JSON(http.StatusCreated, gin.H{"status": "following"})
}

// Unfollow godoc
// @Summary      Unfollow a user
// @Description  Removes both sides of the follow edge and publishes the follower deletion event
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        id       path      string                true  "User ID being unfollowed"
// @Param        request  body      models.FollowRequest  true  "Unfollow request"
// @Success      200      {object}  map[string]string
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /users/{id}/follow [delete]
func (h *SocialHandler) Unfollow(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	userID := c.Param("id")

	var req models.FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.DB.Exec(
		"DELETE FROM followers WHERE user_id = $1 AND follower_id = $2",
		userID, req.FollowerID,
	)
	if err != nil {
		log.Errorf("[API] Error deleting follower edge: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to unfollow"})
		return
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "not following"})
		return
	}

	if _, err := h.DB.Exec(
		"DELETE FROM following WHERE user_id = $1 AND following_id = $2",
		req.FollowerID, userID,
	); err != nil {
		log.Errorf("[API] Error deleting following edge: %v correlation_id=%s", err, correlationID)
	}

	h.publishChange(correlationID, models.FollowerPath(userID, req.FollowerID), models.OpDelete, nil, nil)

	log.Infof("[API] Follow removed: user_id=%s follower_id=%s correlation_id=%s", userID, req.FollowerID, correlationID)
	c.JSON(http.StatusOK, gin.H{"status": "unfollowed"})
}

// CreateChat godoc
// @Summary      Open a chat
// @Tags         chats
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreateChatRequest  true  "Create chat request"
// @Success      201      {object}  models.Chat
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /chats [post]
func (h *SocialHandler) CreateChat(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req models.CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	chat := models.Chat{
		ID:        uuid.New().String(),
		Members:   req.Members,
		CreatedAt: time.Now(),
	}

	_, err := h.DB.Exec(
		"INSERT INTO chats (id, members, created_at) VALUES ($1, $2, $3)",
		chat.ID, pq.Array(chat.Members), chat.CreatedAt,
	)
	if err != nil {
		log.Errorf("[API] Error creating chat: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create chat"})
		return
	}

	h.publishChange(correlationID, "chats/"+chat.ID, models.OpCreate, nil, chat)

	log.Infof("[API] Chat created: id=%s correlation_id=%s", chat.ID, correlationID)
	c.JSON(http.StatusCreated, chat)
}

// SendMessage godoc
// @Summary      Send a chat message
// @Description  Stores the message and publishes the creation event carrying the sender and text snapshot
// @Tags         chats
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "Chat ID"
// @Param        request  body      models.SendMessageRequest  true  "Send message request"
// @Success      201      {object}  models.Message
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /chats/{id}/messages [post]
func (h *SocialHandler) SendMessage(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)
	chatID := c.Param("id")

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg := models.Message{
		ID:        uuid.New().String(),
		ChatID:    chatID,
		UserID:    req.UserID,
		Text:      req.Text,
		CreatedAt: time.Now(),
	}

	_, err := h.DB.Exec(
		"INSERT INTO messages (id, chat_id, user_id, text, created_at) VALUES ($1, $2, $3, $4, $5)",
		msg.ID, msg.ChatID, msg.UserID, msg.Text, msg.CreatedAt,
	)
	if err != nil {
		log.Errorf("[API] Error creating message: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send message"})
		return
	}

	h.publishChange(correlationID, models.MessagePath(chatID, msg.ID), models.OpCreate, nil,
		models.MessageSnapshot{UserID: msg.UserID, Text: msg.Text})

	log.Infof("[API] Message created: id=%s chat_id=%s correlation_id=%s", msg.ID, chatID, correlationID)
	c.JSON(http.StatusCreated, msg)
}

// CreateReport godoc
// @Summary      File a moderation report
// @Description  Stores the report and publishes the creation event the moderation pipeline consumes
// @Tags         reports
// @Accept       json
// @Produce      json
// @Param        request  body      models.CreateReportRequest  true  "Create report request"
// @Success      201      {object}  models.Report
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /reports [post]
func (h *SocialHandler) CreateReport(c *gin.Context) {
	correlationID := middleware.GetCorrelationID(c)

	var req models.CreateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report := models.Report{
		ID:             uuid.New().String(),
		ReportedUserID: req.ReportedUserID,
		ReporterID:     req.ReporterID,
		Category:       req.Category,
		Description:    req.Description,
		CreatedAt:      time.Now(),
	}

	_, err := h.DB.Exec(
		"INSERT INTO reports (id, reported_user_id, reporter_id, category, description, created_at) VALUES ($1, $2, $3, $4, $5, $6)",
		report.ID, report.ReportedUserID, report.ReporterID, report.Category, report.Description, report.CreatedAt,
	)
	if err != nil {
		log.Errorf("[API] Error creating report: %v correlation_id=%s", err, correlationID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create report"})
		return
	}

	h.publishChange(correlationID, models.ReportPath(report.ID), models.OpCreate, nil, report.Snapshot())

	log.Infof("[API] Report created: id=%s reported_user_id=%s correlation_id=%s",
		report.ID, report.ReportedUserID, correlationID)
	c.JSON(http.StatusCreated, report)
}

// ListNotifications godoc
// @Summary      List notifications for a user
// @Tags         notifications
// @Produce      json
// @Param        user_id  query     string  true  "Recipient user ID"
// @Success      200      {array}   models.Notification
// @Failure      400      {object}  map[string]string
// @Failure      500      {object}  map[string]string
// @Router       /notifications [get]
func (h *SocialHandler) ListNotifications(c *gin.Context) {
	userID := c.Query("user_id")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	rows, err := h.DB.Query(
		`SELECT id, type, user_id, sender_id, sender_username, post_id, chat_id, message_text, created_at
		 FROM notifications WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch notifications"})
		return
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.UserID, &n.SenderID, &n.SenderUsername,
			&n.PostID, &n.ChatID, &n.MessageText, &n.CreatedAt); err != nil {
			continue
		}
		notifications = append(notifications, n)
	}

	c.JSON(http.StatusOK, notifications)
}

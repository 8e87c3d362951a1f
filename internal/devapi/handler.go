package devapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mibitech/mibitech-site/internal/models"
	"github.com/mibitech/mibitech-site/internal/requestid"
	"github.com/mibitech/mibitech-site/internal/version"
)

const (
	msgSubmitted     = "Mensagem enviada com sucesso! Entraremos em contato em breve."
	msgMissingField  = "Campo obrigatório ausente: "
	msgInvalidJSON   = "Dados JSON inválidos"
	msgRouteNotFound = "Rota não encontrada"
)

var requiredFields = []string{"name", "email", "subject", "message"}

type handler struct {
	store  *Store
	logger *zap.Logger
}

// NewRouter wires the API routes onto a fresh gin engine.
func NewRouter(store *Store, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{store: store, logger: logger}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		id := requestid.FromHeader(c.Request.Header)
		c.Header(requestid.HeaderKey, id)
		c.Set(requestid.HeaderKey, id)
		c.Next()
	})
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		hd := c.Writer.Header()
		hd.Set("Access-Control-Allow-Origin", "*")
		hd.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		hd.Set("Access-Control-Allow-Headers", "Content-Type")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := r.Group("/api")
	api.GET("/status/", h.status)
	api.GET("/contacts/", h.contacts)
	api.GET("/social-media/", h.socialMedia)
	api.POST("/submit-contact/", h.submitContact)
	api.GET("/messages/", h.messages)
	api.GET("/messages/:id", h.message)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, msgRouteNotFound)
	})
	return r
}

func (h *handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   version.Get().Version,
	})
}

func (h *handler) contacts(c *gin.Context) {
	out, err := h.store.Contacts(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) socialMedia(c *gin.Context) {
	out, err := h.store.SocialMedia(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// submitContact answers missing fields with 200 and success false, the
// shape the contact page shows verbatim.
func (h *handler) submitContact(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		writeError(c, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		writeError(c, http.StatusBadRequest, msgInvalidJSON)
		return
	}
	if field, err := models.RequireFields(raw, requiredFields...); err != nil {
		c.JSON(http.StatusOK, models.SubmitResult{Success: false, Message: msgMissingField + field})
		return
	}
	var form models.ContactForm
	if err := json.Unmarshal(body, &form); err != nil {
		writeError(c, http.StatusBadRequest, msgInvalidJSON)
		return
	}

	id, err := h.store.InsertMessage(c.Request.Context(), Message{
		Name:    form.Name,
		Email:   form.Email,
		Phone:   form.Phone,
		Company: form.Company,
		Subject: form.Subject,
		Message: form.Message,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	h.logger.Info("contact message stored", zap.String("id", id), zap.String("email", form.Email))
	c.JSON(http.StatusCreated, models.SubmitResult{Success: true, Message: msgSubmitted, ID: id})
}

func (h *handler) messages(c *gin.Context) {
	out, err := h.store.Messages(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handler) message(c *gin.Context) {
	m, err := h.store.Message(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		writeError(c, http.StatusNotFound, "Mensagem não encontrada")
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, m)
}

func (h *handler) fail(c *gin.Context, err error) {
	h.logger.Error("devapi request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	writeError(c, http.StatusInternalServerError, "internal error")
}

func writeError(c *gin.Context, status int, msg string) {
	body := gin.H{"error": msg}
	if id := c.GetString(requestid.HeaderKey); id != "" {
		body["request_id"] = id
	}
	c.AbortWithStatusJSON(status, body)
}

package models

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/mibitech/mibitech-site/pkg/datafetch"
	"go.uber.org/zap"
)

const SubmitContactEndpoint = "/api/submit-contact/"

// User-facing copy.
const (
	msgNameRequired    = "Nome é obrigatório"
	msgEmailRequired   = "E-mail é obrigatório"
	msgEmailInvalid    = "E-mail inválido"
	msgSubjectRequired = "Assunto é obrigatório"
	msgMessageRequired = "Mensagem é obrigatória"
	msgPrivacyRequired = "Você deve concordar com a política de privacidade"

	MsgSubmitFailed = "Ocorreu um erro ao enviar sua mensagem. Por favor, tente novamente."
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// ContactForm is what the contact page collects.
type ContactForm struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Company string `json:"company"`
	Subject string `json:"subject"`
	Message string `json:"message"`
	Privacy bool   `json:"privacy"`
}

// FormErrors maps a field name to its message.
type FormErrors map[string]string

func IsValidEmail(s string) bool { return emailRe.MatchString(s) }

// Validate returns nil when the form can be submitted.
func (f ContactForm) Validate() FormErrors {
	errs := FormErrors{}
	if strings.TrimSpace(f.Name) == "" {
		errs["name"] = msgNameRequired
	}
	switch {
	case strings.TrimSpace(f.Email) == "":
		errs["email"] = msgEmailRequired
	case !IsValidEmail(f.Email):
		errs["email"] = msgEmailInvalid
	}
	if strings.TrimSpace(f.Subject) == "" {
		errs["subject"] = msgSubjectRequired
	}
	if strings.TrimSpace(f.Message) == "" {
		errs["message"] = msgMessageRequired
	}
	if !f.Privacy {
		errs["privacy"] = msgPrivacyRequired
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

type SubmitResult struct {
	Success bool       `json:"success"`
	Message string     `json:"message,omitempty"`
	ID      string     `json:"id,omitempty"`
	Errors  FormErrors `json:"errors,omitempty"`
}

type SubmitStatus string

const (
	SubmitNone    SubmitStatus = ""
	SubmitSuccess SubmitStatus = "success"
	SubmitError   SubmitStatus = "error"
)

// ContactService validates and posts the contact form.
type ContactService struct {
	fetcher *datafetch.Fetcher
	logger  *zap.Logger

	mu     sync.Mutex
	status SubmitStatus
}

func NewContactService(f *datafetch.Fetcher, logger *zap.Logger) *ContactService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{fetcher: f, logger: logger}
}

// Submit never returns a transport error: failures become a result with
// Success false and the generic message.
func (s *ContactService) Submit(ctx context.Context, form ContactForm) SubmitResult {
	if errs := form.Validate(); errs != nil {
		s.setStatus(SubmitError)
		return SubmitResult{Success: false, Errors: errs}
	}
	raw, err := s.fetcher.PostData(ctx, SubmitContactEndpoint, form)
	if err != nil {
		s.setStatus(SubmitError)
		s.logger.Warn("contact submit failed", zap.Error(err))
		return SubmitResult{Success: false, Message: MsgSubmitFailed}
	}
	var res SubmitResult
	if err := json.Unmarshal(raw, &res); err != nil {
		s.setStatus(SubmitError)
		return SubmitResult{Success: false, Message: MsgSubmitFailed}
	}
	if res.Success {
		s.setStatus(SubmitSuccess)
	} else {
		s.setStatus(SubmitError)
	}
	return res
}

func (s *ContactService) setStatus(st SubmitStatus) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

func (s *ContactService) Status() SubmitStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *ContactService) Reset() { s.setStatus(SubmitNone) }

// ErrMissingField is returned by RequireFields.
var ErrMissingField = errors.New("missing required field")

// RequireFields checks the fields the submit endpoint insists on, in order.
// It returns the first missing field name.
func RequireFields(body map[string]any, fields ...string) (string, error) {
	for _, f := range fields {
		v, ok := body[f]
		if !ok || v == nil {
			return f, ErrMissingField
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			return f, ErrMissingField
		}
	}
	return "", nil
}

// Package client talks to the family tree store over its REST contract. Every
// request carries the session's bearer token, and a 401 or 402 answer sends
// the user to the sign-in or upgrade page before the error is returned.
package client

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"familytree/domain"

	"github.com/asaskevich/govalidator"
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

const (
	LoginPath   = "/login"
	UpgradePath = "/upgrade"
)

// Navigator moves the user to another page of the application.
type Navigator interface {
	Redirect(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Redirect(path string) { f(path) }

type Client struct {
	baseURL string
	http    *fiber.Client
	session *Session
	nav     Navigator
	log     logrus.FieldLogger
}

func New(baseURL string, session *Session, nav Navigator, log logrus.FieldLogger) *Client {
	if session == nil {
		session = NewSession(nil)
	}
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &fiber.Client{
			JSONEncoder: sonic.Marshal,
			JSONDecoder: sonic.Unmarshal,
		},
		session: session,
		nav:     nav,
		log:     log,
	}
}

func (c *Client) Session() *Session {
	return c.session
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

type envelope[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Data    T      `json:"data"`
}

// send dispatches a prepared agent and decodes the envelope's data into T.
// The agent is always released.
func send[T any](ctx context.Context, c *Client, a *fiber.Agent, fallback string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		fiber.ReleaseAgent(a)
		return zero, err
	}

	if token := c.session.Token(); token != "" {
		a.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	a.Set(fiber.HeaderAccept, fiber.MIMEApplicationJSON)

	if err := a.Parse(); err != nil {
		fiber.ReleaseAgent(a)
		return zero, fmt.Errorf("%s: %w", fallback, err)
	}

	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		c.log.WithError(errors.Join(errs...)).Warn(fallback)
		return zero, fmt.Errorf("%s: %w", fallback, errors.Join(errs...))
	}

	switch code {
	case fiber.StatusUnauthorized:
		c.log.WithField("status", code).Info("redirecting to sign-in")
		c.nav.Redirect(LoginPath)
		return zero, ErrUnauthorized
	case fiber.StatusPaymentRequired:
		c.log.WithField("status", code).Info("redirecting to upgrade")
		c.nav.Redirect(UpgradePath)
		return zero, ErrPaymentRequired
	}

	var env envelope[T]
	decodeErr := sonic.Unmarshal(body, &env)

	if code < 200 || code >= 300 || (decodeErr == nil && !env.Success) {
		apiErr := &APIError{Status: code, Fallback: fallback}
		if decodeErr == nil {
			apiErr.Message = env.Message
			apiErr.Detail = env.Error
		}
		c.log.WithFields(logrus.Fields{"status": code, "detail": apiErr.Detail}).Warn(apiErr.Error())
		return zero, apiErr
	}
	if decodeErr != nil {
		return zero, fmt.Errorf("%s: %w", fallback, decodeErr)
	}
	return env.Data, nil
}

func validate(form interface{}) error {
	if _, err := govalidator.ValidateStruct(form); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// multipartAgent fills a with the non-empty fields and the optional photo.
func multipartAgent(a *fiber.Agent, fields [][2]string, photo *domain.PhotoFile) *fiber.Agent {
	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	for _, f := range fields {
		if f[1] != "" {
			args.Set(f[0], f[1])
		}
	}
	if photo != nil && len(photo.Content) > 0 {
		a.FileData(&fiber.FormFile{
			Fieldname: "photo",
			Name:      photo.Name,
			Content:   photo.Content,
		})
	}
	return a.MultipartForm(args)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

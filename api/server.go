// Package api exposes the reconciliation trigger surface over HTTP. The cron
// endpoints take no body and return the pass summary; authorization for them
// is expected to happen upstream (network policy or gateway), matching the
// original deployment.
package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/roydeenn-boop/invite-usdt-api/reconcile"
)

type Server struct {
	app       *fiber.App
	scheduler *reconcile.Scheduler
	logger    *slog.Logger
}

func NewServer(scheduler *reconcile.Scheduler, logger *slog.Logger) *Server {
	s := &Server{
		app: fiber.New(fiber.Config{
			DisableStartupMessage: true,
		}),
		scheduler: scheduler,
		logger:    logger,
	}

	s.app.Get("/health", s.health)
	s.app.Post("/cron/verify-deposits", s.verifyDeposits)
	s.app.Post("/cron/process-withdrawals", s.processWithdrawals)

	return s
}

// Listen blocks serving HTTP until Shutdown is called.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

func (s *Server) verifyDeposits(c *fiber.Ctx) error {
	summary, err := s.scheduler.Trigger(c.Context(), reconcile.JobVerifyDeposits)
	if err != nil {
		return s.passError(c, reconcile.JobVerifyDeposits, err)
	}
	return c.JSON(fiber.Map{
		"ok":         true,
		"checked":    summary.Checked,
		"confirmed":  summary.Confirmed,
		"mismatched": summary.Mismatched,
	})
}

func (s *Server) processWithdrawals(c *fiber.Ctx) error {
	summary, err := s.scheduler.Trigger(c.Context(), reconcile.JobProcessWithdrawals)
	if err != nil {
		return s.passError(c, reconcile.JobProcessWithdrawals, err)
	}
	return c.JSON(fiber.Map{
		"ok":       true,
		"checked":  summary.Checked,
		"settled":  summary.Settled,
		"rejected": summary.Rejected,
	})
}

func (s *Server) passError(c *fiber.Ctx, job string, err error) error {
	if errors.Is(err, reconcile.ErrPassInProgress) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"ok":    false,
			"error": err.Error(),
		})
	}
	s.logger.Error("triggered pass failed", "job", job, "error", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"ok":    false,
		"error": err.Error(),
	})
}

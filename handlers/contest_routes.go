// handlers/contest_routes.go
package handlers

import (
	"context"
	"errors"
	"strconv"

	"holder-contest-system/middleware"
	"holder-contest-system/services"
	"holder-contest-system/workers"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 100
	winnersCount            = 3
)

// SweepRunner runs one enforcement cycle on demand.
type SweepRunner interface {
	RunCycle(ctx context.Context) (workers.CycleReport, error)
}

// ContestAPI bundles what the contest routes need.
type ContestAPI struct {
	Participants *services.ParticipantService
	Checker      *services.EligibilityChecker
	Contest      *services.ContestClock
	Ranking      *services.RankingEngine
	Sweep        SweepRunner

	Mint        string
	MinUSD      float64
	DefaultDays int
	IsAdmin     func(int64) bool
	Logger      *zap.Logger
}

func SetupContestRoutes(app *fiber.App, api *ContestAPI, serviceToken string) {
	log := api.Logger.With(zap.String("component", "http"))

	// 🔐 every contest route comes through the gateway with a caller id
	secured := app.Group("/",
		middleware.GatewayAuthMiddleware(serviceToken, log),
		middleware.UserContextMiddleware(log),
		registerCaller(api.Participants),
	)

	secured.Post("/start", func(c *fiber.Ctx) error {
		p := c.Locals(localParticipant).(participantView)
		st, err := api.Contest.Status(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"participant": p,
			"contest":     statusView(st),
			"token_mint":  api.Mint,
			"min_usd":     api.MinUSD,
		})
	})

	secured.Get("/status", func(c *fiber.Ctx) error {
		st, err := api.Contest.Status(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(statusView(st))
	})

	secured.Post("/verify", func(c *fiber.Ctx) error {
		var req struct {
			Wallet string `json:"wallet"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid JSON",
				"cause": err.Error(),
			})
		}
		id, _ := middleware.UserID(c)
		v, err := api.Checker.Verify(c.UserContext(), id, req.Wallet)
		if err != nil {
			return writeError(c, err)
		}
		outcome := "eligible"
		if v.Err() != nil {
			outcome = "below_threshold"
		}
		return c.JSON(fiber.Map{
			"outcome":    outcome,
			"eligible":   v.Eligible,
			"wallet":     v.Wallet,
			"balance":    services.FormatUnits(v.Balance, v.Threshold.Decimals).String(),
			"min_tokens": v.Threshold.MinTokens().String(),
			"price_usd":  v.Threshold.PriceUSD.String(),
			"min_usd":    v.Threshold.MinUSD.String(),
		})
	})

	secured.Post("/join", func(c *fiber.Ctx) error {
		id, _ := middleware.UserID(c)
		res, err := api.Participants.Join(c.UserContext(), id)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{
			"joined":       true,
			"newly_joined": res.NewlyJoined,
			"joined_at":    res.Participant.JoinedAt,
		})
	})

	secured.Get("/leaderboard", func(c *fiber.Ctx) error {
		limit, err := strconv.Atoi(c.Query("limit", strconv.Itoa(defaultLeaderboardLimit)))
		if err != nil || limit <= 0 {
			limit = defaultLeaderboardLimit
		}
		if limit > maxLeaderboardLimit {
			limit = maxLeaderboardLimit
		}
		top, err := api.Ranking.Top(c.UserContext(), limit)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"entries": top})
	})

	secured.Get("/myrank", func(c *fiber.Ctx) error {
		id, _ := middleware.UserID(c)
		s, err := api.Ranking.Rank(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, services.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not ranked, join the contest first"})
			}
			return writeError(c, err)
		}
		return c.JSON(s)
	})

	secured.Get("/winners", func(c *fiber.Ctx) error {
		top, err := api.Ranking.Top(c.UserContext(), winnersCount)
		if err != nil {
			return writeError(c, err)
		}
		st, err := api.Contest.Status(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"state": st.State, "winners": top})
	})

	// 👑 admin endpoints
	admin := secured.Group("/admin", middleware.AdminOnly(api.IsAdmin, log))

	admin.Post("/contest", func(c *fiber.Ctx) error {
		var req struct {
			Days int `json:"days"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid JSON",
					"cause": err.Error(),
				})
			}
		}
		if req.Days == 0 {
			req.Days = api.DefaultDays
		}
		w, err := api.Contest.Start(c.UserContext(), req.Days)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"message": "contest started", "days": req.Days, "window": w})
	})

	admin.Post("/contest/end", func(c *fiber.Ctx) error {
		w, err := api.Contest.End(c.UserContext())
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(fiber.Map{"message": "contest ended", "window": w})
	})

	adjust := func(remove bool) fiber.Handler {
		return func(c *fiber.Ctx) error {
			var req struct {
				Handle string `json:"handle"`
				Delta  int64  `json:"delta"`
			}
			if err := c.BodyParser(&req); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "invalid JSON",
					"cause": err.Error(),
				})
			}
			if req.Delta == 0 {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "delta must be non-zero"})
			}
			fn := api.Participants.AddPointsByHandle
			if remove {
				fn = api.Participants.RemovePointsByHandle
			}
			p, total, err := fn(c.UserContext(), req.Handle, req.Delta)
			if err != nil {
				return writeError(c, err)
			}
			return c.JSON(fiber.Map{
				"participant_id": p.ID,
				"handle":         p.Handle,
				"points":         total,
			})
		}
	}
	admin.Post("/points", adjust(false))
	admin.Post("/points/remove", adjust(true))

	admin.Post("/sweep", func(c *fiber.Ctx) error {
		report, err := api.Sweep.RunCycle(c.UserContext())
		if err != nil {
			log.Error("manual sweep failed", zap.Error(err))
			return writeError(c, err)
		}
		return c.JSON(report)
	})
}

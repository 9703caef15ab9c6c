// handlers/views.go
package handlers

import (
	"time"

	"holder-contest-system/middleware"
	"holder-contest-system/models"
	"holder-contest-system/services"

	"github.com/gofiber/fiber/v2"
)

const localParticipant = "participant"

type participantView struct {
	ID       int64      `json:"id"`
	Handle   string     `json:"handle"`
	Wallet   *string    `json:"wallet,omitempty"`
	Eligible bool       `json:"eligible"`
	JoinedAt *time.Time `json:"joined_at,omitempty"`
}

// registerCaller upserts the caller on every request so the last seen handle wins.
func registerCaller(participants *services.ParticipantService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, _ := middleware.UserID(c)
		p, err := participants.Register(c.UserContext(), id, middleware.UserHandle(c))
		if err != nil {
			return writeError(c, err)
		}
		c.Locals(localParticipant, participantView{
			ID:       p.ID,
			Handle:   p.Handle,
			Wallet:   p.Wallet,
			Eligible: p.Eligible,
			JoinedAt: p.JoinedAt,
		})
		return c.Next()
	}
}

func statusView(st services.ContestStatus) fiber.Map {
	out := fiber.Map{
		"state":    st.State,
		"active":   st.Window.Active,
		"start_at": st.Window.StartAt,
		"end_at":   st.Window.EndAt,
		"now":      st.Now,
	}
	if st.State == models.ContestLive {
		out["remaining_seconds"] = int64(st.Remaining / time.Second)
	}
	return out
}

package handlers

import (
	"agora/internal/services"

	"github.com/gin-gonic/gin"
)

type VoteHandler struct {
	votes *services.VoteService
}

func NewVoteHandler(votes *services.VoteService) *VoteHandler {
	return &VoteHandler{votes: votes}
}

type voteRequest struct {
	Direction string `json:"direction"`
}

// Vote handles POST /api/vote/:type/:id. Repeating the held direction
// retracts the vote.
func (h *VoteHandler) Vote(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req voteRequest
	if !bindJSON(c, &req) {
		return
	}

	res, err := h.votes.CastVote(c.Request.Context(), services.CastVoteInput{
		ActorID:     currentUser(c),
		ContentType: c.Param("type"),
		ContentID:   id,
		Direction:   req.Direction,
	})
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, res)
}

package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/icook/tiny-ballot/ballot"
	"github.com/icook/tiny-ballot/db"
	"github.com/icook/tiny-ballot/identity"
	"github.com/icook/tiny-ballot/metrics"
	"github.com/icook/tiny-ballot/service"
)

// unparsedOption stands in for input that is not a valid option at all.
const unparsedOption ballot.Option = 0xff

func registerRoutes(r gin.IRouter, s *Server, withMetrics bool) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})
	if withMetrics {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}

	ledgers := r.Group("/ledgers")
	ledgers.POST("", s.createLedger)
	ledgers.GET("", s.listLedgers)
	ledgers.POST("/:id/votes", s.castVote)
	ledgers.GET("/:id/results", s.results)
	ledgers.GET("/:id/status", s.status)
	ledgers.GET("/:id/voters/:participant", s.voter)
}

type createLedgerRequest struct {
	Deadline *uint64 `json:"deadline"`
}

type ledgerResponse struct {
	ID       uuid.UUID `json:"id"`
	Deadline uint64    `json:"deadline"`
}

// voteRequest takes the option as "yes"/"no" or as 1/0.
type voteRequest struct {
	Option json.RawMessage `json:"option"`
}

type voterResponse struct {
	Voted  bool           `json:"voted"`
	Option *ballot.Option `json:"option,omitempty"`
}

func (s *Server) createLedger(c *gin.Context) {
	var req createLedgerRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Deadline == nil {
		abort(c, http.StatusBadRequest, "bad_request")
		return
	}
	id, err := s.registry.Create(*req.Deadline)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, ledgerResponse{ID: id, Deadline: *req.Deadline})
}

func (s *Server) listLedgers(c *gin.Context) {
	recs, err := s.registry.List()
	if err != nil {
		s.fail(c, err)
		return
	}
	out := make([]ledgerResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, ledgerResponse{ID: rec.ID, Deadline: rec.Deadline})
	}
	c.JSON(http.StatusOK, gin.H{"ledgers": out})
}

func (s *Server) castVote(c *gin.Context) {
	id, ok := ledgerID(c)
	if !ok {
		return
	}
	caller, err := s.identity.CurrentCaller(c.Request)
	if err != nil {
		abort(c, http.StatusUnauthorized, "no_caller")
		return
	}
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Option) == 0 {
		abort(c, http.StatusBadRequest, "bad_request")
		return
	}
	option, err := parseOption(req.Option)
	if err != nil {
		// the ledger still decides, so a closed ledger reports closure first
		option = unparsedOption
	}
	if err := s.registry.CastVote(id, caller, option); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"participant": caller, "option": option})
}

func (s *Server) results(c *gin.Context) {
	id, ok := ledgerID(c)
	if !ok {
		return
	}
	tally, err := s.registry.Results(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, tally)
}

func (s *Server) status(c *gin.Context) {
	id, ok := ledgerID(c)
	if !ok {
		return
	}
	status, err := s.registry.IsClosed(id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) voter(c *gin.Context) {
	id, ok := ledgerID(c)
	if !ok {
		return
	}
	participant, err := identity.ParseParticipantID(c.Param("participant"))
	if err != nil {
		abort(c, http.StatusBadRequest, "bad_participant")
		return
	}
	option, found, err := s.registry.VoterOption(id, participant)
	if err != nil {
		s.fail(c, err)
		return
	}
	resp := voterResponse{Voted: found}
	if found {
		resp.Option = &option
	}
	c.JSON(http.StatusOK, resp)
}

func ledgerID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		abort(c, http.StatusBadRequest, "bad_ledger_id")
		return uuid.UUID{}, false
	}
	return id, true
}

// parseOption accepts a JSON string ("yes", "no", "1", "0") or number (1, 0).
func parseOption(raw json.RawMessage) (ballot.Option, error) {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return ballot.ParseOption(text)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, errors.Wrap(ballot.ErrInvalidOption, string(raw))
	}
	v, err := strconv.ParseUint(n.String(), 10, 8)
	if err != nil {
		return 0, errors.Wrap(ballot.ErrInvalidOption, n.String())
	}
	return ballot.Option(v), nil
}

func (s *Server) fail(c *gin.Context, err error) {
	switch errors.Cause(err) {
	case ballot.ErrVotingClosed, ballot.ErrDuplicateVote:
		abort(c, http.StatusConflict, service.Reason(err))
	case ballot.ErrInvalidOption:
		abort(c, http.StatusBadRequest, service.Reason(err))
	case db.ErrLedgerNotFound:
		abort(c, http.StatusNotFound, service.Reason(err))
	default:
		abort(c, http.StatusInternalServerError, "internal")
	}
}

func abort(c *gin.Context, status int, code string) {
	c.AbortWithStatusJSON(status, gin.H{"error": code})
}

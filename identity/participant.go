package identity

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DefaultHeader is where a trusted front proxy places the authenticated
// caller's id.
const DefaultHeader = "X-Participant-ID"

var ErrNoCaller = errors.New("no caller identity")

// ParticipantID identifies a voter. Values are issued by the host, never by
// the voter, so holding one is proof of being that participant.
type ParticipantID uuid.UUID

func NewParticipantID() ParticipantID {
	return ParticipantID(uuid.New())
}

func ParseParticipantID(s string) (ParticipantID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ParticipantID{}, errors.Wrapf(err, "parse participant id %q", s)
	}
	return ParticipantID(id), nil
}

func (p ParticipantID) String() string {
	return uuid.UUID(p).String()
}

func (p ParticipantID) MarshalText() ([]byte, error) {
	return uuid.UUID(p).MarshalText()
}

func (p *ParticipantID) UnmarshalText(text []byte) error {
	return (*uuid.UUID)(p).UnmarshalText(text)
}

// Source resolves the caller of the current operation.
type Source interface {
	CurrentCaller(r *http.Request) (ParticipantID, error)
}

// HeaderSource trusts a single request header. It must only be exposed behind
// a proxy that strips the header from client traffic and sets it itself.
type HeaderSource struct {
	Header string
}

func NewHeaderSource(header string) HeaderSource {
	if header == "" {
		header = DefaultHeader
	}
	return HeaderSource{Header: header}
}

func (h HeaderSource) CurrentCaller(r *http.Request) (ParticipantID, error) {
	raw := strings.TrimSpace(r.Header.Get(h.Header))
	if raw == "" {
		return ParticipantID{}, ErrNoCaller
	}
	id, err := ParseParticipantID(raw)
	if err != nil {
		return ParticipantID{}, errors.Wrap(ErrNoCaller, err.Error())
	}
	return id, nil
}

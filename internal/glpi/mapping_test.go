package glpi

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pomboexe/support-desk/internal/domain"
)

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, 4, StatusToGLPI(domain.TicketStatusResolved))
	assert.Equal(t, 2, StatusToGLPI(domain.TicketStatusOpen))
	assert.Equal(t, 2, StatusToGLPI(domain.TicketStatusEscalated), "escalated has no remote equivalent")

	assert.Equal(t, domain.TicketStatusResolved, StatusFromGLPI(4))
	assert.Equal(t, domain.TicketStatusResolved, StatusFromGLPI(5), "closed reads back as resolved")
	assert.Equal(t, domain.TicketStatusOpen, StatusFromGLPI(1))
	assert.Equal(t, domain.TicketStatusOpen, StatusFromGLPI(2))
}

func TestPriorityMapping(t *testing.T) {
	assert.Equal(t, 2, PriorityToGLPI(domain.TicketPriorityLow))
	assert.Equal(t, 3, PriorityToGLPI(domain.TicketPriorityMedium))
	assert.Equal(t, 4, PriorityToGLPI(domain.TicketPriorityHigh))

	assert.Equal(t, domain.TicketPriorityLow, PriorityFromGLPI(1))
	assert.Equal(t, domain.TicketPriorityLow, PriorityFromGLPI(2))
	assert.Equal(t, domain.TicketPriorityMedium, PriorityFromGLPI(3))
	assert.Equal(t, domain.TicketPriorityHigh, PriorityFromGLPI(4))
	assert.Equal(t, domain.TicketPriorityHigh, PriorityFromGLPI(5))
}

func TestPriorityRoundTrip(t *testing.T) {
	for _, p := range []domain.TicketPriority{
		domain.TicketPriorityLow,
		domain.TicketPriorityMedium,
		domain.TicketPriorityHigh,
	} {
		assert.Equal(t, p, PriorityFromGLPI(PriorityToGLPI(p)))
	}
}

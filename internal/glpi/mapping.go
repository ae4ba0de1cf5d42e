package glpi

import "github.com/pomboexe/support-desk/internal/domain"

// GLPI status codes: 1 new, 2 processing, 3 waiting, 4 solved, 5 closed.
// GLPI priorities: 1 very low .. 5 very high.
const (
	statusGLPINew        = 1
	statusGLPIProcessing = 2
	statusGLPISolved     = 4
	statusGLPIClosed     = 5

	typeIncident = 1
)

// StatusToGLPI maps a local ticket status onto the GLPI status code.
// Escalated tickets stay "processing" remotely; GLPI has no such state.
func StatusToGLPI(status domain.TicketStatus) int {
	switch status {
	case domain.TicketStatusResolved:
		return statusGLPISolved
	case domain.TicketStatusOpen, domain.TicketStatusEscalated:
		return statusGLPIProcessing
	default:
		return statusGLPINew
	}
}

// StatusFromGLPI maps a GLPI status code back to a local status. Anything
// at or past solved is treated as resolved, everything else as open.
func StatusFromGLPI(status int) domain.TicketStatus {
	if status >= statusGLPISolved {
		return domain.TicketStatusResolved
	}
	return domain.TicketStatusOpen
}

// PriorityToGLPI maps a local priority onto the 1..5 GLPI scale.
func PriorityToGLPI(priority domain.TicketPriority) int {
	switch priority {
	case domain.TicketPriorityLow:
		return 2
	case domain.TicketPriorityHigh:
		return 4
	default:
		return 3
	}
}

// PriorityFromGLPI collapses the 1..5 GLPI scale onto low/medium/high.
func PriorityFromGLPI(priority int) domain.TicketPriority {
	switch {
	case priority <= 2:
		return domain.TicketPriorityLow
	case priority >= 4:
		return domain.TicketPriorityHigh
	default:
		return domain.TicketPriorityMedium
	}
}

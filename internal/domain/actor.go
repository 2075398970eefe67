package domain

// ActorKind differentiates the parties that can act on a ticket.
type ActorKind string

const (
	ActorKindUser             ActorKind = "user"
	ActorKindTechnician       ActorKind = "technician"
	ActorKindAdminHelpdesk    ActorKind = "admin_helpdesk"
	ActorKindAdminApplication ActorKind = "admin_application"
	ActorKindSystem           ActorKind = "system"
)

// Valid reports whether k is one of the known actor kinds.
func (k ActorKind) Valid() bool {
	switch k {
	case ActorKindUser, ActorKindTechnician, ActorKindAdminHelpdesk, ActorKindAdminApplication, ActorKindSystem:
		return true
	}
	return false
}

// Actor identifies who performed an action. Display data is resolved by an
// external directory keyed by Kind and ID.
type Actor struct {
	Kind ActorKind `json:"kind"`
	ID   string    `json:"id,omitempty"`
}

// SystemActor is used by scheduled jobs.
func SystemActor() Actor {
	return Actor{Kind: ActorKindSystem}
}

// RequestContext carries the caller identity and request metadata recorded in
// audit entries.
type RequestContext struct {
	Actor     Actor
	IPAddress string
	UserAgent string
	RequestID string
}

// SystemRequest returns a RequestContext for background work.
func SystemRequest() RequestContext {
	return RequestContext{Actor: SystemActor()}
}

package ports

// Metrics records business outcomes. Implementations must be safe for
// concurrent use.
type Metrics interface {
	AuthAttempt(action, result string)
	InvitationTransition(action, result string)
	CourseMutation(action string)
	LessonMutation(action string)
}
